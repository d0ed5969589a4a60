// Package store persists finalized extraction runs so their terms can be
// reviewed and exported later.
package store

import (
	"context"
	"time"

	"github.com/cognicore/termex/pkg/termex/term"
)

// Store is the persistence interface for extraction runs.
type Store interface {
	Close() error

	// SaveRun inserts or replaces a run together with all of its terms.
	SaveRun(ctx context.Context, r Run) error
	// GetRun returns a run with terms in discovery order. Missing runs
	// return internalerr.ErrNotFound.
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns run summaries, newest first.
	ListRuns(ctx context.Context) ([]Summary, error)
	// SetSelected updates the review flag of one term of a run.
	SetSelected(ctx context.Context, id, term string, selected bool) error
	DeleteRun(ctx context.Context, id string) error
}

// Run is a persisted extraction result.
type Run struct {
	ID           string
	Source       string
	CreatedAt    time.Time
	MaxChunkSize int
	MinFrequency int
	Chunks       int
	Terms        []*term.Record
}

// Summary describes a run without its terms.
type Summary struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
	MaxChunkSize int       `json:"max_chunk_size"`
	MinFrequency int       `json:"min_frequency"`
	Chunks       int       `json:"chunks"`
	Terms        int       `json:"terms"`
	Selected     int       `json:"selected"`
}

// Summarize builds the summary of r.
func (r Run) Summarize() Summary {
	s := Summary{
		ID:           r.ID,
		Source:       r.Source,
		CreatedAt:    r.CreatedAt,
		MaxChunkSize: r.MaxChunkSize,
		MinFrequency: r.MinFrequency,
		Chunks:       r.Chunks,
		Terms:        len(r.Terms),
	}
	for _, rec := range r.Terms {
		if rec.Selected {
			s.Selected++
		}
	}
	return s
}

// Lookup returns the record for a normalized term.
func (r Run) Lookup(normalized string) (*term.Record, bool) {
	for _, rec := range r.Terms {
		if rec.Term == normalized {
			return rec, true
		}
	}
	return nil, false
}
