// Package rank provides the sorted, threshold-filtered projection of a
// finalized term set used for display.
package rank

import (
	"sort"
	"strings"

	"github.com/cognicore/termex/pkg/termex/term"
)

// Direction is the frequency sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// ParseDirection maps "asc"/"desc" (and their long forms) to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	}
	return Ascending, false
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// View sorts records by frequency. Records with equal frequency keep their
// discovery order in both directions. The view never modifies records.
type View struct {
	records   []*term.Record
	direction Direction
}

// NewView wraps records given in discovery order.
func NewView(records []*term.Record, dir Direction) *View {
	return &View{records: records, direction: dir}
}

// Direction returns the current sort direction.
func (v *View) Direction() Direction {
	return v.direction
}

// Toggle flips the sort direction and returns the new one.
func (v *View) Toggle() Direction {
	if v.direction == Ascending {
		v.direction = Descending
	} else {
		v.direction = Ascending
	}
	return v.direction
}

// Sorted returns the records ordered by frequency in the current direction.
func (v *View) Sorted() []*term.Record {
	return v.AtLeast(1)
}

// AtLeast returns the sorted records whose frequency is at least minFreq.
func (v *View) AtLeast(minFreq int) []*term.Record {
	out := make([]*term.Record, 0, len(v.records))
	for _, rec := range v.records {
		if rec.Frequency >= minFreq {
			out = append(out, rec)
		}
	}

	desc := v.direction == Descending
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Frequency < out[j].Frequency
	})
	return out
}

// Top returns at most n records from Sorted. n <= 0 returns all of them.
func (v *View) Top(n int) []*term.Record {
	sorted := v.Sorted()
	if n > 0 && n < len(sorted) {
		return sorted[:n]
	}
	return sorted
}
