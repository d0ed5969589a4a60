// Package registry aggregates candidate spans into term records keyed by
// normalized text, preserving discovery order and every context sentence.
package registry

import "github.com/cognicore/termex/pkg/termex/term"

// Registry accumulates term records for one extraction run. It is not safe
// for concurrent mutation; a run folds spans into it from a single goroutine.
type Registry struct {
	records    map[string]*term.Record
	order      []*term.Record
	contextCap int
}

// Option configures a Registry.
type Option func(*Registry)

// WithContextCap keeps at most n contexts per term and counts the rest in
// Record.Omitted. n <= 0 keeps every context.
func WithContextCap(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.contextCap = n
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{records: make(map[string]*term.Record)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record folds one span into the registry. It reports false when the span's
// normalized text is too short to be a term.
func (r *Registry) Record(span term.Span) bool {
	key := term.Normalize(span.Text)
	if !term.Valid(key) {
		return false
	}

	rec, ok := r.records[key]
	if !ok {
		rec = &term.Record{Term: key, Selected: true}
		r.records[key] = rec
		r.order = append(r.order, rec)
	}

	rec.Frequency++
	if r.contextCap > 0 && len(rec.Contexts) >= r.contextCap {
		rec.Omitted++
		return true
	}
	rec.Contexts = append(rec.Contexts, span.Context)
	return true
}

// Len returns the number of distinct terms.
func (r *Registry) Len() int {
	return len(r.order)
}

// Lookup returns the record for a term, normalizing the query first.
func (r *Registry) Lookup(t string) (*term.Record, bool) {
	rec, ok := r.records[term.Normalize(t)]
	return rec, ok
}

// Finalize returns the records occurring at least minFrequency times, in
// discovery order. Values below 1 are treated as 1. The registry itself is
// left untouched; the returned records are shared with it so selection
// changes made by a reviewer are visible through both.
func (r *Registry) Finalize(minFrequency int) []*term.Record {
	if minFrequency < 1 {
		minFrequency = 1
	}
	out := make([]*term.Record, 0, len(r.order))
	for _, rec := range r.order {
		if rec.Frequency >= minFrequency {
			out = append(out, rec)
		}
	}
	return out
}
