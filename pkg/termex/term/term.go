// Package term holds the value types shared by the matcher, the registry
// and everything that reads extraction results.
package term

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// MinLength is the shortest normalized term, in characters, that is kept.
const MinLength = 2

// Normalize case-folds s, trims it and collapses internal whitespace runs
// (including line breaks) to single spaces.
func Normalize(s string) string {
	// Casers carry state, so each call gets its own.
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Valid reports whether a normalized term is long enough to be recorded.
func Valid(normalized string) bool {
	return utf8.RuneCountInString(normalized) >= MinLength
}

// Span is one candidate term occurrence found by a pattern.
type Span struct {
	Text    string // surface text, original casing and spacing
	Context string // containing sentence, "" when unknown
	Pattern int    // index into the pattern table
	Chunk   int    // chunk index
	Start   int    // first token index within the chunk
	End     int    // one past the last token index
}

// Record aggregates every occurrence of one normalized term.
type Record struct {
	Term      string
	Frequency int
	Contexts  []string
	// Omitted counts occurrences whose context was dropped by a context cap.
	// Zero unless a cap is configured.
	Omitted  int
	Selected bool
}

// FirstContext returns the first recorded context or "".
func (r *Record) FirstContext() string {
	if len(r.Contexts) == 0 {
		return ""
	}
	return r.Contexts[0]
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Contexts = append([]string(nil), r.Contexts...)
	return &c
}
