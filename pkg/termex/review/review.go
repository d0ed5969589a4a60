// Package review holds the non-visual state of reviewing extracted terms:
// selection flags, per-term context navigation and display helpers.
package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/cognicore/termex/pkg/termex/term"
)

// DefaultPreview is the context preview length, in characters.
const DefaultPreview = 80

// Session reviews a set of records. It references the records rather than
// copying them, so selection changes are visible to exporters.
type Session struct {
	records []*term.Record
	index   map[string]*term.Record
	cursor  map[string]int
}

// New creates a session over records, given in discovery order.
func New(records []*term.Record) *Session {
	s := &Session{
		records: records,
		index:   make(map[string]*term.Record, len(records)),
		cursor:  make(map[string]int),
	}
	for _, rec := range records {
		s.index[rec.Term] = rec
	}
	return s
}

// Records returns the records under review.
func (s *Session) Records() []*term.Record {
	return s.records
}

// Lookup finds a record by its normalized term.
func (s *Session) Lookup(normalized string) (*term.Record, bool) {
	rec, ok := s.index[normalized]
	return rec, ok
}

// Toggle flips the selection of a term and returns the new flag. The second
// result is false when the term is unknown.
func (s *Session) Toggle(normalized string) (bool, bool) {
	rec, ok := s.index[normalized]
	if !ok {
		return false, false
	}
	rec.Selected = !rec.Selected
	return rec.Selected, true
}

// SetSelected sets the selection of a term. It reports whether the term exists.
func (s *Session) SetSelected(normalized string, selected bool) bool {
	rec, ok := s.index[normalized]
	if !ok {
		return false
	}
	rec.Selected = selected
	return true
}

// Selected returns the selected records in discovery order.
func (s *Session) Selected() []*term.Record {
	var out []*term.Record
	for _, rec := range s.records {
		if rec.Selected {
			out = append(out, rec)
		}
	}
	return out
}

// Position is the context cursor of one term.
type Position struct {
	Index   int
	Total   int
	Context string
}

func (p Position) String() string {
	if p.Total == 0 {
		return "Context 0/0"
	}
	return fmt.Sprintf("Context %d/%d", p.Index+1, p.Total)
}

// Current returns the context under the term's cursor.
func (s *Session) Current(normalized string) (Position, bool) {
	return s.move(normalized, 0)
}

// Next advances the term's cursor, wrapping to the first context.
func (s *Session) Next(normalized string) (Position, bool) {
	return s.move(normalized, 1)
}

// Prev moves the term's cursor back, wrapping to the last context.
func (s *Session) Prev(normalized string) (Position, bool) {
	return s.move(normalized, -1)
}

func (s *Session) move(normalized string, delta int) (Position, bool) {
	rec, ok := s.index[normalized]
	if !ok {
		return Position{}, false
	}
	n := len(rec.Contexts)
	if n == 0 {
		return Position{}, true
	}
	i := ((s.cursor[normalized]+delta)%n + n) % n
	s.cursor[normalized] = i
	return Position{Index: i, Total: n, Context: rec.Contexts[i]}, true
}

// Summary is the count line shown after extraction.
func (s *Session) Summary() string {
	return Summary(len(s.records))
}

// Summary formats the unique-term count line.
func Summary(n int) string {
	return fmt.Sprintf("(%d unique terms extracted)", n)
}

// Segment is a piece of a context; Match marks occurrences of the term.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits context around case-insensitive occurrences of text.
// Concatenating the segments yields context unchanged.
func Highlight(text, context string) []Segment {
	if text == "" || context == "" {
		if context == "" {
			return nil
		}
		return []Segment{{Text: context}}
	}

	folded, offsets := foldWithOffsets(context)
	needle := cases.Fold().String(text)

	var (
		out  []Segment
		last int
		pos  int
	)
	for {
		i := strings.Index(folded[pos:], needle)
		if i < 0 {
			break
		}
		fs := pos + i
		fe := fs + len(needle)
		start, end := offsets[fs], offsets[fe]
		if start < last || end <= start {
			pos = fe
			continue
		}
		if start > last {
			out = append(out, Segment{Text: context[last:start]})
		}
		out = append(out, Segment{Text: context[start:end], Match: true})
		last = end
		pos = fe
	}
	if last < len(context) {
		out = append(out, Segment{Text: context[last:]})
	}
	return out
}

// foldWithOffsets case-folds s rune by rune. offsets maps each byte of the
// folded string (and its end) to the byte offset of the source rune.
func foldWithOffsets(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s)+1)
	caser := cases.Fold()
	for i, r := range s {
		f := caser.String(string(r))
		b.WriteString(f)
		for n := len(f); n > 0; n-- {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}

// Preview returns the first n characters of context, with "..." appended
// when it was cut. n <= 0 means DefaultPreview.
func Preview(context string, n int) string {
	if n <= 0 {
		n = DefaultPreview
	}
	if utf8.RuneCountInString(context) <= n {
		return context
	}
	count := 0
	for i := range context {
		if count == n {
			return context[:i] + "..."
		}
		count++
	}
	return context
}
