// Package match finds candidate term spans in annotated chunks using a fixed
// table of part-of-speech patterns.
package match

import (
	"sort"
	"strings"

	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/term"
)

// Matcher applies the pattern table to annotated chunks.
type Matcher struct {
	patterns []Pattern
}

// New creates a matcher over the standard pattern table.
func New() *Matcher {
	return &Matcher{patterns: Patterns()}
}

// Match returns every span matched by any pattern, ordered by start token,
// then end token, then pattern position. Overlapping matches from different
// patterns are all kept. Spans whose normalized text is shorter than
// term.MinLength are dropped here.
//
// Each pattern yields at most one span per start token: the longest one.
func (m *Matcher) Match(ac annotate.AnnotatedChunk) []term.Span {
	var spans []term.Span
	for pi, p := range m.patterns {
		for start := range ac.Tokens {
			end := p.longest(ac.Tokens, start)
			if end <= start {
				continue
			}
			text := surface(ac, start, end)
			if !term.Valid(term.Normalize(text)) {
				continue
			}
			spans = append(spans, term.Span{
				Text:    text,
				Context: sentenceContext(ac, start, end),
				Pattern: pi,
				Chunk:   ac.Chunk.Index,
				Start:   start,
				End:     end,
			})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Pattern < b.Pattern
	})
	return spans
}

// surface returns the chunk text covered by tokens[start:end], keeping the
// original spacing when offsets are known.
func surface(ac annotate.AnnotatedChunk, start, end int) string {
	first, last := ac.Tokens[start], ac.Tokens[end-1]
	if first.Aligned() && last.Aligned() && last.End <= len(ac.Chunk.Text) && first.Start <= last.End {
		return ac.Chunk.Text[first.Start:last.End]
	}
	words := make([]string, 0, end-start)
	for _, tok := range ac.Tokens[start:end] {
		words = append(words, tok.Text)
	}
	return strings.Join(words, " ")
}

// sentenceContext returns the smallest run of sentences that contains the span, or
// "" when the tokens carry no sentence information.
func sentenceContext(ac annotate.AnnotatedChunk, start, end int) string {
	a, b := ac.Tokens[start].Sentence, ac.Tokens[end-1].Sentence
	if a < 0 || b < 0 || a >= len(ac.Sentences) || b >= len(ac.Sentences) {
		return ""
	}
	if a > b {
		a, b = b, a
	}
	if a == b {
		return strings.TrimSpace(ac.Sentences[a].Text)
	}

	first, last := ac.Sentences[a], ac.Sentences[b]
	if first.Start >= 0 && last.End <= len(ac.Chunk.Text) && first.Start <= last.End {
		return strings.TrimSpace(ac.Chunk.Text[first.Start:last.End])
	}
	parts := make([]string, 0, b-a+1)
	for _, s := range ac.Sentences[a : b+1] {
		parts = append(parts, strings.TrimSpace(s.Text))
	}
	return strings.Join(parts, " ")
}
