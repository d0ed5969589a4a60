// Package lexicon is a deterministic, dictionary-driven annotator. It
// tokenizes on letter/digit runs, splits sentences on terminal punctuation
// and blank lines, and tags tokens from a YAML lexicon plus a few
// capitalization rules.
package lexicon

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/chunk"
)

// Annotator tags chunks using a Lexicon.
type Annotator struct {
	lex *Lexicon
}

// NewAnnotator creates an annotator. A nil lexicon uses New().
func NewAnnotator(lex *Lexicon) *Annotator {
	if lex == nil {
		lex = New()
	}
	return &Annotator{lex: lex}
}

// Annotate implements annotate.Annotator.
func (a *Annotator) Annotate(ctx context.Context, c chunk.Chunk) (annotate.AnnotatedChunk, error) {
	if err := ctx.Err(); err != nil {
		return annotate.AnnotatedChunk{}, err
	}
	if !utf8.ValidString(c.Text) {
		return annotate.AnnotatedChunk{}, fmt.Errorf("chunk %d: invalid UTF-8", c.Index)
	}

	raw := tokenize(c.Text)
	ac := annotate.AnnotatedChunk{
		Chunk:  c,
		Tokens: make([]annotate.Token, 0, len(raw)),
	}

	open := -1 // first token of the open sentence
	closing := false
	closeAt := func(last int) {
		start, end := raw[open].start, raw[last].end
		ac.Sentences = append(ac.Sentences, annotate.Sentence{
			Text:  c.Text[start:end],
			Start: start,
			End:   end,
		})
		open = -1
		closing = false
	}

	for i, rt := range raw {
		if open >= 0 && blankLine(c.Text[raw[i-1].end:rt.start]) {
			closeAt(i - 1)
		}
		if open < 0 {
			open = i
		}

		ac.Tokens = append(ac.Tokens, annotate.Token{
			Text:     rt.text,
			Tag:      a.tag(rt, i == open),
			Sentence: len(ac.Sentences),
			Start:    rt.start,
			End:      rt.end,
		})

		if isTerminal(rt.text) {
			closing = true
		}
		if closing && !terminalContinues(raw, i) {
			closeAt(i)
		}
	}
	if open >= 0 {
		closeAt(len(raw) - 1)
	}

	return ac, nil
}

func (a *Annotator) tag(rt rawToken, initial bool) annotate.Tag {
	if !rt.word {
		r, _ := utf8.DecodeRuneInString(rt.text)
		if unicode.IsSymbol(r) {
			return annotate.SYM
		}
		return annotate.PUNCT
	}
	if isNumeric(rt.text) {
		return annotate.NUM
	}
	if tag, ok := a.lex.Known(rt.text); ok {
		return tag
	}
	if !initial && startsUpper(rt.text) {
		return annotate.PROPN
	}
	if tag, ok := a.lex.Suffix(rt.text); ok {
		return tag
	}
	return a.lex.Default()
}

type rawToken struct {
	text       string
	start, end int
	word       bool
}

// tokenize splits text into word tokens (letters and digits, with inner
// hyphens, apostrophes and decimal separators) and single-rune punctuation
// tokens.
func tokenize(text string) []rawToken {
	var toks []rawToken
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case isWordRune(r):
			start := i
			prev := r
			i += size
			for i < len(text) {
				r, size := utf8.DecodeRuneInString(text[i:])
				if isWordRune(r) {
					prev = r
					i += size
					continue
				}
				if i+size < len(text) {
					next, _ := utf8.DecodeRuneInString(text[i+size:])
					if joins(prev, r, next) {
						prev = r
						i += size
						continue
					}
				}
				break
			}
			toks = append(toks, rawToken{text: text[start:i], start: start, end: i, word: true})
		default:
			toks = append(toks, rawToken{text: text[i : i+size], start: i, end: i + size})
			i += size
		}
	}
	return toks
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

func joins(prev, r, next rune) bool {
	switch r {
	case '-', '\'', '’':
		return isWordRune(prev) && isWordRune(next)
	case '.', ',':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return true
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func isTerminal(s string) bool {
	return s == "." || s == "!" || s == "?"
}

func isCloser(s string) bool {
	switch s {
	case `"`, "'", ")", "]", "”", "’", "»":
		return true
	}
	return false
}

// terminalContinues reports whether the sentence closed by raw[i] extends
// over directly attached punctuation such as "?!" or a closing quote.
func terminalContinues(raw []rawToken, i int) bool {
	if i+1 >= len(raw) {
		return false
	}
	next := raw[i+1]
	if next.start != raw[i].end {
		return false
	}
	return isTerminal(next.text) || isCloser(next.text)
}

func blankLine(gap string) bool {
	return strings.Count(gap, "\n") >= 2
}
