package match

import (
	"strings"

	"github.com/cognicore/termex/pkg/termex/annotate"
)

// Op is a quantifier on a pattern element.
type Op int

const (
	One Op = iota
	ZeroOrMore
	OneOrMore
)

// Element matches a single token, either by tag or by lower-cased text.
type Element struct {
	Tag   annotate.Tag
	Lower string
	Op    Op
}

func (e Element) accepts(tok annotate.Token) bool {
	if e.Lower != "" {
		return strings.EqualFold(tok.Text, e.Lower)
	}
	return tok.Tag == e.Tag
}

// Pattern is a named sequence of elements.
type Pattern struct {
	Name     string
	Elements []Element
}

// Patterns returns the candidate term pattern table in evaluation order.
func Patterns() []Pattern {
	return []Pattern{
		{Name: "adj*-noun+", Elements: []Element{
			{Tag: annotate.ADJ, Op: ZeroOrMore},
			{Tag: annotate.NOUN, Op: OneOrMore},
		}},
		{Name: "noun-of-noun", Elements: []Element{
			{Tag: annotate.NOUN},
			{Lower: "of"},
			{Tag: annotate.NOUN},
		}},
		{Name: "noun-noun", Elements: []Element{
			{Tag: annotate.NOUN},
			{Tag: annotate.NOUN},
		}},
		{Name: "adj-noun-noun", Elements: []Element{
			{Tag: annotate.ADJ},
			{Tag: annotate.NOUN},
			{Tag: annotate.NOUN},
		}},
		{Name: "propn+", Elements: []Element{
			{Tag: annotate.PROPN, Op: OneOrMore},
		}},
	}
}

// longest returns the end of the longest match of p starting at tokens[start],
// or -1 when p does not match there.
func (p Pattern) longest(tokens []annotate.Token, start int) int {
	return matchFrom(p.Elements, tokens, start)
}

func matchFrom(elems []Element, tokens []annotate.Token, pos int) int {
	if len(elems) == 0 {
		return pos
	}
	e, rest := elems[0], elems[1:]

	remaining := len(tokens) - pos
	lo, hi := 1, min(1, remaining)
	switch e.Op {
	case ZeroOrMore:
		lo, hi = 0, remaining
	case OneOrMore:
		hi = remaining
	}

	n := 0
	for n < hi && e.accepts(tokens[pos+n]) {
		n++
	}

	best := -1
	for k := n; k >= lo; k-- {
		if end := matchFrom(rest, tokens, pos+k); end > best {
			best = end
		}
	}
	return best
}
