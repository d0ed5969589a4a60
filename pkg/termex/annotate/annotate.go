// Package annotate defines the boundary to part-of-speech taggers. The
// extraction pipeline only consumes AnnotatedChunk values; any tagger that
// can emit universal POS tags and sentence boundaries can sit behind the
// Annotator interface.
package annotate

import (
	"context"
	"strings"

	"github.com/cognicore/termex/pkg/termex/chunk"
)

// Tag is a universal part-of-speech tag.
type Tag string

// Universal POS tags.
const (
	ADJ   Tag = "ADJ"
	ADP   Tag = "ADP"
	ADV   Tag = "ADV"
	AUX   Tag = "AUX"
	CCONJ Tag = "CCONJ"
	DET   Tag = "DET"
	INTJ  Tag = "INTJ"
	NOUN  Tag = "NOUN"
	NUM   Tag = "NUM"
	PART  Tag = "PART"
	PRON  Tag = "PRON"
	PROPN Tag = "PROPN"
	PUNCT Tag = "PUNCT"
	SCONJ Tag = "SCONJ"
	SYM   Tag = "SYM"
	VERB  Tag = "VERB"
	X     Tag = "X"
)

// ParseTag maps a tag name to a Tag, case-insensitively.
func ParseTag(s string) (Tag, bool) {
	switch t := Tag(strings.ToUpper(strings.TrimSpace(s))); t {
	case ADJ, ADP, ADV, AUX, CCONJ, DET, INTJ, NOUN, NUM, PART, PRON, PROPN, PUNCT, SCONJ, SYM, VERB, X:
		return t, true
	}
	return "", false
}

// Token is one annotated token.
type Token struct {
	Text     string
	Tag      Tag
	Sentence int // index into AnnotatedChunk.Sentences, -1 when unknown
	Start    int // byte offset into the chunk text, -1 when unaligned
	End      int
}

// Aligned reports whether the token carries usable byte offsets.
func (t Token) Aligned() bool {
	return t.Start >= 0 && t.End >= t.Start
}

// Sentence is a sentence of the chunk text.
type Sentence struct {
	Text  string
	Start int
	End   int
}

// AnnotatedChunk is a chunk with its tokens and sentences.
type AnnotatedChunk struct {
	Chunk     chunk.Chunk
	Tokens    []Token
	Sentences []Sentence
}

// Annotator tags one chunk.
type Annotator interface {
	Annotate(ctx context.Context, c chunk.Chunk) (AnnotatedChunk, error)
}

// Func adapts a function to the Annotator interface.
type Func func(ctx context.Context, c chunk.Chunk) (AnnotatedChunk, error)

// Annotate calls f.
func (f Func) Annotate(ctx context.Context, c chunk.Chunk) (AnnotatedChunk, error) {
	return f(ctx, c)
}
