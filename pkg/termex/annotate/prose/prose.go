// Package prose annotates chunks with the statistical tagger from
// github.com/jdkato/prose. Penn Treebank tags are mapped to universal tags.
package prose

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	prosev2 "github.com/jdkato/prose/v2"

	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/chunk"
)

// Annotator segments and tags chunks with prose.
type Annotator struct{}

// New creates a prose-backed annotator.
func New() *Annotator {
	return &Annotator{}
}

// Annotate implements annotate.Annotator. The whole chunk is segmented and
// tagged by a single prose document.
func (a *Annotator) Annotate(ctx context.Context, c chunk.Chunk) (annotate.AnnotatedChunk, error) {
	if err := ctx.Err(); err != nil {
		return annotate.AnnotatedChunk{}, err
	}
	if !utf8.ValidString(c.Text) {
		return annotate.AnnotatedChunk{}, fmt.Errorf("chunk %d: invalid UTF-8", c.Index)
	}

	doc, err := prosev2.NewDocument(c.Text, prosev2.WithExtraction(false))
	if err != nil {
		return annotate.AnnotatedChunk{}, fmt.Errorf("chunk %d: tag: %w", c.Index, err)
	}
	if err := ctx.Err(); err != nil {
		return annotate.AnnotatedChunk{}, err
	}

	sentences := locateSentences(doc.Sentences(), c.Text)
	return annotate.AnnotatedChunk{
		Chunk:     c,
		Sentences: sentences,
		Tokens:    align(doc.Tokens(), c.Text, sentences),
	}, nil
}

// locateSentences finds each sentence in text, in order. Sentences that
// cannot be found keep Start and End at -1.
func locateSentences(in []prosev2.Sentence, text string) []annotate.Sentence {
	out := make([]annotate.Sentence, 0, len(in))
	cursor := 0
	for _, s := range in {
		sent := annotate.Sentence{Text: s.Text, Start: -1, End: -1}
		if i := strings.Index(text[cursor:], s.Text); i >= 0 && s.Text != "" {
			sent.Start = cursor + i
			sent.End = sent.Start + len(s.Text)
			cursor = sent.End
		}
		out = append(out, sent)
	}
	return out
}

// align converts prose tokens to annotate tokens, locating each one in the
// chunk text and assigning it to the located sentence that contains it.
// Tokens that cannot be located stay unaligned and join the sentence of the
// previous located token.
func align(toks []prosev2.Token, text string, sentences []annotate.Sentence) []annotate.Token {
	out := make([]annotate.Token, 0, len(toks))
	cursor := 0
	sent := -1
	if len(sentences) > 0 {
		sent = 0
	}
	for _, tok := range toks {
		t := annotate.Token{
			Text:  tok.Text,
			Tag:   Universal(tok.Tag),
			Start: -1,
			End:   -1,
		}
		if i := strings.Index(text[cursor:], tok.Text); i >= 0 && tok.Text != "" {
			t.Start = cursor + i
			t.End = t.Start + len(tok.Text)
			cursor = t.End
			sent = sentenceAt(sentences, sent, t.Start)
		}
		t.Sentence = sent
		out = append(out, t)
	}
	return out
}

// sentenceAt advances from sentence index from to the sentence containing
// offset. Unlocated sentences are skipped over.
func sentenceAt(sentences []annotate.Sentence, from, offset int) int {
	if from < 0 {
		return from
	}
	for i := from; i < len(sentences); i++ {
		s := sentences[i]
		if s.Start < 0 {
			continue
		}
		if offset < s.Start {
			return from
		}
		from = i
		if offset < s.End {
			return i
		}
	}
	return from
}

// Universal maps a Penn Treebank tag to a universal tag.
func Universal(penn string) annotate.Tag {
	switch penn {
	case "NN", "NNS":
		return annotate.NOUN
	case "NNP", "NNPS":
		return annotate.PROPN
	case "JJ", "JJR", "JJS":
		return annotate.ADJ
	case "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
		return annotate.VERB
	case "MD":
		return annotate.AUX
	case "RB", "RBR", "RBS", "WRB":
		return annotate.ADV
	case "DT", "PDT", "WDT":
		return annotate.DET
	case "IN":
		return annotate.ADP
	case "PRP", "PRP$", "WP", "WP$", "EX":
		return annotate.PRON
	case "CC":
		return annotate.CCONJ
	case "CD":
		return annotate.NUM
	case "RP", "TO", "POS":
		return annotate.PART
	case "UH":
		return annotate.INTJ
	case "SYM", "$", "#":
		return annotate.SYM
	case ".", ",", ":", "``", "''", "(", ")", "-LRB-", "-RRB-", "HYPH", "NFP":
		return annotate.PUNCT
	}
	return annotate.X
}
