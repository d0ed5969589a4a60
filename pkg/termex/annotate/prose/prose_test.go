package prose

import (
	"context"
	"strings"
	"testing"
	"time"

	prosev2 "github.com/jdkato/prose/v2"

	"github.com/cognicore/termex/pkg/termex"
	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/chunk"
)

func TestUniversal(t *testing.T) {
	cases := map[string]annotate.Tag{
		"NN":   annotate.NOUN,
		"NNS":  annotate.NOUN,
		"NNP":  annotate.PROPN,
		"JJR":  annotate.ADJ,
		"IN":   annotate.ADP,
		"VBZ":  annotate.VERB,
		".":    annotate.PUNCT,
		"FW":   annotate.X,
		"PRP$": annotate.PRON,
	}
	for penn, want := range cases {
		if got := Universal(penn); got != want {
			t.Errorf("%s: expected %s, got %s", penn, want, got)
		}
	}
}

func TestAlignLocatesTokens(t *testing.T) {
	text := "Hi there. The brown  fox."
	sentences := []annotate.Sentence{
		{Text: "Hi there.", Start: 0, End: 9},
		{Text: "The brown  fox.", Start: 10, End: 25},
	}
	toks := []prosev2.Token{
		{Text: "Hi", Tag: "UH"},
		{Text: "there", Tag: "RB"},
		{Text: ".", Tag: "."},
		{Text: "The", Tag: "DT"},
		{Text: "brown", Tag: "JJ"},
		{Text: "fox", Tag: "NN"},
		{Text: ".", Tag: "."},
	}
	out := align(toks, text, sentences)
	if len(out) != 7 {
		t.Fatalf("expected 7 tokens, got %d", len(out))
	}
	if out[5].Start != 21 || out[5].End != 24 {
		t.Errorf("unexpected offsets for fox: %d:%d", out[5].Start, out[5].End)
	}
	if out[5].Sentence != 1 || out[5].Tag != annotate.NOUN {
		t.Errorf("unexpected token %+v", out[5])
	}
	if out[2].Sentence != 0 || out[2].Start != 8 {
		t.Errorf("expected first full stop in sentence 0 at 8, got %+v", out[2])
	}
}

func TestAlignUnlocatedToken(t *testing.T) {
	sentences := []annotate.Sentence{{Text: "fox", Start: 0, End: 3}}
	out := align([]prosev2.Token{{Text: "fox", Tag: "NN"}, {Text: "``", Tag: "``"}}, "fox", sentences)
	if !out[0].Aligned() {
		t.Error("expected fox to be aligned")
	}
	if out[1].Aligned() {
		t.Error("a token missing from the text should be unaligned")
	}
	if out[1].Sentence != 0 {
		t.Errorf("expected unaligned token to keep sentence 0, got %d", out[1].Sentence)
	}
}

func TestAlignSkipsUnlocatedSentence(t *testing.T) {
	text := "One. Three."
	sentences := []annotate.Sentence{
		{Text: "One.", Start: 0, End: 4},
		{Text: "Two.", Start: -1, End: -1},
		{Text: "Three.", Start: 5, End: 11},
	}
	out := align([]prosev2.Token{{Text: "One"}, {Text: "Three"}}, text, sentences)
	if out[0].Sentence != 0 || out[1].Sentence != 2 {
		t.Errorf("expected sentences 0 and 2, got %d and %d", out[0].Sentence, out[1].Sentence)
	}
}

func TestAnnotateTwoSentences(t *testing.T) {
	text := "The brown fox ran away. We saw a brown fox in the park."
	c := chunk.Chunk{Index: 0, Text: text, Start: 0, End: len(text)}

	ac, err := New().Annotate(context.Background(), c)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(ac.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %+v", len(ac.Sentences), ac.Sentences)
	}
	for i, s := range ac.Sentences {
		if s.Start < 0 || text[s.Start:s.End] != s.Text {
			t.Errorf("sentence %d not located: %+v", i, s)
		}
	}

	second := strings.Index(text, "We")
	foxes := 0
	for i, tok := range ac.Tokens {
		if !tok.Aligned() {
			t.Errorf("token %d not aligned: %+v", i, tok)
			continue
		}
		if text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %d offsets %d:%d do not cover %q", i, tok.Start, tok.End, tok.Text)
		}
		want := 0
		if tok.Start >= second {
			want = 1
		}
		if tok.Sentence != want {
			t.Errorf("expected %q at %d in sentence %d, got %d", tok.Text, tok.Start, want, tok.Sentence)
		}
		if tok.Text == "brown" && tok.Tag != annotate.ADJ {
			t.Errorf("expected brown to be ADJ, got %s", tok.Tag)
		}
		if tok.Text == "fox" {
			foxes++
			if tok.Tag != annotate.NOUN {
				t.Errorf("expected fox to be NOUN, got %s", tok.Tag)
			}
		}
	}
	if foxes != 2 {
		t.Errorf("expected 2 fox tokens, got %d", foxes)
	}
}

func TestRunWithProseCountsBrownFox(t *testing.T) {
	ext := termex.New(termex.Options{Annotator: New(), Concurrency: 1})
	res, err := ext.Run(context.Background(), termex.NewRequest("The brown fox ran away. We saw a brown fox in the park."))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, rec := range res.Terms {
		if rec.Term == "brown fox" {
			if rec.Frequency != 2 {
				t.Errorf("expected frequency 2, got %d", rec.Frequency)
			}
			return
		}
	}
	t.Errorf("expected brown fox among %d terms", len(res.Terms))
}

// A chunk costs one tagger model build, not one per sentence.
func TestAnnotateManySentencesOneDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("tags a large chunk")
	}
	text := strings.TrimSpace(strings.Repeat("The solar panel converts light into power. ", 200))
	c := chunk.Chunk{Text: text, End: len(text)}

	start := time.Now()
	ac, err := New().Annotate(context.Background(), c)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("expected 200 sentences to annotate well under 10s, took %v", elapsed)
	}
	if len(ac.Sentences) != 200 {
		t.Errorf("expected 200 sentences, got %d", len(ac.Sentences))
	}
	if last := ac.Tokens[len(ac.Tokens)-1]; last.Sentence != len(ac.Sentences)-1 {
		t.Errorf("expected last token in sentence %d, got %d", len(ac.Sentences)-1, last.Sentence)
	}
}

func TestAnnotateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Annotate(ctx, chunk.Chunk{Text: "The fox."}); err == nil {
		t.Error("expected an error for a canceled context")
	}
}
