package registry

import (
	"reflect"
	"testing"

	"github.com/cognicore/termex/pkg/termex/term"
)

func span(text, ctx string) term.Span {
	return term.Span{Text: text, Context: ctx}
}

func TestRecordNormalizesAndCounts(t *testing.T) {
	r := New()
	r.Record(span("Brown Fox", "The quick brown fox."))
	r.Record(span(" brown  fox ", "The brown fox jumps."))

	if r.Len() != 1 {
		t.Fatalf("expected 1 term, got %d", r.Len())
	}
	rec, ok := r.Lookup("BROWN FOX")
	if !ok {
		t.Fatal("expected brown fox to be recorded")
	}
	if rec.Term != "brown fox" {
		t.Errorf("expected normalized key, got %q", rec.Term)
	}
	if rec.Frequency != 2 {
		t.Errorf("expected frequency 2, got %d", rec.Frequency)
	}
	want := []string{"The quick brown fox.", "The brown fox jumps."}
	if !reflect.DeepEqual(rec.Contexts, want) {
		t.Errorf("expected %v, got %v", want, rec.Contexts)
	}
	if !rec.Selected {
		t.Error("new records should be selected")
	}
}

func TestRecordRejectsShortTerms(t *testing.T) {
	r := New()
	if r.Record(span(" a ", "ctx")) {
		t.Error("single-character span should be rejected")
	}
	if r.Record(span("", "ctx")) {
		t.Error("empty span should be rejected")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRecordKeepsDuplicateContexts(t *testing.T) {
	r := New()
	r.Record(span("data storage", "Data storage beats data storage."))
	r.Record(span("data storage", "Data storage beats data storage."))

	rec, _ := r.Lookup("data storage")
	if rec.Frequency != 2 || len(rec.Contexts) != 2 {
		t.Errorf("expected both occurrences, got %+v", rec)
	}
}

func TestFrequencyMatchesContexts(t *testing.T) {
	r := New()
	for i, s := range []string{"alpha beta", "gamma", "Alpha Beta", "gamma", "delta", "gamma"} {
		r.Record(span(s, string(rune('a'+i))))
	}
	for _, rec := range r.Finalize(1) {
		if rec.Frequency != len(rec.Contexts) {
			t.Errorf("%s: frequency %d != contexts %d", rec.Term, rec.Frequency, len(rec.Contexts))
		}
		if len([]rune(rec.Term)) < 2 {
			t.Errorf("term too short: %q", rec.Term)
		}
	}
}

func TestFinalizeDiscoveryOrderAndThreshold(t *testing.T) {
	r := New()
	for _, s := range []string{"gamma", "alpha beta", "gamma", "delta", "alpha beta", "gamma"} {
		r.Record(span(s, ""))
	}

	var got []string
	for _, rec := range r.Finalize(0) {
		got = append(got, rec.Term)
	}
	if want := []string{"gamma", "alpha beta", "delta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected discovery order %v, got %v", want, got)
	}

	if n := len(r.Finalize(2)); n != 2 {
		t.Errorf("expected 2 terms with frequency >= 2, got %d", n)
	}
	if n := len(r.Finalize(4)); n != 0 {
		t.Errorf("expected no terms above max frequency, got %d", n)
	}
	if r.Len() != 3 {
		t.Error("finalize must not mutate the registry")
	}
}

func TestFinalizeMonotonic(t *testing.T) {
	r := New()
	for _, s := range []string{"aa", "bb", "aa", "cc", "aa", "bb"} {
		r.Record(span(s, ""))
	}
	for k := 0; k < 4; k++ {
		lower := map[string]bool{}
		for _, rec := range r.Finalize(k) {
			lower[rec.Term] = true
		}
		for _, rec := range r.Finalize(k + 1) {
			if !lower[rec.Term] {
				t.Errorf("finalize(%d) has %q missing from finalize(%d)", k+1, rec.Term, k)
			}
		}
	}
}

func TestContextCap(t *testing.T) {
	r := New(WithContextCap(2))
	for i := 0; i < 5; i++ {
		r.Record(span("brown fox", "ctx"))
	}
	rec, _ := r.Lookup("brown fox")
	if rec.Frequency != 5 {
		t.Errorf("expected frequency 5, got %d", rec.Frequency)
	}
	if len(rec.Contexts) != 2 || rec.Omitted != 3 {
		t.Errorf("expected 2 kept and 3 omitted, got %d and %d", len(rec.Contexts), rec.Omitted)
	}
}
