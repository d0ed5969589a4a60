package termex

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/annotate/lexicon"
	"github.com/cognicore/termex/pkg/termex/chunk"
	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/rank"
	"github.com/cognicore/termex/pkg/termex/term"
)

func testLexicon() *lexicon.Lexicon {
	lex := lexicon.New()
	for _, w := range []string{"quick", "brown", "solar", "cheap", "many", "large", "new"} {
		lex.Add(w, annotate.ADJ)
	}
	for _, w := range []string{"jumps", "use", "uses", "sells"} {
		lex.Add(w, annotate.VERB)
	}
	return lex
}

func newTestExtractor(concurrency int) *Extractor {
	return New(Options{
		Annotator:   lexicon.NewAnnotator(testLexicon()),
		Concurrency: concurrency,
	})
}

func find(recs []*term.Record, name string) *term.Record {
	for _, r := range recs {
		if r.Term == name {
			return r
		}
	}
	return nil
}

func TestRunBrownFox(t *testing.T) {
	res, err := newTestExtractor(1).Run(context.Background(), NewRequest("The quick brown fox. The brown fox jumps."))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	rec := find(res.Terms, "brown fox")
	if rec == nil {
		t.Fatal("expected brown fox to be extracted")
	}
	if rec.Frequency != 2 {
		t.Errorf("expected frequency 2, got %d", rec.Frequency)
	}
	want := []string{"The quick brown fox.", "The brown fox jumps."}
	if !reflect.DeepEqual(rec.Contexts, want) {
		t.Errorf("expected contexts %v, got %v", want, rec.Contexts)
	}
	if !rec.Selected {
		t.Error("records should start selected")
	}
	if res.Chunks != 1 {
		t.Errorf("expected 1 chunk, got %d", res.Chunks)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRunAcrossChunksKeepsDocumentOrder(t *testing.T) {
	text := "Solar panels are cheap.\n\nMany homes use solar panels."
	req := NewRequest(text)
	req.MaxChunkSize = 30

	res, err := newTestExtractor(1).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Chunks < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", res.Chunks)
	}

	rec := find(res.Terms, "solar panels")
	if rec == nil {
		t.Fatal("expected solar panels")
	}
	want := []string{"Solar panels are cheap.", "Many homes use solar panels."}
	if rec.Frequency != 2 || !reflect.DeepEqual(rec.Contexts, want) {
		t.Errorf("expected frequency 2 with %v, got %d with %v", want, rec.Frequency, rec.Contexts)
	}
}

func TestRunMinFrequencyAboveMaxIsEmpty(t *testing.T) {
	req := NewRequest("The quick brown fox. The brown fox jumps.")
	req.MinFrequency = 3
	res, err := newTestExtractor(1).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Terms) != 0 {
		t.Errorf("expected no terms, got %d", len(res.Terms))
	}
	if res.Distinct == 0 {
		t.Error("distinct count should ignore the threshold")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	text := strings.Repeat("The large language model uses new data. Data storage of data helps.\n\n", 20)
	req := NewRequest(text)
	req.MaxChunkSize = 150

	a, err := newTestExtractor(1).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestExtractor(1).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Terms) != len(b.Terms) {
		t.Fatalf("term counts differ: %d vs %d", len(a.Terms), len(b.Terms))
	}
	for i := range a.Terms {
		x, y := a.Terms[i], b.Terms[i]
		if x.Term != y.Term || x.Frequency != y.Frequency || !reflect.DeepEqual(x.Contexts, y.Contexts) {
			t.Errorf("record %d differs: %+v vs %+v", i, x, y)
		}
	}
}

func TestRunRecordConsistency(t *testing.T) {
	text := "A new model. The Bill of Rights matters. Data storage of data is a large data storage system."
	res, err := newTestExtractor(1).Run(context.Background(), NewRequest(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Terms) == 0 {
		t.Fatal("expected terms")
	}
	for _, rec := range res.Terms {
		if rec.Frequency != len(rec.Contexts) {
			t.Errorf("%q: frequency %d != %d contexts", rec.Term, rec.Frequency, len(rec.Contexts))
		}
		if len([]rune(rec.Term)) < 2 {
			t.Errorf("term too short: %q", rec.Term)
		}
	}
}

func TestRunParallelMatchesSerial(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox meets a new data storage system.\n\n")
		b.WriteString("Solar panels of Acme Corp use large language models.\n\n")
	}
	req := NewRequest(b.String())
	req.MaxChunkSize = 120

	serial, err := newTestExtractor(1).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := newTestExtractor(4).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(serial.Terms) != len(parallel.Terms) {
		t.Fatalf("term counts differ: %d vs %d", len(serial.Terms), len(parallel.Terms))
	}
	for i := range serial.Terms {
		if !reflect.DeepEqual(serial.Terms[i], parallel.Terms[i]) {
			t.Errorf("record %d differs: %+v vs %+v", i, serial.Terms[i], parallel.Terms[i])
		}
	}
}

func TestParallelSourceStaysWithinWindow(t *testing.T) {
	chunks := chunk.Split(strings.Repeat("Solar panels are cheap.\n\n", 10), 30)
	var started atomic.Int32
	ann := annotate.Func(func(ctx context.Context, c chunk.Chunk) (annotate.AnnotatedChunk, error) {
		started.Add(1)
		return annotate.AnnotatedChunk{Chunk: c}, nil
	})

	src := newParallelSource(context.Background(), ann, chunks, 2)
	defer src.stop()

	deadline := time.Now().Add(2 * time.Second)
	for started.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if n := started.Load(); n != 2 {
		t.Fatalf("expected 2 chunks started before any were consumed, got %d", n)
	}

	for i := range chunks {
		ac, err := src.get(i)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if ac.Chunk.Index != i {
			t.Errorf("expected chunk %d, got %d", i, ac.Chunk.Index)
		}
		if n := int(started.Load()); n > i+3 {
			t.Errorf("after consuming %d chunks, %d were started", i+1, n)
		}
	}
}

func TestRunProgress(t *testing.T) {
	req := NewRequest(strings.Repeat("Solar panels are cheap.\n\n", 5))
	req.MaxChunkSize = 30

	var got []Progress
	req.Progress = func(p Progress) { got = append(got, p) }

	res, err := newTestExtractor(1).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != res.Chunks {
		t.Fatalf("expected %d progress reports, got %d", res.Chunks, len(got))
	}
	for i, p := range got {
		if p.Completed != i+1 || p.Total != res.Chunks {
			t.Errorf("report %d: unexpected %+v", i, p)
		}
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	called := false
	ext := New(Options{Annotator: annotate.Func(func(ctx context.Context, c chunk.Chunk) (annotate.AnnotatedChunk, error) {
		called = true
		return annotate.AnnotatedChunk{Chunk: c}, nil
	})})

	_, err := ext.Run(context.Background(), NewRequest("  \n\n "))
	if !IsInputError(err) {
		t.Fatalf("expected input error, got %v", err)
	}
	if called {
		t.Error("annotator must not run on rejected input")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	req := NewRequest("some text")
	req.MinFrequency = 0
	if _, err := newTestExtractor(1).Run(context.Background(), req); !IsConfigError(err) {
		t.Errorf("expected config error for min frequency 0, got %v", err)
	}

	req = NewRequest("some text")
	req.MaxChunkSize = -1
	if _, err := newTestExtractor(1).Run(context.Background(), req); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected config error for chunk size, got %v", err)
	}
}

func failingAt(index int) annotate.Annotator {
	inner := lexicon.NewAnnotator(testLexicon())
	return annotate.Func(func(ctx context.Context, c chunk.Chunk) (annotate.AnnotatedChunk, error) {
		if c.Index == index {
			return annotate.AnnotatedChunk{}, errors.New("malformed input")
		}
		return inner.Annotate(ctx, c)
	})
}

func TestRunAnnotationFailure(t *testing.T) {
	for _, conc := range []int{1, 3} {
		req := NewRequest(strings.Repeat("Solar panels are cheap.\n\n", 6))
		req.MaxChunkSize = 30

		var reports int
		req.Progress = func(Progress) { reports++ }

		ext := New(Options{Annotator: failingAt(2), Concurrency: conc})
		res, err := ext.Run(context.Background(), req)
		if res != nil {
			t.Errorf("concurrency %d: expected no partial result", conc)
		}
		if !errors.Is(err, internalerr.ErrAnnotation) {
			t.Fatalf("concurrency %d: expected annotation error, got %v", conc, err)
		}
		var ae *AnnotationError
		if !errors.As(err, &ae) || ae.Chunk != 2 {
			t.Errorf("concurrency %d: expected failure at chunk 2, got %v", conc, err)
		}
		// In parallel mode earlier chunks may be cancelled by the failure.
		if reports > 2 || (conc == 1 && reports != 2) {
			t.Errorf("concurrency %d: unexpected %d progress reports before failure", conc, reports)
		}
	}
}

func TestRunCancelledBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := NewRequest(strings.Repeat("Solar panels are cheap.\n\n", 6))
	req.MaxChunkSize = 30
	req.Progress = func(p Progress) {
		if p.Completed == 1 {
			cancel()
		}
	}

	res, err := newTestExtractor(1).Run(ctx, req)
	if res != nil {
		t.Error("expected no result after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStartJob(t *testing.T) {
	req := NewRequest(strings.Repeat("The quick brown fox jumps.\n\n", 4))
	req.MaxChunkSize = 40

	var userCalls atomic.Int32
	req.Progress = func(Progress) { userCalls.Add(1) }

	job := newTestExtractor(2).Start(context.Background(), req)

	var last Progress
	count := 0
	for p := range job.Progress() {
		if p.Completed != last.Completed+1 {
			t.Errorf("progress out of order: %+v after %+v", p, last)
		}
		last = p
		count++
	}
	out := <-job.Done()
	if out.Err != nil {
		t.Fatalf("job failed: %v", out.Err)
	}
	if last.Completed != last.Total || last.Total != out.Result.Chunks {
		t.Errorf("expected final progress (N, N), got %+v", last)
	}
	if int(userCalls.Load()) != count {
		t.Errorf("user callback saw %d reports, channel saw %d", userCalls.Load(), count)
	}
	if job.State() != StateFinalized {
		t.Errorf("expected finalized state, got %s", job.State())
	}
}

func TestStartJobFailure(t *testing.T) {
	job := newTestExtractor(1).Start(context.Background(), NewRequest(""))
	res, err := job.Wait()
	if res != nil || !IsInputError(err) {
		t.Fatalf("expected input error, got %v", err)
	}
	if job.State() != StateFailed {
		t.Errorf("expected failed state, got %s", job.State())
	}
}

func TestResultViewToggle(t *testing.T) {
	res, err := newTestExtractor(1).Run(context.Background(), NewRequest("The quick brown fox. The brown fox jumps."))
	if err != nil {
		t.Fatal(err)
	}
	view := res.View(rank.Descending)
	before := view.Sorted()
	view.Toggle()
	view.Toggle()
	after := view.Sorted()
	if !reflect.DeepEqual(before, after) {
		t.Error("toggling twice should restore the order")
	}
	if before[0].Frequency < before[len(before)-1].Frequency {
		t.Error("descending view should start with the most frequent term")
	}
}

func TestContextCapOption(t *testing.T) {
	ext := New(Options{Annotator: lexicon.NewAnnotator(testLexicon()), ContextCap: 1})
	res, err := ext.Run(context.Background(), NewRequest("The brown fox. The brown fox. The brown fox."))
	if err != nil {
		t.Fatal(err)
	}
	rec := find(res.Terms, "brown fox")
	if rec == nil || rec.Frequency != 3 || len(rec.Contexts) != 1 || rec.Omitted != 2 {
		t.Errorf("unexpected capped record %+v", rec)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	ext := newTestExtractor(1)
	a, b := ext.NewRunID(), ext.NewRunID()
	if a == b || a >= b {
		t.Errorf("expected increasing ids, got %s then %s", a, b)
	}
}
