// Package termex extracts candidate multi-word terms from documents. A run
// chunks the text, tags each chunk through an annotate.Annotator, matches
// part-of-speech patterns and folds every match into a term registry that
// keeps all context sentences for review.
package termex

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/chunk"
	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/match"
	"github.com/cognicore/termex/pkg/termex/rank"
	"github.com/cognicore/termex/pkg/termex/registry"
	"github.com/cognicore/termex/pkg/termex/term"
)

// Defaults for a Request.
const (
	DefaultMaxChunkSize = chunk.DefaultMaxChars
	DefaultMinFrequency = 1
)

// Extractor runs term extraction. Runs are independent: each one builds its
// own registry, so one Extractor may serve several runs at once.
type Extractor struct {
	annotator   annotate.Annotator
	matcher     *match.Matcher
	concurrency int
	contextCap  int
	log         zerolog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Extractor.
type Options struct {
	Annotator annotate.Annotator
	// Concurrency is the number of chunks annotated in parallel. Spans are
	// still folded in chunk order. Values below 1 mean 1.
	Concurrency int
	// ContextCap limits the contexts kept per term; 0 keeps all of them.
	ContextCap int
	Logger     *zerolog.Logger
}

// New creates an Extractor with the given dependencies
func New(opts Options) *Extractor {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	conc := opts.Concurrency
	if conc < 1 {
		conc = 1
	}
	return &Extractor{
		annotator:   opts.Annotator,
		matcher:     match.New(),
		concurrency: conc,
		contextCap:  opts.ContextCap,
		log:         log,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
}

// Progress is reported after each chunk has been folded into the registry.
type Progress struct {
	Completed int
	Total     int
}

// Request describes one extraction run.
type Request struct {
	Text         string
	MaxChunkSize int
	MinFrequency int
	// Progress, when set, is called synchronously after every chunk.
	Progress func(Progress)
}

// NewRequest returns a request for text with default limits.
func NewRequest(text string) Request {
	return Request{
		Text:         text,
		MaxChunkSize: DefaultMaxChunkSize,
		MinFrequency: DefaultMinFrequency,
	}
}

// Validate checks a request before any work is done.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: source text is empty", internalerr.ErrInvalidInput)
	}
	if r.MinFrequency < 1 {
		return fmt.Errorf("%w: minimum frequency must be a positive integer, got %d", internalerr.ErrInvalidConfig, r.MinFrequency)
	}
	if r.MaxChunkSize < 1 {
		return fmt.Errorf("%w: maximum chunk size must be positive, got %d", internalerr.ErrInvalidConfig, r.MaxChunkSize)
	}
	return nil
}

// Result is a finalized extraction run.
type Result struct {
	RunID        string
	Chunks       int
	MinFrequency int
	// Distinct is the number of distinct terms before frequency filtering.
	Distinct int
	// Terms holds the records meeting MinFrequency, in discovery order.
	Terms   []*term.Record
	Elapsed time.Duration
}

// View returns a ranking view over the result's terms.
func (r *Result) View(dir rank.Direction) *rank.View {
	return rank.NewView(r.Terms, dir)
}

// Run performs a complete extraction on the calling goroutine. On any error
// the partial registry is discarded and no result is returned.
func (e *Extractor) Run(ctx context.Context, req Request) (*Result, error) {
	return e.run(ctx, req, func(State) {})
}

// NewRunID returns a new lexically sortable run identifier.
func (e *Extractor) NewRunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

func (e *Extractor) run(ctx context.Context, req Request, setState func(State)) (*Result, error) {
	if err := req.Validate(); err != nil {
		setState(StateFailed)
		return nil, err
	}
	if e.annotator == nil {
		setState(StateFailed)
		return nil, fmt.Errorf("%w: no annotator configured", internalerr.ErrInvalidConfig)
	}

	began := time.Now()
	runID := e.NewRunID()
	log := e.log.With().Str("run_id", runID).Logger()

	setState(StateChunking)
	chunks := chunk.Split(req.Text, req.MaxChunkSize)
	total := len(chunks)
	log.Info().Int("chunks", total).Int("chars", len(req.Text)).Msg("extraction started")

	setState(StateMatching)
	reg := registry.New(registry.WithContextCap(e.contextCap))
	src := e.source(ctx, chunks)
	for i := range chunks {
		if err := ctx.Err(); err != nil {
			src.stop()
			setState(StateFailed)
			return nil, fmt.Errorf("extraction stopped before chunk %d: %w", i, err)
		}

		ac, err := src.get(i)
		if err != nil {
			err = src.fail(i, err)
			setState(StateFailed)
			log.Error().Err(err).Int("chunk", i).Msg("extraction failed")
			return nil, err
		}

		spans := e.matcher.Match(ac)
		for _, sp := range spans {
			reg.Record(sp)
		}
		log.Debug().
			Int("chunk", i).
			Int("tokens", len(ac.Tokens)).
			Int("spans", len(spans)).
			Int("terms", reg.Len()).
			Msg("chunk processed")

		if req.Progress != nil {
			req.Progress(Progress{Completed: i + 1, Total: total})
		}
	}
	src.stop()

	setState(StateAggregating)
	res := &Result{
		RunID:        runID,
		Chunks:       total,
		MinFrequency: req.MinFrequency,
		Distinct:     reg.Len(),
		Terms:        reg.Finalize(req.MinFrequency),
		Elapsed:      time.Since(began),
	}
	setState(StateFinalized)

	log.Info().
		Int("chunks", total).
		Int("distinct", res.Distinct).
		Int("kept", len(res.Terms)).
		Dur("elapsed", res.Elapsed).
		Msg("extraction finished")
	return res, nil
}
