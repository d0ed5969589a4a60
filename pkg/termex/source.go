package termex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/chunk"
)

// chunkSource hands out annotated chunks strictly by index.
type chunkSource interface {
	get(i int) (annotate.AnnotatedChunk, error)
	// fail turns an error from get into the run's error.
	fail(i int, err error) error
	stop()
}

func (e *Extractor) source(ctx context.Context, chunks []chunk.Chunk) chunkSource {
	if e.concurrency <= 1 || len(chunks) <= 1 {
		return &serialSource{ctx: ctx, annotator: e.annotator, chunks: chunks}
	}
	return newParallelSource(ctx, e.annotator, chunks, e.concurrency)
}

type serialSource struct {
	ctx       context.Context
	annotator annotate.Annotator
	chunks    []chunk.Chunk
}

func (s *serialSource) get(i int) (annotate.AnnotatedChunk, error) {
	return s.annotator.Annotate(s.ctx, s.chunks[i])
}

func (s *serialSource) fail(i int, err error) error {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("extraction stopped at chunk %d: %w", i, ctxErr)
	}
	return &AnnotationError{Chunk: i, Err: err}
}

func (s *serialSource) stop() {}

type annotated struct {
	ac  annotate.AnnotatedChunk
	err error
}

// parallelSource annotates up to n chunks ahead of the consumer. A chunk is
// only started once fewer than n results are waiting to be consumed, and
// results are parked per index so the consumer still folds them in chunk
// order.
type parallelSource struct {
	parent  context.Context
	gctx    context.Context
	cancel  context.CancelFunc
	g       *errgroup.Group
	slots   []annotated
	ready   []chan struct{}
	window  chan struct{} // one entry per started, unconsumed chunk
	spawned chan struct{}

	once    sync.Once
	waitErr error
}

func newParallelSource(ctx context.Context, ann annotate.Annotator, chunks []chunk.Chunk, n int) *parallelSource {
	cctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(cctx)
	g.SetLimit(n)

	p := &parallelSource{
		parent:  ctx,
		gctx:    gctx,
		cancel:  cancel,
		g:       g,
		slots:   make([]annotated, len(chunks)),
		ready:   make([]chan struct{}, len(chunks)),
		window:  make(chan struct{}, n),
		spawned: make(chan struct{}),
	}
	for i := range p.ready {
		p.ready[i] = make(chan struct{})
	}

	go func() {
		defer close(p.spawned)
		for i, c := range chunks {
			i, c := i, c
			select {
			case p.window <- struct{}{}:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				ac, err := ann.Annotate(gctx, c)
				p.slots[i] = annotated{ac: ac, err: err}
				close(p.ready[i])
				if err != nil {
					return &AnnotationError{Chunk: i, Err: err}
				}
				return nil
			})
		}
	}()
	return p
}

func (p *parallelSource) get(i int) (annotate.AnnotatedChunk, error) {
	select {
	case <-p.ready[i]:
	case <-p.gctx.Done():
		select {
		case <-p.ready[i]:
		default:
			return annotate.AnnotatedChunk{}, p.gctx.Err()
		}
	}
	s := p.slots[i]
	p.slots[i] = annotated{}
	<-p.window
	return s.ac, s.err
}

func (p *parallelSource) fail(i int, err error) error {
	p.stop()
	if ctxErr := p.parent.Err(); ctxErr != nil {
		return fmt.Errorf("extraction stopped at chunk %d: %w", i, ctxErr)
	}
	// The first failing chunk is the one to report, which may be later
	// than the chunk the consumer was waiting on.
	var ae *AnnotationError
	if errors.As(p.waitErr, &ae) {
		return ae
	}
	return &AnnotationError{Chunk: i, Err: err}
}

func (p *parallelSource) stop() {
	p.once.Do(func() {
		p.cancel()
		<-p.spawned
		p.waitErr = p.g.Wait()
	})
}
