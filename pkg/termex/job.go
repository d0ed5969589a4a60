package termex

import (
	"context"
	"sync/atomic"
)

// State is the phase of an extraction run.
type State int32

const (
	StateIdle State = iota
	StateChunking
	StateMatching
	StateAggregating
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChunking:
		return "chunking"
	case StateMatching:
		return "matching"
	case StateAggregating:
		return "aggregating"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateFailed
}

// Outcome is the completion signal of a background run.
type Outcome struct {
	Result *Result
	Err    error
}

// Job is an extraction run executing on its own goroutine.
type Job struct {
	state    atomic.Int32
	progress chan Progress
	done     chan Outcome
}

// Start launches a run in the background. The caller must drain Progress
// until it is closed (or cancel ctx) and then receive from Done. Cancelling
// ctx abandons the run between chunks; Done then carries the error.
func (e *Extractor) Start(ctx context.Context, req Request) *Job {
	j := &Job{
		progress: make(chan Progress, 16),
		done:     make(chan Outcome, 1),
	}

	user := req.Progress
	req.Progress = func(p Progress) {
		if user != nil {
			user(p)
		}
		select {
		case j.progress <- p:
		case <-ctx.Done():
		}
	}

	go func() {
		res, err := e.run(ctx, req, func(s State) { j.state.Store(int32(s)) })
		close(j.progress)
		j.done <- Outcome{Result: res, Err: err}
		close(j.done)
	}()
	return j
}

// Progress delivers (completed, total) pairs in order. It is closed when the
// run ends.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done delivers exactly one Outcome.
func (j *Job) Done() <-chan Outcome {
	return j.done
}

// State returns the run's current phase.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Wait drains progress and blocks until the run ends.
func (j *Job) Wait() (*Result, error) {
	for range j.progress {
	}
	out := <-j.done
	return out.Result, out.Err
}
