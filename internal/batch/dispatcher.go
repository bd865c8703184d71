package batch

import (
	"context"

	"github.com/hub-search/indexcore/internal/mongodb"
	"github.com/hub-search/indexcore/internal/opensearch"
)

// Dispatcher submits BatchDescriptors to a bounded worker pool and hands
// back a future-like Handle, modeling spec §4's BatchDispatcher. The
// bound is the environment's concurrency value (§3, default 3), enforced
// here as a buffered-channel semaphore rather than the source system's
// job-manager admission query against a live job table — the effect
// (at most N in-flight batches per environment) is identical.
type Dispatcher struct {
	source *mongodb.Collection
	dest   *opensearch.Client
	sem    chan struct{}
}

// NewDispatcher returns a Dispatcher bound to source/dest clients with the
// given per-environment concurrency limit.
func NewDispatcher(source *mongodb.Collection, dest *opensearch.Client, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Dispatcher{source: source, dest: dest, sem: make(chan struct{}, concurrency)}
}

// Dispatch starts the batch in its own goroutine and returns immediately
// with a Handle. The goroutine waits for a concurrency slot (until one is
// free or the batch is canceled) before running the task.
func (d *Dispatcher) Dispatch(ctx context.Context, desc Descriptor) *Handle {
	taskCtx, cancel := context.WithCancel(ctx)
	h := &Handle{descriptor: desc, done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(h.done)

		select {
		case d.sem <- struct{}{}:
		case <-taskCtx.Done():
			h.outcome = Outcome{BatchNum: desc.BatchNum, Canceled: true}
			return
		}
		defer func() { <-d.sem }()

		select {
		case <-taskCtx.Done():
			h.outcome = Outcome{BatchNum: desc.BatchNum, Canceled: true}
			return
		default:
		}

		count, err := RunTask(taskCtx, d.source, d.dest, desc)
		if err != nil {
			if taskCtx.Err() != nil {
				h.outcome = Outcome{BatchNum: desc.BatchNum, Canceled: true}
				return
			}
			h.outcome = Outcome{BatchNum: desc.BatchNum, Err: err}
			return
		}
		h.outcome = Outcome{BatchNum: desc.BatchNum, Count: count}
	}()

	return h
}
