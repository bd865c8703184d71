// Package indexer implements the Indexer of spec §4.1: the three-phase
// (pre/index/post) state machine that creates/asserts a destination index,
// partitions work into batches, dispatches them to bounded workers, and
// records persistent job state.
package indexer

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hub-search/indexcore/internal/batch"
	"github.com/hub-search/indexcore/internal/errs"
	"github.com/hub-search/indexcore/internal/jobstate"
	"github.com/hub-search/indexcore/internal/mongodb"
	"github.com/hub-search/indexcore/internal/opensearch"
	"github.com/hub-search/indexcore/internal/schedule"
)

// RegistrarFactory returns the job-state registrar for one phase
// ("pre"/"index"/"post"), scoped to the build and index this Indexer owns.
type RegistrarFactory func(phase string) *jobstate.Registrar

// PostIndexFunc is the post_index extension point of spec §4.1.3 ("No-op
// in the default implementation; reserved extension point for index
// warmup, alias flips, refresh toggles").
type PostIndexFunc func(ctx context.Context, dest *opensearch.Client, index string) error

// Indexer orchestrates pre/index/post for one logical (source, dest) pair.
type Indexer struct {
	SourceDB  string
	SourceCol string
	DestIndex string

	Source *mongodb.Collection
	Dest   *opensearch.Client

	Settings    Settings
	Mappings    Mappings
	BulkArgs    map[string]any
	Concurrency int

	Registrar RegistrarFactory
	PostIndex PostIndexFunc // nil means no-op, per §4.1.3

	// Progress, if set, is invoked after every batch outcome is applied to
	// the schedule, reporting cumulative finished/total counts. Callers
	// (the CLI's progress bar) use it to render do_index's progress
	// without reaching into schedule.Schedule directly.
	Progress func(finished, total int64)
}

// Index runs the requested steps sequentially, per spec §4.1's execution
// contract. Each step transitions its persistent state to "started" before
// work, "succeeded" (with the merged result so far) on normal completion,
// or "failed" (truncated error, ≤500 chars) on any error — the error is
// then returned to the caller. Partial results from completed steps remain
// persisted even if a later step fails.
func (ix *Indexer) Index(ctx context.Context, p Params) (map[string]any, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result := map[string]any{}

	for _, step := range p.Steps {
		reg := ix.Registrar(step)
		if err := reg.Started(ctx); err != nil {
			return result, fmt.Errorf("record %s started: %w", step, err)
		}

		var stepErr error
		switch step {
		case StepPre:
			stepErr = ix.preIndex(ctx, p.Mode)
		case StepIndex:
			var count int64
			count, stepErr = ix.doIndex(ctx, p.Mode, p.BatchSize, p.IDs)
			if stepErr == nil {
				result[ix.DestIndex] = map[string]any{"count": count}
			}
		case StepPost:
			stepErr = ix.postIndex(ctx)
		}

		if stepErr != nil {
			_ = reg.Failed(ctx, stepErr)
			return result, stepErr
		}
		if err := reg.Succeeded(ctx, bson.M(result)); err != nil {
			return result, fmt.Errorf("record %s succeeded: %w", step, err)
		}
	}

	return result, nil
}

// preIndex implements spec §4.1.1.
func (ix *Indexer) preIndex(ctx context.Context, mode string) error {
	exists, err := ix.Dest.Exists(ctx, ix.DestIndex)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}

	switch mode {
	case ModeIndex:
		if exists {
			return &errs.AlreadyExists{Index: ix.DestIndex}
		}
	case ModeResume, ModeMerge:
		if !exists {
			return &errs.Missing{Index: ix.DestIndex}
		}
		return nil // index already present; creation skipped
	case ModePurge:
		if exists {
			if err := ix.Dest.Delete(ctx, ix.DestIndex); err != nil {
				return fmt.Errorf("delete index before purge: %w", err)
			}
		}
	}

	settings, err := ix.Settings.Finalize(ctx, ix.Dest)
	if err != nil {
		return fmt.Errorf("finalize settings: %w", err)
	}
	mappings, err := ix.Mappings.Finalize(ctx, ix.Dest)
	if err != nil {
		return fmt.Errorf("finalize mappings: %w", err)
	}

	return ix.Dest.Create(ctx, ix.DestIndex, map[string]any{
		"settings": settings,
		"mappings": mappings,
	})
}

// doIndex implements spec §4.1.2: partition the ID space into batches,
// dispatch them to a bounded pool, and apply the fail-fast rule of spec §5
// (the first batch error short-circuits further dispatch and cancels every
// still-pending batch; already-written documents are not rolled back).
func (ix *Indexer) doIndex(ctx context.Context, mode string, batchSize int, ids []string) (int64, error) {
	var provider idProvider
	var total int64

	if len(ids) > 0 {
		total = int64(len(ids))
		provider = newSliceProvider(ids, batchSize)
	} else {
		count, err := ix.Source.Count(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("count source documents: %w", err)
		}
		total = count
		idChan, errChan := ix.Source.StreamIDs(ctx, nil, batchSize)
		provider = newStreamProvider(idChan, errChan, batchSize)
	}

	if total == 0 {
		return 0, nil
	}

	sched := schedule.New(total, batchSize)
	dispatcher := batch.NewDispatcher(ix.Source, ix.Dest, ix.Concurrency)

	var (
		mu       sync.Mutex
		firstErr error
		handles  []*batch.Handle
	)
	outcomes := make(chan batch.Outcome, sched.NumBatches()+1)
	dispatched := 0

	report := func() {
		if ix.Progress != nil {
			ix.Progress(sched.Finished(), total)
		}
	}

	drainReady := func() {
		for {
			select {
			case o := <-outcomes:
				applyOutcome(sched, &mu, &firstErr, o)
				report()
			default:
				return
			}
		}
	}

dispatchLoop:
	for {
		drainReady()

		mu.Lock()
		blocked := firstErr != nil
		mu.Unlock()
		if blocked {
			for _, h := range handles {
				h.Cancel()
			}
			break dispatchLoop
		}

		chunk, ok, err := provider.Next(ctx)
		if err != nil {
			mu.Lock()
			firstErr = err
			mu.Unlock()
			for _, h := range handles {
				h.Cancel()
			}
			break dispatchLoop
		}
		if !ok {
			break dispatchLoop
		}

		batchNum, _, emitOK := sched.EmitNext()
		if !emitOK {
			break dispatchLoop
		}

		desc := batch.Descriptor{
			SourceDB:     ix.SourceDB,
			SourceCol:    ix.SourceCol,
			DestIndex:    ix.DestIndex,
			DestBulkArgs: ix.BulkArgs,
			IDs:          chunk,
			Mode:         mode,
			BatchNum:     batchNum,
		}
		h := dispatcher.Dispatch(ctx, desc)
		handles = append(handles, h)
		dispatched++

		go func(h *batch.Handle) {
			outcomes <- h.Wait(context.Background())
		}(h)
	}

	for processed := 0; processed < dispatched; {
		select {
		case o := <-outcomes:
			applyOutcome(sched, &mu, &firstErr, o)
			report()
			processed++
		case <-ctx.Done():
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
			processed = dispatched
		}
	}

	mu.Lock()
	defer mu.Unlock()
	return sched.Finished(), firstErr
}

func applyOutcome(sched *schedule.Schedule, mu *sync.Mutex, firstErr *error, o batch.Outcome) {
	if o.Canceled {
		return
	}
	if o.Err != nil {
		mu.Lock()
		if *firstErr == nil {
			*firstErr = &errs.BatchFailure{BatchNum: o.BatchNum, Cause: o.Err}
		}
		mu.Unlock()
		return
	}
	sched.AddFinished(o.Count)
}

// postIndex implements spec §4.1.3: a no-op unless PostIndex was set.
func (ix *Indexer) postIndex(ctx context.Context) error {
	if ix.PostIndex == nil {
		return nil
	}
	return ix.PostIndex(ctx, ix.Dest, ix.DestIndex)
}
