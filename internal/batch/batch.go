// Package batch implements the BatchDescriptor, dispatch, and worker-side
// IndexingTask of spec §3/§4.1.4. Per the Open Question decision in
// DESIGN.md, the "separate OS process" boundary of the source system is
// modeled as a bounded goroutine pool: mongo-driver and opensearch-go
// clients are safe for concurrent use, so a dispatched batch borrows the
// Indexer's already-open clients rather than literally reopening a
// connection per batch — the BatchDescriptor itself still carries only
// primitive fields, preserving the "what crosses the boundary" contract.
package batch

import "context"

// Descriptor is the BatchDescriptor of spec §3: everything a worker needs
// to index one chunk of IDs, serializable across a process boundary.
type Descriptor struct {
	SourceDB     string
	SourceCol    string
	DestIndex    string
	DestBulkArgs map[string]any
	IDs          []string
	Mode         string
	BatchNum     int64
}

// Outcome is what a worker reports back for one batch: the count of
// documents successfully written, or an error.
type Outcome struct {
	BatchNum int64
	Count    int64
	Err      error
	Canceled bool
}

// Handle is the future-like object Dispatch returns: awaitable via Wait,
// cancelable via Cancel while still pending.
type Handle struct {
	descriptor Descriptor
	done       chan struct{}
	cancel     context.CancelFunc

	outcome Outcome
}

// BatchNum returns the batch number this handle tracks.
func (h *Handle) BatchNum() int64 { return h.descriptor.BatchNum }

// Cancel requests cancellation of a still-pending batch. A batch that has
// already begun writing may still complete partial work — the target
// index is not rolled back (spec §5).
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait blocks until the batch completes, returns its outcome.
func (h *Handle) Wait(ctx context.Context) Outcome {
	select {
	case <-h.done:
		return h.outcome
	case <-ctx.Done():
		return Outcome{BatchNum: h.descriptor.BatchNum, Err: ctx.Err()}
	}
}
