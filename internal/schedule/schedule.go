// Package schedule implements the Schedule of spec §3/§4.1.2: the progress
// counters governing batch emission and completion for one do_index run.
package schedule

import (
	"sync"
	"sync/atomic"
)

// Schedule tracks total/batched/finished counts with the invariant
// `0 ≤ finished ≤ scheduled ≤ total` and `scheduled = batch_size ×
// emitted_batches` (clamped at total).
type Schedule struct {
	total     int64
	batchSize int64

	mu        sync.Mutex
	scheduled int64
	nextBatch int64

	finished int64 // atomic
}

// New returns a Schedule for total items emitted in batches of batchSize.
func New(total int64, batchSize int) *Schedule {
	return &Schedule{total: total, batchSize: int64(batchSize)}
}

// Total returns the total item count.
func (s *Schedule) Total() int64 { return s.total }

// NumBatches returns ⌈total/batch_size⌉, the number of batch_num values
// iterating the schedule yields.
func (s *Schedule) NumBatches() int64 {
	if s.total == 0 {
		return 0
	}
	return (s.total + s.batchSize - 1) / s.batchSize
}

// EmitNext reserves the next batch, returning its 1-based batch_num and
// size, or ok=false once every item has been scheduled.
func (s *Schedule) EmitNext() (batchNum int64, size int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled >= s.total {
		return 0, 0, false
	}
	remaining := s.total - s.scheduled
	size = s.batchSize
	if size > remaining {
		size = remaining
	}
	s.scheduled += size
	s.nextBatch++
	return s.nextBatch, size, true
}

// Scheduled returns the count of items reserved so far.
func (s *Schedule) Scheduled() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// AddFinished increments the finished counter by n (a batch's successful
// write count), per spec §4.1.2 step 4d.
func (s *Schedule) AddFinished(n int64) {
	atomic.AddInt64(&s.finished, n)
}

// Finished returns the number of items confirmed written so far.
func (s *Schedule) Finished() int64 {
	return atomic.LoadInt64(&s.finished)
}

// Done reports whether every item has been confirmed finished.
func (s *Schedule) Done() bool {
	return s.Finished() >= s.total
}
