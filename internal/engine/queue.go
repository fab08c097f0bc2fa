package engine

import (
	"context"
	"sync"
	"sync/atomic"
)

// Job states. A job moves from queued to exactly one of running or
// abandoned; whichever side wins the swap decides whether it runs.
const (
	jobQueued int32 = iota
	jobRunning
	jobAbandoned
)

// job is one unit of work for the Run loop. done is closed once the job has
// run or been skipped.
type job struct {
	name  string
	run   func(ctx context.Context)
	done  chan struct{}
	state *atomic.Int32
}

// claim marks j as running. It fails if the submitter gave up first.
func (j job) claim() bool {
	return j.state == nil || j.state.CompareAndSwap(jobQueued, jobRunning)
}

// abandon marks j as never to run. It fails if the job already started.
func (j job) abandon() bool {
	return j.state != nil && j.state.CompareAndSwap(jobQueued, jobAbandoned)
}

// jobQueue is a thread-safe FIFO queue of jobs.
//
// Callers on any goroutine enqueue; only the Run loop dequeues. The signal
// channel lets the loop wait for work and for context cancellation in the
// same select.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{} // buffered, size 1
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds j to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)

	// Non-blocking: the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front job without blocking.
func (q *jobQueue) TryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}
	j := q.jobs[0]
	// Release the closure so it can be collected.
	q.jobs[0] = job{}
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Wait returns a channel that fires when jobs may be available.
// It is closed when the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Drained reports whether the queue is closed and empty.
func (q *jobQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.jobs) == 0
}

// Close stops further enqueues and wakes the waiter.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
