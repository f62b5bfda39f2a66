package engine

import (
	"context"
	"sync"
)

// job is one unit of work queued on a path.
type job struct {
	id  string
	ctx context.Context

	// run executes the work, resolves the job's handle and returns the
	// job's error for logging.
	run func(w *worker) error

	// abort resolves the handle with err without running the work.
	abort func(err error)

	// stop detaches the submitting context's cancellation hook.
	stop func() bool
}

// jobQueue is a thread-safe, unbounded FIFO of jobs.
//
// Submitters enqueue from any goroutine; the path's drain goroutine
// dequeues. Remove lets a queued job leave before it starts.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []*job
	closed bool
}

func newJobQueue() *jobQueue {
	return &jobQueue{jobs: make([]*job, 0, 16)}
}

// Enqueue adds j to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j *job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)
	return true
}

// EnqueueLast adds j and closes the queue in one step, so j is the final
// job the queue accepts.
func (q *jobQueue) EnqueueLast(j *job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)
	q.closed = true
	return true
}

// TryDequeue removes and returns the front job without blocking.
func (q *jobQueue) TryDequeue() (*job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}
	j := q.jobs[0]

	// Clear the slot so the backing array does not pin finished jobs.
	q.jobs[0] = nil
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Remove takes j out of the queue. It reports false when j already left
// the queue (started, finished or removed).
func (q *jobQueue) Remove(j *job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, queued := range q.jobs {
		if queued == j {
			copy(q.jobs[i:], q.jobs[i+1:])
			q.jobs[len(q.jobs)-1] = nil
			q.jobs = q.jobs[:len(q.jobs)-1]
			return true
		}
	}
	return false
}

// Len returns the number of queued jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close rejects further Enqueue calls. Queued jobs stay queued.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
