package downloader

import "sync"

// jobQueue is an unbounded FIFO of download jobs. Pop blocks until a job is
// available or the queue is closed and drained.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []DownloadJob
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a job. It reports false once the queue is closed.
func (q *jobQueue) Push(job DownloadJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return true
}

// Pop removes the oldest job. ok is false when the queue is closed and empty.
func (q *jobQueue) Pop() (job DownloadJob, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return DownloadJob{}, false
	}

	job = q.items[0]
	q.items[0] = DownloadJob{}
	q.items = q.items[1:]
	return job, true
}

// Close wakes every waiting worker; remaining jobs can still be popped
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued jobs
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
