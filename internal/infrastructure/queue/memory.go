package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process job queue for single-binary deployments and tests
type MemoryQueue struct {
	items     chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryQueue creates a queue holding up to capacity pending jobs
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryQueue{
		items: make(chan string, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue adds a job id, waiting while the queue is full
func (q *MemoryQueue) Enqueue(ctx context.Context, jobID string) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.items <- jobID:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue takes the oldest job id
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case jobID := <-q.items:
		return jobID, nil
	case <-q.done:
		return "", ErrQueueClosed
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", nil
	}
}

// Len returns the number of pending jobs
func (q *MemoryQueue) Len() int {
	return len(q.items)
}

// Close stops the queue; pending jobs are dropped
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
