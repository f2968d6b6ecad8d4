package queue

import (
	"context"
	"time"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

// ErrQueueClosed is returned by operations on a closed queue
var ErrQueueClosed = entities.ErrQueueClosed

// JobQueue transports job ids from the API to the workers
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
	// Dequeue waits up to timeout for a job id; an empty id with a nil error
	// means nothing arrived in time
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}
