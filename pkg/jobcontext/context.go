package jobcontext

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyWorkerID     KeyContext = "worker_id"
	keyJobStartTime KeyContext = "job_start_time"
)

// JobMetadata holds metadata for a job execution
type JobMetadata struct {
	JobID     string
	WorkerID  int
	StartTime time.Time
}

// JobBegin derives a job context carrying its metadata.
// There is no timeout: a job runs until it reaches a terminal status.
func JobBegin(parentCtx context.Context, jobID string, workerID int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parentCtx)

	ctx = context.WithValue(ctx, keyJobID, jobID)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// JobEnd executes the job function once, converting a panic into an error.
// Failed jobs are never retried.
func JobEnd(ctx context.Context, jobFunc func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v\n%s", p, debug.Stack())
		}
	}()

	// Check if context was cancelled before execution
	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before job execution: %w", ctx.Err())
	}

	return jobFunc(ctx)
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (string, bool) {
	jobID, ok := ctx.Value(keyJobID).(string)
	return jobID, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	jobID, _ := GetJobID(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		JobID:     jobID,
		WorkerID:  GetWorkerID(ctx),
		StartTime: startTime,
	}
}

// Fields returns the worker metadata of ctx as log fields; nothing outside a job
func Fields(ctx context.Context) []zap.Field {
	if _, ok := GetJobID(ctx); !ok {
		return nil
	}
	fields := []zap.Field{zap.Int("worker_id", GetWorkerID(ctx))}
	if start, ok := GetJobStartTime(ctx); ok {
		fields = append(fields, zap.Time("job_started_at", start))
	}
	return fields
}
