package job

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/domain/repositories"
	"go.uber.org/zap"
)

// Enqueuer hands a job id to the workers
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Service defines the interface for job submission use case
type Service interface {
	// Submit stores an upload as a new queued job and enqueues it
	Submit(ctx context.Context, filename string, content io.Reader) (*entities.Job, error)

	// Status returns the current status record of a job
	Status(ctx context.Context, jobID string) (*entities.Job, error)

	// Result returns the grouped todo report of a completed job
	Result(ctx context.Context, jobID string) (string, error)
}

// Ensure JobService implements Service interface
var _ Service = (*JobService)(nil)

// JobService implements Service
type JobService struct {
	repo   repositories.JobRepository
	queue  Enqueuer
	newID  func() string
	logger *zap.Logger
}

// NewJobService creates a new job service
func NewJobService(repo repositories.JobRepository, queue Enqueuer, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{
		repo:   repo,
		queue:  queue,
		newID:  NewJobID,
		logger: logger,
	}
}

// NewJobID returns 32 lowercase hex characters
func NewJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Submit implements Service. A job whose id could not be enqueued is marked
// failed so it does not sit in queued forever.
func (s *JobService) Submit(ctx context.Context, filename string, content io.Reader) (*entities.Job, error) {
	jobID := s.newID()

	job, err := s.repo.CreateJob(ctx, jobID, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, jobID); err != nil {
		s.logger.Error("❌ Failed to enqueue job", zap.String("job_id", jobID), zap.Error(err))
		if _, markErr := s.repo.MarkJobAsFailed(context.WithoutCancel(ctx), jobID, fmt.Sprintf("enqueue failed: %v", err)); markErr != nil {
			s.logger.Error("❌ Failed to mark unqueued job as failed", zap.String("job_id", jobID), zap.Error(markErr))
		}
		return job, &EnqueueError{JobID: jobID, Err: err}
	}

	s.logger.Info("📥 Job queued",
		zap.String("job_id", jobID),
		zap.String("uploaded_file", job.UploadedFile),
	)
	return job, nil
}

// Status implements Service
func (s *JobService) Status(ctx context.Context, jobID string) (*entities.Job, error) {
	return s.repo.GetJob(ctx, jobID)
}

// Result implements Service
func (s *JobService) Result(ctx context.Context, jobID string) (string, error) {
	return s.repo.ReadResult(ctx, jobID)
}

// EnqueueError reports a job that was stored but could not be queued
type EnqueueError struct {
	JobID string
	Err   error
}

func (e *EnqueueError) Error() string {
	return fmt.Sprintf("failed to enqueue job %s: %v", e.JobID, e.Err)
}

func (e *EnqueueError) Unwrap() error { return e.Err }
