package repositories

import (
	"context"
	"io"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

// JobArtifacts is the durable output of a completed job
type JobArtifacts struct {
	Transcript  entities.Transcript
	Todos       entities.TodoList
	GroupedText string
}

// JobRepository defines persistence operations for jobs, their uploaded
// input and their artifacts
type JobRepository interface {
	// Submission
	CreateJob(ctx context.Context, jobID, filename string, content io.Reader) (*entities.Job, error)

	// Status
	GetJob(ctx context.Context, jobID string) (*entities.Job, error)
	MarkJobAsProcessing(ctx context.Context, jobID string) (*entities.Job, error)
	MarkJobAsCompleted(ctx context.Context, jobID string, runtime entities.RuntimeMetadata, extraction entities.ExtractionSummary) (*entities.Job, error)
	MarkJobAsFailed(ctx context.Context, jobID string, errMsg string) (*entities.Job, error)

	// Input and artifacts
	LocateInput(ctx context.Context, jobID string) (string, error)
	WriteArtifacts(ctx context.Context, jobID string, artifacts JobArtifacts) error
	ReadResult(ctx context.Context, jobID string) (string, error)
}
