package entities

import "time"

// JobStatus represents the lifecycle state of a todo extraction job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"     // Uploaded, waiting for a worker
	JobStatusProcessing JobStatus = "processing" // Owned by a worker
	JobStatusCompleted  JobStatus = "completed"  // Artifacts written
	JobStatusFailed     JobStatus = "failed"     // Aborted, error recorded
)

// IsTerminal reports whether no further transitions leave this status
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ExtractionMode records which extractor produced a job's todos
type ExtractionMode string

const (
	ExtractionModeLLM       ExtractionMode = "llm"
	ExtractionModeHeuristic ExtractionMode = "heuristic"
)

// Artifact file names inside a job's artifacts directory
const (
	ArtifactTranscript  = "transcript.json"
	ArtifactTodos       = "todos.json"
	ArtifactGroupedText = "todos_by_person.txt"
)

// ArtifactRefs references the generated outputs of a completed job
type ArtifactRefs struct {
	Transcript  string `json:"transcript"`
	Todos       string `json:"todos"`
	GroupedText string `json:"grouped_text"`
}

// DefaultArtifactRefs returns the artifact names every completed job publishes
func DefaultArtifactRefs() ArtifactRefs {
	return ArtifactRefs{
		Transcript:  ArtifactTranscript,
		Todos:       ArtifactTodos,
		GroupedText: ArtifactGroupedText,
	}
}

// ExtractionSummary is the extraction block of a completed status record
type ExtractionSummary struct {
	Mode     ExtractionMode `json:"mode"`
	Warnings []string       `json:"warnings"`
}

// Job is the persisted status record of one audio-processing request.
// Error is set only for failed jobs; Artifacts, Runtime and Extraction only for completed ones.
type Job struct {
	JobID        string             `json:"job_id"`
	Status       JobStatus          `json:"status"`
	UpdatedAt    time.Time          `json:"updated_at"`
	UploadedFile string             `json:"uploaded_file,omitempty"`
	Error        string             `json:"error,omitempty"`
	Artifacts    *ArtifactRefs      `json:"artifacts,omitempty"`
	Runtime      *RuntimeMetadata   `json:"runtime,omitempty"`
	Extraction   *ExtractionSummary `json:"extraction,omitempty"`
}

// NewQueuedJob creates the record written at submission time
func NewQueuedJob(jobID, uploadedFile string, now time.Time) *Job {
	return &Job{
		JobID:        jobID,
		Status:       JobStatusQueued,
		UploadedFile: uploadedFile,
		UpdatedAt:    now.UTC(),
	}
}

// NewProcessingJob creates the record written when a worker takes ownership
func NewProcessingJob(jobID string, now time.Time) *Job {
	return &Job{
		JobID:     jobID,
		Status:    JobStatusProcessing,
		UpdatedAt: now.UTC(),
	}
}

// NewCompletedJob creates the terminal success record
func NewCompletedJob(jobID string, now time.Time, runtime RuntimeMetadata, extraction ExtractionSummary) *Job {
	artifacts := DefaultArtifactRefs()
	if extraction.Warnings == nil {
		extraction.Warnings = []string{}
	}
	if runtime.Warnings == nil {
		runtime.Warnings = []string{}
	}
	return &Job{
		JobID:      jobID,
		Status:     JobStatusCompleted,
		UpdatedAt:  now.UTC(),
		Artifacts:  &artifacts,
		Runtime:    &runtime,
		Extraction: &extraction,
	}
}

// NewFailedJob creates the terminal failure record
func NewFailedJob(jobID string, now time.Time, errMsg string) *Job {
	return &Job{
		JobID:     jobID,
		Status:    JobStatusFailed,
		UpdatedAt: now.UTC(),
		Error:     errMsg,
	}
}
