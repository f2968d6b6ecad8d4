package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/domain/repositories"
)

const (
	statusFile      = "status.json"
	artifactsDir    = "artifacts"
	defaultFilename = "input_audio"
)

// AudioExtensions are the upload suffixes recognized as job input
var AudioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".aac":  {},
	".ogg":  {},
	".mp4":  {},
	".webm": {},
}

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// JobRepository stores each job in its own directory:
//
//	<root>/<job_id>/status.json
//	<root>/<job_id>/<uploaded file>
//	<root>/<job_id>/artifacts/{transcript.json,todos.json,todos_by_person.txt}
type JobRepository struct {
	root string
	now  func() time.Time
}

var _ repositories.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a job repository rooted at jobsDir
func NewJobRepository(jobsDir string) *JobRepository {
	return &JobRepository{root: jobsDir, now: time.Now}
}

// WithClock overrides the timestamp source
func (r *JobRepository) WithClock(now func() time.Time) *JobRepository {
	r.now = now
	return r
}

// JobDir returns the directory of a job
func (r *JobRepository) JobDir(jobID string) (string, error) {
	if !jobIDPattern.MatchString(jobID) {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidJobID, jobID)
	}
	return filepath.Join(r.root, jobID), nil
}

// CreateJob stores the uploaded file and writes the queued status
func (r *JobRepository) CreateJob(ctx context.Context, jobID, filename string, content io.Reader) (*entities.Job, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	name := sanitizeFilename(filename)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	job := entities.NewQueuedJob(jobID, name, r.now())
	if err := r.writeStatus(dir, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob reads the status record of a job
func (r *JobRepository) GetJob(ctx context.Context, jobID string) (*entities.Job, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(dir, statusFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entities.ErrJobNotFound
		}
		return nil, err
	}
	var job entities.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, fmt.Errorf("failed to decode status of job %s: %w", jobID, err)
	}
	return &job, nil
}

// MarkJobAsProcessing overwrites the status with processing and removes the
// artifacts of any earlier run, so a result is only served for the run that
// produced it
func (r *JobRepository) MarkJobAsProcessing(ctx context.Context, jobID string) (*entities.Job, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(filepath.Join(dir, artifactsDir)); err != nil {
		return nil, fmt.Errorf("failed to clear artifacts of job %s: %w", jobID, err)
	}
	return r.transition(jobID, entities.NewProcessingJob(jobID, r.now()))
}

// MarkJobAsCompleted writes the terminal success status
func (r *JobRepository) MarkJobAsCompleted(ctx context.Context, jobID string, runtime entities.RuntimeMetadata, extraction entities.ExtractionSummary) (*entities.Job, error) {
	return r.transition(jobID, entities.NewCompletedJob(jobID, r.now(), runtime, extraction))
}

// MarkJobAsFailed writes the terminal failure status
func (r *JobRepository) MarkJobAsFailed(ctx context.Context, jobID string, errMsg string) (*entities.Job, error) {
	return r.transition(jobID, entities.NewFailedJob(jobID, r.now(), errMsg))
}

func (r *JobRepository) transition(jobID string, job *entities.Job) (*entities.Job, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}
	if err := r.writeStatus(dir, job); err != nil {
		return nil, err
	}
	return job, nil
}

// LocateInput returns the most recently modified audio file of a job.
// Files with equal modification times resolve to the first name in
// lexical order.
func (r *JobRepository) LocateInput(ctx context.Context, jobID string) (string, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w in %s", entities.ErrInputNotFound, dir)
		}
		return "", err
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".json" {
			continue
		}
		if _, ok := AudioExtensions[ext]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = entry.Name()
			bestTime = info.ModTime()
		}
	}

	if best == "" {
		return "", fmt.Errorf("%w in %s", entities.ErrInputNotFound, dir)
	}
	return filepath.Join(dir, best), nil
}

// WriteArtifacts persists the transcript, todo list and grouped report
func (r *JobRepository) WriteArtifacts(ctx context.Context, jobID string, artifacts repositories.JobArtifacts) error {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return err
	}
	out := filepath.Join(dir, artifactsDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	if err := writeJSONAtomic(filepath.Join(out, entities.ArtifactTranscript), artifacts.Transcript); err != nil {
		return err
	}
	if err := writeJSONAtomic(filepath.Join(out, entities.ArtifactTodos), artifacts.Todos); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(out, entities.ArtifactGroupedText), []byte(artifacts.GroupedText))
}

// ReadResult returns the grouped report of a completed job
func (r *JobRepository) ReadResult(ctx context.Context, jobID string) (string, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(dir, artifactsDir, entities.ArtifactGroupedText))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", entities.ErrResultNotReady
		}
		return "", err
	}
	return string(b), nil
}

// ArtifactPath returns the path of a named artifact of a job
func (r *JobRepository) ArtifactPath(jobID, name string) (string, error) {
	dir, err := r.JobDir(jobID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, artifactsDir, name), nil
}

func (r *JobRepository) writeStatus(dir string, job *entities.Job) error {
	if err := writeJSONAtomic(filepath.Join(dir, statusFile), job); err != nil {
		return fmt.Errorf("failed to write status of job %s: %w", job.JobID, err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." || name == statusFile {
		return defaultFilename
	}
	return name
}

func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, b)
}

// writeFileAtomic replaces path so readers see either the old or the new content
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
