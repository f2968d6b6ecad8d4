package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/domain/repositories"
	"github.com/johnquangdev/todo-maker/internal/usecase/ai"
	"github.com/johnquangdev/todo-maker/internal/usecase/outcome"
	"github.com/johnquangdev/todo-maker/pkg/jobcontext"
	"go.uber.org/zap"
)

// Transcriber produces the labeled transcript of an audio file
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) outcome.Outcome[entities.Transcript]
}

// LLMExtractor proposes todos for labeled segments using a language model
type LLMExtractor interface {
	Extract(ctx context.Context, segments []entities.TranscriptSegment) ([]entities.Todo, error)
}

// HeuristicExtractor proposes todos without leaving the process
type HeuristicExtractor interface {
	Extract(segments []entities.TranscriptSegment) []entities.Todo
}

// Options configures the orchestrator
type Options struct {
	UseLLM bool
}

// DefaultOptions returns the orchestrator defaults
func DefaultOptions() Options {
	return Options{UseLLM: true}
}

// Service runs submitted jobs to a terminal status
type Service interface {
	Run(ctx context.Context, jobID string) (*entities.Job, error)
}

// Orchestrator drives one job through locate, transcribe, extract, report
// and persist. Every job it starts ends in exactly one terminal status.
type Orchestrator struct {
	repo        repositories.JobRepository
	transcriber Transcriber
	llm         LLMExtractor
	heuristic   HeuristicExtractor
	opts        Options
	logger      *zap.Logger
}

// NewOrchestrator creates an orchestrator. llm may be nil when LLM extraction
// is not configured; heuristic defaults to ai.NewHeuristicExtractor().
func NewOrchestrator(
	repo repositories.JobRepository,
	transcriber Transcriber,
	llm LLMExtractor,
	heuristic HeuristicExtractor,
	opts Options,
	logger *zap.Logger,
) *Orchestrator {
	if heuristic == nil {
		heuristic = ai.NewHeuristicExtractor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		repo:        repo,
		transcriber: transcriber,
		llm:         llm,
		heuristic:   heuristic,
		opts:        opts,
		logger:      logger,
	}
}

type completion struct {
	runtime    entities.RuntimeMetadata
	extraction entities.ExtractionSummary
}

type extraction struct {
	todos []entities.Todo
	mode  entities.ExtractionMode
}

// Run processes jobID and returns its terminal status record. When the job
// fails, the failed status is written before the error is returned.
func (o *Orchestrator) Run(ctx context.Context, jobID string) (*entities.Job, error) {
	logger := o.logger.With(append(jobcontext.Fields(ctx), zap.String("job_id", jobID))...)

	if _, err := o.repo.MarkJobAsProcessing(ctx, jobID); err != nil {
		logger.Error("❌ Failed to mark job as processing", zap.Error(err))
		return nil, fmt.Errorf("failed to mark job %s as processing: %w", jobID, err)
	}
	logger.Info("🚀 Job processing started")

	result := o.process(ctx, jobID, logger)
	if result.Kind == outcome.KindFatal {
		return o.fail(ctx, jobID, result.Err, logger)
	}

	job, err := o.repo.MarkJobAsCompleted(ctx, jobID, result.Value.runtime, result.Value.extraction)
	if err != nil {
		return o.fail(ctx, jobID, err, logger)
	}

	logger.Info("✅ Job completed",
		zap.String("extraction_mode", string(result.Value.extraction.Mode)),
		zap.Int("runtime_warnings", len(result.Value.runtime.Warnings)),
		zap.Int("extraction_warnings", len(result.Value.extraction.Warnings)),
	)
	return job, nil
}

func (o *Orchestrator) process(ctx context.Context, jobID string, logger *zap.Logger) (result outcome.Outcome[completion]) {
	defer func() {
		if p := recover(); p != nil {
			result = outcome.Fatal[completion](fmt.Errorf("panic recovered: %v", p))
		}
	}()

	audioPath, err := o.repo.LocateInput(ctx, jobID)
	if err != nil {
		return outcome.Fatal[completion](err)
	}
	logger.Info("🔍 Input located", zap.String("audio_path", audioPath))

	transcribed := o.transcriber.Transcribe(ctx, audioPath)
	if transcribed.Kind == outcome.KindFatal {
		return outcome.Fatal[completion](transcribed.Err)
	}
	for _, w := range transcribed.Warnings {
		logger.Warn("⚠️ Transcription degraded", zap.String("warning", w))
	}
	transcript := transcribed.Value

	extracted := o.extract(ctx, transcript.Segments, logger)
	if extracted.Kind == outcome.KindFatal {
		return outcome.Fatal[completion](extracted.Err)
	}

	warnings := extracted.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	todos := extracted.Value.todos
	if todos == nil {
		todos = []entities.Todo{}
	}

	if err := o.repo.WriteArtifacts(ctx, jobID, repositories.JobArtifacts{
		Transcript:  transcript,
		Todos:       entities.TodoList{Todos: todos},
		GroupedText: BuildReport(todos),
	}); err != nil {
		return outcome.Fatal[completion](fmt.Errorf("failed to write artifacts: %w", err))
	}
	logger.Info("💾 Artifacts written", zap.Int("todos", len(todos)))

	return outcome.OK(completion{
		runtime: transcript.Metadata,
		extraction: entities.ExtractionSummary{
			Mode:     extracted.Value.mode,
			Warnings: warnings,
		},
	})
}

// extract prefers the LLM when enabled and falls back to the heuristic when
// the LLM fails or finds nothing. Either way the todos are normalized
// against the speakers of this transcript.
func (o *Orchestrator) extract(ctx context.Context, segments []entities.TranscriptSegment, logger *zap.Logger) outcome.Outcome[extraction] {
	owners := entities.ValidOwners(segments)

	if !o.opts.UseLLM || o.llm == nil {
		return outcome.OK(extraction{
			todos: ai.NormalizeTodos(o.heuristic.Extract(segments), owners),
			mode:  entities.ExtractionModeHeuristic,
		})
	}

	var warning string
	todos, err := o.extractWithLLM(ctx, withText(segments))
	switch {
	case err != nil:
		warning = fmt.Sprintf("LLM extraction failed; used heuristic fallback: %v", err)
	case len(todos) == 0:
		warning = "LLM extraction returned no todos; used heuristic fallback"
	default:
		return outcome.OK(extraction{
			todos: ai.NormalizeTodos(todos, owners),
			mode:  entities.ExtractionModeLLM,
		})
	}

	logger.Warn("⚠️ Falling back to heuristic extraction", zap.String("reason", warning))
	return outcome.Degraded(extraction{
		todos: ai.NormalizeTodos(o.heuristic.Extract(segments), owners),
		mode:  entities.ExtractionModeHeuristic,
	}, warning)
}

func (o *Orchestrator) extractWithLLM(ctx context.Context, segments []entities.TranscriptSegment) (todos []entities.Todo, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", entities.ErrExtractionUnavailable, p)
		}
	}()
	return o.llm.Extract(ctx, segments)
}

// fail writes the failed status and returns cause, joined with the write
// error when the status could not be persisted
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error, logger *zap.Logger) (*entities.Job, error) {
	if cause == nil {
		cause = errors.New("job failed without an error description")
	}
	logger.Error("❌ Job failed", zap.Error(cause))

	job, err := o.repo.MarkJobAsFailed(context.WithoutCancel(ctx), jobID, cause.Error())
	if err != nil {
		logger.Error("❌ Failed to persist failed status", zap.Error(err))
		return nil, errors.Join(cause, err)
	}
	return job, cause
}

func withText(segments []entities.TranscriptSegment) []entities.TranscriptSegment {
	out := make([]entities.TranscriptSegment, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}
