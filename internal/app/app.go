package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/johnquangdev/todo-maker/internal/adapter/repository"
	"github.com/johnquangdev/todo-maker/internal/infrastructure/external/assemblyai"
	"github.com/johnquangdev/todo-maker/internal/infrastructure/external/localml"
	"github.com/johnquangdev/todo-maker/internal/infrastructure/queue"
	aiuse "github.com/johnquangdev/todo-maker/internal/usecase/ai"
	"github.com/johnquangdev/todo-maker/internal/usecase/pipeline"
	"github.com/johnquangdev/todo-maker/internal/usecase/speech"
	pkgai "github.com/johnquangdev/todo-maker/pkg/ai"
	"github.com/johnquangdev/todo-maker/pkg/config"
)

// NewLogger returns a development logger in development and a production one otherwise
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Pipeline bundles everything needed to run jobs
type Pipeline struct {
	Repo         *repository.JobRepository
	Orchestrator *pipeline.Orchestrator

	closers []io.Closer
}

// Close releases engine resources
func (p *Pipeline) Close() error {
	var firstErr error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewPipeline wires the repository, speech stage and extractors from cfg
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	p := &Pipeline{Repo: repository.NewJobRepository(cfg.JobsDir())}

	stage, err := p.newStage(cfg, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	var llm pipeline.LLMExtractor
	if extractor := NewLLMExtractor(cfg, logger); extractor != nil {
		llm = extractor
	}

	p.Orchestrator = pipeline.NewOrchestrator(
		p.Repo,
		stage,
		llm,
		aiuse.NewHeuristicExtractor(),
		pipeline.Options{UseLLM: bool(cfg.LLM.Enabled)},
		logger,
	)
	return p, nil
}

func (p *Pipeline) newStage(cfg *config.Config, logger *zap.Logger) (*speech.Stage, error) {
	var helpers *localml.Helpers
	localHelpers := func() (*localml.Helpers, error) {
		if helpers != nil {
			return helpers, nil
		}
		h, err := localml.NewHelpers(cfg.ASR.PythonBin, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare local ML helpers: %w", err)
		}
		helpers = h
		p.closers = append(p.closers, h)
		return h, nil
	}

	var (
		asr       speech.ASREngine
		detector  speech.DeviceDetector
		diarizer  speech.Diarizer
		aaiEngine *assemblyai.Engine
	)
	sharedAssembly := cfg.ASR.Backend == "assemblyai" && cfg.Diarization.Backend == "assemblyai"

	switch cfg.ASR.Backend {
	case "assemblyai":
		aaiEngine = assemblyai.NewEngine(pkgai.NewAssemblyAIClient(&cfg.Assembly), sharedAssembly, logger)
		asr = aaiEngine
	default:
		h, err := localHelpers()
		if err != nil {
			return nil, err
		}
		asr = localml.NewASR(h)
		detector = localml.NewDetector(h)
	}

	switch cfg.Diarization.Backend {
	case "assemblyai":
		if sharedAssembly {
			diarizer = aaiEngine
		} else {
			diarizer = assemblyai.NewEngine(pkgai.NewAssemblyAIClient(&cfg.Assembly), false, logger)
		}
	default:
		h, err := localHelpers()
		if err != nil {
			return nil, err
		}
		diarizer = localml.NewDiarizer(h)
	}

	credential, credentialName := cfg.DiarizationCredential()
	opts := speech.Options{
		Device:                cfg.ASR.Device,
		ComputeType:           cfg.ASR.ComputeType,
		Model:                 cfg.ASR.Model,
		BeamSize:              cfg.ASR.BeamSize,
		DiarizationModel:      cfg.Diarization.Model,
		DiarizationCredential: credential,
		CredentialName:        credentialName,
	}

	logger.Info("🎛️ Speech stage configured",
		zap.String("asr_backend", cfg.ASR.Backend),
		zap.String("diarization_backend", cfg.Diarization.Backend),
		zap.Bool("diarization_credential_set", credential != ""),
	)
	return speech.NewStage(asr, diarizer, detector, opts, logger), nil
}

// NewLLMExtractor returns the configured LLM extractor, or nil when LLM
// extraction is disabled
func NewLLMExtractor(cfg *config.Config, logger *zap.Logger) *aiuse.LLMExtractor {
	if !cfg.LLM.Enabled {
		return nil
	}

	opts := aiuse.LLMOptions{
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.OllamaTimeout(),
	}
	var client pkgai.ChatClient
	switch cfg.LLM.Provider {
	case "groq":
		client = pkgai.NewGroqClient(&cfg.Groq)
		opts.Model = cfg.Groq.Model
	default:
		client = pkgai.NewOllamaClient(&cfg.LLM)
		opts.Model = cfg.LLM.OllamaModel
	}

	logger.Info("🤖 LLM extraction enabled",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", opts.Model),
	)
	return aiuse.NewLLMExtractor(client, opts, logger)
}

// CheckStandaloneWorker rejects configurations a separate worker process
// cannot serve: an in-memory queue is private to the process that made it
func CheckStandaloneWorker(cfg *config.Config) error {
	if cfg.Queue.Backend == "memory" {
		return fmt.Errorf("QUEUE_BACKEND=memory cannot feed a standalone worker; use redis, or run cmd/api with WORKER_COUNT > 0")
	}
	return nil
}

// NewQueue connects the configured job queue
func NewQueue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (queue.JobQueue, error) {
	switch cfg.Queue.Backend {
	case "memory":
		logger.Info("📦 Using in-memory job queue")
		return queue.NewMemoryQueue(0), nil
	default:
		q, err := queue.NewRedisQueue(ctx, cfg.Queue.RedisURL, cfg.Queue.Key, logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	}
}
