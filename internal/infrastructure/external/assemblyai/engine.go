package assemblyai

import (
	"context"
	"sync"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/usecase/speech"
	pkgai "github.com/johnquangdev/todo-maker/pkg/ai"
	"go.uber.org/zap"
)

// speakerPrefix turns AssemblyAI's letter labels into SPEAKER_A, SPEAKER_B, ...
const speakerPrefix = "SPEAKER_"

// maxRetained bounds transcripts kept for a diarization call that never came
const maxRetained = 8

type fileTranscriber interface {
	TranscribeFile(ctx context.Context, path string) ([]pkgai.Utterance, error)
}

var (
	_ speech.ASREngine = (*Engine)(nil)
	_ speech.Diarizer  = (*Engine)(nil)
)

// Engine serves both ASR and diarization from one AssemblyAI transcript with
// speaker labels. When it is also the diarizer, the transcript fetched for
// Transcribe is kept until Diarize is called for the same path, so each
// audio file is uploaded once.
type Engine struct {
	client fileTranscriber
	retain bool
	logger *zap.Logger

	mu       sync.Mutex
	retained map[string][]pkgai.Utterance
}

// NewEngine creates an AssemblyAI engine. retain should be true when the
// engine is wired as the diarizer too.
func NewEngine(client fileTranscriber, retain bool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:   client,
		retain:   retain,
		logger:   logger,
		retained: make(map[string][]pkgai.Utterance),
	}
}

// Name implements speech.ASREngine and speech.Diarizer
func (e *Engine) Name() string { return "assemblyai" }

// Transcribe implements speech.ASREngine. Device and compute settings do not
// apply to a hosted engine.
func (e *Engine) Transcribe(ctx context.Context, audioPath string, _ speech.ASRRequest) ([]speech.RawSegment, error) {
	utterances, err := e.client.TranscribeFile(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	if e.retain {
		e.keep(audioPath, utterances)
	}

	segments := make([]speech.RawSegment, 0, len(utterances))
	for _, u := range utterances {
		segments = append(segments, speech.RawSegment{StartSec: u.StartSec, EndSec: u.EndSec, Text: u.Text})
	}
	e.logger.Info("📝 AssemblyAI transcript received",
		zap.String("audio_path", audioPath),
		zap.Int("utterances", len(utterances)),
	)
	return segments, nil
}

// Diarize implements speech.Diarizer
func (e *Engine) Diarize(ctx context.Context, audioPath string, _ speech.DiarizationRequest) (speech.DiarizationResult, error) {
	utterances, ok := e.take(audioPath)
	if !ok {
		var err error
		utterances, err = e.client.TranscribeFile(ctx, audioPath)
		if err != nil {
			return speech.DiarizationResult{}, err
		}
	}

	turns := make([]entities.DiarizationTurn, 0, len(utterances))
	for _, u := range utterances {
		if u.Speaker == "" {
			continue
		}
		turns = append(turns, entities.DiarizationTurn{
			Speaker:  speakerPrefix + u.Speaker,
			StartSec: u.StartSec,
			EndSec:   u.EndSec,
		})
	}
	return speech.DiarizationResult{Turns: turns}, nil
}

func (e *Engine) keep(path string, utterances []pkgai.Utterance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.retained[path]; !exists && len(e.retained) >= maxRetained {
		for stale := range e.retained {
			delete(e.retained, stale)
			break
		}
	}
	e.retained[path] = utterances
}

func (e *Engine) take(path string) ([]pkgai.Utterance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.retained[path]
	delete(e.retained, path)
	return u, ok
}
