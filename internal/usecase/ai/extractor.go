package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	pkgai "github.com/johnquangdev/todo-maker/pkg/ai"
	"go.uber.org/zap"
)

// SystemPrompt frames the model for todo extraction
const SystemPrompt = "You extract actionable tasks and owner assignments from transcript segments."

const promptTemplate = "You are an assistant that extracts action items from meeting transcripts. " +
	"Return ONLY valid JSON with this schema: " +
	`{"todos": [{"todo_id": string, "text": string, "owner": string, "due": string|null, "confidence": number, "source_segment_ids": string[]}]}. ` +
	"Rules: " +
	"(1) owner must be one of the speaker_id values present in input, or UNKNOWN. " +
	"(2) confidence between 0 and 1. " +
	"(3) only include actionable items, do not include discussion-only statements. " +
	"(4) preserve meaning and keep text concise. " +
	"Input transcript JSON: %s"

// LLMOptions configures the LLM extractor
type LLMOptions struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// LLMExtractor asks an LLM service for todos and normalizes its answer
type LLMExtractor struct {
	client pkgai.ChatClient
	opts   LLMOptions
	logger *zap.Logger
}

// NewLLMExtractor creates an extractor backed by client
func NewLLMExtractor(client pkgai.ChatClient, opts LLMOptions, logger *zap.Logger) *LLMExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMExtractor{client: client, opts: opts, logger: logger}
}

type promptSegment struct {
	SegmentID string  `json:"segment_id"`
	SpeakerID string  `json:"speaker_id"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Text      string  `json:"text"`
}

// BuildPrompt embeds a compact JSON projection of segments in the extraction prompt
func BuildPrompt(segments []entities.TranscriptSegment) (string, error) {
	compact := make([]promptSegment, 0, len(segments))
	for _, s := range segments {
		compact = append(compact, promptSegment{
			SegmentID: s.SegmentID,
			SpeakerID: s.SpeakerID,
			StartSec:  s.StartSec,
			EndSec:    s.EndSec,
			Text:      s.Text,
		})
	}
	b, err := json.Marshal(map[string]any{"segments": compact})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(promptTemplate, b), nil
}

// Extract returns the normalized todos proposed by the model. No segments
// means no call and no todos. Service failures are reported as
// ErrExtractionUnavailable, unparseable answers as ErrMalformedOutput.
func (e *LLMExtractor) Extract(ctx context.Context, segments []entities.TranscriptSegment) ([]entities.Todo, error) {
	if len(segments) == 0 {
		return []entities.Todo{}, nil
	}

	prompt, err := BuildPrompt(segments)
	if err != nil {
		return nil, fmt.Errorf("%w: build prompt: %v", entities.ErrExtractionUnavailable, err)
	}

	start := time.Now()
	raw, err := e.client.Chat(ctx, pkgai.ChatRequest{
		Model:        e.opts.Model,
		SystemPrompt: SystemPrompt,
		UserPrompt:   prompt,
		Temperature:  e.opts.Temperature,
		Timeout:      e.opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrExtractionUnavailable, err)
	}

	e.logger.Debug("llm response received",
		zap.String("model", e.opts.Model),
		zap.Int("response_length", len(raw)),
		zap.Duration("took", time.Since(start)),
	)

	payload, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	return NormalizePayload(payload, entities.ValidOwners(segments))
}
