package ai

import (
	"strings"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

const (
	// PrimaryConfidence is given to segments matching a trigger phrase
	PrimaryConfidence = 0.6
	// FallbackConfidence is given to review items from the fallback pass
	FallbackConfidence = 0.35
	// FallbackWindow is how many leading segments the fallback pass considers
	FallbackWindow = 5
	// FallbackPrefix is prepended to segment text in the fallback pass
	FallbackPrefix = "Review discussion item: "
)

// DefaultTriggerPhrases mark commitment and request language
var DefaultTriggerPhrases = []string{
	"i will",
	"i'll",
	"we need",
	"todo",
	"can you",
	"please",
	"action item",
}

// HeuristicExtractor finds todos by phrase matching. It never fails and never
// calls anything outside the process.
type HeuristicExtractor struct {
	TriggerPhrases     []string
	FallbackWindow     int
	FallbackPrefix     string
	PrimaryConfidence  float64
	FallbackConfidence float64
}

// NewHeuristicExtractor returns an extractor with the default phrase set
func NewHeuristicExtractor() *HeuristicExtractor {
	phrases := make([]string, len(DefaultTriggerPhrases))
	copy(phrases, DefaultTriggerPhrases)
	return &HeuristicExtractor{
		TriggerPhrases:     phrases,
		FallbackWindow:     FallbackWindow,
		FallbackPrefix:     FallbackPrefix,
		PrimaryConfidence:  PrimaryConfidence,
		FallbackConfidence: FallbackConfidence,
	}
}

// Extract returns one todo per actionable segment. When no segment matches,
// the first FallbackWindow segments with text become review items so a report
// is never empty while there is something to review. Todo ids follow the
// segment's 1-based position in the input.
func (h *HeuristicExtractor) Extract(segments []entities.TranscriptSegment) []entities.Todo {
	todos := []entities.Todo{}
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || !h.actionable(text) {
			continue
		}
		todos = append(todos, entities.NewTodo(
			entities.TodoID(i+1), text, seg.SpeakerID, nil, h.PrimaryConfidence, []string{seg.SegmentID},
		))
	}
	if len(todos) > 0 {
		return todos
	}

	window := segments
	if n := max(0, h.FallbackWindow); len(window) > n {
		window = window[:n]
	}
	for i, seg := range window {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		todos = append(todos, entities.NewTodo(
			entities.TodoID(i+1), h.FallbackPrefix+text, seg.SpeakerID, nil, h.FallbackConfidence, []string{seg.SegmentID},
		))
	}
	return todos
}

func (h *HeuristicExtractor) actionable(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range h.TriggerPhrases {
		if phrase != "" && strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
