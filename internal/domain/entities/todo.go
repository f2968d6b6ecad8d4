package entities

import (
	"fmt"
	"math"
	"strings"
)

// DefaultConfidence is used when an extractor gives no usable confidence
const DefaultConfidence = 0.5

// TodoID returns the ordinal identifier of the n-th (1-based) candidate
func TodoID(ordinal int) string {
	return fmt.Sprintf("todo_%04d", ordinal)
}

// Todo is one extracted action item
type Todo struct {
	TodoID           string   `json:"todo_id"`
	Text             string   `json:"text"`
	Owner            string   `json:"owner"`
	Due              *string  `json:"due"`
	Confidence       float64  `json:"confidence"`
	SourceSegmentIDs []string `json:"source_segment_ids"`
}

// NewTodo builds a todo with its record-level invariants applied: trimmed
// fields, UNKNOWN for an empty owner, absent for an empty due, clamped
// confidence and a non-nil source list. Owner membership is checked by the
// normalizer, which knows the job's speakers.
func NewTodo(todoID, text, owner string, due *string, confidence float64, sources []string) Todo {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = UnknownSpeaker
	}
	if due != nil {
		d := strings.TrimSpace(*due)
		if d == "" {
			due = nil
		} else {
			due = &d
		}
	}
	if sources == nil {
		sources = []string{}
	}
	return Todo{
		TodoID:           strings.TrimSpace(todoID),
		Text:             strings.TrimSpace(text),
		Owner:            owner,
		Due:              due,
		Confidence:       ClampConfidence(confidence),
		SourceSegmentIDs: sources,
	}
}

// ClampConfidence limits v to [0, 1]; NaN becomes DefaultConfidence
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultConfidence
	}
	return math.Max(0, math.Min(1, v))
}

// TodoList is the persisted todo document of a job
type TodoList struct {
	Todos []Todo `json:"todos"`
}
