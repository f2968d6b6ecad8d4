package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

// NormalizePayload turns an extractor payload of the form {"todos": [...]}
// into valid todos. A missing "todos" field yields no todos; a "todos" field
// that is not a list fails with ErrSchema. Every other shape problem is
// corrected per item: non-object items and items without text are dropped,
// unknown owners become UNKNOWN, confidence defaults to 0.5 and is clamped.
func NormalizePayload(payload map[string]any, owners map[string]struct{}) ([]entities.Todo, error) {
	rawTodos, ok := payload["todos"]
	if !ok {
		return []entities.Todo{}, nil
	}
	items, ok := rawTodos.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field 'todos' must be a list, got %T", entities.ErrSchema, rawTodos)
	}
	return normalizeItems(items, owners), nil
}

// NormalizeTodos applies the same rules to already typed todos
func NormalizeTodos(todos []entities.Todo, owners map[string]struct{}) []entities.Todo {
	items := make([]any, 0, len(todos))
	for _, t := range todos {
		items = append(items, todoCandidate(t))
	}
	return normalizeItems(items, owners)
}

func normalizeItems(items []any, owners map[string]struct{}) []entities.Todo {
	normalized := make([]entities.Todo, 0, len(items))
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		text := strings.TrimSpace(stringify(item["text"]))
		if text == "" {
			continue
		}

		owner := strings.TrimSpace(stringify(item["owner"]))
		if _, known := owners[owner]; !known {
			owner = entities.UnknownSpeaker
		}

		todoID := strings.TrimSpace(stringify(item["todo_id"]))
		if todoID == "" {
			todoID = entities.TodoID(i + 1)
		}

		normalized = append(normalized, entities.NewTodo(
			todoID,
			text,
			owner,
			normalizeDue(item["due"]),
			parseConfidence(item["confidence"]),
			sourceIDs(item["source_segment_ids"]),
		))
	}
	return normalized
}

func normalizeDue(v any) *string {
	if v == nil {
		return nil
	}
	due := strings.TrimSpace(stringify(v))
	if due == "" || due == "null" {
		return nil
	}
	return &due
}

func parseConfidence(v any) float64 {
	var f float64
	switch c := v.(type) {
	case float64:
		f = c
	case float32:
		f = float64(c)
	case int:
		f = float64(c)
	case int64:
		f = float64(c)
	case json.Number:
		parsed, err := c.Float64()
		if err != nil {
			return entities.DefaultConfidence
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return entities.DefaultConfidence
		}
		f = parsed
	case bool:
		if c {
			f = 1
		}
	default:
		return entities.DefaultConfidence
	}
	if math.IsNaN(f) {
		return entities.DefaultConfidence
	}
	return entities.ClampConfidence(f)
}

func sourceIDs(v any) []string {
	ids := []string{}
	switch list := v.(type) {
	case []any:
		for _, id := range list {
			if s := strings.TrimSpace(stringify(id)); s != "" {
				ids = append(ids, s)
			}
		}
	case []string:
		for _, id := range list {
			if s := strings.TrimSpace(id); s != "" {
				ids = append(ids, s)
			}
		}
	}
	return ids
}

// stringify renders a decoded JSON value as text; null becomes empty
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}

func todoCandidate(t entities.Todo) map[string]any {
	var due any
	if t.Due != nil {
		due = *t.Due
	}
	return map[string]any{
		"todo_id":            t.TodoID,
		"text":               t.Text,
		"owner":              t.Owner,
		"due":                due,
		"confidence":         t.Confidence,
		"source_segment_ids": t.SourceSegmentIDs,
	}
}
