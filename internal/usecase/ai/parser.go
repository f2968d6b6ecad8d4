package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

// ExtractJSONObject locates the JSON object in a model response. The whole
// text is tried first; otherwise the span from the first '{' to the last '}'
// is parsed, which tolerates prose around the object.
func ExtractJSONObject(raw string) (map[string]any, error) {
	content := extractJSON(raw)
	if content == "" {
		return nil, fmt.Errorf("%w: empty output", entities.ErrMalformedOutput)
	}

	var direct any
	if err := json.Unmarshal([]byte(content), &direct); err == nil {
		if obj, ok := direct.(map[string]any); ok {
			return obj, nil
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", entities.ErrMalformedOutput)
	}

	var embedded any
	if err := json.Unmarshal([]byte(content[start:end+1]), &embedded); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrMalformedOutput, err)
	}
	obj, ok := embedded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: JSON root must be an object", entities.ErrMalformedOutput)
	}
	return obj, nil
}

// extractJSON strips surrounding whitespace and a markdown code fence
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
