package ai

import (
	"context"
	"errors"
	"time"
)

// ErrServiceUnavailable marks transport failures, timeouts and non-2xx
// responses of an LLM service. A successful response with no content is not
// an error.
var ErrServiceUnavailable = errors.New("llm service unavailable")

// ChatRequest is a single-turn chat completion request
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	Timeout      time.Duration
}

// ChatClient is implemented by every LLM backend
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func messagesFor(req ChatRequest) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	return append(messages, chatMessage{Role: "user", Content: req.UserPrompt})
}

// withTimeout bounds ctx by the request timeout when one is set
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
