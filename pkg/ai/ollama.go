package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/johnquangdev/todo-maker/pkg/config"
)

// OllamaClient talks to a local Ollama server
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

// NewOllamaClient creates an Ollama client using values from the provided config.
// Pass a nil config to use the default address.
func NewOllamaClient(cfg *config.LLMConfig) *OllamaClient {
	base := "http://ollama:11434"
	if cfg != nil && cfg.OllamaBaseURL != "" {
		base = cfg.OllamaBaseURL
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{},
	}
}

type ollamaChatBody struct {
	Model    string         `json:"model"`
	Stream   bool           `json:"stream"`
	Messages []chatMessage  `json:"messages"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Chat sends a non-streaming /api/chat request and returns the assistant content
func (o *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	b, err := json.Marshal(ollamaChatBody{
		Model:    req.Model,
		Stream:   false,
		Messages: messagesFor(req),
		Options:  map[string]any{"temperature": req.Temperature},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: ollama returned status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var cr ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%w: ollama: decode response: %v", ErrServiceUnavailable, err)
	}
	return cr.Message.Content, nil
}
