package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	pkgai "github.com/johnquangdev/todo-maker/pkg/ai"
	"github.com/johnquangdev/todo-maker/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	response string
	err      error
	calls    int
	lastReq  pkgai.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req pkgai.ChatRequest) (string, error) {
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

func TestLLMExtractor_NoSegmentsNoCall(t *testing.T) {
	chat := &fakeChat{}
	got, err := NewLLMExtractor(chat, LLMOptions{}, nil).Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, chat.calls)
}

func TestLLMExtractor_PromptAndOptions(t *testing.T) {
	chat := &fakeChat{response: `{"todos": []}`}
	opts := LLMOptions{Model: "qwen2.5:14b", Temperature: 0.1, Timeout: 3 * time.Second}

	_, err := NewLLMExtractor(chat, opts, nil).Extract(context.Background(), labeled("S1", "hello"))
	require.NoError(t, err)

	assert.Equal(t, SystemPrompt, chat.lastReq.SystemPrompt)
	assert.Equal(t, "qwen2.5:14b", chat.lastReq.Model)
	assert.Equal(t, 3*time.Second, chat.lastReq.Timeout)
	assert.Contains(t, chat.lastReq.UserPrompt, `"segment_id":"seg_0001"`)
	assert.Contains(t, chat.lastReq.UserPrompt, `"speaker_id":"S1"`)
	assert.Contains(t, chat.lastReq.UserPrompt, "owner must be one of the speaker_id values present in input, or UNKNOWN")
}

func TestLLMExtractor_Errors(t *testing.T) {
	segments := labeled("S1", "hello")

	_, err := NewLLMExtractor(&fakeChat{err: pkgai.ErrServiceUnavailable}, LLMOptions{}, nil).Extract(context.Background(), segments)
	assert.ErrorIs(t, err, entities.ErrExtractionUnavailable)
	assert.ErrorIs(t, err, pkgai.ErrServiceUnavailable)

	_, err = NewLLMExtractor(&fakeChat{err: errors.New("boom")}, LLMOptions{}, nil).Extract(context.Background(), segments)
	assert.ErrorIs(t, err, entities.ErrExtractionUnavailable)

	_, err = NewLLMExtractor(&fakeChat{response: "I could not find any tasks."}, LLMOptions{}, nil).Extract(context.Background(), segments)
	assert.ErrorIs(t, err, entities.ErrMalformedOutput)

	_, err = NewLLMExtractor(&fakeChat{response: ""}, LLMOptions{}, nil).Extract(context.Background(), segments)
	assert.ErrorIs(t, err, entities.ErrMalformedOutput)

	_, err = NewLLMExtractor(&fakeChat{response: `{"todos": "none"}`}, LLMOptions{}, nil).Extract(context.Background(), segments)
	assert.ErrorIs(t, err, entities.ErrSchema)
}

// Prose around the JSON object is tolerated and owners are restricted to the
// speakers present in the transcript.
func TestLLMExtractor_OllamaProseResponse(t *testing.T) {
	answer := "Here are the action items I found:\n" +
		`{"todos": [` +
		`{"todo_id": "todo_0001", "text": "Send the report", "owner": "SPEAKER_00", "due": "Monday", "confidence": 0.8, "source_segment_ids": ["seg_0001"]},` +
		`{"text": "Order pizza", "owner": "Bob", "confidence": 0.4}` +
		"]}\nHope this helps!"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"content": answer}})
	}))
	defer ts.Close()

	client := pkgai.NewOllamaClient(&config.LLMConfig{OllamaBaseURL: ts.URL})
	segments := labeled("SPEAKER_00", "I will send the report on Monday", "someone order pizza")

	got, err := NewLLMExtractor(client, LLMOptions{Model: "m", Timeout: time.Second}, nil).Extract(context.Background(), segments)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SPEAKER_00", got[0].Owner)
	assert.Equal(t, "Monday", *got[0].Due)
	assert.Equal(t, entities.UnknownSpeaker, got[1].Owner)
	assert.Equal(t, "todo_0002", got[1].TodoID)
}
