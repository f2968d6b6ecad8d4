package ai

import (
	"context"
	"fmt"
	"os"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/johnquangdev/todo-maker/pkg/config"
)

// AssemblyAIClient wraps the official AssemblyAI SDK
type AssemblyAIClient struct {
	sdk *aai.Client
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
// If cfg is nil, falls back to environment variables.
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig) *AssemblyAIClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	return &AssemblyAIClient{sdk: aai.NewClient(apiKey)}
}

// NewAssemblyAIClientWithSDK wraps an already configured SDK client
func NewAssemblyAIClientWithSDK(sdk *aai.Client) *AssemblyAIClient {
	return &AssemblyAIClient{sdk: sdk}
}

// Utterance is one speaker-attributed span of an AssemblyAI transcript
type Utterance struct {
	Speaker  string
	StartSec float64
	EndSec   float64
	Text     string
}

// TranscribeFile uploads a local audio file, waits for the transcript with
// speaker labels and returns its utterances
func (c *AssemblyAIClient) TranscribeFile(ctx context.Context, path string) ([]Utterance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}

	transcript, err := c.sdk.Transcripts.TranscribeFromReader(ctx, f, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	return UtterancesFromTranscript(transcript)
}

// UtterancesFromTranscript converts a finished transcript, milliseconds to seconds
func UtterancesFromTranscript(transcript aai.Transcript) ([]Utterance, error) {
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai error: %s", msg)
	}

	utterances := make([]Utterance, 0, len(transcript.Utterances))
	for _, utt := range transcript.Utterances {
		utterances = append(utterances, Utterance{
			Speaker:  deref(utt.Speaker),
			StartSec: msToSeconds(utt.Start),
			EndSec:   msToSeconds(utt.End),
			Text:     deref(utt.Text),
		})
	}
	return utterances, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func msToSeconds(ms *int64) float64 {
	if ms == nil {
		return 0
	}
	return float64(*ms) / 1000.0
}
