package ai

import (
	"testing"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeled(speaker string, texts ...string) []entities.TranscriptSegment {
	segments := make([]entities.TranscriptSegment, 0, len(texts))
	for i, text := range texts {
		s := entities.NewTranscriptSegment(i+1, float64(i), float64(i+1), text)
		s.SpeakerID = speaker
		segments = append(segments, s)
	}
	return segments
}

func TestHeuristic_Primary(t *testing.T) {
	segments := labeled("SPEAKER_01",
		"Good morning everyone",
		"I'll send the minutes tonight",
		"",
		"Can you check the budget?",
		"That was fun",
	)

	got := NewHeuristicExtractor().Extract(segments)

	require.Len(t, got, 2)
	assert.Equal(t, "todo_0002", got[0].TodoID)
	assert.Equal(t, "I'll send the minutes tonight", got[0].Text)
	assert.Equal(t, "SPEAKER_01", got[0].Owner)
	assert.Nil(t, got[0].Due)
	assert.Equal(t, 0.6, got[0].Confidence)
	assert.Equal(t, []string{"seg_0002"}, got[0].SourceSegmentIDs)
	assert.Equal(t, "todo_0004", got[1].TodoID)
}

func TestHeuristic_Fallback(t *testing.T) {
	segments := labeled(entities.UnknownSpeaker, "alpha", "", "gamma", "delta", "epsilon", "zeta", "eta")

	got := NewHeuristicExtractor().Extract(segments)

	require.Len(t, got, 4)
	assert.Equal(t, "todo_0001", got[0].TodoID)
	assert.Equal(t, "Review discussion item: alpha", got[0].Text)
	assert.Equal(t, 0.35, got[0].Confidence)
	assert.Equal(t, "todo_0003", got[1].TodoID)
	assert.Equal(t, "Review discussion item: epsilon", got[3].Text)
}

func TestHeuristic_Empty(t *testing.T) {
	assert.Empty(t, NewHeuristicExtractor().Extract(nil))
	assert.Empty(t, NewHeuristicExtractor().Extract(labeled("A", "", "  ")))
}

func TestHeuristic_CustomParameters(t *testing.T) {
	h := NewHeuristicExtractor()
	h.TriggerPhrases = []string{"ship"}
	h.FallbackWindow = 1

	got := h.Extract(labeled("A", "we should SHIP it", "please review"))
	require.Len(t, got, 1)
	assert.Equal(t, "we should SHIP it", got[0].Text)

	got = h.Extract(labeled("A", "one", "two"))
	require.Len(t, got, 1)
	assert.Equal(t, "Review discussion item: one", got[0].Text)
}

func TestHeuristic_SourcesReferenceInput(t *testing.T) {
	segments := labeled("A", "i will do x", "todo: y", "nothing", "please z", "we need w", "action item v")
	known := map[string]bool{}
	for _, s := range segments {
		known[s.SegmentID] = true
	}

	for _, todo := range NewHeuristicExtractor().Extract(segments) {
		for _, id := range todo.SourceSegmentIDs {
			assert.True(t, known[id], id)
		}
	}
}
