package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johnquangdev/todo-maker/internal/adapter/repository"
	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/usecase/ai"
	"github.com/johnquangdev/todo-maker/internal/usecase/speech"
	pkgai "github.com/johnquangdev/todo-maker/pkg/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeASR struct {
	segments []speech.RawSegment
	err      error
}

func (f *fakeASR) Name() string { return "fake-asr" }

func (f *fakeASR) Transcribe(context.Context, string, speech.ASRRequest) ([]speech.RawSegment, error) {
	return f.segments, f.err
}

type fakeDiarizer struct {
	turns []entities.DiarizationTurn
	err   error
}

func (f *fakeDiarizer) Name() string { return "fake-diarizer" }

func (f *fakeDiarizer) Diarize(context.Context, string, speech.DiarizationRequest) (speech.DiarizationResult, error) {
	return speech.DiarizationResult{Turns: f.turns}, f.err
}

type fakeChat struct {
	reply string
	err   error
	calls int
}

func (f *fakeChat) Chat(context.Context, pkgai.ChatRequest) (string, error) {
	f.calls++
	return f.reply, f.err
}

func meetingSegments() []speech.RawSegment {
	return []speech.RawSegment{
		{StartSec: 0, EndSec: 3, Text: "Welcome everyone"},
		{StartSec: 3, EndSec: 6, Text: "I will send the budget by Friday"},
		{StartSec: 6, EndSec: 9, Text: "Thanks"},
		{StartSec: 9, EndSec: 12, Text: "We need a new vendor"},
		{StartSec: 12, EndSec: 15, Text: "Agreed"},
		{StartSec: 15, EndSec: 18, Text: "See you next week"},
	}
}

type harness struct {
	repo  *repository.JobRepository
	root  string
	jobID string
}

func newHarness(t *testing.T, withInput bool) harness {
	t.Helper()
	root := t.TempDir()
	repo := repository.NewJobRepository(root)
	jobID := "job123"

	if withInput {
		_, err := repo.CreateJob(context.Background(), jobID, "meeting.wav", strings.NewReader("RIFF"))
		require.NoError(t, err)
	} else {
		require.NoError(t, os.MkdirAll(filepath.Join(root, jobID), 0o755))
	}
	return harness{repo: repo, root: root, jobID: jobID}
}

func (h harness) readTodos(t *testing.T) entities.TodoList {
	t.Helper()
	path, err := h.repo.ArtifactPath(h.jobID, entities.ArtifactTodos)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var list entities.TodoList
	require.NoError(t, json.Unmarshal(b, &list))
	return list
}

func stage(asr speech.ASREngine, diarizer speech.Diarizer, credential string) *speech.Stage {
	opts := speech.DefaultOptions()
	opts.Device = speech.DeviceCPU
	opts.DiarizationCredential = credential
	return speech.NewStage(asr, diarizer, nil, opts, nil)
}

func TestOrchestrator_HeuristicWithoutDiarization(t *testing.T) {
	h := newHarness(t, true)
	orch := NewOrchestrator(h.repo, stage(&fakeASR{segments: meetingSegments()}, nil, ""), nil, nil, Options{UseLLM: false}, nil)

	job, err := orch.Run(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Extraction)
	assert.Equal(t, entities.ExtractionModeHeuristic, job.Extraction.Mode)
	assert.Empty(t, job.Extraction.Warnings)
	require.NotNil(t, job.Runtime)
	assert.False(t, job.Runtime.DiarizationEnabled)
	assert.NotEmpty(t, job.Runtime.Warnings)

	todos := h.readTodos(t).Todos
	require.NotEmpty(t, todos)
	for _, todo := range todos {
		assert.Equal(t, entities.UnknownSpeaker, todo.Owner)
	}
	assert.Equal(t, "I will send the budget by Friday", todos[0].Text)

	report, err := h.repo.ReadResult(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report, "UNKNOWN\n- I will send the budget by Friday\n"))

	stored, err := h.repo.GetJob(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, stored.Status)
}

func TestOrchestrator_LLMOwnersRestrictedToSpeakers(t *testing.T) {
	h := newHarness(t, true)
	diarizer := &fakeDiarizer{turns: []entities.DiarizationTurn{
		{Speaker: "SPEAKER_00", StartSec: 0, EndSec: 9},
		{Speaker: "SPEAKER_01", StartSec: 9, EndSec: 18},
	}}
	chat := &fakeChat{reply: "Sure! Here you go:\n```json\n" + `{"todos":[
		{"todo_id":"todo_0001","text":"Send the budget","owner":"SPEAKER_00","due":"Friday","confidence":0.9,"source_segment_ids":["seg_0002"]},
		{"todo_id":"todo_0002","text":"Find a vendor","owner":"Alice","due":null,"confidence":"0.7","source_segment_ids":["seg_0004"]}
	]}` + "\n```"}
	llm := ai.NewLLMExtractor(chat, ai.LLMOptions{Model: "test"}, nil)
	orch := NewOrchestrator(h.repo, stage(&fakeASR{segments: meetingSegments()}, diarizer, "hf_token"), llm, nil, DefaultOptions(), nil)

	job, err := orch.Run(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.Equal(t, entities.ExtractionModeLLM, job.Extraction.Mode)
	assert.Empty(t, job.Extraction.Warnings)
	assert.True(t, job.Runtime.DiarizationEnabled)
	assert.Equal(t, 1, chat.calls)

	todos := h.readTodos(t).Todos
	require.Len(t, todos, 2)
	assert.Equal(t, "SPEAKER_00", todos[0].Owner)
	require.NotNil(t, todos[0].Due)
	assert.Equal(t, "Friday", *todos[0].Due)
	assert.Equal(t, entities.UnknownSpeaker, todos[1].Owner)
	assert.Nil(t, todos[1].Due)
	assert.InDelta(t, 0.7, todos[1].Confidence, 1e-9)

	report, err := h.repo.ReadResult(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.Equal(t, "SPEAKER_00\n- Send the budget (due: Friday)\n\nUNKNOWN\n- Find a vendor\n", report)
}

func TestOrchestrator_LLMFailureFallsBack(t *testing.T) {
	cases := map[string]*fakeChat{
		"unavailable": {err: pkgai.ErrServiceUnavailable},
		"empty":       {reply: `{"todos": []}`},
		"malformed":   {reply: "I could not find any tasks."},
	}
	for name, chat := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, true)
			llm := ai.NewLLMExtractor(chat, ai.LLMOptions{Model: "test"}, nil)
			orch := NewOrchestrator(h.repo, stage(&fakeASR{segments: meetingSegments()}, nil, ""), llm, nil, DefaultOptions(), nil)

			job, err := orch.Run(context.Background(), h.jobID)
			require.NoError(t, err)
			assert.Equal(t, entities.JobStatusCompleted, job.Status)
			assert.Equal(t, entities.ExtractionModeHeuristic, job.Extraction.Mode)
			require.Len(t, job.Extraction.Warnings, 1)
			assert.Contains(t, job.Extraction.Warnings[0], "heuristic fallback")
			assert.NotEmpty(t, h.readTodos(t).Todos)
		})
	}
}

func TestOrchestrator_DiarizerFailureDegrades(t *testing.T) {
	h := newHarness(t, true)
	diarizer := &fakeDiarizer{err: errors.New("gated model")}
	orch := NewOrchestrator(h.repo, stage(&fakeASR{segments: meetingSegments()}, diarizer, "hf_token"), nil, nil, Options{}, nil)

	job, err := orch.Run(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Runtime)
	require.Len(t, job.Runtime.Warnings, 1)
	assert.Contains(t, job.Runtime.Warnings[0], "Diarization failed and was skipped")

	path, err := h.repo.ArtifactPath(h.jobID, entities.ArtifactTranscript)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var transcript entities.Transcript
	require.NoError(t, json.Unmarshal(b, &transcript))
	assert.Empty(t, transcript.DiarizationTurns)
	for _, seg := range transcript.Segments {
		assert.Equal(t, entities.UnknownSpeaker, seg.SpeakerID)
	}
}

func TestOrchestrator_MissingInputFails(t *testing.T) {
	h := newHarness(t, false)
	orch := NewOrchestrator(h.repo, stage(&fakeASR{segments: meetingSegments()}, nil, ""), nil, nil, Options{}, nil)

	job, err := orch.Run(context.Background(), h.jobID)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInputNotFound)
	require.NotNil(t, job)
	assert.Equal(t, entities.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)

	stored, err := h.repo.GetJob(context.Background(), h.jobID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "no supported audio file found")

	_, err = os.Stat(filepath.Join(h.root, h.jobID, "artifacts"))
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_ASRFailureFails(t *testing.T) {
	h := newHarness(t, true)
	orch := NewOrchestrator(h.repo, stage(&fakeASR{err: errors.New("cuda out of memory")}, nil, ""), nil, nil, Options{}, nil)

	job, err := orch.Run(context.Background(), h.jobID)
	assert.ErrorIs(t, err, entities.ErrASRFailed)
	require.NotNil(t, job)
	assert.Equal(t, entities.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "cuda out of memory")

	_, err = h.repo.ReadResult(context.Background(), h.jobID)
	assert.ErrorIs(t, err, entities.ErrResultNotReady)
}

func TestOrchestrator_InvalidJobID(t *testing.T) {
	h := newHarness(t, true)
	orch := NewOrchestrator(h.repo, stage(&fakeASR{}, nil, ""), nil, nil, Options{}, nil)

	job, err := orch.Run(context.Background(), "../escape")
	assert.Nil(t, job)
	assert.ErrorIs(t, err, entities.ErrInvalidJobID)
}

func TestOrchestrator_FailedRerunDropsOldResult(t *testing.T) {
	h := newHarness(t, true)
	orch := NewOrchestrator(h.repo, stage(&fakeASR{segments: meetingSegments()}, nil, ""), nil, nil, Options{}, nil)
	ctx := context.Background()

	job, err := orch.Run(ctx, h.jobID)
	require.NoError(t, err)
	require.Equal(t, entities.JobStatusCompleted, job.Status)
	_, err = h.repo.ReadResult(ctx, h.jobID)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(h.root, h.jobID, "meeting.wav")))

	job, err = orch.Run(ctx, h.jobID)
	assert.ErrorIs(t, err, entities.ErrInputNotFound)
	require.NotNil(t, job)
	assert.Equal(t, entities.JobStatusFailed, job.Status)

	_, err = h.repo.ReadResult(ctx, h.jobID)
	assert.ErrorIs(t, err, entities.ErrResultNotReady)
	_, err = os.Stat(filepath.Join(h.root, h.jobID, "artifacts"))
	assert.True(t, os.IsNotExist(err))
}
