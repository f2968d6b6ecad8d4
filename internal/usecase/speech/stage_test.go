package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/usecase/outcome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeASR struct {
	segments []RawSegment
	err      error
	gotReq   ASRRequest
}

func (f *fakeASR) Name() string { return "fake" }

func (f *fakeASR) Transcribe(_ context.Context, _ string, req ASRRequest) ([]RawSegment, error) {
	f.gotReq = req
	return f.segments, f.err
}

type fakeDiarizer struct {
	result DiarizationResult
	err    error
	panics bool
	calls  int
}

func (f *fakeDiarizer) Name() string { return "fake-diarizer" }

func (f *fakeDiarizer) Diarize(context.Context, string, DiarizationRequest) (DiarizationResult, error) {
	f.calls++
	if f.panics {
		panic("model exploded")
	}
	return f.result, f.err
}

type fakeDetector struct {
	cuda bool
	err  error
}

func (f fakeDetector) CUDAAvailable(context.Context) (bool, error) { return f.cuda, f.err }

func twoSegments() []RawSegment {
	return []RawSegment{
		{StartSec: 0, EndSec: 2, Text: "  I will send the notes "},
		{StartSec: 2, EndSec: 4, Text: "sounds good"},
	}
}

func TestStage_DiarizationAligned(t *testing.T) {
	asr := &fakeASR{segments: twoSegments()}
	diarizer := &fakeDiarizer{result: DiarizationResult{Turns: []entities.DiarizationTurn{
		{Speaker: "SPEAKER_00", StartSec: 0, EndSec: 2},
		{Speaker: "SPEAKER_01", StartSec: 2, EndSec: 4},
	}}}
	opts := DefaultOptions()
	opts.Device = "CPU"
	opts.DiarizationCredential = "hf_token"

	out := NewStage(asr, diarizer, nil, opts, nil).Transcribe(context.Background(), "/tmp/a.wav")

	require.Equal(t, outcome.KindOK, out.Kind)
	tr := out.Value
	require.Len(t, tr.Segments, 2)
	assert.Equal(t, "seg_0001", tr.Segments[0].SegmentID)
	assert.Equal(t, "I will send the notes", tr.Segments[0].Text)
	assert.Equal(t, "SPEAKER_00", tr.Segments[0].SpeakerID)
	assert.Equal(t, "SPEAKER_01", tr.Segments[1].SpeakerID)
	assert.Len(t, tr.DiarizationTurns, 2)
	assert.True(t, tr.Metadata.DiarizationEnabled)
	assert.Equal(t, "cpu", tr.Metadata.ASRDevice)
	assert.Equal(t, "int8", tr.Metadata.ASRComputeType)
	assert.Equal(t, "large-v3", asr.gotReq.Model)
	assert.Equal(t, 5, asr.gotReq.BeamSize)
	assert.Empty(t, tr.Metadata.Warnings)
}

func TestStage_DiarizerErrorDegrades(t *testing.T) {
	diarizer := &fakeDiarizer{err: errors.New("pipeline download failed")}
	opts := DefaultOptions()
	opts.DiarizationCredential = "hf_token"

	out := NewStage(&fakeASR{segments: twoSegments()}, diarizer, nil, opts, nil).Transcribe(context.Background(), "a.wav")

	require.Equal(t, outcome.KindDegraded, out.Kind)
	assert.Empty(t, out.Value.DiarizationTurns)
	assert.NotNil(t, out.Value.DiarizationTurns)
	assert.Contains(t, out.Value.Metadata.Warnings, "Diarization failed and was skipped: pipeline download failed")
	for _, s := range out.Value.Segments {
		assert.Equal(t, entities.UnknownSpeaker, s.SpeakerID)
	}
}

func TestStage_DiarizerPanicDegrades(t *testing.T) {
	diarizer := &fakeDiarizer{panics: true}
	opts := DefaultOptions()
	opts.DiarizationCredential = "hf_token"

	out := NewStage(&fakeASR{segments: twoSegments()}, diarizer, nil, opts, nil).Transcribe(context.Background(), "a.wav")

	require.Equal(t, outcome.KindDegraded, out.Kind)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "model exploded")
}

func TestStage_MissingCredentialSkipsDiarization(t *testing.T) {
	diarizer := &fakeDiarizer{}

	out := NewStage(&fakeASR{segments: twoSegments()}, diarizer, nil, DefaultOptions(), nil).Transcribe(context.Background(), "a.wav")

	require.Equal(t, outcome.KindDegraded, out.Kind)
	assert.Zero(t, diarizer.calls)
	assert.False(t, out.Value.Metadata.DiarizationEnabled)
	assert.Equal(t, []string{"HUGGINGFACE_TOKEN is not set; diarization is disabled and speakers will be UNKNOWN"}, out.Value.Metadata.Warnings)
}

func TestStage_DiarizerWarningsMerged(t *testing.T) {
	diarizer := &fakeDiarizer{result: DiarizationResult{Warnings: []string{"Could not move diarization pipeline to CUDA; using CPU"}}}
	opts := DefaultOptions()
	opts.DiarizationCredential = "hf_token"

	out := NewStage(&fakeASR{segments: twoSegments()}, diarizer, fakeDetector{cuda: true}, opts, nil).Transcribe(context.Background(), "a.wav")

	assert.Equal(t, "cuda", out.Value.Metadata.ASRDevice)
	assert.Equal(t, "float16", out.Value.Metadata.ASRComputeType)
	assert.Equal(t, []string{"Could not move diarization pipeline to CUDA; using CPU"}, out.Value.Metadata.Warnings)
}

func TestStage_DetectionFailureFallsBackToCPU(t *testing.T) {
	opts := DefaultOptions()
	opts.DiarizationCredential = "hf_token"
	asr := &fakeASR{segments: twoSegments()}

	out := NewStage(asr, &fakeDiarizer{}, fakeDetector{err: errors.New("no module named torch")}, opts, nil).Transcribe(context.Background(), "a.wav")

	require.Equal(t, outcome.KindDegraded, out.Kind)
	assert.Equal(t, "cpu", asr.gotReq.Device)
	assert.Equal(t, "int8", asr.gotReq.ComputeType)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "defaulting ASR to CPU")
}

func TestStage_ExplicitComputeTypeKept(t *testing.T) {
	opts := DefaultOptions()
	opts.Device = "cuda"
	opts.ComputeType = "int8_float16"
	asr := &fakeASR{}

	NewStage(asr, nil, nil, opts, nil).Transcribe(context.Background(), "a.wav")

	assert.Equal(t, "cuda", asr.gotReq.Device)
	assert.Equal(t, "int8_float16", asr.gotReq.ComputeType)
}

func TestStage_ASRFailureIsFatal(t *testing.T) {
	asr := &fakeASR{err: errors.New("model not found")}

	out := NewStage(asr, nil, nil, DefaultOptions(), nil).Transcribe(context.Background(), "a.wav")

	require.Equal(t, outcome.KindFatal, out.Kind)
	assert.ErrorIs(t, out.Err, entities.ErrASRFailed)
	assert.Contains(t, out.Err.Error(), "model not found")
}

func TestStage_EndBeforeStartClamped(t *testing.T) {
	asr := &fakeASR{segments: []RawSegment{{StartSec: 3, EndSec: 2.5, Text: "x"}}}

	out := NewStage(asr, nil, nil, DefaultOptions(), nil).Transcribe(context.Background(), "a.wav")

	require.Len(t, out.Value.Segments, 1)
	assert.Equal(t, 3.0, out.Value.Segments[0].EndSec)
}
