package localml

import (
	"context"
	"errors"
	"strconv"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/usecase/speech"
	"go.uber.org/zap"
)

var (
	_ speech.ASREngine    = (*ASR)(nil)
	_ speech.Diarizer     = (*Diarizer)(nil)
	_ speech.DeviceDetector = (*Detector)(nil)
)

// ASR transcribes audio with faster-whisper
type ASR struct {
	h *Helpers
}

// NewASR creates the faster-whisper engine
func NewASR(h *Helpers) *ASR {
	return &ASR{h: h}
}

// Name implements speech.ASREngine
func (a *ASR) Name() string { return "faster-whisper" }

// Transcribe implements speech.ASREngine
func (a *ASR) Transcribe(ctx context.Context, audioPath string, req speech.ASRRequest) ([]speech.RawSegment, error) {
	var out struct {
		Segments []speech.RawSegment `json:"segments"`
	}
	err := a.h.runJSON(ctx, nil, "asr.py", &out,
		"--audio", audioPath,
		"--model", req.Model,
		"--device", req.Device,
		"--compute-type", req.ComputeType,
		"--beam-size", strconv.Itoa(req.BeamSize),
	)
	if err != nil {
		return nil, err
	}
	a.h.logger.Debug("faster-whisper finished", zap.Int("segments", len(out.Segments)))
	return out.Segments, nil
}

// Detector asks torch whether CUDA is usable
type Detector struct {
	h *Helpers
}

// NewDetector creates the torch device detector
func NewDetector(h *Helpers) *Detector {
	return &Detector{h: h}
}

// CUDAAvailable implements speech.DeviceDetector. A helper that could not
// determine availability reports it as an error, not as "no CUDA".
func (d *Detector) CUDAAvailable(ctx context.Context) (bool, error) {
	var out struct {
		CUDA  bool   `json:"cuda"`
		Error string `json:"error"`
	}
	if err := d.h.runJSON(ctx, nil, "asr.py", &out, "--detect-device"); err != nil {
		return false, err
	}
	if out.Error != "" {
		return false, errors.New(out.Error)
	}
	return out.CUDA, nil
}

// Diarizer labels speaker turns with pyannote
type Diarizer struct {
	h *Helpers
}

// NewDiarizer creates the pyannote engine
func NewDiarizer(h *Helpers) *Diarizer {
	return &Diarizer{h: h}
}

// Name implements speech.Diarizer
func (d *Diarizer) Name() string { return "pyannote" }

// Diarize implements speech.Diarizer. The credential travels in the child
// environment so it never shows up in a process listing.
func (d *Diarizer) Diarize(ctx context.Context, audioPath string, req speech.DiarizationRequest) (speech.DiarizationResult, error) {
	var out struct {
		Turns []struct {
			Speaker string  `json:"speaker"`
			Start   float64 `json:"start"`
			End     float64 `json:"end"`
		} `json:"turns"`
		Warnings []string `json:"warnings"`
	}
	env := []string{"HUGGINGFACE_TOKEN=" + req.Credential}
	err := d.h.runJSON(ctx, env, "diarize.py", &out,
		"--audio", audioPath,
		"--model", req.Model,
		"--device", req.Device,
	)
	if err != nil {
		return speech.DiarizationResult{}, err
	}

	turns := make([]entities.DiarizationTurn, 0, len(out.Turns))
	for _, t := range out.Turns {
		turns = append(turns, entities.DiarizationTurn{Speaker: t.Speaker, StartSec: t.Start, EndSec: t.End})
	}
	return speech.DiarizationResult{Turns: turns, Warnings: out.Warnings}, nil
}
