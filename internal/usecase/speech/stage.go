package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/internal/usecase/outcome"
	"go.uber.org/zap"
)

const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"

	ComputeAuto    = "auto"
	ComputeFloat16 = "float16"
	ComputeInt8    = "int8"
)

// ASRRequest carries the engine parameters resolved for one transcription
type ASRRequest struct {
	Device      string
	ComputeType string
	Model       string
	BeamSize    int
}

// RawSegment is one utterance as reported by an ASR engine
type RawSegment struct {
	StartSec float64 `json:"start"`
	EndSec   float64 `json:"end"`
	Text     string  `json:"text"`
}

// ASREngine converts an audio file into ordered timestamped text
type ASREngine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, req ASRRequest) ([]RawSegment, error)
}

// DiarizationRequest carries the engine parameters for one diarization run
type DiarizationRequest struct {
	Model      string
	Credential string
	Device     string
}

// DiarizationResult is what a diarization engine reports. Warnings are
// non-fatal notes, e.g. a device fallback inside the engine.
type DiarizationResult struct {
	Turns    []entities.DiarizationTurn
	Warnings []string
}

// Diarizer partitions an audio file into speaker turns. It may fail at any time.
type Diarizer interface {
	Name() string
	Diarize(ctx context.Context, audioPath string, req DiarizationRequest) (DiarizationResult, error)
}

// DeviceDetector reports whether a CUDA accelerator is usable
type DeviceDetector interface {
	CUDAAvailable(ctx context.Context) (bool, error)
}

// Options configures the transcription stage
type Options struct {
	Device                string // auto, cpu or cuda
	ComputeType           string // auto resolves to float16 on cuda, int8 on cpu
	Model                 string
	BeamSize              int
	DiarizationModel      string
	DiarizationCredential string // empty disables diarization
	CredentialName        string // named in the warning emitted when the credential is missing
}

// DefaultOptions returns the stage defaults
func DefaultOptions() Options {
	return Options{
		Device:           DeviceAuto,
		ComputeType:      ComputeAuto,
		Model:            "large-v3",
		BeamSize:         5,
		DiarizationModel: "pyannote/speaker-diarization-3.1",
		CredentialName:   "HUGGINGFACE_TOKEN",
	}
}

// Stage runs ASR, optional diarization and alignment for one audio file
type Stage struct {
	asr      ASREngine
	diarizer Diarizer
	detector DeviceDetector
	opts     Options
	logger   *zap.Logger
}

// NewStage creates a transcription stage. diarizer and detector may be nil:
// without a diarizer every speaker is UNKNOWN, without a detector "auto" means cpu.
func NewStage(asr ASREngine, diarizer Diarizer, detector DeviceDetector, opts Options, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{
		asr:      asr,
		diarizer: diarizer,
		detector: detector,
		opts:     opts,
		logger:   logger,
	}
}

// Transcribe produces the labeled transcript of audioPath. Only an ASR failure
// is fatal; device detection and diarization problems degrade to warnings.
func (s *Stage) Transcribe(ctx context.Context, audioPath string) outcome.Outcome[entities.Transcript] {
	var warnings []string

	device, detectWarning := s.resolveDevice(ctx)
	if detectWarning != "" {
		warnings = append(warnings, detectWarning)
	}
	computeType := resolveComputeType(s.opts.ComputeType, device)

	diarizationEnabled := s.diarizer != nil && strings.TrimSpace(s.opts.DiarizationCredential) != ""
	if !diarizationEnabled {
		warnings = append(warnings, s.disabledWarning())
	}

	meta := entities.RuntimeMetadata{
		ASRBackend:         s.asr.Name(),
		ASRDevice:          device,
		ASRComputeType:     computeType,
		ASRModel:           s.opts.Model,
		ASRBeamSize:        s.opts.BeamSize,
		DiarizationModel:   s.opts.DiarizationModel,
		DiarizationEnabled: diarizationEnabled,
	}
	if s.diarizer != nil {
		meta.DiarizationBackend = s.diarizer.Name()
	}

	s.logger.Info("🎙️ Starting transcription",
		zap.String("audio_path", audioPath),
		zap.String("asr_backend", meta.ASRBackend),
		zap.String("device", device),
		zap.String("compute_type", computeType),
		zap.Bool("diarization_enabled", diarizationEnabled),
	)

	raw, err := s.asr.Transcribe(ctx, audioPath, ASRRequest{
		Device:      device,
		ComputeType: computeType,
		Model:       s.opts.Model,
		BeamSize:    s.opts.BeamSize,
	})
	if err != nil {
		return outcome.Fatal[entities.Transcript](fmt.Errorf("%w: %v", entities.ErrASRFailed, err))
	}

	segments := make([]entities.TranscriptSegment, 0, len(raw))
	for i, r := range raw {
		segments = append(segments, entities.NewTranscriptSegment(i+1, r.StartSec, r.EndSec, r.Text))
	}

	turns := []entities.DiarizationTurn{}
	if diarizationEnabled {
		result, err := s.diarize(ctx, audioPath, device)
		if err != nil {
			s.logger.Warn("⚠️ Diarization failed, continuing without speakers",
				zap.String("audio_path", audioPath),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("Diarization failed and was skipped: %v", err))
		} else {
			warnings = append(warnings, result.Warnings...)
			if result.Turns != nil {
				turns = result.Turns
			}
		}
	}

	meta.Warnings = warnings
	if meta.Warnings == nil {
		meta.Warnings = []string{}
	}

	transcript := entities.Transcript{
		Segments:         Align(segments, turns),
		DiarizationTurns: turns,
		Metadata:         meta,
	}

	s.logger.Info("✅ Transcription finished",
		zap.Int("segments", len(transcript.Segments)),
		zap.Int("turns", len(turns)),
		zap.Int("warnings", len(warnings)),
	)

	return outcome.Degraded(transcript, warnings...)
}

// diarize calls the engine and turns a panic into an error
func (s *Stage) diarize(ctx context.Context, audioPath, device string) (result DiarizationResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", entities.ErrDiarizationFailed, p)
		}
	}()

	return s.diarizer.Diarize(ctx, audioPath, DiarizationRequest{
		Model:      s.opts.DiarizationModel,
		Credential: s.opts.DiarizationCredential,
		Device:     device,
	})
}

func (s *Stage) resolveDevice(ctx context.Context) (string, string) {
	switch strings.ToLower(strings.TrimSpace(s.opts.Device)) {
	case DeviceCUDA:
		return DeviceCUDA, ""
	case DeviceCPU:
		return DeviceCPU, ""
	}

	if s.detector == nil {
		return DeviceCPU, ""
	}
	ok, err := s.detector.CUDAAvailable(ctx)
	if err != nil {
		return DeviceCPU, fmt.Sprintf("accelerator check failed, defaulting ASR to CPU: %v", err)
	}
	if ok {
		return DeviceCUDA, ""
	}
	return DeviceCPU, ""
}

func (s *Stage) disabledWarning() string {
	if s.diarizer == nil {
		return "no diarization engine configured; speakers will be UNKNOWN"
	}
	name := s.opts.CredentialName
	if name == "" {
		name = "diarization credential"
	}
	return fmt.Sprintf("%s is not set; diarization is disabled and speakers will be UNKNOWN", name)
}

func resolveComputeType(pref, device string) string {
	pref = strings.ToLower(strings.TrimSpace(pref))
	if pref != "" && pref != ComputeAuto {
		return pref
	}
	if device == DeviceCUDA {
		return ComputeFloat16
	}
	return ComputeInt8
}
