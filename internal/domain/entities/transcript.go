package entities

import (
	"fmt"
	"strings"
)

// UnknownSpeaker is assigned when no diarization turn can be attributed
const UnknownSpeaker = "UNKNOWN"

// SegmentID returns the stable identifier of the n-th (1-based) ASR segment
func SegmentID(ordinal int) string {
	return fmt.Sprintf("seg_%04d", ordinal)
}

// TranscriptSegment is one ASR-produced utterance
type TranscriptSegment struct {
	SegmentID string  `json:"segment_id"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Text      string  `json:"text"`
	SpeakerID string  `json:"speaker_id"`
}

// NewTranscriptSegment builds the n-th segment of a transcript.
// Text is trimmed, an end before the start is pulled up to the start, and the
// speaker stays UNKNOWN until alignment.
func NewTranscriptSegment(ordinal int, startSec, endSec float64, text string) TranscriptSegment {
	if endSec < startSec {
		endSec = startSec
	}
	return TranscriptSegment{
		SegmentID: SegmentID(ordinal),
		StartSec:  startSec,
		EndSec:    endSec,
		Text:      strings.TrimSpace(text),
		SpeakerID: UnknownSpeaker,
	}
}

// DiarizationTurn is one speaker interval reported by a diarization engine
type DiarizationTurn struct {
	Speaker  string  `json:"speaker"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// RuntimeMetadata describes how a transcript was produced
type RuntimeMetadata struct {
	ASRBackend         string   `json:"asr_backend"`
	ASRDevice          string   `json:"asr_device"`
	ASRComputeType     string   `json:"asr_compute_type"`
	ASRModel           string   `json:"asr_model"`
	ASRBeamSize        int      `json:"asr_beam_size"`
	DiarizationBackend string   `json:"diarization_backend"`
	DiarizationModel   string   `json:"diarization_model"`
	DiarizationEnabled bool     `json:"diarization_enabled"`
	Warnings           []string `json:"warnings"`
}

// Transcript is the persisted transcript document of a job
type Transcript struct {
	Segments         []TranscriptSegment `json:"segments"`
	DiarizationTurns []DiarizationTurn   `json:"diarization_turns"`
	Metadata         RuntimeMetadata     `json:"metadata"`
}

// ValidOwners returns the speaker ids observed in segments plus UNKNOWN
func ValidOwners(segments []TranscriptSegment) map[string]struct{} {
	owners := map[string]struct{}{UnknownSpeaker: {}}
	for _, seg := range segments {
		owners[seg.SpeakerID] = struct{}{}
	}
	return owners
}
