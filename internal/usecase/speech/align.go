package speech

import (
	"math"

	"github.com/johnquangdev/todo-maker/internal/domain/entities"
)

// Overlap returns the length in seconds of the intersection of two intervals
func Overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	return math.Max(0, math.Min(aEnd, bEnd)-math.Max(aStart, bStart))
}

// Align assigns a speaker to every segment. A segment takes the speaker of the
// turn it overlaps the most; a later turn only wins with a strictly greater
// overlap, so equal maxima keep the first turn in input order and segments
// with no overlapping turn stay UNKNOWN. The input slice is not modified.
func Align(segments []entities.TranscriptSegment, turns []entities.DiarizationTurn) []entities.TranscriptSegment {
	labeled := make([]entities.TranscriptSegment, len(segments))
	copy(labeled, segments)

	for i := range labeled {
		labeled[i].SpeakerID = entities.UnknownSpeaker
		if len(turns) == 0 {
			continue
		}

		best := 0.0
		for _, turn := range turns {
			ov := Overlap(labeled[i].StartSec, labeled[i].EndSec, turn.StartSec, turn.EndSec)
			if ov > best {
				best = ov
				labeled[i].SpeakerID = turn.Speaker
			}
		}
	}

	return labeled
}
