package segment

import (
	"fmt"

	"speech-digest-service/internal/service/stt"
)

// DefaultRunLength is the number of consecutive segments attributed to one speaker.
// Pinned for compatibility with existing results; providers do not diarize.
const DefaultRunLength = 5

// SpeakerAssigner assigns a speaker label to every segment, by index.
// A real diarization model can replace the fixed-run heuristic behind this interface.
type SpeakerAssigner interface {
	AssignSpeakers(segments []stt.Segment) []string
}

// FixedRunAssigner labels consecutive runs of RunLength segments
// "Speaker 1", "Speaker 2", and so on, ignoring timing and silence.
type FixedRunAssigner struct {
	RunLength int
}

// AssignSpeakers implements SpeakerAssigner.
func (a FixedRunAssigner) AssignSpeakers(segments []stt.Segment) []string {
	run := a.RunLength
	if run <= 0 {
		run = DefaultRunLength
	}
	labels := make([]string, len(segments))
	for i := range segments {
		labels[i] = SpeakerLabel(i / run)
	}
	return labels
}

// SpeakerLabel returns the display label of the zero-based run index.
func SpeakerLabel(run int) string {
	return fmt.Sprintf("Speaker %d", run+1)
}
