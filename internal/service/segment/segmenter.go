// Package segment turns provider segments into a speaker-labeled, confidence-scored transcript.
package segment

import (
	"math"
	"strings"
	"unicode/utf8"

	"speech-digest-service/internal/models"
	"speech-digest-service/internal/service/stt"
)

// Confidence heuristic constants.
const (
	baseConfidence     = 0.8
	rateBonus          = 0.1
	punctuationBonus   = 0.05
	maxConfidence      = 0.95
	minCharsPerSecond  = 2.0
	maxCharsPerSecond  = 8.0
	minScoringDuration = 1.0
)

// Segmenter builds transcripts. It is stateless and safe for concurrent use.
type Segmenter struct {
	speakers SpeakerAssigner
}

// New creates a Segmenter using the fixed-run speaker heuristic.
func New() *Segmenter {
	return NewWithAssigner(FixedRunAssigner{RunLength: DefaultRunLength})
}

// NewWithAssigner creates a Segmenter with a custom speaker assigner.
func NewWithAssigner(a SpeakerAssigner) *Segmenter {
	if a == nil {
		a = FixedRunAssigner{RunLength: DefaultRunLength}
	}
	return &Segmenter{speakers: a}
}

// Segment converts provider segments into a Transcript. Malformed fields are repaired,
// never rejected: NaN or negative offsets become 0, an end before its start is raised to
// the start, and text is trimmed. Language is left for the caller to set.
func (s *Segmenter) Segment(raw []stt.Segment) models.Transcript {
	cleaned := make([]stt.Segment, len(raw))
	for i, r := range raw {
		start := sanitizeOffset(r.Start)
		end := sanitizeOffset(r.End)
		if end < start {
			end = start
		}
		cleaned[i] = stt.Segment{Start: start, End: end, Text: strings.TrimSpace(r.Text)}
	}

	labels := s.speakers.AssignSpeakers(cleaned)

	tr := models.Transcript{
		Segments: make([]models.TranscriptSegment, len(cleaned)),
		Speakers: []string{},
	}
	seen := make(map[string]bool)
	texts := make([]string, 0, len(cleaned))
	for i, c := range cleaned {
		speaker := ""
		if i < len(labels) {
			speaker = labels[i]
		}
		tr.Segments[i] = models.TranscriptSegment{
			Start:      c.Start,
			End:        c.End,
			Text:       c.Text,
			Speaker:    speaker,
			Confidence: SegmentConfidence(c.Text, c.Start, c.End),
		}
		if !seen[speaker] {
			seen[speaker] = true
			tr.Speakers = append(tr.Speakers, speaker)
		}
		if c.Text != "" {
			texts = append(texts, c.Text)
		}
	}
	tr.FullText = strings.Join(texts, " ")
	tr.Confidence = TranscriptConfidence(tr.Segments)
	return tr
}

// SegmentConfidence scores one segment: 0.8 base, +0.1 when characters per second lie
// strictly between 2 and 8, +0.05 when the text ends in '.' or '?', capped at 0.95.
func SegmentConfidence(text string, start, end float64) float64 {
	score := baseConfidence
	duration := math.Max(end-start, minScoringDuration)
	rate := float64(utf8.RuneCountInString(text)) / duration
	if rate > minCharsPerSecond && rate < maxCharsPerSecond {
		score += rateBonus
	}
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "?") {
		score += punctuationBonus
	}
	return math.Min(score, maxConfidence)
}

// TranscriptConfidence is the mean segment score, 0 when there are no segments.
func TranscriptConfidence(segments []models.TranscriptSegment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += s.Confidence
	}
	return sum / float64(len(segments))
}

func sanitizeOffset(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
