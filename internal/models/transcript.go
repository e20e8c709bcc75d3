// Package models defines the records produced by the processing pipeline.
package models

// AudioAsset is audio in the canonical container, ready for transcription.
// It is never mutated after the normalizer returns it.
type AudioAsset struct {
	Data       []byte  `json:"-"`
	MimeType   string  `json:"mimeType"`
	Extension  string  `json:"extension"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	Duration   float64 `json:"duration"` // seconds
}

// TranscriptSegment is one time-bounded span of transcribed text.
type TranscriptSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence"`
}

// Transcript is the speaker-labeled transcript of one recording.
// Speakers holds the distinct Speaker values of Segments in order of first appearance.
type Transcript struct {
	FullText   string              `json:"fullText"`
	Segments   []TranscriptSegment `json:"segments"`
	Speakers   []string            `json:"speakers"`
	Language   string              `json:"language"`
	Confidence float64             `json:"confidence"`
}
