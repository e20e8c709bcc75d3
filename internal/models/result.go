package models

import "time"

// SourceKind tells whether a submission was uploaded or fetched from a URL.
type SourceKind string

const (
	SourceFile   SourceKind = "file"
	SourceRemote SourceKind = "remote"
)

// ProcessingResult is the terminal record of one submission. It is assembled once
// and never updated; a new submission always yields a new record.
type ProcessingResult struct {
	ID           string     `json:"id" validate:"required"`
	Source       SourceKind `json:"source" validate:"oneof=file remote"`
	FileName     string     `json:"fileName" validate:"required"`
	Title        string     `json:"title,omitempty"`
	SourceURL    string     `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	Duration     string     `json:"duration" validate:"required"`
	Participants int        `json:"participants" validate:"gte=0"`
	Language     string     `json:"language,omitempty"`
	Confidence   float64    `json:"confidence" validate:"gte=0,lte=1"`
	Transcript   string     `json:"transcript"`

	Summary          string    `json:"summary"`
	KeyPoints        []string  `json:"keyPoints"`
	Topics           []string  `json:"topics"`
	Sentiment        Sentiment `json:"sentiment" validate:"oneof=positive negative neutral mixed"`
	ActionItems      []string  `json:"actionItems"`
	ParticipantNames []string  `json:"participantNames"`

	CreatedAt time.Time `json:"createdAt" validate:"required"`
}
