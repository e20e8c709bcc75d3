// Package export renders a ProcessingResult as the plain-text and JSON artifacts.
package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"speech-digest-service/internal/models"
)

// Content types of the two artifacts.
const (
	TextContentType = "text/plain; charset=utf-8"
	JSONContentType = "application/json"
)

// DateLayout formats the export date.
const DateLayout = "January 2, 2006"

// Text renders the fixed-order plain-text export: file name, duration, participant count,
// date, summary, bulleted key points, and the full transcript.
func Text(r *models.ProcessingResult, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", r.FileName)
	fmt.Fprintf(&b, "Duration: %s\n", r.Duration)
	fmt.Fprintf(&b, "Participants: %d\n", r.Participants)
	fmt.Fprintf(&b, "Date: %s\n", date.Format(DateLayout))

	b.WriteString("\nSUMMARY\n")
	b.WriteString(r.Summary)
	b.WriteString("\n")

	b.WriteString("\nKEY POINTS\n")
	for _, kp := range r.KeyPoints {
		fmt.Fprintf(&b, "• %s\n", kp)
	}

	b.WriteString("\nTRANSCRIPT\n")
	b.WriteString(r.Transcript)
	b.WriteString("\n")

	return b.String()
}

// JSON is the serialized ProcessingResult, indented.
func JSON(r *models.ProcessingResult) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result %s: %w", r.ID, err)
	}
	return data, nil
}

// FileStem is the download name of a result's artifacts without extension.
func FileStem(r *models.ProcessingResult) string {
	stem := strings.TrimSuffix(filepath.Base(r.FileName), filepath.Ext(r.FileName))
	if stem == "" || stem == "." {
		stem = r.ID
	}
	return stem + "-digest"
}
