package segment

import (
	"testing"

	"speech-digest-service/internal/models"
)

func TestFormatTranscript(t *testing.T) {
	tr := models.Transcript{
		Segments: []models.TranscriptSegment{
			{Start: 0, Text: "Hello.", Speaker: "Speaker 1"},
			{Start: 65.9, Text: "Next topic.", Speaker: "Speaker 1"},
			{Start: 3600, Text: "An hour in.", Speaker: "Speaker 2"},
		},
	}

	expected := "[00:00] Speaker 1: Hello.\n\n[01:05] Speaker 1: Next topic.\n\n[60:00] Speaker 2: An hour in."
	if got := FormatTranscript(tr); got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestFormatTranscript_Empty(t *testing.T) {
	if got := FormatTranscript(models.Transcript{}); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00"},
		{9.99, "00:09"},
		{59.5, "00:59"},
		{60, "01:00"},
		{3599, "59:59"},
		{5999, "99:59"},
		{6000, "100:00"},
		{-4, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.expected {
			t.Errorf("FormatTimestamp(%v) = %s, want %s", tt.seconds, got, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{5.7, "0:05"},
		{65, "1:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{36000, "10:00:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %s, want %s", tt.seconds, got, tt.expected)
		}
	}
}
