package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"speech-digest-service/internal/models"
)

func sampleResult() *models.ProcessingResult {
	return &models.ProcessingResult{
		ID:           "sub-1",
		Source:       models.SourceFile,
		FileName:     "standup.mp3",
		Duration:     "1:05",
		Participants: 2,
		Transcript:   "[00:00] Speaker 1: Hello.\n\n[00:03] Speaker 2: Hi.",
		Summary:      "A short greeting.",
		KeyPoints:    []string{"Greeting", "Reply"},
		Topics:       []string{"Small talk"},
		Sentiment:    models.SentimentPositive,
		ActionItems:  []string{},
		CreatedAt:    time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
	}
}

func TestText(t *testing.T) {
	got := Text(sampleResult(), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))

	expected := "File: standup.mp3\n" +
		"Duration: 1:05\n" +
		"Participants: 2\n" +
		"Date: March 9, 2024\n" +
		"\nSUMMARY\n" +
		"A short greeting.\n" +
		"\nKEY POINTS\n" +
		"• Greeting\n" +
		"• Reply\n" +
		"\nTRANSCRIPT\n" +
		"[00:00] Speaker 1: Hello.\n\n[00:03] Speaker 2: Hi.\n"
	if got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestText_SectionOrder(t *testing.T) {
	got := Text(sampleResult(), time.Now())

	order := []string{"File:", "Duration:", "Participants:", "Date:", "SUMMARY", "KEY POINTS", "TRANSCRIPT"}
	last := -1
	for _, marker := range order {
		i := strings.Index(got, marker)
		if i <= last {
			t.Fatalf("expected %q after previous section, found at %d (previous %d)", marker, i, last)
		}
		last = i
	}
}

func TestJSON_IsVerbatimResult(t *testing.T) {
	r := sampleResult()

	data, err := JSON(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded models.ProcessingResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != r.ID || decoded.Summary != r.Summary || len(decoded.KeyPoints) != 2 || !decoded.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("decoded result differs: %+v", decoded)
	}
	if !strings.Contains(string(data), `"keyPoints": [`) {
		t.Errorf("expected camelCase keys, got %s", data)
	}
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		fileName string
		expected string
	}{
		{"standup.mp3", "standup-digest"},
		{"dir/Team Sync.wav", "Team Sync-digest"},
		{"noext", "noext-digest"},
		{"", "sub-1-digest"},
	}

	for _, tt := range tests {
		r := sampleResult()
		r.FileName = tt.fileName
		if got := FileStem(r); got != tt.expected {
			t.Errorf("FileStem(%q) = %s, want %s", tt.fileName, got, tt.expected)
		}
	}
}
