package summary

import (
	"context"
	"strings"
	"testing"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/metrics"
	"speech-digest-service/internal/service/summary/mock"
)

func TestSummarize_DefaultMockResponse(t *testing.T) {
	gen := mock.New()
	in := NewInterpreter(gen, metrics.DefaultMetrics)

	result, err := in.Summarize(context.Background(), "[00:00] Speaker 1: Ship it Friday.", []string{"Speaker 1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Sentiment != models.SentimentPositive {
		t.Errorf("expected positive, got %s", result.Sentiment)
	}
	if len(result.KeyPoints) != 2 || len(result.ActionItems) != 2 {
		t.Errorf("expected 2 key points and 2 action items, got %v / %v", result.KeyPoints, result.ActionItems)
	}
	if len(result.Participants) != 1 || result.Participants[0] != "Speaker 1" {
		t.Errorf("expected participants from speakers, got %v", result.Participants)
	}

	prompts := gen.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected exactly one provider request, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "Ship it Friday.") {
		t.Errorf("expected transcript in prompt")
	}
}

func TestSummarize_NonJSONNeverFails(t *testing.T) {
	in := NewInterpreter(mock.NewWithResponse("no json here at all"), nil)

	result, err := in.Summarize(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != FallbackSummary {
		t.Errorf("expected fallback summary, got %q", result.Summary)
	}
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		gen      Generator
		expected apperrors.Code
	}{
		{"blank response", mock.NewWithResponse("  \n "), apperrors.CodeProvider},
		{"empty response", mock.NewWithResponse(""), apperrors.CodeProvider},
		{"provider failure", mock.NewFailing(apperrors.Provider("mock", "quota exceeded")), apperrors.CodeProvider},
		{"missing credential", mock.NewFailing(apperrors.Configuration("no key")), apperrors.CodeConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInterpreter(tt.gen, nil).Summarize(context.Background(), "text", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := apperrors.CodeOf(err); code != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, code)
			}
		})
	}
}
