package digest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/service/pipeline"
	"speech-digest-service/internal/storage"
)

type fakeProcessor struct {
	result *models.ProcessingResult
	err    error
}

func (f *fakeProcessor) Process(_ context.Context, _ pipeline.Submission) (*models.ProcessingResult, error) {
	return f.result, f.err
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*models.ProcessingResult
	err       error
}

func (p *recordingPublisher) PublishResult(_ context.Context, r *models.ProcessingResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, r)
	return p.err
}

// failingStore rejects every write.
type failingStore struct{ storage.Store }

func (failingStore) Backend() string { return "failing" }

func (failingStore) Save(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}

func sampleResult() *models.ProcessingResult {
	return &models.ProcessingResult{
		ID:               "sub-1",
		Source:           models.SourceFile,
		FileName:         "standup.wav",
		Duration:         "0:42",
		Participants:     1,
		Confidence:       0.9,
		Transcript:       "[00:00] Speaker 1: Hello.",
		Summary:          "A greeting.",
		KeyPoints:        []string{"Hello"},
		Topics:           []string{"Greetings"},
		Sentiment:        models.SentimentPositive,
		ActionItems:      []string{},
		ParticipantNames: []string{"Speaker 1"},
		CreatedAt:        time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
	}
}

func newLocalStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestSubmit_PersistsAndPublishes(t *testing.T) {
	store := newLocalStore(t)
	pub := &recordingPublisher{}
	svc := New(&fakeProcessor{result: sampleResult()}, store, pub)
	ctx := context.Background()

	result, err := svc.Submit(ctx, pipeline.FileSubmission{FileName: "standup.wav"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ID != "sub-1" {
		t.Errorf("expected sub-1, got %s", result.ID)
	}

	if len(pub.published) != 1 || pub.published[0].ID != "sub-1" {
		t.Errorf("expected one published result, got %d", len(pub.published))
	}

	loaded, err := svc.Result(ctx, "sub-1")
	if err != nil {
		t.Fatalf("load result: %v", err)
	}
	if loaded.Summary != "A greeting." || !loaded.CreatedAt.Equal(result.CreatedAt) {
		t.Errorf("expected persisted result to match, got %+v", loaded)
	}

	text, err := svc.ResultText(ctx, "sub-1")
	if err != nil {
		t.Fatalf("load text: %v", err)
	}
	if !strings.HasPrefix(string(text), "File: standup.wav\n") || !strings.Contains(string(text), "Date: March 9, 2024") {
		t.Errorf("unexpected text export:\n%s", text)
	}
}

func TestSubmit_PipelineErrorPassesThrough(t *testing.T) {
	pub := &recordingPublisher{}
	pipelineErr := apperrors.Decode("not audio")
	svc := New(&fakeProcessor{err: pipelineErr}, newLocalStore(t), pub)

	_, err := svc.Submit(context.Background(), pipeline.FileSubmission{})
	if err != pipelineErr {
		t.Errorf("expected pipeline error unchanged, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Error("expected nothing published for a failed submission")
	}
}

func TestSubmit_InvalidResult(t *testing.T) {
	bad := sampleResult()
	bad.Sentiment = "furious"
	svc := New(&fakeProcessor{result: bad}, newLocalStore(t), nil)

	_, err := svc.Submit(context.Background(), pipeline.FileSubmission{})
	if !apperrors.Is(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestSubmit_SideEffectFailuresAreNotErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := New(&fakeProcessor{result: sampleResult()}, failingStore{}, pub)

	result, err := svc.Submit(context.Background(), pipeline.FileSubmission{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result == nil || result.ID != "sub-1" {
		t.Errorf("expected the assembled result, got %+v", result)
	}
}

func TestResult_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		store storage.Store
		id    string
	}{
		{"missing id", newLocalStore(t), "nope"},
		{"unsafe id", newLocalStore(t), "../etc/passwd"},
		{"no store", nil, "sub-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&fakeProcessor{}, tt.store, nil)

			_, err := svc.Result(context.Background(), tt.id)
			if !apperrors.Is(err, apperrors.CodeNotFound) {
				t.Errorf("expected NOT_FOUND, got %v", err)
			}
			_, err = svc.ResultText(context.Background(), tt.id)
			if !apperrors.Is(err, apperrors.CodeNotFound) {
				t.Errorf("expected NOT_FOUND for text, got %v", err)
			}
		})
	}
}
