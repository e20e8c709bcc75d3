package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type stepClock struct {
	mu  sync.Mutex
	t   time.Time
	inc time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.inc)
	return c.t
}

func TestLifecycle_InitialState(t *testing.T) {
	lc := NewLifecycle("sub-1", nil)

	if lc.Stage() != StagePending {
		t.Errorf("expected StagePending, got %v", lc.Stage())
	}
	if lc.SubmissionId() != "sub-1" {
		t.Errorf("expected sub-1, got %v", lc.SubmissionId())
	}
	if lc.Label() != "Waiting to start" {
		t.Errorf("unexpected label %q", lc.Label())
	}
}

func TestLifecycle_FullRun(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0), inc: time.Second}
	lc := NewLifecycle("sub-1", clock.Now)

	for _, s := range []Stage{
		StageResolvingSource, StageNormalizingAudio, StageTranscribing,
		StageSegmenting, StageSummarizing, StageAssembling,
	} {
		elapsed, err := lc.Advance(s)
		if err != nil {
			t.Fatalf("advance to %s: unexpected error: %v", s, err)
		}
		if elapsed != time.Second {
			t.Errorf("advance to %s: expected 1s in previous stage, got %v", s, elapsed)
		}
	}

	if _, err := lc.Complete(); err != nil {
		t.Fatalf("complete: unexpected error: %v", err)
	}
	if lc.Stage() != StageCompleted || !lc.Stage().IsTerminal() {
		t.Errorf("expected terminal COMPLETED, got %v", lc.Stage())
	}
}

func TestLifecycle_SkipResolvingSource(t *testing.T) {
	lc := NewLifecycle("sub-1", nil)

	if _, err := lc.Advance(StageNormalizingAudio); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLifecycle_NoBackwardMoves(t *testing.T) {
	lc := NewLifecycle("sub-1", nil)
	_, _ = lc.Advance(StageTranscribing)

	tests := []Stage{StagePending, StageNormalizingAudio, StageTranscribing, StageCompleted, StageFailed}
	for _, s := range tests {
		if _, err := lc.Advance(s); !errors.Is(err, ErrStageBackward) {
			t.Errorf("advance to %s: expected ErrStageBackward, got %v", s, err)
		}
	}
	if _, err := lc.Complete(); !errors.Is(err, ErrStageBackward) {
		t.Errorf("complete before assembling: expected ErrStageBackward, got %v", err)
	}
	if lc.Stage() != StageTranscribing {
		t.Errorf("expected stage unchanged, got %v", lc.Stage())
	}
}

func TestLifecycle_Fail(t *testing.T) {
	lc := NewLifecycle("sub-1", nil)
	_, _ = lc.Advance(StageSummarizing)

	if _, ok := lc.Fail(); !ok {
		t.Error("expected Fail to succeed")
	}
	if lc.Stage() != StageFailed {
		t.Errorf("expected StageFailed, got %v", lc.Stage())
	}
	if lc.FailedIn() != StageSummarizing {
		t.Errorf("expected failure recorded in SUMMARIZING, got %v", lc.FailedIn())
	}
	if _, ok := lc.Fail(); ok {
		t.Error("expected second Fail to be rejected")
	}
	if _, err := lc.Advance(StageAssembling); !errors.Is(err, ErrRunFinished) {
		t.Errorf("expected ErrRunFinished, got %v", err)
	}
	if _, err := lc.Complete(); !errors.Is(err, ErrRunFinished) {
		t.Errorf("expected ErrRunFinished, got %v", err)
	}
}

func TestLifecycle_FailAfterComplete(t *testing.T) {
	lc := NewLifecycle("sub-1", nil)
	_, _ = lc.Advance(StageAssembling)
	_, _ = lc.Complete()

	if _, ok := lc.Fail(); ok {
		t.Error("expected Fail to be rejected after completion")
	}
	if lc.Stage() != StageCompleted {
		t.Errorf("expected StageCompleted, got %v", lc.Stage())
	}
}

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected string
	}{
		{StagePending, "PENDING"},
		{StageResolvingSource, "RESOLVING_SOURCE"},
		{StageNormalizingAudio, "NORMALIZING_AUDIO"},
		{StageTranscribing, "TRANSCRIBING"},
		{StageSegmenting, "SEGMENTING"},
		{StageSummarizing, "SUMMARIZING"},
		{StageAssembling, "ASSEMBLING"},
		{StageCompleted, "COMPLETED"},
		{StageFailed, "FAILED"},
		{Stage(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.expected {
			t.Errorf("Stage(%d).String() = %s, want %s", tt.stage, got, tt.expected)
		}
	}
}

func TestLifecycle_ConcurrentReads(t *testing.T) {
	lc := NewLifecycle("sub-1", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lc.Stage()
			_ = lc.Label()
		}()
	}
	_, _ = lc.Advance(StageNormalizingAudio)
	_, _ = lc.Advance(StageTranscribing)
	wg.Wait()

	if lc.Stage() != StageTranscribing {
		t.Errorf("expected StageTranscribing, got %v", lc.Stage())
	}
}
