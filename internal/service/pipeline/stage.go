package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Stage is the position of one submission in the pipeline.
type Stage int

const (
	// StagePending - Submission accepted, nothing started.
	StagePending Stage = iota
	// StageResolvingSource - Remote submissions only: resolving and downloading the audio.
	StageResolvingSource
	// StageNormalizingAudio - Decoding into canonical WAV.
	StageNormalizingAudio
	// StageTranscribing - Waiting on the transcription provider.
	StageTranscribing
	// StageSegmenting - Labeling speakers and scoring confidence.
	StageSegmenting
	// StageSummarizing - Waiting on the summary provider.
	StageSummarizing
	// StageAssembling - Building the ProcessingResult.
	StageAssembling
	// StageCompleted - Result assembled. Terminal.
	StageCompleted
	// StageFailed - A stage failed and the run was aborted. Terminal.
	StageFailed
)

// String returns the machine form used in events and metrics.
func (s Stage) String() string {
	switch s {
	case StagePending:
		return "PENDING"
	case StageResolvingSource:
		return "RESOLVING_SOURCE"
	case StageNormalizingAudio:
		return "NORMALIZING_AUDIO"
	case StageTranscribing:
		return "TRANSCRIBING"
	case StageSegmenting:
		return "SEGMENTING"
	case StageSummarizing:
		return "SUMMARIZING"
	case StageAssembling:
		return "ASSEMBLING"
	case StageCompleted:
		return "COMPLETED"
	case StageFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Label returns the human-readable progress text for s. Informational only.
func (s Stage) Label() string {
	switch s {
	case StagePending:
		return "Waiting to start"
	case StageResolvingSource:
		return "Fetching recording"
	case StageNormalizingAudio:
		return "Preparing audio"
	case StageTranscribing:
		return "Transcribing audio"
	case StageSegmenting:
		return "Identifying speakers"
	case StageSummarizing:
		return "Generating summary"
	case StageAssembling:
		return "Finalizing results"
	case StageCompleted:
		return "Done"
	case StageFailed:
		return "Failed"
	default:
		return s.String()
	}
}

// IsTerminal returns true for COMPLETED and FAILED.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Errors for invalid stage transitions.
var (
	ErrRunFinished   = errors.New("pipeline run already finished")
	ErrStageBackward = errors.New("pipeline stages only move forward")
)

// Lifecycle tracks the stage of one submission.
// Thread-safe: readers such as a progress endpoint may poll Stage while the run advances.
//
// Stage transitions:
//
//	PENDING → [RESOLVING_SOURCE] → NORMALIZING_AUDIO → TRANSCRIBING → SEGMENTING
//	        → SUMMARIZING → ASSEMBLING → COMPLETED
//
//	any non-terminal stage ── Fail() ──→ FAILED
type Lifecycle struct {
	mu           sync.RWMutex
	submissionId string
	stage        Stage
	failedIn     Stage
	entered      time.Time
	now          func() time.Time
}

// NewLifecycle creates a lifecycle in PENDING.
func NewLifecycle(submissionId string, now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{
		submissionId: submissionId,
		stage:        StagePending,
		entered:      now(),
		now:          now,
	}
}

// SubmissionId returns the submission ID.
func (l *Lifecycle) SubmissionId() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.submissionId
}

// Stage returns the current stage.
func (l *Lifecycle) Stage() Stage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stage
}

// Label returns the human-readable label of the current stage.
func (l *Lifecycle) Label() string {
	return l.Stage().Label()
}

// FailedIn returns the stage that was active when Fail was called.
// Only meaningful once Stage() is StageFailed.
func (l *Lifecycle) FailedIn() Stage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.failedIn
}

// Advance moves to a later non-terminal stage and returns how long the previous stage lasted.
func (l *Lifecycle) Advance(next Stage) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stage.IsTerminal() {
		return 0, ErrRunFinished
	}
	if next <= l.stage || next.IsTerminal() {
		return 0, fmt.Errorf("%w: %s -> %s", ErrStageBackward, l.stage, next)
	}
	return l.enter(next), nil
}

// Complete moves from ASSEMBLING to COMPLETED.
func (l *Lifecycle) Complete() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.stage {
	case StageAssembling:
		return l.enter(StageCompleted), nil
	case StageCompleted, StageFailed:
		return 0, ErrRunFinished
	default:
		return 0, fmt.Errorf("%w: %s -> %s", ErrStageBackward, l.stage, StageCompleted)
	}
}

// Fail aborts the run from any non-terminal stage and returns how long the failing stage
// lasted. ok is false if the run had already finished.
func (l *Lifecycle) Fail() (elapsed time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stage.IsTerminal() {
		return 0, false
	}
	l.failedIn = l.stage
	return l.enter(StageFailed), true
}

func (l *Lifecycle) enter(next Stage) time.Duration {
	now := l.now()
	elapsed := now.Sub(l.entered)
	l.stage = next
	l.entered = now
	return elapsed
}
