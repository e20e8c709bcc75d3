// Package pipeline runs one submission through normalize, transcribe, segment, and
// summarize, and assembles the ProcessingResult.
package pipeline

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/observability/metrics"
	"speech-digest-service/internal/service/audio"
	"speech-digest-service/internal/service/segment"
	"speech-digest-service/internal/service/source"
	"speech-digest-service/internal/service/stt"
)

// DefaultFileName names uploads that arrive without one.
const DefaultFileName = "recording"

// Submission is a FileSubmission or a RemoteSubmission.
type Submission interface {
	Kind() models.SourceKind
}

// FileSubmission is uploaded audio. FileName is kept as the result's display name.
type FileSubmission struct {
	FileName string
	MimeType string
	Data     []byte
}

// Kind implements Submission.
func (FileSubmission) Kind() models.SourceKind { return models.SourceFile }

// RemoteSubmission is audio hosted at URL.
type RemoteSubmission struct {
	URL string
}

// Kind implements Submission.
func (RemoteSubmission) Kind() models.SourceKind { return models.SourceRemote }

// Normalizer converts input audio to the canonical container.
type Normalizer interface {
	Normalize(ctx context.Context, raw []byte, declaredMime string) (models.AudioAsset, error)
}

// Summarizer produces the structured summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcriptText string, speakers []string) (models.SummaryResult, error)
}

// StageObserver is told about every stage a submission enters. Calls are synchronous,
// in order, and informational: an observer cannot affect the run.
type StageObserver interface {
	OnStage(ctx context.Context, submissionId string, source models.SourceKind, stage Stage)
}

// Deps are the collaborators of an Orchestrator. Resolver is only needed for remote
// submissions.
type Deps struct {
	Resolver    source.Resolver
	Normalizer  Normalizer
	Transcriber stt.Provider
	Segmenter   *segment.Segmenter
	Summarizer  Summarizer
}

// Orchestrator runs submissions. Runs share no mutable state, so one Orchestrator may
// process any number of submissions concurrently.
type Orchestrator struct {
	deps     Deps
	language string
	observer StageObserver
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLanguage sets the language hint sent to the transcription provider.
func WithLanguage(language string) Option {
	return func(o *Orchestrator) { o.language = language }
}

// WithObserver registers a stage observer.
func WithObserver(obs StageObserver) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator replaces the random UUID submission IDs.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// New creates an Orchestrator. A nil Segmenter selects segment.New().
func New(deps Deps, opts ...Option) *Orchestrator {
	if deps.Segmenter == nil {
		deps.Segmenter = segment.New()
	}
	o := &Orchestrator{
		deps:    deps,
		metrics: metrics.DefaultMetrics,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the state of one submission.
type run struct {
	o      *Orchestrator
	ctx    context.Context
	kind   models.SourceKind
	lc     *Lifecycle
	logger zerolog.Logger
}

func (r *run) advance(next Stage) {
	prev := r.lc.Stage()
	elapsed, err := r.lc.Advance(next)
	if err != nil {
		r.logger.Error().Err(err).Str("stage", next.String()).Msg("Invalid stage transition")
		return
	}
	r.entered(prev, elapsed, next)
}

// entered records the time spent in prev and announces stage.
func (r *run) entered(prev Stage, elapsed time.Duration, stage Stage) {
	if prev != StagePending {
		r.o.metrics.RecordStage(prev.String(), elapsed.Seconds())
	}
	r.logger.Info().
		Str("stage", stage.String()).
		Str("label", stage.Label()).
		Dur("elapsed", elapsed).
		Msg("Stage entered")
	if r.o.observer != nil {
		r.o.observer.OnStage(r.ctx, r.lc.SubmissionId(), r.kind, stage)
	}
}

func (r *run) fail(err error) error {
	failedIn := r.lc.Stage()
	if elapsed, ok := r.lc.Fail(); ok {
		r.logger.Error().
			Err(err).
			Str("stage", failedIn.String()).
			Str("code", string(apperrors.CodeOf(err))).
			Msg("Submission failed")
		r.entered(failedIn, elapsed, StageFailed)
	}
	return err
}

// input is what every submission kind resolves to before normalization.
type input struct {
	data      []byte
	mime      string
	fileName  string
	title     string
	sourceURL string
}

// Process runs sub to completion. It returns a complete result or the error of the stage
// that failed, unchanged, never both.
func (o *Orchestrator) Process(ctx context.Context, sub Submission) (*models.ProcessingResult, error) {
	id := o.newID()
	kind := sub.Kind()
	r := &run{
		o:      o,
		ctx:    ctx,
		kind:   kind,
		lc:     NewLifecycle(id, o.now),
		logger: logging.WithSubmission(id, string(kind)),
	}

	started := o.now()
	o.metrics.RecordSubmissionStart(string(kind))
	r.logger.Info().Msg("Submission accepted")

	result, err := o.process(r, sub)
	code := ""
	if err != nil {
		code = string(apperrors.CodeOf(err))
	}
	o.metrics.RecordSubmissionEnd(code, o.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) process(r *run, sub Submission) (*models.ProcessingResult, error) {
	var in input
	switch s := sub.(type) {
	case FileSubmission:
		in = fileInput(s)
	case *FileSubmission:
		in = fileInput(*s)
	case RemoteSubmission:
		resolved, err := o.resolve(r, s.URL)
		if err != nil {
			return nil, r.fail(err)
		}
		in = resolved
	case *RemoteSubmission:
		resolved, err := o.resolve(r, s.URL)
		if err != nil {
			return nil, r.fail(err)
		}
		in = resolved
	default:
		return nil, r.fail(apperrors.InvalidInput("unknown submission kind"))
	}
	o.metrics.RecordAudioReceived(len(in.data))

	r.advance(StageNormalizingAudio)
	asset, err := o.deps.Normalizer.Normalize(r.ctx, in.data, in.mime)
	if err != nil {
		return nil, r.fail(err)
	}

	r.advance(StageTranscribing)
	resp, err := o.deps.Transcriber.Transcribe(r.ctx, &stt.Request{
		Audio:      asset.Data,
		FileName:   in.fileName,
		MimeType:   asset.MimeType,
		SampleRate: asset.SampleRate,
		Channels:   asset.Channels,
		Language:   o.language,
	})
	if err != nil {
		return nil, r.fail(err)
	}
	if resp == nil {
		return nil, r.fail(apperrors.Provider(o.deps.Transcriber.Name(), "transcription provider returned no response"))
	}

	r.advance(StageSegmenting)
	transcript := o.deps.Segmenter.Segment(resp.Segments)
	transcript.Language = resp.Language
	formatted := segment.FormatTranscript(transcript)

	r.advance(StageSummarizing)
	summary, err := o.deps.Summarizer.Summarize(r.ctx, formatted, transcript.Speakers)
	if err != nil {
		return nil, r.fail(err)
	}

	r.advance(StageAssembling)
	result := assemble(r.lc.SubmissionId(), r.kind, in, asset, transcript, formatted, summary, o.now())

	elapsed, err := r.lc.Complete()
	if err != nil {
		return nil, r.fail(apperrors.Internal("submission could not be completed").WithCause(err))
	}
	r.entered(StageAssembling, elapsed, StageCompleted)
	return result, nil
}

func fileInput(s FileSubmission) input {
	name := strings.TrimSpace(s.FileName)
	if name == "" {
		name = DefaultFileName
	}
	mime := s.MimeType
	if mime == "" || mime == "application/octet-stream" {
		if byExt := audio.ContentTypeFromExtension(name); byExt != "" {
			mime = byExt
		}
	}
	return input{data: s.Data, mime: mime, fileName: name}
}

// resolve fetches remote audio. Every failure, including an empty body, becomes
// UnavailableSource so normalization is never attempted.
func (o *Orchestrator) resolve(r *run, rawURL string) (input, error) {
	r.advance(StageResolvingSource)
	if o.deps.Resolver == nil {
		return input{}, apperrors.Configuration("no source resolver configured for remote submissions")
	}

	remote, err := o.deps.Resolver.Resolve(r.ctx, rawURL)
	if err != nil {
		return input{}, apperrors.UnavailableSource(rawURL).WithCause(err)
	}
	data, err := o.deps.Resolver.Fetch(r.ctx, remote.AudioURL)
	if err != nil {
		return input{}, apperrors.UnavailableSource(rawURL).WithCause(err)
	}
	if len(data) == 0 {
		return input{}, apperrors.UnavailableSource(rawURL).WithDetail("reason", "empty body")
	}

	name := path.Base(strings.SplitN(remote.AudioURL, "?", 2)[0])
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		name = remote.Title
	}
	if name == "" {
		name = DefaultFileName
	}
	return input{
		data:      data,
		mime:      audio.ContentTypeFromExtension(name),
		fileName:  name,
		title:     remote.Title,
		sourceURL: remote.URL,
	}, nil
}

func assemble(
	id string,
	kind models.SourceKind,
	in input,
	asset models.AudioAsset,
	tr models.Transcript,
	formatted string,
	summary models.SummaryResult,
	now time.Time,
) *models.ProcessingResult {
	duration := asset.Duration
	if duration <= 0 && len(tr.Segments) > 0 {
		duration = tr.Segments[len(tr.Segments)-1].End
	}
	return &models.ProcessingResult{
		ID:               id,
		Source:           kind,
		FileName:         in.fileName,
		Title:            in.title,
		SourceURL:        in.sourceURL,
		Duration:         segment.FormatDuration(duration),
		Participants:     len(tr.Speakers),
		Language:         tr.Language,
		Confidence:       tr.Confidence,
		Transcript:       formatted,
		Summary:          summary.Summary,
		KeyPoints:        summary.KeyPoints,
		Topics:           summary.Topics,
		Sentiment:        summary.Sentiment,
		ActionItems:      summary.ActionItems,
		ParticipantNames: summary.Participants,
		CreatedAt:        now.UTC(),
	}
}
