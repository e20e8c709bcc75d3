package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"speech-digest-service/internal/config"
	"speech-digest-service/internal/events"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/observability/metrics"
	"speech-digest-service/internal/service/audio"
	"speech-digest-service/internal/service/digest"
	"speech-digest-service/internal/service/pipeline"
	"speech-digest-service/internal/service/segment"
	"speech-digest-service/internal/service/source"
	"speech-digest-service/internal/service/stt"
	"speech-digest-service/internal/service/summary"
	"speech-digest-service/internal/storage"
)

// ErrNotStarted is returned by Ready before Start has built the components.
var ErrNotStarted = errors.New("application not started")

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Digest    *digest.Service
	Publisher *events.Publisher
	Store     storage.Store

	closers []io.Closer
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
		Logger: logging.WithComponent("application").With().
			Str("service", "speech-digest-service").
			Logger(),
	}
	a.Logger.Info().Msg("Speech digest application created")
	return a
}

// Start builds every collaborator from configuration. Nothing is dialed except the Google
// Speech client; Kafka writers and S3 connect lazily.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().Str("method", "Start").Logger()

	store, err := storage.New(ctx, a.Cfg.Storage)
	if err != nil {
		return err
	}

	publisher := events.New(&events.Config{
		Enabled:     a.Cfg.Kafka.Enabled,
		Brokers:     a.Cfg.Kafka.Brokers,
		TopicStage:  a.Cfg.Kafka.TopicStage,
		TopicResult: a.Cfg.Kafka.TopicResult,
		Principal:   a.Cfg.Kafka.Principal,
	})
	a.closers = append(a.closers, publisher)

	orchestrator, closers, err := BuildOrchestrator(ctx, a.Cfg, pipeline.WithObserver(publisher))
	if err != nil {
		a.closeAll()
		return err
	}
	a.closers = append(a.closers, closers...)

	a.Digest = digest.New(orchestrator, store, publisher)
	a.Publisher = publisher
	a.Store = store

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("sttProvider", a.Cfg.STT.Provider).
		Str("summaryProvider", a.Cfg.Summary.Provider).
		Str("storage", store.Backend()).
		Msg("Speech digest service starting")
	return nil
}

// BuildOrchestrator wires the pipeline from configuration. The returned closers release
// provider connections and must be closed by the caller.
func BuildOrchestrator(ctx context.Context, cfg *config.Configuration, opts ...pipeline.Option) (*pipeline.Orchestrator, []io.Closer, error) {
	transcriber, err := NewTranscriber(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var closers []io.Closer
	if c, ok := transcriber.(io.Closer); ok {
		closers = append(closers, c)
	}

	generator, err := NewSummaryGenerator(cfg)
	if err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, nil, err
	}

	opts = append([]pipeline.Option{pipeline.WithLanguage(cfg.STT.Language)}, opts...)
	orchestrator := pipeline.New(pipeline.Deps{
		Resolver: source.NewHTTPResolver(
			HTTPClient(cfg.Forwarder, cfg.Source.Timeout),
			cfg.Source.MaxBytes,
			cfg.Source.Timeout,
		),
		Normalizer:  audio.NewNormalizer(audio.WithFFmpeg(cfg.Audio.FFmpegPath)),
		Transcriber: stt.Instrument(transcriber, metrics.DefaultMetrics),
		Segmenter:   segment.New(),
		Summarizer:  summary.NewInterpreter(generator, metrics.DefaultMetrics),
	}, opts...)
	return orchestrator, closers, nil
}

// Ready reports whether submissions can be accepted.
func (a *Application) Ready() error {
	if a.Digest == nil {
		return ErrNotStarted
	}
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Str("method", "Shutdown").Msg("Speech digest service shutting down")
	a.closeAll()
}

func (a *Application) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
}
