// Package digest runs submissions end to end: pipeline, validation, persistence of the
// exports, and the completed-result event.
package digest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/export"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/observability/metrics"
	"speech-digest-service/internal/schema"
	"speech-digest-service/internal/service/pipeline"
	"speech-digest-service/internal/storage"
)

// Processor runs one submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*models.ProcessingResult, error)
}

// ResultPublisher announces completed results.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *models.ProcessingResult) error
}

// Service owns the lifecycle of a submission after the pipeline returns.
type Service struct {
	processor Processor
	store     storage.Store
	publisher ResultPublisher
	validator *schema.Validator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates a Service. A nil store skips persistence and a nil publisher skips the
// result event; Result and ResultText then report NOT_FOUND.
func New(processor Processor, store storage.Store, publisher ResultPublisher) *Service {
	return &Service{
		processor: processor,
		store:     store,
		publisher: publisher,
		validator: schema.New(),
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("digest"),
	}
}

// Submit processes sub and returns the assembled result. Only pipeline and validation
// failures are returned; storage and publish failures are logged.
func (s *Service) Submit(ctx context.Context, sub pipeline.Submission) (*models.ProcessingResult, error) {
	result, err := s.processor.Process(ctx, sub)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(result); err != nil {
		s.logger.Error().Err(err).Str("submissionId", result.ID).Msg("Assembled result failed validation")
		return nil, apperrors.Internal("assembled result is invalid").WithCause(err)
	}

	s.persist(ctx, result)

	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, result); err != nil {
			s.logger.Warn().Err(err).Str("submissionId", result.ID).Msg("Failed to publish result event")
		}
	}
	return result, nil
}

func (s *Service) persist(ctx context.Context, result *models.ProcessingResult) {
	if s.store == nil {
		return
	}
	logger := s.logger.With().Str("submissionId", result.ID).Str("backend", s.store.Backend()).Logger()

	data, err := export.JSON(result)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render JSON export")
		return
	}
	artifacts := []struct {
		key         string
		data        []byte
		contentType string
	}{
		{storage.ResultKey(result.ID, "json"), data, export.JSONContentType},
		{storage.ResultKey(result.ID, "txt"), []byte(export.Text(result, result.CreatedAt)), export.TextContentType},
	}

	for _, a := range artifacts {
		err := s.store.Save(ctx, a.key, a.data, a.contentType)
		s.metrics.RecordStoreWrite(s.store.Backend(), err)
		if err != nil {
			logger.Error().Err(err).Str("key", a.key).Msg("Failed to persist export")
			continue
		}
		logger.Debug().Str("key", a.key).Int("bytes", len(a.data)).Msg("Export persisted")
	}
}

// Result loads a persisted result.
func (s *Service) Result(ctx context.Context, id string) (*models.ProcessingResult, error) {
	data, err := s.load(ctx, id, "json")
	if err != nil {
		return nil, err
	}
	var result models.ProcessingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &result, nil
}

// ResultText loads the plain-text export of a persisted result.
func (s *Service) ResultText(ctx context.Context, id string) ([]byte, error) {
	return s.load(ctx, id, "txt")
}

func (s *Service) load(ctx context.Context, id, ext string) ([]byte, error) {
	if s.store == nil || !storage.ValidKey(id) {
		return nil, apperrors.NotFound("result", id)
	}
	data, err := s.store.Load(ctx, storage.ResultKey(id, ext))
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, apperrors.NotFound("result", id)
		}
		return nil, err
	}
	return data, nil
}
