// Package summary turns transcript text into a structured SummaryResult.
//
// The actual analysis is delegated to a Generator. The Interpreter owns the prompt and a
// total parse of whatever text comes back: JSON first, then headed sections, then fixed
// placeholders. Once a provider has answered with any text, Summarize does not fail.
package summary

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/observability/metrics"
)

// Interpreter summarizes transcripts with one Generator call each. Safe for concurrent use
// when the Generator is.
type Interpreter struct {
	generator Generator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewInterpreter creates an Interpreter. m may be nil.
func NewInterpreter(g Generator, m *metrics.Metrics) *Interpreter {
	return &Interpreter{
		generator: g,
		metrics:   m,
		logger:    logging.WithProvider("summary", g.Name()),
	}
}

// Summarize sends one prompt for transcriptText and interprets the answer.
// Errors are the generator's own (configuration or provider), or a provider error when the
// answer is blank.
func (i *Interpreter) Summarize(ctx context.Context, transcriptText string, speakers []string) (models.SummaryResult, error) {
	start := time.Now()
	raw, err := i.generator.Generate(ctx, BuildPrompt(transcriptText, speakers))
	if err == nil && strings.TrimSpace(raw) == "" {
		err = apperrors.Provider(i.generator.Name(), "summary provider returned no content")
	}
	if i.metrics != nil {
		i.metrics.RecordProviderCall("summary", i.generator.Name(), err, time.Since(start).Seconds())
	}
	if err != nil {
		i.logger.Error().Err(err).Msg("Summary request failed")
		return models.SummaryResult{}, err
	}

	result, path := Interpret(raw, speakers)
	if i.metrics != nil {
		i.metrics.RecordSummaryPath(string(path))
	}

	switch path {
	case PathJSON:
		i.logger.Debug().Int("keyPoints", len(result.KeyPoints)).Msg("Summary parsed as JSON")
	case PathSections:
		i.logger.Warn().Msg("Summary response was not JSON, parsed by sections")
	default:
		i.logger.Warn().Int("responseLen", len(raw)).Msg("Summary response unrecognised, using placeholders")
	}
	return result, nil
}
