// Package openai provides a Whisper transcription provider built on go-openai.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	goopenai "github.com/sashabaranov/go-openai"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/observability/logging"
	"speech-digest-service/internal/service/stt"
)

const providerName = "openai"

// Config holds Whisper settings. HTTPClient carries the outbound request strategy.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Language   string
	HTTPClient *http.Client
}

// Provider implements stt.Provider against the OpenAI audio transcription endpoint.
type Provider struct {
	client   *goopenai.Client
	model    string
	language string
	logger   zerolog.Logger
}

// New creates a Whisper provider. A missing API key is reported on the first Transcribe call.
func New(cfg Config) *Provider {
	p := &Provider{
		model:    cfg.Model,
		language: cfg.Language,
		logger:   logging.WithProvider("stt", providerName),
	}
	if p.model == "" {
		p.model = goopenai.Whisper1
	}
	if cfg.APIKey == "" {
		return p
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	p.client = goopenai.NewClientWithConfig(clientCfg)
	return p
}

// Name implements stt.Provider.
func (p *Provider) Name() string { return providerName }

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, req *stt.Request) (*stt.Response, error) {
	if p.client == nil {
		return nil, apperrors.Configuration("no API key configured for the openai transcription provider").
			WithDetail("provider", providerName)
	}

	language := req.Language
	if language == "" {
		language = p.language
	}

	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.model,
		FilePath: uploadName(req.FileName),
		Reader:   bytes.NewReader(req.Audio),
		Format:   goopenai.AudioResponseFormatVerboseJSON,
		Language: language,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("model", p.model).Msg("Transcription request failed")
		return nil, providerError(err)
	}

	out := &stt.Response{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Segments: make([]stt.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, stt.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	if len(out.Segments) == 0 && out.Text != "" {
		out.Segments = append(out.Segments, stt.Segment{Start: 0, End: resp.Duration, Text: out.Text})
	}
	if out.Language == "" {
		out.Language = language
	}

	p.logger.Debug().
		Int("segments", len(out.Segments)).
		Str("language", out.Language).
		Float64("durationSec", resp.Duration).
		Msg("Transcription received")

	return out, nil
}

// uploadName makes sure the multipart filename carries the canonical .wav extension,
// since the endpoint infers the container from it.
func uploadName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "audio"
	}
	return base + ".wav"
}

func providerError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.Provider(providerName, fmt.Sprintf("transcription failed: %s", apiErr.Message)).
			WithDetail("status", apiErr.HTTPStatusCode).
			WithCause(err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.Provider(providerName, "transcription request failed").
			WithDetail("status", reqErr.HTTPStatusCode).
			WithCause(err)
	}
	return apperrors.Provider(providerName, "transcription request failed").WithCause(err)
}
