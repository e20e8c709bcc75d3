package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/config"
	"speech-digest-service/internal/service/stt"
	sttgoogle "speech-digest-service/internal/service/stt/google"
	sttmock "speech-digest-service/internal/service/stt/mock"
	sttopenai "speech-digest-service/internal/service/stt/openai"
	"speech-digest-service/internal/service/summary"
	sumanthropic "speech-digest-service/internal/service/summary/anthropic"
	summock "speech-digest-service/internal/service/summary/mock"
	sumopenai "speech-digest-service/internal/service/summary/openai"
	"speech-digest-service/internal/transport"
)

// HTTPClient returns the forwarder-aware client with timeout replacing the forwarder default.
func HTTPClient(cfg config.ForwarderConfig, timeout time.Duration) *http.Client {
	c := transport.NewClient(cfg)
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c
}

// NewTranscriber builds the provider named by cfg.STT.Provider. The google provider talks
// gRPC and does not go through the forwarder.
func NewTranscriber(ctx context.Context, cfg *config.Configuration) (stt.Provider, error) {
	switch strings.ToLower(cfg.STT.Provider) {
	case "", "openai":
		return sttopenai.New(sttopenai.Config{
			APIKey:     cfg.STT.APIKey,
			Model:      cfg.STT.Model,
			BaseURL:    cfg.STT.BaseURL,
			Language:   cfg.STT.Language,
			HTTPClient: HTTPClient(cfg.Forwarder, cfg.STT.Timeout),
		}), nil
	case "google":
		gcfg := sttgoogle.DefaultConfig()
		if cfg.STT.Language != "" {
			gcfg.LanguageCode = cfg.STT.Language
		}
		p, err := sttgoogle.New(ctx, gcfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mock":
		return sttmock.New(), nil
	default:
		return nil, apperrors.Configuration(fmt.Sprintf("unknown STT provider %q", cfg.STT.Provider))
	}
}

// NewSummaryGenerator builds the generator named by cfg.Summary.Provider.
func NewSummaryGenerator(cfg *config.Configuration) (summary.Generator, error) {
	client := HTTPClient(cfg.Forwarder, cfg.Summary.Timeout)

	switch strings.ToLower(cfg.Summary.Provider) {
	case "", "openai":
		return sumopenai.New(sumopenai.Config{
			APIKey:     cfg.Summary.APIKey,
			Model:      cfg.Summary.Model,
			BaseURL:    cfg.Summary.BaseURL,
			MaxTokens:  cfg.Summary.MaxTokens,
			HTTPClient: client,
		}), nil
	case "anthropic":
		return sumanthropic.New(sumanthropic.Config{
			APIKey:     cfg.Summary.APIKey,
			Model:      cfg.Summary.Model,
			BaseURL:    cfg.Summary.BaseURL,
			MaxTokens:  cfg.Summary.MaxTokens,
			HTTPClient: client,
		}), nil
	case "mock":
		return summock.New(), nil
	default:
		return nil, apperrors.Configuration(fmt.Sprintf("unknown summary provider %q", cfg.Summary.Provider))
	}
}
