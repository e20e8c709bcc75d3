// Package anthropic provides a Messages API summary generator built on anthropic-sdk-go.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/service/summary"
)

const providerName = "anthropic"

// Defaults applied when Config leaves a field unset.
const (
	DefaultModel     = string(sdk.ModelClaudeSonnet4_5)
	DefaultMaxTokens = 1024
)

// Config holds Messages API settings. HTTPClient carries the outbound request strategy.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// Generator implements summary.Generator with the Messages API.
type Generator struct {
	client    *sdk.Client
	model     string
	maxTokens int64
}

// New creates a generator. A missing API key is reported on the first Generate call.
// SDK retries are disabled so a rejected request surfaces on the first failure.
func New(cfg Config) *Generator {
	g := &Generator{model: cfg.Model, maxTokens: int64(cfg.MaxTokens)}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if cfg.APIKey == "" {
		return g
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := sdk.NewClient(opts...)
	g.client = &client
	return g
}

// Name implements summary.Generator.
func (g *Generator) Name() string { return providerName }

// Generate implements summary.Generator. Text blocks of the reply are concatenated.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", apperrors.Configuration("no API key configured for the anthropic summary provider").
			WithDetail("provider", providerName)
	}

	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []sdk.TextBlockParam{{Text: summary.SystemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", providerError(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", apperrors.Provider(providerName, "summary provider returned no content")
	}
	return b.String(), nil
}

func providerError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apperrors.Provider(providerName, "summary request rejected").
			WithDetail("status", apiErr.StatusCode).
			WithCause(err)
	}
	return apperrors.Provider(providerName, "summary request failed").WithCause(err)
}
