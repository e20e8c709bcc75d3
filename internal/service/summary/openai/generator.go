// Package openai provides a chat-completion summary generator built on go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/service/summary"
)

const providerName = "openai"

// DefaultMaxTokens bounds the answer when Config.MaxTokens is unset.
const DefaultMaxTokens = 1024

// Config holds chat completion settings. HTTPClient carries the outbound request strategy.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// Generator implements summary.Generator with the chat completions endpoint.
type Generator struct {
	client    *goopenai.Client
	model     string
	maxTokens int
}

// New creates a generator. A missing API key is reported on the first Generate call.
func New(cfg Config) *Generator {
	g := &Generator{model: cfg.Model, maxTokens: cfg.MaxTokens}
	if g.model == "" {
		g.model = goopenai.GPT4oMini
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if cfg.APIKey == "" {
		return g
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	g.client = goopenai.NewClientWithConfig(clientCfg)
	return g
}

// Name implements summary.Generator.
func (g *Generator) Name() string { return providerName }

// Generate implements summary.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", apperrors.Configuration("no API key configured for the openai summary provider").
			WithDetail("provider", providerName)
	}

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: summary.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", providerError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperrors.Provider(providerName, "summary provider returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}

func providerError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.Provider(providerName, fmt.Sprintf("summary failed: %s", apiErr.Message)).
			WithDetail("status", apiErr.HTTPStatusCode).
			WithCause(err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.Provider(providerName, "summary request failed").
			WithDetail("status", reqErr.HTTPStatusCode).
			WithCause(err)
	}
	return apperrors.Provider(providerName, "summary request failed").WithCause(err)
}
