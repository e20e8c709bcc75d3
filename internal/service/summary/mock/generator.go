// Package mock provides a scripted summary generator for local runs and tests.
package mock

import (
	"context"
	"sync"
)

// DefaultResponse is a well-formed answer wrapped in prose, the way chat models tend to reply.
const DefaultResponse = `Here is the analysis you asked for:
{
  "summary": "The team reviewed the release schedule and agreed on next steps.",
  "keyPoints": ["Release moves to Friday", "QA needs one more day"],
  "topics": ["Release planning", "Quality assurance"],
  "sentiment": "positive",
  "actionItems": ["Update the release calendar", "Notify support"]
}`

// Generator returns a fixed response and records every prompt it receives.
type Generator struct {
	response string
	err      error

	mu      sync.Mutex
	prompts []string
}

// New creates a generator answering with DefaultResponse.
func New() *Generator {
	return NewWithResponse(DefaultResponse)
}

// NewWithResponse creates a generator answering with response.
func NewWithResponse(response string) *Generator {
	return &Generator{response: response}
}

// NewFailing creates a generator that always returns err.
func NewFailing(err error) *Generator {
	return &Generator{err: err}
}

// Name implements summary.Generator.
func (g *Generator) Name() string { return "mock" }

// Generate implements summary.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// Prompts returns the prompts received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}
