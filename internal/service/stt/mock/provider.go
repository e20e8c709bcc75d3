// Package mock provides a scripted STT provider for local runs and tests without cloud credentials.
package mock

import (
	"context"
	"strings"
	"sync"

	"speech-digest-service/internal/service/stt"
)

// SimulatedUtterance is one scripted line of speech.
type SimulatedUtterance struct {
	Text     string
	Duration float64 // seconds
}

// DefaultUtterances provides a short scripted meeting.
var DefaultUtterances = []SimulatedUtterance{
	{Text: "Good morning everyone, thanks for joining.", Duration: 3.2},
	{Text: "Let's start with the release status.", Duration: 2.6},
	{Text: "The billing migration is finished and deployed.", Duration: 3.4},
	{Text: "We still need to update the customer documentation.", Duration: 3.1},
	{Text: "Can you own that by Friday?", Duration: 1.9},
	{Text: "Yes, I will have a draft ready on Thursday.", Duration: 2.8},
	{Text: "Great, then we are done for today.", Duration: 2.2},
}

// Provider implements stt.Provider with scripted responses.
type Provider struct {
	utterances []SimulatedUtterance
	language   string
	err        error

	mu    sync.Mutex
	calls int
}

// New creates a mock provider that answers with DefaultUtterances.
func New() *Provider {
	return NewWithUtterances(DefaultUtterances)
}

// NewWithUtterances creates a mock provider with a custom script.
func NewWithUtterances(utterances []SimulatedUtterance) *Provider {
	return &Provider{utterances: utterances, language: "en"}
}

// NewFailing creates a mock provider whose every call returns err.
func NewFailing(err error) *Provider {
	return &Provider{err: err}
}

// Name implements stt.Provider.
func (p *Provider) Name() string { return "mock" }

// Calls returns how many times Transcribe was invoked.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Transcribe implements stt.Provider. Segments are laid out back to back.
func (p *Provider) Transcribe(ctx context.Context, req *stt.Request) (*stt.Response, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}

	resp := &stt.Response{Language: p.language, Segments: make([]stt.Segment, 0, len(p.utterances))}
	if req.Language != "" {
		resp.Language = req.Language
	}

	texts := make([]string, 0, len(p.utterances))
	offset := 0.0
	for _, u := range p.utterances {
		resp.Segments = append(resp.Segments, stt.Segment{Start: offset, End: offset + u.Duration, Text: u.Text})
		texts = append(texts, u.Text)
		offset += u.Duration
	}
	resp.Text = strings.Join(texts, " ")
	return resp, nil
}
