// Package stt defines the interface for Speech-to-Text providers.
package stt

import (
	"context"
	"time"

	"speech-digest-service/internal/observability/metrics"
)

// Segment is one time-aligned span returned by a provider, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Request carries canonical WAV audio to a provider.
type Request struct {
	Audio      []byte
	FileName   string
	MimeType   string
	SampleRate int
	Channels   int
	Language   string // optional hint, BCP-47 or ISO-639-1
}

// Response is a provider's transcription of one recording.
type Response struct {
	Text     string
	Segments []Segment
	Language string
}

// Provider defines the interface for STT providers (OpenAI Whisper, Google, mock).
type Provider interface {
	// Name identifies the provider in logs, metrics, and errors.
	Name() string

	// Transcribe sends one recording and blocks until the provider answers.
	Transcribe(ctx context.Context, req *Request) (*Response, error)
}

// Instrumented wraps a Provider and records call latency and failures.
type Instrumented struct {
	Provider
	metrics *metrics.Metrics
}

// Instrument wraps p with metrics.
func Instrument(p Provider, m *metrics.Metrics) *Instrumented {
	return &Instrumented{Provider: p, metrics: m}
}

// Transcribe implements Provider.
func (i *Instrumented) Transcribe(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := i.Provider.Transcribe(ctx, req)
	i.metrics.RecordProviderCall("stt", i.Provider.Name(), err, time.Since(start).Seconds())
	return resp, err
}
