// Package transport selects how outbound HTTP calls leave the service: straight to the
// target, or wrapped in a JSON envelope and posted to a forwarding endpoint.
package transport

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"speech-digest-service/internal/config"
	"speech-digest-service/internal/observability/logging"
)

// BodyEncodingBase64 marks an envelope body that was not valid UTF-8.
const BodyEncodingBase64 = "base64"

// Envelope is the payload posted to the forwarding endpoint.
type Envelope struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
	Body         string            `json:"body,omitempty"`
	BodyEncoding string            `json:"bodyEncoding,omitempty"`
}

// Direct returns the plain transport used when no forwarder is configured.
func Direct() http.RoundTripper {
	return http.DefaultTransport
}

// Forwarded wraps every request into an Envelope and posts it to a fixed endpoint.
type Forwarded struct {
	endpoint string
	next     http.RoundTripper
	logger   zerolog.Logger
}

// NewForwarded creates a forwarding RoundTripper. next carries the envelope itself and
// defaults to Direct().
func NewForwarded(endpoint string, next http.RoundTripper) *Forwarded {
	if next == nil {
		next = Direct()
	}
	return &Forwarded{
		endpoint: endpoint,
		next:     next,
		logger:   logging.WithComponent("forwarder"),
	}
}

// RoundTrip implements http.RoundTripper.
func (f *Forwarded) RoundTrip(req *http.Request) (*http.Response, error) {
	env, err := NewEnvelope(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal forward envelope: %w", err)
	}

	out, err := http.NewRequestWithContext(req.Context(), http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build forward request: %w", err)
	}
	out.Header.Set("Content-Type", "application/json")

	f.logger.Debug().
		Str("method", env.Method).
		Str("target", req.URL.Host).
		Int("bodyBytes", len(env.Body)).
		Msg("Forwarding outbound request")

	resp, err := f.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	// Callers see the response as belonging to their original request.
	resp.Request = req
	return resp, nil
}

// NewEnvelope captures req as a forward envelope. The request body is consumed.
func NewEnvelope(req *http.Request) (*Envelope, error) {
	env := &Envelope{
		URL:     req.URL.String(),
		Method:  req.Method,
		Headers: make(map[string]string, len(req.Header)),
	}
	if env.Method == "" {
		env.Method = http.MethodGet
	}
	for k, v := range req.Header {
		if len(v) > 0 {
			env.Headers[k] = v[0]
		}
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if utf8.Valid(body) {
			env.Body = string(body)
		} else {
			env.Body = base64.StdEncoding.EncodeToString(body)
			env.BodyEncoding = BodyEncodingBase64
		}
	}
	return env, nil
}

// DecodeBody returns the original request body bytes carried by the envelope.
func (e *Envelope) DecodeBody() ([]byte, error) {
	if e.BodyEncoding == BodyEncodingBase64 {
		return base64.StdEncoding.DecodeString(e.Body)
	}
	return []byte(e.Body), nil
}

// NewRoundTripper picks the strategy once from configuration.
func NewRoundTripper(cfg config.ForwarderConfig) http.RoundTripper {
	if cfg.URL == "" {
		return Direct()
	}
	return NewForwarded(cfg.URL, nil)
}

// NewClient returns the HTTP client handed to every provider and the source resolver.
func NewClient(cfg config.ForwarderConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &http.Client{
		Transport: NewRoundTripper(cfg),
		Timeout:   timeout,
	}
}
