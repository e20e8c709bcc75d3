// Package source resolves remote submissions to downloadable audio.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/observability/logging"
)

// DefaultMaxBytes caps a download when no limit is configured.
const DefaultMaxBytes int64 = 200 * 1024 * 1024

// ErrTooLarge is returned by Fetch when the body exceeds the byte cap.
var ErrTooLarge = errors.New("remote audio exceeds the download limit")

// Remote is a resolved remote recording.
type Remote struct {
	URL      string
	AudioURL string
	Title    string
}

// Resolver turns a submitted URL into retrievable audio.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*Remote, error)
	Fetch(ctx context.Context, audioURL string) ([]byte, error)
}

// HTTPResolver treats the submitted URL as a direct audio link.
type HTTPResolver struct {
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewHTTPResolver creates a resolver. client carries the outbound request strategy;
// maxBytes <= 0 selects DefaultMaxBytes and timeout <= 0 disables the per-fetch deadline.
func NewHTTPResolver(client *http.Client, maxBytes int64, timeout time.Duration) *HTTPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPResolver{
		client:   client,
		maxBytes: maxBytes,
		timeout:  timeout,
		logger:   logging.WithComponent("source"),
	}
}

// Resolve validates rawURL and derives a display title from its path.
func (r *HTTPResolver) Resolve(_ context.Context, rawURL string) (*Remote, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, apperrors.InvalidInput("source URL is not a valid URL").WithCause(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, apperrors.InvalidInput("source URL must use http or https").WithDetail("scheme", u.Scheme)
	}
	if u.Host == "" {
		return nil, apperrors.InvalidInput("source URL has no host")
	}
	return &Remote{URL: u.String(), AudioURL: u.String(), Title: TitleFromURL(u)}, nil
}

// Fetch downloads audioURL. A 404 is a NotFound error; other failures are returned as-is
// for the caller to classify.
func (r *HTTPResolver) Fetch(ctx context.Context, audioURL string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "audio/*, application/octet-stream;q=0.9, */*;q=0.5")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", audioURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("recording", audioURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", audioURL, resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", audioURL, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, ErrTooLarge
	}

	r.logger.Debug().
		Str("url", audioURL).
		Int("bytes", len(data)).
		Str("contentType", resp.Header.Get("Content-Type")).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched remote audio")
	return data, nil
}

// TitleFromURL returns the unescaped last path element without its extension,
// or the host when the path is empty.
func TitleFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return u.Hostname()
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if title := strings.TrimSuffix(base, path.Ext(base)); title != "" {
		return title
	}
	return base
}
