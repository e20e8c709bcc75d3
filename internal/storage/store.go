// Package storage persists result artifacts in a local directory or an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"regexp"

	"speech-digest-service/internal/config"
)

// Backend names.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Store keeps artifacts by key. Keys are flat names such as "<id>.json".
type Store interface {
	// Backend names the implementation in logs and metrics.
	Backend() string
	Save(ctx context.Context, key string, data []byte, contentType string) error
	// Load returns a NotFound AppError when key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidKey reports whether key is a flat name that cannot escape the store.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key) && key != "." && key != ".."
}

// ResultKey returns the key of a result artifact, e.g. ResultKey(id, "json").
func ResultKey(id, ext string) string {
	return id + "." + ext
}

// New creates the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		return NewLocalStore(cfg.Dir)
	case BackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
