package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"speech-digest-service/internal/apperrors"
)

// LocalStore keeps artifacts as files in one directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("local store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Backend implements Store.
func (s *LocalStore) Backend() string { return BackendLocal }

// Save writes data through a temp file and rename, so readers never see a partial file.
func (s *LocalStore) Save(_ context.Context, key string, data []byte, _ string) error {
	if !ValidKey(key) {
		return apperrors.InvalidInput("invalid storage key").WithDetail("key", key)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Load implements Store.
func (s *LocalStore) Load(_ context.Context, key string) ([]byte, error) {
	if !ValidKey(key) {
		return nil, apperrors.NotFound("result", key)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.NotFound("result", key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Exists implements Store.
func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	if !ValidKey(key) {
		return false, nil
	}
	_, err := os.Stat(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
