package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	applog "budgetbot/internal/log"
)

// FileStore persists the dataset as one JSON document, the same flat-file
// shape the dashboard reads. All access is serialized behind a mutex and
// saves go through a temp-file rename, so a crash mid-write never leaves a
// truncated dataset behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the JSON file at path. The file is
// created lazily on first save; its directory is created up front.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(ctx context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx), nil
}

func (s *FileStore) Update(ctx context.Context, fn func(*Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := s.read(ctx)
	if err := fn(ds); err != nil {
		return err
	}
	return s.write(ds)
}

func (s *FileStore) Close() error {
	return nil
}

// read loads the file, degrading to the seeded default dataset when the
// file is missing or unreadable. A corrupt file is logged, not fatal.
func (s *FileStore) read(ctx context.Context) *Dataset {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "Failed to read dataset file, using defaults",
				applog.FieldPath, s.path, applog.FieldError, err)
		}
		return Default(time.Now())
	}

	ds := &Dataset{}
	if err := json.Unmarshal(data, ds); err != nil {
		slog.WarnContext(ctx, "Failed to decode dataset file, using defaults",
			applog.FieldPath, s.path, applog.FieldError, err)
		return Default(time.Now())
	}
	return ds
}

func (s *FileStore) write(ds *Dataset) error {
	data, err := ds.MarshalIndent()
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace dataset file: %w", err)
	}
	return nil
}
