// Package backend selects and constructs the dataset store from
// configuration, so the binaries share one wiring path.
package backend

import (
	"fmt"

	"budgetbot/internal/config"
	"budgetbot/internal/dataset"
	"budgetbot/internal/storage"
)

// Open builds the store named by cfg.DataBackend. The caller owns the
// returned store and must Close it.
func Open(cfg *config.Config) (dataset.Store, error) {
	switch cfg.DataBackend {
	case "memory":
		return dataset.NewMemoryStore(), nil
	case "file":
		store, err := dataset.NewFileStore(cfg.DataFilePath)
		if err != nil {
			return nil, fmt.Errorf("file backend: %w", err)
		}
		return store, nil
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite backend: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}
}
