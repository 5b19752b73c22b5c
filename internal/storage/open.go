package storage

import (
	"context"
	"fmt"

	"github.com/lychee-technology/inquiry"
	"go.uber.org/zap"
)

// Open builds the repository selected by cfg. The returned close function
// is never nil.
func Open(ctx context.Context, cfg inquiry.StorageConfig) (inquiry.Repository, func(), error) {
	table := cfg.Database.TableName
	if table == "" {
		table = "inquiry_kv"
	}

	switch cfg.Backend {
	case "", inquiry.StorageBackendMemory:
		return NewMemoryRepository(), func() {}, nil

	case inquiry.StorageBackendDuckDB:
		repo, err := OpenDuckDB(ctx, cfg.DuckDBPath, table)
		if err != nil {
			return nil, func() {}, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				zap.S().Warnw("closing duckdb", "error", err)
			}
		}, nil

	case inquiry.StorageBackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		repo, err := NewPostgresRepository(pool, table)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return repo, pool.Close, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
