package repository

import (
	"context"
	"fmt"

	"ringside/internal/config"
)

// Open builds the KV backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryKV(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "mongo":
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
