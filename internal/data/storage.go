// Package data selects the store backing the economy for a binary.
package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mc-economy-bridge/internal/config"
	"github.com/mc-economy-bridge/internal/data/memory"
	"github.com/mc-economy-bridge/internal/data/postgres"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

// Storage is the transaction manager a binary runs against plus whatever owns its connections
type Storage struct {
	TxManager economy.TxManager
	db        *persistence.PostgresDB
}

// Open builds the store named by STORAGE_DRIVER. Postgres migrations run before the pool is handed out.
func Open(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; balances are lost on restart", "outbox_retention", memory.DefaultOutboxRetention)
		return &Storage{TxManager: memory.NewStore()}, nil
	case config.StorageDriverPostgres:
		db, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return &Storage{
			TxManager: postgres.NewTxManager(logger, db.Pool()),
			db:        db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Postgres returns the pool owner, or nil for the in-memory store
func (s *Storage) Postgres() *persistence.PostgresDB {
	return s.db
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
