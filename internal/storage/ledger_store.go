package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/config"
	interfaces "github.com/sheikh-saqib/expense-ledger-bot/internal/interfaces"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/storage/file"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/storage/memory"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/storage/postgres"
)

// Open builds the LedgerStore selected by cfg.StorageDriver.
// The returned close function releases backend resources and is never nil.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (interfaces.LedgerStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.DriverFile:
		logger.Info("using file ledger store", zap.String("path", cfg.LedgerPath))
		return file.NewFileLedgerStore(cfg.LedgerPath), noop, nil

	case config.DriverMemory:
		logger.Warn("using in-memory ledger store, data is lost on exit")
		return memory.NewMemoryLedgerStore(), noop, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		store := postgres.NewPostgresLedgerStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info("using postgres ledger store")
		return store, db.Close, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.StorageDriver)
	}
}
