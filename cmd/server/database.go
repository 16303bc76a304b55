package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/platform/sqlstore"
)

// openDatabase connects to the configured database and applies pending
// migrations when auto-migrate is on.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sqlstore.Store, error) {
	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Dialect:         sqlstore.Dialect(cfg.Dialect),
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		MaxAttempts:     cfg.MaxAttempts,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !cfg.AutoMigrate {
		log.Info("automatic migrations disabled")
		return db, nil
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
