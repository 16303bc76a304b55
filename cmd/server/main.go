// Package main implements the entry point for the Scry engine server, which
// schedules item reviews and allocates daily study load over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// run loads configuration, connects to the database, and serves until the
// process receives SIGINT or SIGTERM.
func run(args []string) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("scry-engine", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(logger.Config{Level: cfg.Server.LogLevel})
	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("db_dialect", cfg.Database.Dialect),
		slog.String("timezone", cfg.Schedule.Timezone))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	app.closer = db

	return app.Run(ctx)
}
