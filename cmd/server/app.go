package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-engine/internal/allocation"
	"github.com/phrazzld/scry-engine/internal/api"
	"github.com/phrazzld/scry-engine/internal/config"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/domain/reward"
	"github.com/phrazzld/scry-engine/internal/domain/srs"
	"github.com/phrazzld/scry-engine/internal/ledger"
	"github.com/phrazzld/scry-engine/internal/projection"
	"github.com/phrazzld/scry-engine/internal/service"
	"github.com/phrazzld/scry-engine/internal/service/planner"
	"github.com/phrazzld/scry-engine/internal/service/review"
	"github.com/phrazzld/scry-engine/internal/store"
	"github.com/phrazzld/scry-engine/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	store    store.TxRunner
	closer   io.Closer // closes store on shutdown; nil when the caller owns it
	location *time.Location
	clock    func() time.Time

	handlers  api.Handlers
	scheduler *task.Scheduler
}

// newApplication builds every service over tx and registers the background
// tasks. Nothing is started until Run.
func newApplication(cfg *config.Config, logger *slog.Logger, tx store.TxRunner) (*application, error) {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		store:    tx,
		location: loc,
		clock:    time.Now,
	}

	rewards, err := reward.NewTable(modeValues(cfg.Rewards.Base), modeValues(cfg.Rewards.Capacity))
	if err != nil {
		return nil, fmt.Errorf("failed to build reward table: %w", err)
	}

	srsService, err := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		DesiredRetention:      cfg.Memory.DesiredRetention,
		MaximumInterval:       cfg.Memory.MaximumInterval,
		GraduationRepetitions: cfg.Memory.GraduationRepetitions,
		AgainStep:             cfg.Memory.AgainStep,
		HardStep:              cfg.Memory.HardStep,
		GoodStep:              cfg.Memory.GoodStep,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	policy := ledger.Policy{DefaultTarget: cfg.Rewards.DefaultTarget}

	collections, err := service.NewCollectionService(tx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection service: %w", err)
	}

	reviews, err := review.NewService(tx, srsService, review.Config{
		Rewards:  rewards,
		Policy:   policy,
		Location: loc,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}

	assigner, err := allocation.NewAssigner(tx, srsService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create assigner: %w", err)
	}

	plan, err := planner.New(tx, assigner, policy, allocation.Config{
		MinimumReward:          cfg.Rewards.MinimumReward,
		HighPriorityMultiplier: cfg.Rewards.PriorityMultiplier,
		Rewards:                rewards,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create planner: %w", err)
	}

	ledgerService, err := ledger.NewService(tx, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger service: %w", err)
	}

	projector, err := projection.NewProjector(tx, rewards, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create projector: %w", err)
	}

	calendar := api.Calendar{Now: app.now, Location: loc}
	app.handlers = api.Handlers{
		Collections: api.NewCollectionHandler(collections, projector, calendar, logger),
		Reviews:     api.NewReviewHandler(reviews, collections, calendar, logger),
		Plan:        api.NewPlanHandler(plan, calendar, logger),
		Ledger:      api.NewLedgerHandler(ledgerService, calendar, logger),
	}

	app.scheduler, err = setupScheduler(app, ledgerService)
	if err != nil {
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

func (app *application) now() time.Time {
	return app.clock()
}

func modeValues(v config.ModeValues) map[domain.Mode]int {
	return map[domain.Mode]int{
		domain.ModeRead:     v.Read,
		domain.ModeSolve:    v.Solve,
		domain.ModeMemorize: v.Memorize,
	}
}

// setupScheduler registers the periodic ledger rollover. A zero interval
// leaves rollover to the first request of each day.
func setupScheduler(app *application, roller task.Roller) (*task.Scheduler, error) {
	scheduler := task.NewScheduler(task.SchedulerConfig{
		Location: app.location,
		Timeout:  time.Minute,
	}, app.logger)

	interval := app.config.Schedule.RolloverInterval
	if interval <= 0 {
		app.logger.Info("periodic ledger rollover disabled")
		return scheduler, nil
	}

	rollover, err := task.NewRolloverTask(roller, app.location, app.now)
	if err != nil {
		return nil, fmt.Errorf("failed to create rollover task: %w", err)
	}
	if err := scheduler.Every(interval, rollover); err != nil {
		return nil, fmt.Errorf("failed to schedule rollover: %w", err)
	}
	return scheduler, nil
}

// Run starts the background tasks and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	app.scheduler.Start()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.closer != nil {
		if err := app.closer.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}
}
