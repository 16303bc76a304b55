package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs registered tasks on fixed intervals. Each task runs in
// singleton mode, so a slow run is never overlapped by the next tick.
type Scheduler struct {
	// cron drives the interval timers
	cron *gocron.Scheduler

	// timeout bounds a single task execution
	timeout time.Duration

	// ctx is cancelled on Stop so in-flight tasks can exit early
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	mu sync.RWMutex
	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// SchedulerConfig holds configuration options for the scheduler
type SchedulerConfig struct {
	// Location is the time zone the timers run in. Defaults to UTC.
	Location *time.Location

	// Timeout bounds each task execution. Zero or negative means no bound.
	Timeout time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Location: time.UTC,
		Timeout:  time.Minute,
	}
}

// NewScheduler creates a new scheduler with the specified configuration
func NewScheduler(config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    gocron.NewScheduler(loc),
		timeout: config.Timeout,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(slog.String("component", "task_scheduler")),
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (s *Scheduler) SetErrorHandler(handler func(task Task, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorHandler = handler
}

// Every registers task to run once when the scheduler starts and then every
// interval after that.
func (s *Scheduler) Every(interval time.Duration, task Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for task %s", interval, task.Type())
	}

	_, err := s.cron.Every(interval).SingletonMode().Do(func() {
		_ = s.RunNow(task)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule task %s: %w", task.Type(), err)
	}

	s.logger.Info("task scheduled",
		slog.String("task_type", task.Type()),
		slog.Duration("interval", interval))
	return nil
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return s.cron.Len()
}

// Start begins running all scheduled tasks without blocking.
func (s *Scheduler) Start() {
	s.logger.Info("starting task scheduler", slog.Int("tasks", s.cron.Len()))
	s.cron.StartAsync()
}

// Stop cancels in-flight tasks and halts the timers.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping task scheduler")
	s.cancel()
	s.cron.Stop()
}

// RunNow executes task synchronously with the scheduler's timeout and
// reports failures to the error handler. Panics are converted to errors.
func (s *Scheduler) RunNow(task Task) (err error) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.logger.With(slog.String("task_type", task.Type()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Type(), r)
		}
		if err != nil {
			log.Error("task failed",
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)))
			s.mu.RLock()
			handler := s.errorHandler
			s.mu.RUnlock()
			if handler != nil {
				handler(task, err)
			}
			return
		}
		log.Debug("task completed", slog.Duration("duration", time.Since(start)))
	}()

	return task.Execute(ctx)
}
