// Package schedule runs a task immediately and then on a fixed interval.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// Task is one scheduled invocation. Returned errors are logged and do not
// stop later invocations.
type Task func(ctx context.Context) error

// Runner invokes a Task every interval until its context is cancelled.
//
// At most one invocation is in flight: when a run takes longer than the
// interval the next one is rescheduled instead of overlapping.
type Runner struct {
	name     string
	interval time.Duration
	limit    uint
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(r *Runner)

// Limit stops the runner after n invocations. Zero means no limit.
func Limit(n uint) Option {
	return func(r *Runner) {
		r.limit = n
	}
}

// Name is used for the gocron job and in logs.
func Name(name string) Option {
	return func(r *Runner) {
		r.name = name
	}
}

// Every creates a Runner with the given interval.
func Every(interval time.Duration, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule: interval must be positive, got %v", interval)
	}

	r := &Runner{
		name:     "task",
		interval: interval,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Run invokes task once right away and then every interval. It blocks until
// ctx is cancelled or the run limit is reached, and waits for an in flight
// invocation to finish before returning.
func (r *Runner) Run(ctx context.Context, task Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := gocron.NewScheduler(gocron.WithLogger(r.logger))
	if err != nil {
		return fmt.Errorf("schedule: create scheduler: %w", err)
	}

	var (
		mu   sync.Mutex
		runs uint
	)

	wrapped := func() error {
		mu.Lock()
		runs++
		n := runs
		mu.Unlock()

		if r.limit > 0 && n >= r.limit {
			defer cancel()
		}

		r.logger.Debug("scheduled run starting", "name", r.name, "run", n)
		return task(ctx)
	}

	opts := []gocron.JobOption{
		gocron.WithName(r.name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
				r.logger.Error("scheduled run failed", "name", name, "error", err)
			}),
			gocron.AfterJobRunsWithPanic(func(_ uuid.UUID, name string, recoverData any) {
				r.logger.Error("scheduled run panicked", "name", name, "panic", recoverData)
			}),
		),
	}
	if r.limit > 0 {
		opts = append(opts, gocron.WithLimitedRuns(r.limit))
	}

	if _, err := s.NewJob(gocron.DurationJob(r.interval), gocron.NewTask(wrapped), opts...); err != nil {
		return fmt.Errorf("schedule: create job: %w", err)
	}

	s.Start()
	r.logger.Info("scheduler started", "name", r.name, "interval", r.interval)

	<-ctx.Done()

	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("schedule: shutdown: %w", err)
	}

	mu.Lock()
	r.logger.Info("scheduler stopped", "name", r.name, "runs", runs)
	mu.Unlock()

	if errors.Is(context.Cause(ctx), context.Canceled) {
		return nil
	}
	return ctx.Err()
}
