package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"NordicDataFlow/internal/logging"
	"NordicDataFlow/internal/ports"
)

// CronScheduler triggers jobs on a standard five-field cron expression.
type CronScheduler struct {
	expr     string
	location *time.Location
	logger   *slog.Logger

	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
// A nil location means UTC.
func NewCronScheduler(expr string, location *time.Location, logger *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CronScheduler{expr: expr, location: location, logger: logger}
}

// Start registers job and begins firing it asynchronously. Overlapping
// triggers are dropped while a run is still in progress.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("scheduler: nil job")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduler != nil {
		return nil
	}

	s := gocron.NewScheduler(c.location)
	_, err := s.Cron(c.expr).SingletonMode().Do(func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(c.location))
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", c.expr, err)
	}

	s.StartAsync()
	c.scheduler = s

	_, next := s.NextRun()
	c.logger.Info("scheduler started", "cron", c.expr, "timezone", c.location.String(), "next_run", next)
	return nil
}

// Stop halts the scheduler; calling it twice is harmless.
func (c *CronScheduler) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduler == nil {
		return nil
	}
	c.scheduler.Stop()
	c.scheduler = nil
	c.logger.Info("scheduler stopped")
	return nil
}
