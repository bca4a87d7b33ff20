// Package scheduler adapts robfig/cron to the scheduler port.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"MacroAgent/internal/ports"
)

// CronDriver runs registered jobs on standard 5-field cron specs plus
// the @every shorthand, evaluated in the configured timezone.
type CronDriver struct {
	cron   *cron.Cron
	logger *slog.Logger
}

var _ ports.Scheduler = (*CronDriver)(nil)

// NewCronDriver builds a driver bound to the given location.
func NewCronDriver(location *time.Location, logger *slog.Logger) *CronDriver {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronDriver{
		cron:   cron.New(cron.WithLocation(location)),
		logger: logger,
	}
}

// Schedule registers a job; the job receives the wall-clock time of
// its activation.
func (d *CronDriver) Schedule(spec string, job func(time.Time)) error {
	if _, err := d.cron.AddFunc(spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("register cron job %q: %w", spec, err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (d *CronDriver) Start() {
	d.cron.Start()
	d.logger.Info("cron scheduler started", "jobs", len(d.cron.Entries()))
}

// Stop halts scheduling and waits for running jobs to finish, bounded
// by the context.
func (d *CronDriver) Stop(ctx context.Context) error {
	done := d.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
