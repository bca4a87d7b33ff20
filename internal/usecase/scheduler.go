package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"MacroAgent/internal/ports"
)

// Scheduler registers the recurring agent cycles with the cron driver:
// the daily briefing at a configured wall-clock time and the
// high-impact release check on a fixed interval.
type Scheduler struct {
	driver ports.Scheduler
	agent  *Agent
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring jobs.
func NewScheduler(driver ports.Scheduler, agent *Agent, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, agent: agent, logger: logger}
}

// Start registers both cycles and starts the driver. dailyTime is
// "HH:MM"; checkInterval drives the high-impact polling cadence.
func (s *Scheduler) Start(ctx context.Context, dailyTime string, checkInterval time.Duration) error {
	if s.driver == nil || s.agent == nil {
		return nil
	}

	dailySpec, err := dailyCronSpec(dailyTime)
	if err != nil {
		return err
	}

	if err := s.driver.Schedule(dailySpec, func(time.Time) {
		if _, err := s.agent.RunDailyBriefing(ctx); err != nil {
			s.error("daily briefing failed", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule daily briefing: %w", err)
	}

	intervalSpec := fmt.Sprintf("@every %s", checkInterval)
	if err := s.driver.Schedule(intervalSpec, func(time.Time) {
		if _, err := s.agent.CheckHighImpactReleases(ctx); err != nil {
			s.error("high-impact check failed", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule high-impact check: %w", err)
	}

	s.driver.Start()
	return nil
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) error(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
}

// dailyCronSpec converts "HH:MM" to a standard cron expression.
func dailyCronSpec(dailyTime string) (string, error) {
	parts := strings.SplitN(dailyTime, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid daily briefing time %q, want HH:MM", dailyTime)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in daily briefing time %q", dailyTime)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in daily briefing time %q", dailyTime)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
