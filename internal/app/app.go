// Package app assembles the configured application graph.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"MacroAgent/internal/analyzer"
	"MacroAgent/internal/config"
	"MacroAgent/internal/domain"
	"MacroAgent/internal/infrastructure/feeds"
	"MacroAgent/internal/infrastructure/notify"
	"MacroAgent/internal/infrastructure/scheduler"
	"MacroAgent/internal/infrastructure/storage"
	"MacroAgent/internal/logging"
	"MacroAgent/internal/ports"
	"MacroAgent/internal/usecase"
)

// Application wires config to the agent, its stores, and lifecycle
// orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLiteStore
	agent     *usecase.Agent
	tracker   *usecase.ReleaseTracker
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance from config.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clock := clockwork.NewRealClock()

	tracker := usecase.NewReleaseTracker(store, clock,
		cfg.Gate.HighImpactLookahead,
		baseLogger.With("component", "tracker"))
	gate := usecase.NewNotificationGate(store, clock,
		cfg.Gate.DuplicateLookback,
		cfg.Gate.MinNotificationInterval,
		baseLogger.With("component", "gate"))

	agent := usecase.NewAgent(usecase.AgentDeps{
		Sources:   buildSources(cfg, baseLogger),
		Notifiers: buildNotifiers(cfg, baseLogger),
		Briefings: store,
		Tracker:   tracker,
		Gate:      gate,
		Analyzer:  analyzer.New(cfg.Analysis, nil),
		Clock:     clock,
		Logger:    baseLogger.With("component", "agent"),
	})

	driver := scheduler.NewCronDriver(cfg.Scheduler.Location(),
		baseLogger.With("component", "cron"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		agent:     agent,
		tracker:   tracker,
		scheduler: usecase.NewScheduler(driver, agent, baseLogger.With("component", "scheduler")),
	}, nil
}

func buildSources(cfg config.Config, logger *slog.Logger) []ports.Source {
	var sources []ports.Source

	if len(cfg.Sources.RSS.FeedURLs) > 0 {
		sources = append(sources, feeds.NewRSSSource(
			cfg.Sources.RSS.FeedURLs, nil, logger.With("component", "source.rss")))
	}
	if cfg.Sources.Calendar.APIURL != "" {
		sources = append(sources, feeds.NewCalendarSource(
			cfg.Sources.Calendar.APIURL, cfg.Sources.Calendar.APIKey,
			nil, logger.With("component", "source.calendar")))
	}
	if cfg.Sources.AlphaVantage.APIKey != "" {
		sources = append(sources, feeds.NewAlphaVantageSource(
			cfg.Sources.AlphaVantage.APIKey, nil, logger.With("component", "source.alphavantage")))
	}
	if len(cfg.Sources.Scrape) > 0 {
		sources = append(sources, feeds.NewScraperSource(
			cfg.Sources.Scrape, nil, logger.With("component", "source.scraper")))
	}

	return sources
}

func buildNotifiers(cfg config.Config, logger *slog.Logger) []ports.Notifier {
	var notifiers []ports.Notifier

	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(
			cfg.Notifications.Webhook.URL, nil, logger.With("component", "notify.webhook")))
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.To != "" {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.Notifications.Email))
	}

	return notifiers
}

// Run starts the recurring cycles and blocks until the context is
// cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx,
		a.cfg.Scheduler.DailyBriefingTime,
		a.cfg.Scheduler.HighImpactCheckInterval); err != nil {
		return err
	}

	a.logger.Info("agent running",
		"daily_briefing", a.cfg.Scheduler.DailyBriefingTime,
		"check_interval", a.cfg.Scheduler.HighImpactCheckInterval.String(),
	)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// GenerateBriefing runs one on-demand analysis cycle, optionally
// dispatching the result.
func (a *Application) GenerateBriefing(ctx context.Context, briefingType domain.BriefingType, send bool) (domain.Briefing, bool, error) {
	briefing, err := a.agent.GenerateBriefing(ctx, briefingType, nil)
	if err != nil {
		return domain.Briefing{}, false, err
	}

	if !send {
		return briefing, false, nil
	}

	sent, err := a.agent.SendBriefing(ctx, briefing)
	return briefing, sent, err
}

// UpcomingReleases lists the tracked schedule after refreshing it from
// the sources.
func (a *Application) UpcomingReleases(ctx context.Context, horizon time.Duration, highImpactOnly bool) ([]domain.UpcomingRelease, error) {
	if err := a.agent.UpdateReleaseSchedule(ctx); err != nil {
		return nil, err
	}
	return a.tracker.Upcoming(ctx, horizon, highImpactOnly)
}

// RecentBriefings exposes stored briefings for the CLI.
func (a *Application) RecentBriefings(ctx context.Context, limit int, briefingType domain.BriefingType) ([]domain.Briefing, error) {
	return a.store.RecentBriefings(ctx, limit, briefingType)
}

// Close tears down sources, notifiers, and the store.
func (a *Application) Close() error {
	err := a.agent.Close()
	if storeErr := a.store.Close(); storeErr != nil && err == nil {
		err = storeErr
	}
	return err
}
