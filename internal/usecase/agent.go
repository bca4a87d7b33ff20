package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"MacroAgent/internal/analyzer"
	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

const (
	maxBriefingItems      = 10
	maxBriefingIndicators = 5
)

// AgentDeps wires all collaborators into the briefing workflow.
type AgentDeps struct {
	Sources   []ports.Source
	Notifiers []ports.Notifier
	Briefings ports.BriefingStore
	Tracker   *ReleaseTracker
	Gate      *NotificationGate
	Analyzer  *analyzer.Analyzer
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

// Agent coordinates one analysis cycle: fetch, classify, aggregate,
// compose a briefing, and hand the send decision to the gate. It makes
// no policy decisions of its own.
type Agent struct {
	sources   []ports.Source
	notifiers []ports.Notifier
	briefings ports.BriefingStore
	tracker   *ReleaseTracker
	gate      *NotificationGate
	analyzer  *analyzer.Analyzer
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewAgent constructs the orchestration component.
func NewAgent(deps AgentDeps) *Agent {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Agent{
		sources:   deps.Sources,
		notifiers: deps.Notifiers,
		briefings: deps.Briefings,
		tracker:   deps.Tracker,
		gate:      deps.Gate,
		analyzer:  deps.Analyzer,
		clock:     clock,
		logger:    deps.Logger,
	}
}

// FetchAllItems fans out over all sources concurrently and folds the
// results into one batch ordered by source registration. A failing
// source is logged and skipped; it never aborts the cycle. Every item
// passes through the classifier exactly once, here.
func (a *Agent) FetchAllItems(ctx context.Context) []domain.NewsItem {
	batches := make([][]domain.NewsItem, len(a.sources))

	var wg sync.WaitGroup
	for i, source := range a.sources {
		wg.Add(1)
		go func(i int, source ports.Source) {
			defer wg.Done()
			items, err := source.FetchItems(ctx)
			if err != nil {
				a.warn("source fetch failed", "source", source.Name(), "error", err)
				return
			}
			batches[i] = items
		}(i, source)
	}
	wg.Wait()

	var all []domain.NewsItem
	for _, batch := range batches {
		for _, item := range batch {
			all = append(all, a.analyzer.Process(item))
		}
	}
	return all
}

// FetchAllIndicators collects economic indicators from all sources,
// skipping failures per source.
func (a *Agent) FetchAllIndicators(ctx context.Context) []domain.EconomicIndicator {
	batches := make([][]domain.EconomicIndicator, len(a.sources))

	var wg sync.WaitGroup
	for i, source := range a.sources {
		wg.Add(1)
		go func(i int, source ports.Source) {
			defer wg.Done()
			indicators, err := source.FetchIndicators(ctx)
			if err != nil {
				a.warn("indicator fetch failed", "source", source.Name(), "error", err)
				return
			}
			batches[i] = indicators
		}(i, source)
	}
	wg.Wait()

	var all []domain.EconomicIndicator
	for _, batch := range batches {
		all = append(all, batch...)
	}
	return all
}

// UpdateReleaseSchedule refreshes the tracked schedule from the
// sources. Upserts are idempotent, so repeated polling is safe.
func (a *Agent) UpdateReleaseSchedule(ctx context.Context) error {
	for _, indicator := range a.FetchAllIndicators(ctx) {
		if err := a.tracker.Upsert(ctx, indicator); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
	}
	return nil
}

// GenerateBriefing runs one full analysis cycle and persists the
// resulting briefing with sent = false. For high-impact briefings the
// triggering indicator leads the indicator list.
func (a *Agent) GenerateBriefing(ctx context.Context, briefingType domain.BriefingType, trigger *domain.EconomicIndicator) (domain.Briefing, error) {
	items := a.FetchAllItems(ctx)
	score, overall := a.analyzer.Aggregate(items)

	upcoming, err := a.tracker.Upcoming(ctx, 0, true)
	if err != nil {
		return domain.Briefing{}, err
	}

	indicators := make([]domain.EconomicIndicator, 0, len(upcoming)+1)
	if trigger != nil {
		indicators = append(indicators, *trigger)
	}
	for _, release := range upcoming {
		if trigger != nil && release.Indicator.ID == trigger.ID {
			continue
		}
		indicators = append(indicators, release.Indicator)
	}

	now := a.clock.Now().UTC()

	var title string
	if briefingType == domain.BriefingDaily {
		title = "Daily Macro Briefing - " + now.Format("2006-01-02")
	} else {
		name := "Economic"
		if trigger != nil {
			name = trigger.Name
		}
		title = "High-Impact Alert: " + name
	}

	keyPoints := a.analyzer.KeyPoints(items)
	summary := buildSummary(overall, analyzer.Stats(items))

	briefing := domain.Briefing{
		ID:               uuid.NewString(),
		CreatedAt:        now,
		Type:             briefingType,
		Title:            title,
		Summary:          summary,
		OverallSentiment: overall,
		KeyPoints:        keyPoints,
		Items:            capItems(items, maxBriefingItems),
		Indicators:       capIndicators(indicators, maxBriefingIndicators),
		ContentHash:      domain.ContentFingerprint(overall, keyPoints),
	}

	if err := a.briefings.SaveBriefing(ctx, briefing); err != nil {
		return domain.Briefing{}, fmt.Errorf("persist briefing: %w", err)
	}

	a.info("briefing generated",
		"briefing_id", briefing.ID,
		"type", briefingType,
		"sentiment", overall,
		"score", score,
		"items", len(items),
	)

	return briefing, nil
}

// SendBriefing asks the gate for permission and fans the briefing out
// to all channels. Every attempt lands in the notification log; a
// single failing channel neither blocks the others nor fails the
// cycle. Gate bookkeeping runs once, strictly after the first success.
func (a *Agent) SendBriefing(ctx context.Context, briefing domain.Briefing) (bool, error) {
	allowed, err := a.gate.MaySend(ctx, briefing.ContentHash)
	if err != nil {
		return false, err
	}
	if !allowed {
		a.info("briefing suppressed by gate", "briefing_id", briefing.ID)
		return false, nil
	}

	sent := false
	for _, notifier := range a.notifiers {
		entry := domain.NotificationLogEntry{
			BriefingID: briefing.ID,
			SentAt:     a.clock.Now().UTC(),
			Channel:    notifier.ChannelName(),
		}

		if sendErr := notifier.Send(ctx, briefing); sendErr != nil {
			entry.ErrorMessage = sendErr.Error()
			a.warn("channel dispatch failed", "channel", notifier.ChannelName(), "error", sendErr)
		} else {
			entry.Success = true
			sent = true
		}

		if logErr := a.briefings.LogNotification(ctx, entry); logErr != nil {
			return sent, fmt.Errorf("log notification: %w", logErr)
		}
	}

	if sent {
		if err := a.gate.RecordSent(ctx, briefing.ID); err != nil {
			return true, err
		}
	}

	return sent, nil
}

// RunDailyBriefing generates and dispatches the scheduled daily
// briefing.
func (a *Agent) RunDailyBriefing(ctx context.Context) (domain.Briefing, error) {
	briefing, err := a.GenerateBriefing(ctx, domain.BriefingDaily, nil)
	if err != nil {
		return domain.Briefing{}, err
	}
	if _, err := a.SendBriefing(ctx, briefing); err != nil {
		return briefing, err
	}
	return briefing, nil
}

// CheckHighImpactReleases refreshes the schedule and fires a one-time
// alert briefing for every release that has become due. The release is
// marked notified once its briefing has been built and handed to the
// gate, regardless of the gate's verdict.
func (a *Agent) CheckHighImpactReleases(ctx context.Context) ([]domain.Briefing, error) {
	if err := a.UpdateReleaseSchedule(ctx); err != nil {
		return nil, err
	}

	due, err := a.tracker.Due(ctx)
	if err != nil {
		return nil, err
	}

	var briefings []domain.Briefing
	for _, release := range due {
		indicator := release.Indicator

		briefing, err := a.GenerateBriefing(ctx, domain.BriefingHighImpact, &indicator)
		if err != nil {
			return briefings, err
		}
		if _, err := a.SendBriefing(ctx, briefing); err != nil {
			return briefings, err
		}
		if err := a.tracker.MarkNotified(ctx, indicator.ID); err != nil {
			return briefings, err
		}

		briefings = append(briefings, briefing)
	}

	return briefings, nil
}

// Close releases all sources and notifiers.
func (a *Agent) Close() error {
	var firstErr error
	for _, source := range a.sources {
		if err := source.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close source %s: %w", source.Name(), err)
		}
	}
	for _, notifier := range a.notifiers {
		if err := notifier.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close notifier %s: %w", notifier.ChannelName(), err)
		}
	}
	return firstErr
}

func buildSummary(overall domain.Sentiment, stats analyzer.BatchStats) string {
	descriptions := map[domain.Sentiment]string{
		domain.SentimentBullish: "bullish with positive market sentiment",
		domain.SentimentBearish: "bearish with cautious market sentiment",
		domain.SentimentNeutral: "neutral with mixed market signals",
	}

	summary := fmt.Sprintf("Market sentiment is %s. Analyzed %d relevant news items.",
		descriptions[overall], stats.Retained)

	if stats.Noise > 0 {
		summary += fmt.Sprintf(" Filtered %d low-impact noise items.", stats.Noise)
	}
	if stats.Manipulation > 0 {
		summary += fmt.Sprintf(" Flagged %d items for potential manipulation.", stats.Manipulation)
	}

	return summary
}

func capItems(items []domain.NewsItem, limit int) []domain.NewsItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func capIndicators(indicators []domain.EconomicIndicator, limit int) []domain.EconomicIndicator {
	if len(indicators) > limit {
		return indicators[:limit]
	}
	return indicators
}

func (a *Agent) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *Agent) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
