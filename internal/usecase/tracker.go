package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// scheduleHorizon bounds how far ahead releases are kept in the
// briefing context (7 days, as in the upstream calendar window).
const scheduleHorizon = 168 * time.Hour

// ReleaseTracker maintains the upcoming-release schedule and decides
// when a high-impact release becomes due for a one-time alert.
type ReleaseTracker struct {
	store     ports.ReleaseStore
	clock     clockwork.Clock
	lookahead time.Duration
	logger    *slog.Logger
}

// NewReleaseTracker wires the tracker with its persistence and clock.
func NewReleaseTracker(store ports.ReleaseStore, clock clockwork.Clock, lookahead time.Duration, logger *slog.Logger) *ReleaseTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReleaseTracker{
		store:     store,
		clock:     clock,
		lookahead: lookahead,
		logger:    logger,
	}
}

// Upsert records a future release. Re-ingesting the same indicator id
// refreshes its fields (forecast, actual) without resetting the
// notified flag; past releases are ignored.
func (t *ReleaseTracker) Upsert(ctx context.Context, indicator domain.EconomicIndicator) error {
	if !indicator.ReleaseTime.After(t.clock.Now().UTC()) {
		return nil
	}
	if err := t.store.SaveRelease(ctx, domain.UpcomingRelease{Indicator: indicator}); err != nil {
		return fmt.Errorf("save release %s: %w", indicator.ID, err)
	}
	return nil
}

// Due returns the high-impact releases inside the alert lookahead
// window that have not been notified yet, ordered by release time.
func (t *ReleaseTracker) Due(ctx context.Context) ([]domain.UpcomingRelease, error) {
	now := t.clock.Now().UTC()
	releases, err := t.store.ReleasesBetween(ctx, now, now.Add(t.lookahead), true)
	if err != nil {
		return nil, fmt.Errorf("load due releases: %w", err)
	}

	due := releases[:0]
	for _, release := range releases {
		if !release.Notified {
			due = append(due, release)
		}
	}
	return due, nil
}

// Upcoming returns the scheduled releases within the horizon used for
// briefing context, regardless of notification state.
func (t *ReleaseTracker) Upcoming(ctx context.Context, horizon time.Duration, highImpactOnly bool) ([]domain.UpcomingRelease, error) {
	if horizon <= 0 {
		horizon = scheduleHorizon
	}
	now := t.clock.Now().UTC()
	releases, err := t.store.ReleasesBetween(ctx, now, now.Add(horizon), highImpactOnly)
	if err != nil {
		return nil, fmt.Errorf("load upcoming releases: %w", err)
	}
	return releases, nil
}

// MarkNotified transitions a release to its terminal state. The
// operation is idempotent and tolerates unknown ids, which can happen
// when two polling cycles race.
func (t *ReleaseTracker) MarkNotified(ctx context.Context, indicatorID string) error {
	if err := t.store.MarkReleaseNotified(ctx, indicatorID); err != nil {
		return fmt.Errorf("mark release notified %s: %w", indicatorID, err)
	}
	if t.logger != nil {
		t.logger.Debug("release marked notified", "indicator_id", indicatorID)
	}
	return nil
}
