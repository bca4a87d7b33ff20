package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"MacroAgent/internal/ports"
)

// NotificationGate decides whether an outbound notification may fire.
// It enforces two independent rules: a per-fingerprint duplicate window
// and a global cooldown between any two sent briefings.
type NotificationGate struct {
	store       ports.BriefingStore
	clock       clockwork.Clock
	lookback    time.Duration
	minInterval time.Duration
	logger      *slog.Logger
}

// NewNotificationGate wires the gate with its persistence and clock.
func NewNotificationGate(
	store ports.BriefingStore,
	clock clockwork.Clock,
	lookback, minInterval time.Duration,
	logger *slog.Logger,
) *NotificationGate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &NotificationGate{
		store:       store,
		clock:       clock,
		lookback:    lookback,
		minInterval: minInterval,
		logger:      logger,
	}
}

// MaySend reports whether a briefing with the given content fingerprint
// is eligible for dispatch. The duplicate check runs first because it
// is the cheaper query; both rules must pass.
func (g *NotificationGate) MaySend(ctx context.Context, fingerprint string) (bool, error) {
	now := g.clock.Now().UTC()

	duplicate, err := g.store.HasSentDuplicate(ctx, fingerprint, now.Add(-g.lookback))
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	if duplicate {
		g.debug("send rejected, duplicate content", "fingerprint", fingerprint)
		return false, nil
	}

	lastSent, err := g.store.LastSentAt(ctx)
	if err != nil {
		return false, fmt.Errorf("load last notification time: %w", err)
	}
	if lastSent != nil && now.Sub(*lastSent) < g.minInterval {
		g.debug("send rejected, inside cooldown", "last_sent", lastSent)
		return false, nil
	}

	return true, nil
}

// RecordSent marks a briefing as sent at the current time. Called once
// per briefing after the first channel reports success.
func (g *NotificationGate) RecordSent(ctx context.Context, briefingID string) error {
	if err := g.store.MarkBriefingSent(ctx, briefingID, g.clock.Now().UTC()); err != nil {
		return fmt.Errorf("mark briefing sent: %w", err)
	}
	return nil
}

func (g *NotificationGate) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
