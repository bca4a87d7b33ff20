package ports

import (
	"context"
	"time"

	"MacroAgent/internal/domain"
)

// Source pulls news items and economic indicators from one upstream
// provider. Either fetch may return an empty slice; a source that does
// not carry indicator data returns nil from FetchIndicators.
type Source interface {
	Name() string
	FetchItems(ctx context.Context) ([]domain.NewsItem, error)
	FetchIndicators(ctx context.Context) ([]domain.EconomicIndicator, error)
	Close() error
}

// Notifier delivers a briefing through one outbound channel.
type Notifier interface {
	ChannelName() string
	Send(ctx context.Context, briefing domain.Briefing) error
	Close() error
}

// TextScorer maps text to a polarity in [-1, 1]. Implementations must
// be pure: the same text always yields the same score.
type TextScorer interface {
	Score(text string) float64
}

// BriefingStore persists briefings and the notification audit log.
type BriefingStore interface {
	SaveBriefing(ctx context.Context, briefing domain.Briefing) error
	GetBriefing(ctx context.Context, id string) (*domain.Briefing, error)
	RecentBriefings(ctx context.Context, limit int, briefingType domain.BriefingType) ([]domain.Briefing, error)

	// HasSentDuplicate reports whether a briefing with the given content
	// hash was successfully sent at or after the cutoff. Briefings that
	// were generated but never sent do not count.
	HasSentDuplicate(ctx context.Context, contentHash string, since time.Time) (bool, error)

	// LastSentAt returns the send time of the most recently sent
	// briefing across all fingerprints, or nil if nothing was ever sent.
	LastSentAt(ctx context.Context) (*time.Time, error)

	MarkBriefingSent(ctx context.Context, id string, at time.Time) error
	LogNotification(ctx context.Context, entry domain.NotificationLogEntry) error
}

// ReleaseStore persists the upcoming-release schedule.
type ReleaseStore interface {
	// SaveRelease upserts a release keyed by indicator id. Indicator
	// fields are refreshed; the notified flag is never reset.
	SaveRelease(ctx context.Context, release domain.UpcomingRelease) error

	// ReleasesBetween returns releases with from < release_time <= to,
	// ordered by release time ascending.
	ReleasesBetween(ctx context.Context, from, to time.Time, highImpactOnly bool) ([]domain.UpcomingRelease, error)

	// MarkReleaseNotified flips the notified flag. Unknown indicator ids
	// are a no-op.
	MarkReleaseNotified(ctx context.Context, indicatorID string) error
}

// Scheduler drives recurring jobs; the core stays unaware of the
// underlying cron implementation.
type Scheduler interface {
	Schedule(spec string, job func(time.Time)) error
	Start()
	Stop(ctx context.Context) error
}
