package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// memoryBriefingStore is an in-memory ports.BriefingStore for tests.
type memoryBriefingStore struct {
	briefings map[string]domain.Briefing
	log       []domain.NotificationLogEntry
}

var _ ports.BriefingStore = (*memoryBriefingStore)(nil)

func newMemoryBriefingStore() *memoryBriefingStore {
	return &memoryBriefingStore{briefings: map[string]domain.Briefing{}}
}

func (s *memoryBriefingStore) SaveBriefing(_ context.Context, briefing domain.Briefing) error {
	s.briefings[briefing.ID] = briefing
	return nil
}

func (s *memoryBriefingStore) GetBriefing(_ context.Context, id string) (*domain.Briefing, error) {
	if briefing, ok := s.briefings[id]; ok {
		return &briefing, nil
	}
	return nil, nil
}

func (s *memoryBriefingStore) RecentBriefings(_ context.Context, limit int, briefingType domain.BriefingType) ([]domain.Briefing, error) {
	var result []domain.Briefing
	for _, briefing := range s.briefings {
		if briefingType != "" && briefing.Type != briefingType {
			continue
		}
		result = append(result, briefing)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memoryBriefingStore) HasSentDuplicate(_ context.Context, contentHash string, since time.Time) (bool, error) {
	for _, briefing := range s.briefings {
		if briefing.Sent && briefing.ContentHash == contentHash && briefing.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryBriefingStore) LastSentAt(_ context.Context) (*time.Time, error) {
	var last *time.Time
	for _, briefing := range s.briefings {
		if briefing.Sent && briefing.SentAt != nil {
			if last == nil || briefing.SentAt.After(*last) {
				at := *briefing.SentAt
				last = &at
			}
		}
	}
	return last, nil
}

func (s *memoryBriefingStore) MarkBriefingSent(_ context.Context, id string, at time.Time) error {
	briefing, ok := s.briefings[id]
	if !ok {
		return errors.New("briefing not found")
	}
	briefing.Sent = true
	briefing.SentAt = &at
	s.briefings[id] = briefing
	return nil
}

func (s *memoryBriefingStore) LogNotification(_ context.Context, entry domain.NotificationLogEntry) error {
	s.log = append(s.log, entry)
	return nil
}

// memoryReleaseStore is an in-memory ports.ReleaseStore for tests.
type memoryReleaseStore struct {
	releases map[string]domain.UpcomingRelease
}

var _ ports.ReleaseStore = (*memoryReleaseStore)(nil)

func newMemoryReleaseStore() *memoryReleaseStore {
	return &memoryReleaseStore{releases: map[string]domain.UpcomingRelease{}}
}

func (s *memoryReleaseStore) SaveRelease(_ context.Context, release domain.UpcomingRelease) error {
	if existing, ok := s.releases[release.Indicator.ID]; ok {
		release.Notified = existing.Notified
	}
	s.releases[release.Indicator.ID] = release
	return nil
}

func (s *memoryReleaseStore) ReleasesBetween(_ context.Context, from, to time.Time, highImpactOnly bool) ([]domain.UpcomingRelease, error) {
	var result []domain.UpcomingRelease
	for _, release := range s.releases {
		at := release.Indicator.ReleaseTime
		if !at.After(from) || at.After(to) {
			continue
		}
		if highImpactOnly && release.Indicator.ImpactLevel != domain.ImpactHigh {
			continue
		}
		result = append(result, release)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Indicator.ReleaseTime.Before(result[j].Indicator.ReleaseTime)
	})
	return result, nil
}

func (s *memoryReleaseStore) MarkReleaseNotified(_ context.Context, indicatorID string) error {
	release, ok := s.releases[indicatorID]
	if !ok {
		return nil
	}
	release.Notified = true
	s.releases[indicatorID] = release
	return nil
}

// stubSource serves a fixed batch of items and indicators.
type stubSource struct {
	name       string
	items      []domain.NewsItem
	indicators []domain.EconomicIndicator
	err        error
	closed     bool
}

var _ ports.Source = (*stubSource)(nil)

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchItems(context.Context) ([]domain.NewsItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *stubSource) FetchIndicators(context.Context) ([]domain.EconomicIndicator, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.indicators, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

// stubNotifier records sends and optionally fails.
type stubNotifier struct {
	name  string
	err   error
	sends []domain.Briefing
}

var _ ports.Notifier = (*stubNotifier)(nil)

func (n *stubNotifier) ChannelName() string { return n.name }

func (n *stubNotifier) Send(_ context.Context, briefing domain.Briefing) error {
	if n.err != nil {
		return n.err
	}
	n.sends = append(n.sends, briefing)
	return nil
}

func (n *stubNotifier) Close() error { return nil }

// fixedScorer scores every text with the same polarity.
type fixedScorer float64

func (f fixedScorer) Score(string) float64 { return float64(f) }
