package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"MacroAgent/internal/domain"
)

func testIndicator(id string, releaseIn time.Duration, impact domain.ImpactLevel, clock clockwork.Clock) domain.EconomicIndicator {
	return domain.EconomicIndicator{
		ID:          id,
		Name:        "Indicator " + id,
		Country:     "US",
		ReleaseTime: clock.Now().UTC().Add(releaseIn),
		ImpactLevel: impact,
	}
}

func TestTrackerDueWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := newMemoryReleaseStore()
	tracker := NewReleaseTracker(store, clock, time.Hour, nil)

	inWindow := testIndicator("cpi", 30*time.Minute, domain.ImpactHigh, clock)
	tooFar := testIndicator("gdp", 3*time.Hour, domain.ImpactHigh, clock)
	lowImpact := testIndicator("minor", 30*time.Minute, domain.ImpactLow, clock)

	for _, indicator := range []domain.EconomicIndicator{inWindow, tooFar, lowImpact} {
		if err := tracker.Upsert(ctx, indicator); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	due, err := tracker.Due(ctx)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 1 || due[0].Indicator.ID != "cpi" {
		t.Fatalf("expected only cpi to be due, got %+v", due)
	}
}

func TestTrackerDueOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	tracker := NewReleaseTracker(newMemoryReleaseStore(), clock, time.Hour, nil)

	later := testIndicator("later", 50*time.Minute, domain.ImpactHigh, clock)
	sooner := testIndicator("sooner", 10*time.Minute, domain.ImpactHigh, clock)

	for _, indicator := range []domain.EconomicIndicator{later, sooner} {
		if err := tracker.Upsert(ctx, indicator); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	due, err := tracker.Due(ctx)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 2 || due[0].Indicator.ID != "sooner" {
		t.Fatalf("due releases must be ordered by release time ascending, got %+v", due)
	}
}

func TestTrackerIgnoresPastReleases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := newMemoryReleaseStore()
	tracker := NewReleaseTracker(store, clock, time.Hour, nil)

	past := testIndicator("old", -time.Hour, domain.ImpactHigh, clock)
	if err := tracker.Upsert(ctx, past); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if len(store.releases) != 0 {
		t.Fatal("past releases must not enter the schedule")
	}
}

func TestTrackerUpsertPreservesNotified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := newMemoryReleaseStore()
	tracker := NewReleaseTracker(store, clock, time.Hour, nil)

	indicator := testIndicator("nfp", 30*time.Minute, domain.ImpactHigh, clock)
	if err := tracker.Upsert(ctx, indicator); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := tracker.MarkNotified(ctx, "nfp"); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}

	// Re-fetch with refreshed forecast before release time.
	indicator.ForecastValue = "205K"
	if err := tracker.Upsert(ctx, indicator); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	release := store.releases["nfp"]
	if !release.Notified {
		t.Fatal("re-ingesting an indicator must not reset the notified flag")
	}
	if release.Indicator.ForecastValue != "205K" {
		t.Fatal("re-ingesting an indicator must refresh its fields")
	}

	due, err := tracker.Due(ctx)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 0 {
		t.Fatal("notified releases are terminal and never due again")
	}
}

func TestTrackerMarkNotifiedIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := newMemoryReleaseStore()
	tracker := NewReleaseTracker(store, clock, time.Hour, nil)

	indicator := testIndicator("cpi", 30*time.Minute, domain.ImpactHigh, clock)
	if err := tracker.Upsert(ctx, indicator); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := tracker.MarkNotified(ctx, "cpi"); err != nil {
		t.Fatalf("first MarkNotified: %v", err)
	}
	if err := tracker.MarkNotified(ctx, "cpi"); err != nil {
		t.Fatalf("second MarkNotified must be a no-op, got: %v", err)
	}
	if !store.releases["cpi"].Notified {
		t.Fatal("release must stay notified")
	}
}

func TestTrackerMarkNotifiedUnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	tracker := NewReleaseTracker(newMemoryReleaseStore(), clock, time.Hour, nil)

	if err := tracker.MarkNotified(context.Background(), "never-seen"); err != nil {
		t.Fatalf("unknown indicator id must be tolerated, got: %v", err)
	}
}
