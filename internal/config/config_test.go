package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Database.Path != "data/briefings.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Scheduler.DailyBriefingTime != "08:00" {
		t.Fatalf("unexpected daily briefing time: %s", cfg.Scheduler.DailyBriefingTime)
	}
	if cfg.Scheduler.HighImpactCheckInterval != 15*time.Minute {
		t.Fatalf("unexpected check interval: %s", cfg.Scheduler.HighImpactCheckInterval)
	}
	if cfg.Analysis.SentimentThreshold != 0.1 {
		t.Fatalf("unexpected sentiment threshold: %v", cfg.Analysis.SentimentThreshold)
	}
	if cfg.Analysis.MinContentLength != 50 {
		t.Fatalf("unexpected min content length: %d", cfg.Analysis.MinContentLength)
	}
	if cfg.Gate.DuplicateLookback != 24*time.Hour {
		t.Fatalf("unexpected duplicate lookback: %s", cfg.Gate.DuplicateLookback)
	}
	if cfg.Gate.MinNotificationInterval != 30*time.Minute {
		t.Fatalf("unexpected min notification interval: %s", cfg.Gate.MinNotificationInterval)
	}
	if len(cfg.Analysis.NoiseKeywords) != 6 || len(cfg.Analysis.ManipulationKeywords) != 7 {
		t.Fatalf("unexpected keyword defaults: %v / %v",
			cfg.Analysis.NoiseKeywords, cfg.Analysis.ManipulationKeywords)
	}
}

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	got := splitKeywords(" rumor, speculation ,,might ")
	want := []string{"rumor", "speculation", "might"}
	if len(got) != len(want) {
		t.Fatalf("expected %d keywords, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keyword %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadAppliesYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  path: /tmp/test.db
scheduler:
  dailyBriefingTime: "06:30"
  timezone: America/New_York
analysis:
  sentimentThreshold: 0.25
gate:
  minNotificationInterval: 45m
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databasePathEnv, "/tmp/env.db")
	t.Setenv(noiseKeywordsEnv, "hearsay,gossip")

	cfg := Load()

	// Env beats file beats defaults.
	if cfg.Database.Path != "/tmp/env.db" {
		t.Fatalf("env override must win, got %s", cfg.Database.Path)
	}
	if cfg.Scheduler.DailyBriefingTime != "06:30" {
		t.Fatalf("file override must apply, got %s", cfg.Scheduler.DailyBriefingTime)
	}
	if cfg.Analysis.SentimentThreshold != 0.25 {
		t.Fatalf("file threshold must apply, got %v", cfg.Analysis.SentimentThreshold)
	}
	if cfg.Gate.MinNotificationInterval != 45*time.Minute {
		t.Fatalf("file interval must apply, got %s", cfg.Gate.MinNotificationInterval)
	}
	if len(cfg.Analysis.NoiseKeywords) != 2 || cfg.Analysis.NoiseKeywords[0] != "hearsay" {
		t.Fatalf("env keywords must apply, got %v", cfg.Analysis.NoiseKeywords)
	}
	if cfg.Gate.DuplicateLookback != 24*time.Hour {
		t.Fatal("untouched settings must keep their defaults")
	}
	if cfg.Scheduler.Location().String() != "America/New_York" {
		t.Fatalf("timezone must bind, got %s", cfg.Scheduler.Location())
	}
}

func TestMergeConfigKeepsCalendarFieldsIndependent(t *testing.T) {
	t.Parallel()

	base := defaultConfig()
	base.Sources.Calendar = CalendarConfig{
		APIURL: "https://calendar.test/v1",
		APIKey: "base-key",
	}

	var override Config
	override.Sources.Calendar.APIURL = "https://calendar.test/v2"

	merged := mergeConfig(base, override)
	if merged.Sources.Calendar.APIURL != "https://calendar.test/v2" {
		t.Fatalf("url override must apply, got %s", merged.Sources.Calendar.APIURL)
	}
	if merged.Sources.Calendar.APIKey != "base-key" {
		t.Fatalf("a partial calendar override must keep the existing key, got %q",
			merged.Sources.Calendar.APIKey)
	}
}

func TestLoadToleratesMissingConfigFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Database.Path != "data/briefings.db" {
		t.Fatal("a missing config file must fall back to defaults")
	}
}

func TestBindTimezoneRejectsUnknownZone(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Not/AZone"
	cfg.bindTimezone()

	if cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("unknown timezone must revert to UTC, got %s", cfg.Scheduler.Location())
	}
}
