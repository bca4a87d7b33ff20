package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv         = "MACRO_AGENT_CONFIG"
	databasePathEnv       = "MACRO_AGENT_DATABASE_PATH"
	sentimentThresholdEnv = "MACRO_AGENT_SENTIMENT_THRESHOLD"
	noiseKeywordsEnv      = "MACRO_AGENT_NOISE_FILTER_KEYWORDS"
	manipKeywordsEnv      = "MACRO_AGENT_MANIPULATION_KEYWORDS"
	rssFeedsEnv           = "MACRO_AGENT_RSS_FEEDS"
	calendarAPIURLEnv     = "MACRO_AGENT_ECONOMIC_CALENDAR_API_URL"
	calendarAPIKeyEnv     = "MACRO_AGENT_ECONOMIC_CALENDAR_API_KEY"
	alphaVantageKeyEnv    = "MACRO_AGENT_ALPHA_VANTAGE_API_KEY"
	webhookURLEnv         = "MACRO_AGENT_WEBHOOK_URL"
	emailUsernameEnv      = "MACRO_AGENT_EMAIL_USERNAME"
	emailPasswordEnv      = "MACRO_AGENT_EMAIL_PASSWORD"
	logLevelEnv           = "MACRO_AGENT_LOG_LEVEL"
)

// Config holds all settings required across the application. It is
// built once at process start and passed by value; nothing mutates it
// afterwards.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Gate          GateConfig         `yaml:"gate"`
	Sources       SourcesConfig      `yaml:"sources"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig locates the single-file SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines when the recurring cycles run.
type SchedulerConfig struct {
	DailyBriefingTime       string         `yaml:"dailyBriefingTime"` // "HH:MM"
	HighImpactCheckInterval time.Duration  `yaml:"highImpactCheckInterval"`
	Timezone                string         `yaml:"timezone"`
	location                *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// UnmarshalYAML accepts Go duration strings ("15m") for the interval.
func (s *SchedulerConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		DailyBriefingTime       string `yaml:"dailyBriefingTime"`
		HighImpactCheckInterval string `yaml:"highImpactCheckInterval"`
		Timezone                string `yaml:"timezone"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	s.DailyBriefingTime = raw.DailyBriefingTime
	s.Timezone = raw.Timezone
	return parseDuration(raw.HighImpactCheckInterval, &s.HighImpactCheckInterval)
}

// AnalysisConfig tunes the classifier and aggregator.
type AnalysisConfig struct {
	SentimentThreshold   float64  `yaml:"sentimentThreshold"`
	MinContentLength     int      `yaml:"minContentLength"`
	NoiseKeywords        []string `yaml:"noiseKeywords"`
	ManipulationKeywords []string `yaml:"manipulationKeywords"`
}

// GateConfig tunes duplicate suppression and the global cooldown.
// The two windows are deliberately independent values.
type GateConfig struct {
	DuplicateLookback       time.Duration `yaml:"duplicateLookback"`
	MinNotificationInterval time.Duration `yaml:"minNotificationInterval"`
	HighImpactLookahead     time.Duration `yaml:"highImpactLookahead"`
}

// UnmarshalYAML accepts Go duration strings ("24h", "30m") for the
// gate windows.
func (g *GateConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		DuplicateLookback       string `yaml:"duplicateLookback"`
		MinNotificationInterval string `yaml:"minNotificationInterval"`
		HighImpactLookahead     string `yaml:"highImpactLookahead"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	for _, bind := range []struct {
		raw string
		dst *time.Duration
	}{
		{raw.DuplicateLookback, &g.DuplicateLookback},
		{raw.MinNotificationInterval, &g.MinNotificationInterval},
		{raw.HighImpactLookahead, &g.HighImpactLookahead},
	} {
		if err := parseDuration(bind.raw, bind.dst); err != nil {
			return err
		}
	}
	return nil
}

// parseDuration leaves dst untouched for an empty string.
func parseDuration(raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*dst = parsed
	return nil
}

// SourcesConfig groups the upstream providers.
type SourcesConfig struct {
	RSS          RSSConfig          `yaml:"rss"`
	Calendar     CalendarConfig     `yaml:"calendar"`
	AlphaVantage AlphaVantageConfig `yaml:"alphaVantage"`
	Scrape       []ScrapeSiteConfig `yaml:"scrape"`
}

// RSSConfig lists the feeds to poll.
type RSSConfig struct {
	FeedURLs []string `yaml:"feedUrls"`
}

// CalendarConfig wires the economic calendar API.
type CalendarConfig struct {
	APIURL string `yaml:"apiUrl"`
	APIKey string `yaml:"apiKey"`
}

// AlphaVantageConfig wires the Alpha Vantage indicator series.
type AlphaVantageConfig struct {
	APIKey string `yaml:"apiKey"`
}

// ScrapeSiteConfig describes one CSS-selector driven site.
type ScrapeSiteConfig struct {
	Name            string `yaml:"name"`
	URL             string `yaml:"url"`
	ArticleSelector string `yaml:"articleSelector"`
	TitleSelector   string `yaml:"titleSelector"`
	ContentSelector string `yaml:"contentSelector"`
	LinkSelector    string `yaml:"linkSelector"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
	Email   EmailConfig   `yaml:"email"`
}

// WebhookConfig wires a Discord/Slack/generic webhook.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// EmailConfig wires SMTP delivery.
type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env, YAML configuration (if present), and applies
// environment overrides on top of the defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(sentimentThresholdEnv); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.Analysis.SentimentThreshold = parsed
		}
	}

	if v := os.Getenv(noiseKeywordsEnv); v != "" {
		c.Analysis.NoiseKeywords = splitKeywords(v)
	}
	if v := os.Getenv(manipKeywordsEnv); v != "" {
		c.Analysis.ManipulationKeywords = splitKeywords(v)
	}

	if v := os.Getenv(rssFeedsEnv); v != "" {
		c.Sources.RSS.FeedURLs = splitKeywords(v)
	}
	if v := os.Getenv(calendarAPIURLEnv); v != "" {
		c.Sources.Calendar.APIURL = v
	}
	if v := os.Getenv(calendarAPIKeyEnv); v != "" {
		c.Sources.Calendar.APIKey = v
	}
	if v := os.Getenv(alphaVantageKeyEnv); v != "" {
		c.Sources.AlphaVantage.APIKey = v
	}

	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Notifications.Webhook.URL = v
		c.Notifications.Webhook.Enabled = true
	}
	if v := os.Getenv(emailUsernameEnv); v != "" {
		c.Notifications.Email.Username = v
	}
	if v := os.Getenv(emailPasswordEnv); v != "" {
		c.Notifications.Email.Password = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// splitKeywords splits a comma-separated list, trimming blanks.
func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.DailyBriefingTime != "" {
		base.Scheduler.DailyBriefingTime = override.Scheduler.DailyBriefingTime
	}
	if override.Scheduler.HighImpactCheckInterval != 0 {
		base.Scheduler.HighImpactCheckInterval = override.Scheduler.HighImpactCheckInterval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Analysis.SentimentThreshold != 0 {
		base.Analysis.SentimentThreshold = override.Analysis.SentimentThreshold
	}
	if override.Analysis.MinContentLength != 0 {
		base.Analysis.MinContentLength = override.Analysis.MinContentLength
	}
	if len(override.Analysis.NoiseKeywords) > 0 {
		base.Analysis.NoiseKeywords = override.Analysis.NoiseKeywords
	}
	if len(override.Analysis.ManipulationKeywords) > 0 {
		base.Analysis.ManipulationKeywords = override.Analysis.ManipulationKeywords
	}

	if override.Gate.DuplicateLookback != 0 {
		base.Gate.DuplicateLookback = override.Gate.DuplicateLookback
	}
	if override.Gate.MinNotificationInterval != 0 {
		base.Gate.MinNotificationInterval = override.Gate.MinNotificationInterval
	}
	if override.Gate.HighImpactLookahead != 0 {
		base.Gate.HighImpactLookahead = override.Gate.HighImpactLookahead
	}

	if len(override.Sources.RSS.FeedURLs) > 0 {
		base.Sources.RSS = override.Sources.RSS
	}
	if override.Sources.Calendar.APIURL != "" {
		base.Sources.Calendar.APIURL = override.Sources.Calendar.APIURL
	}
	if override.Sources.Calendar.APIKey != "" {
		base.Sources.Calendar.APIKey = override.Sources.Calendar.APIKey
	}
	if override.Sources.AlphaVantage.APIKey != "" {
		base.Sources.AlphaVantage = override.Sources.AlphaVantage
	}
	if len(override.Sources.Scrape) > 0 {
		base.Sources.Scrape = override.Sources.Scrape
	}

	if override.Notifications.Webhook.URL != "" {
		base.Notifications.Webhook = override.Notifications.Webhook
	}
	if override.Notifications.Email.Host != "" {
		base.Notifications.Email = override.Notifications.Email
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Path: "data/briefings.db"},
		Scheduler: SchedulerConfig{
			DailyBriefingTime:       "08:00",
			HighImpactCheckInterval: 15 * time.Minute,
			Timezone:                defaultTimezone,
			location:                tz,
		},
		Analysis: AnalysisConfig{
			SentimentThreshold: 0.1,
			MinContentLength:   50,
			NoiseKeywords: []string{
				"rumor", "speculation", "might", "could", "possibly", "unconfirmed",
			},
			ManipulationKeywords: []string{
				"guaranteed", "certain", "definitely", "crash", "moon", "rocket", "doom",
			},
		},
		Gate: GateConfig{
			DuplicateLookback:       24 * time.Hour,
			MinNotificationInterval: 30 * time.Minute,
			HighImpactLookahead:     time.Hour,
		},
		Sources: SourcesConfig{},
		Notifications: NotificationConfig{
			Email: EmailConfig{Host: "smtp.gmail.com", Port: 587},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
