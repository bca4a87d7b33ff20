// Package storage persists briefings, the release schedule, and the
// notification audit log in a single-file SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// timeLayout is RFC3339 with fixed-width nanoseconds. RFC3339Nano
// drops trailing fractional zeros, which breaks the lexicographic
// ordering the SQL comparisons rely on for times within one second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS briefings (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    briefing_type TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL,
    overall_sentiment TEXT NOT NULL,
    key_points TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    sent INTEGER DEFAULT 0,
    sent_at TEXT,
    full_data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_briefings_created_at ON briefings(created_at);
CREATE INDEX IF NOT EXISTS idx_briefings_content_hash ON briefings(content_hash);
CREATE INDEX IF NOT EXISTS idx_briefings_type ON briefings(briefing_type);

CREATE TABLE IF NOT EXISTS upcoming_releases (
    id TEXT PRIMARY KEY,
    indicator_name TEXT NOT NULL,
    country TEXT NOT NULL,
    release_time TEXT NOT NULL,
    impact_level TEXT NOT NULL,
    notified INTEGER DEFAULT 0,
    full_data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_releases_time ON upcoming_releases(release_time);

CREATE TABLE IF NOT EXISTS notification_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    briefing_id TEXT NOT NULL,
    sent_at TEXT NOT NULL,
    channel TEXT NOT NULL,
    success INTEGER NOT NULL,
    error_message TEXT
);
`

// SQLiteStore implements the briefing and release stores on one SQLite
// file. Writes are single-row upserts keyed by stable ids, so a single
// orchestrator instance plus concurrent readers is safe.
type SQLiteStore struct {
	db *sqlx.DB
}

var (
	_ ports.BriefingStore = (*SQLiteStore)(nil)
	_ ports.ReleaseStore  = (*SQLiteStore)(nil)
)

// Open connects to the database file, creating directories and tables
// as needed.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBriefing upserts the briefing row together with its full JSON
// snapshot.
func (s *SQLiteStore) SaveBriefing(ctx context.Context, briefing domain.Briefing) error {
	keyPoints, err := json.Marshal(briefing.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshal key points: %w", err)
	}
	snapshot, err := json.Marshal(briefing)
	if err != nil {
		return fmt.Errorf("marshal briefing: %w", err)
	}

	var sentAt any
	if briefing.SentAt != nil {
		sentAt = briefing.SentAt.UTC().Format(timeLayout)
	}

	query, args, err := sq.Insert("briefings").
		Options("OR REPLACE").
		Columns("id", "created_at", "briefing_type", "title", "summary",
			"overall_sentiment", "key_points", "content_hash", "sent", "sent_at", "full_data").
		Values(briefing.ID,
			briefing.CreatedAt.UTC().Format(timeLayout),
			string(briefing.Type),
			briefing.Title,
			briefing.Summary,
			string(briefing.OverallSentiment),
			string(keyPoints),
			briefing.ContentHash,
			boolToInt(briefing.Sent),
			sentAt,
			string(snapshot)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build briefing upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert briefing: %w", err)
	}
	return nil
}

// GetBriefing loads one briefing by id, or nil when absent. The sent
// flags come from the columns, which stay authoritative after
// MarkBriefingSent.
func (s *SQLiteStore) GetBriefing(ctx context.Context, id string) (*domain.Briefing, error) {
	query, args, err := sq.Select("full_data", "sent", "sent_at").
		From("briefings").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build briefing query: %w", err)
	}

	row := s.db.QueryRowxContext(ctx, query, args...)
	briefing, err := scanBriefing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return briefing, nil
}

// RecentBriefings returns the newest briefings, optionally filtered by
// type.
func (s *SQLiteStore) RecentBriefings(ctx context.Context, limit int, briefingType domain.BriefingType) ([]domain.Briefing, error) {
	builder := sq.Select("full_data", "sent", "sent_at").
		From("briefings").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if briefingType != "" {
		builder = builder.Where(sq.Eq{"briefing_type": string(briefingType)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent briefings query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent briefings: %w", err)
	}
	defer rows.Close()

	var briefings []domain.Briefing
	for rows.Next() {
		briefing, err := scanBriefing(rows)
		if err != nil {
			return nil, err
		}
		briefings = append(briefings, *briefing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate briefings: %w", err)
	}
	return briefings, nil
}

// HasSentDuplicate reports whether a sent briefing with the given
// content hash exists after the cutoff.
func (s *SQLiteStore) HasSentDuplicate(ctx context.Context, contentHash string, since time.Time) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("briefings").
		Where(sq.Eq{"content_hash": contentHash, "sent": 1}).
		Where(sq.Gt{"created_at": since.UTC().Format(timeLayout)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build duplicate query: %w", err)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("query duplicates: %w", err)
	}
	return count > 0, nil
}

// LastSentAt returns the most recent send time across all briefings.
func (s *SQLiteStore) LastSentAt(ctx context.Context) (*time.Time, error) {
	query, args, err := sq.Select("sent_at").
		From("briefings").
		Where(sq.Eq{"sent": 1}).
		Where(sq.NotEq{"sent_at": nil}).
		OrderBy("sent_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build last sent query: %w", err)
	}

	var raw string
	err = s.db.GetContext(ctx, &raw, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last notification time: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse last sent time: %w", err)
	}
	return &at, nil
}

// MarkBriefingSent flips the sent flag and records the send time.
func (s *SQLiteStore) MarkBriefingSent(ctx context.Context, id string, at time.Time) error {
	query, args, err := sq.Update("briefings").
		Set("sent", 1).
		Set("sent_at", at.UTC().Format(timeLayout)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark sent query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark briefing sent: %w", err)
	}
	return nil
}

// LogNotification appends one dispatch attempt to the audit log.
func (s *SQLiteStore) LogNotification(ctx context.Context, entry domain.NotificationLogEntry) error {
	query, args, err := sq.Insert("notification_log").
		Columns("briefing_id", "sent_at", "channel", "success", "error_message").
		Values(entry.BriefingID,
			entry.SentAt.UTC().Format(timeLayout),
			entry.Channel,
			boolToInt(entry.Success),
			entry.ErrorMessage).
		ToSql()
	if err != nil {
		return fmt.Errorf("build notification log insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("log notification: %w", err)
	}
	return nil
}

// SaveRelease upserts a release keyed by indicator id. Indicator
// fields and the snapshot are refreshed; the notified column is left
// untouched so re-ingesting a schedule never re-arms an alert.
func (s *SQLiteStore) SaveRelease(ctx context.Context, release domain.UpcomingRelease) error {
	snapshot, err := json.Marshal(release.Indicator)
	if err != nil {
		return fmt.Errorf("marshal indicator: %w", err)
	}

	query, args, err := sq.Insert("upcoming_releases").
		Columns("id", "indicator_name", "country", "release_time", "impact_level", "notified", "full_data").
		Values(release.Indicator.ID,
			release.Indicator.Name,
			release.Indicator.Country,
			release.Indicator.ReleaseTime.UTC().Format(timeLayout),
			string(release.Indicator.ImpactLevel),
			boolToInt(release.Notified),
			string(snapshot)).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			indicator_name = excluded.indicator_name,
			country = excluded.country,
			release_time = excluded.release_time,
			impact_level = excluded.impact_level,
			full_data = excluded.full_data`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build release upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert release: %w", err)
	}
	return nil
}

// ReleasesBetween returns releases inside (from, to], ordered by
// release time ascending.
func (s *SQLiteStore) ReleasesBetween(ctx context.Context, from, to time.Time, highImpactOnly bool) ([]domain.UpcomingRelease, error) {
	builder := sq.Select("full_data", "notified").
		From("upcoming_releases").
		Where(sq.Gt{"release_time": from.UTC().Format(timeLayout)}).
		Where(sq.LtOrEq{"release_time": to.UTC().Format(timeLayout)}).
		OrderBy("release_time ASC")
	if highImpactOnly {
		builder = builder.Where(sq.Eq{"impact_level": string(domain.ImpactHigh)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build releases query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query releases: %w", err)
	}
	defer rows.Close()

	var releases []domain.UpcomingRelease
	for rows.Next() {
		var (
			raw      string
			notified int
		)
		if err := rows.Scan(&raw, &notified); err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}

		var indicator domain.EconomicIndicator
		if err := json.Unmarshal([]byte(raw), &indicator); err != nil {
			return nil, fmt.Errorf("decode indicator snapshot: %w", err)
		}
		releases = append(releases, domain.UpcomingRelease{
			Indicator: indicator,
			Notified:  notified != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate releases: %w", err)
	}
	return releases, nil
}

// MarkReleaseNotified flips the notified flag; unknown ids match zero
// rows and are silently ignored.
func (s *SQLiteStore) MarkReleaseNotified(ctx context.Context, indicatorID string) error {
	query, args, err := sq.Update("upcoming_releases").
		Set("notified", 1).
		Where(sq.Eq{"id": indicatorID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark notified query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark release notified: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBriefing(row rowScanner) (*domain.Briefing, error) {
	var (
		raw    string
		sent   int
		sentAt sql.NullString
	)
	if err := row.Scan(&raw, &sent, &sentAt); err != nil {
		return nil, err
	}

	var briefing domain.Briefing
	if err := json.Unmarshal([]byte(raw), &briefing); err != nil {
		return nil, fmt.Errorf("decode briefing snapshot: %w", err)
	}

	briefing.Sent = sent != 0
	briefing.SentAt = nil
	if sentAt.Valid && sentAt.String != "" {
		at, err := time.Parse(time.RFC3339Nano, sentAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse sent time: %w", err)
		}
		briefing.SentAt = &at
	}

	return &briefing, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
