package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Irehund/JobTrack/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS commute_cache (
	home_lat    REAL NOT NULL,
	home_lon    REAL NOT NULL,
	job_lat     REAL NOT NULL,
	job_lon     REAL NOT NULL,
	minutes     INTEGER,
	resolved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (home_lat, home_lon, job_lat, job_lon)
);

CREATE TABLE IF NOT EXISTS seen_listings (
	listing_key TEXT PRIMARY KEY,
	first_seen  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS applications (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id       TEXT NOT NULL,
	provider     TEXT NOT NULL,
	title        TEXT NOT NULL,
	company      TEXT,
	location     TEXT,
	url          TEXT,
	status       TEXT NOT NULL DEFAULT 'applied',
	applied_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	notes        TEXT
);

CREATE TABLE IF NOT EXISTS timeline_events (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	application_id  INTEGER NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	status          TEXT NOT NULL,
	event_timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists commute times and the listings watch mode has already
// reported.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ model.CommuteStore = (*SQLiteStore)(nil)
	_ model.SeenStore    = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the cached commute for key. found is false when the pair has
// never been resolved; a found nil means no route exists.
func (s *SQLiteStore) Get(ctx context.Context, key model.CommuteKey) (*int, bool, error) {
	var minutes sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT minutes FROM commute_cache
		 WHERE home_lat = ? AND home_lon = ? AND job_lat = ? AND job_lon = ?`,
		key.HomeLat, key.HomeLon, key.JobLat, key.JobLon,
	).Scan(&minutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading commute %s: %w", key, err)
	}
	if !minutes.Valid {
		return nil, true, nil
	}
	m := int(minutes.Int64)
	return &m, true, nil
}

// Put records the commute for key, replacing any earlier value.
func (s *SQLiteStore) Put(ctx context.Context, key model.CommuteKey, minutes *int) error {
	var v sql.NullInt64
	if minutes != nil {
		v = sql.NullInt64{Int64: int64(*minutes), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO commute_cache (home_lat, home_lon, job_lat, job_lon, minutes)
		 VALUES (?, ?, ?, ?, ?)`,
		key.HomeLat, key.HomeLon, key.JobLat, key.JobLon, v,
	)
	if err != nil {
		return fmt.Errorf("writing commute %s: %w", key, err)
	}
	return nil
}

// Clear drops every cached commute.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM commute_cache"); err != nil {
		return fmt.Errorf("clearing commute cache: %w", err)
	}
	return nil
}

// CommuteCount returns how many pairs are cached.
func (s *SQLiteStore) CommuteCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commute_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting commute cache: %w", err)
	}
	return count, nil
}

// HasSeen returns true if the listing key has already been reported.
func (s *SQLiteStore) HasSeen(key string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM seen_listings WHERE listing_key = ?", key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s: %w", key, err)
	}
	return true, nil
}

// MarkSeen records a listing key. If it already exists the call is a no-op.
func (s *SQLiteStore) MarkSeen(key string) error {
	if _, err := s.db.Exec("INSERT OR IGNORE INTO seen_listings (listing_key) VALUES (?)", key); err != nil {
		return fmt.Errorf("marking listing %s as seen: %w", key, err)
	}
	return nil
}

// Cleanup deletes seen-listing entries older than the given duration.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.DateTime)
	if _, err := s.db.Exec("DELETE FROM seen_listings WHERE first_seen < ?", cutoff); err != nil {
		return fmt.Errorf("cleaning up seen listings older than %v: %w", olderThan, err)
	}
	return nil
}

// IsEmpty returns true if no listing has been recorded yet.
func (s *SQLiteStore) IsEmpty() (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM seen_listings").Scan(&count); err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return count == 0, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
