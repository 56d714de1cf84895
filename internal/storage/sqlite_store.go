package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteStore keeps record keys in a single table with a unix expiry column.
type sqliteStore struct {
	db *sql.DB
	*expiry
}

func openSQLite(path string, opts Options) (Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS seen_records (
		record_key TEXT PRIMARY KEY,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS seen_records_expires_at ON seen_records (expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Join(fmt.Errorf("init schema: %w", err), db.Close())
	}

	return &sqliteStore{db: db, expiry: newExpiry(opts)}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SeenRecord reports whether key was marked and has not expired.
func (s *sqliteStore) SeenRecord(key string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	now := s.now()
	if err := s.maybeCleanup(now, s.purgeExpired); err != nil {
		return false, err
	}

	var expiresAt int64
	err := s.db.QueryRow(`SELECT expires_at FROM seen_records WHERE record_key = ?`, key).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen record: %w", err)
	}
	if expiresAt <= now.Unix() {
		if _, err := s.db.Exec(`DELETE FROM seen_records WHERE record_key = ?`, key); err != nil {
			return false, fmt.Errorf("delete expired record: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// MarkRecord upserts key with an expiry of now plus the record TTL.
func (s *sqliteStore) MarkRecord(key string) error {
	if s == nil || s.db == nil {
		return nil
	}
	now := s.now()
	if err := s.maybeCleanup(now, s.purgeExpired); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO seen_records (record_key, expires_at) VALUES (?, ?)
		ON CONFLICT(record_key) DO UPDATE SET expires_at = excluded.expires_at`,
		key, now.Add(s.ttl).Unix())
	if err != nil {
		return fmt.Errorf("mark record: %w", err)
	}
	return nil
}

func (s *sqliteStore) purgeExpired(now time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM seen_records WHERE expires_at <= ?`, now.Unix()); err != nil {
		return fmt.Errorf("purge expired records: %w", err)
	}
	return nil
}
