// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// USAGE STORE
// =============================================================================

// usageSchema creates the usage table.
const usageSchema = `
CREATE TABLE IF NOT EXISTS usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	message_count INTEGER NOT NULL,
	prompt_chars INTEGER NOT NULL,
	response_chars INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	ok INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage(timestamp);
`

// UsageRecord is one persisted chat request.
type UsageRecord struct {
	Timestamp     time.Time
	MessageCount  int
	PromptChars   int
	ResponseChars int
	Duration      time.Duration
	OK            bool
}

// UsageTotals aggregates persisted usage.
type UsageTotals struct {
	Requests      int64
	Failures      int64
	PromptChars   int64
	ResponseChars int64
}

// UsageStore persists usage records to SQLite.
type UsageStore struct {
	db *sql.DB
}

// OpenUsageStore opens (creating if needed) the usage database at path.
func OpenUsageStore(path string) (*UsageStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open database: %w", err)
	}

	// SQLite allows one writer; keep a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("telemetry: set pragma: %w", err)
		}
	}

	if _, err := db.Exec(usageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: initialize schema: %w", err)
	}

	return &UsageStore{db: db}, nil
}

// Record persists one usage record.
func (u *UsageStore) Record(rec UsageRecord) error {
	ok := 0
	if rec.OK {
		ok = 1
	}
	_, err := u.db.Exec(
		`INSERT INTO usage (timestamp, message_count, prompt_chars, response_chars, duration_ms, ok)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UnixMilli(), rec.MessageCount, rec.PromptChars, rec.ResponseChars,
		rec.Duration.Milliseconds(), ok,
	)
	if err != nil {
		return fmt.Errorf("telemetry: record usage: %w", err)
	}
	return nil
}

// Totals returns aggregates over all persisted records.
func (u *UsageStore) Totals() (UsageTotals, error) {
	var t UsageTotals
	row := u.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(prompt_chars), 0),
		        COALESCE(SUM(response_chars), 0)
		 FROM usage`)
	if err := row.Scan(&t.Requests, &t.Failures, &t.PromptChars, &t.ResponseChars); err != nil {
		return UsageTotals{}, fmt.Errorf("telemetry: usage totals: %w", err)
	}
	return t, nil
}

// Recent returns up to limit records, newest first.
func (u *UsageStore) Recent(limit int) ([]UsageRecord, error) {
	rows, err := u.db.Query(
		`SELECT timestamp, message_count, prompt_chars, response_chars, duration_ms, ok
		 FROM usage ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry: recent usage: %w", err)
	}
	defer rows.Close()

	var out []UsageRecord
	for rows.Next() {
		var (
			rec        UsageRecord
			tsMillis   int64
			durMillis  int64
			okInt      int
		)
		if err := rows.Scan(&tsMillis, &rec.MessageCount, &rec.PromptChars, &rec.ResponseChars, &durMillis, &okInt); err != nil {
			return nil, fmt.Errorf("telemetry: scan usage row: %w", err)
		}
		rec.Timestamp = time.UnixMilli(tsMillis)
		rec.Duration = time.Duration(durMillis) * time.Millisecond
		rec.OK = okInt == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database.
func (u *UsageStore) Close() error {
	return u.db.Close()
}
