/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package store persists metric samples in an embedded SQLite database, one
// table per metric family.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	// SQLite driver (pure Go, registers as "sqlite")
	_ "modernc.org/sqlite"

	"github.com/phuonguno98/hostscope/internal/platform"
	"github.com/phuonguno98/hostscope/pkg/metrics"
)

var (
	// ErrPersistence wraps write and schema errors.
	ErrPersistence = errors.New("persistence failure")
	// ErrQuery wraps read errors.
	ErrQuery = errors.New("query failure")
)

// newestSamples selects process I/O sample ids newest first. Samples sharing a
// timestamp are ordered by append.
const newestSamples = `SELECT sample_id FROM process_io_wait
	GROUP BY sample_id ORDER BY MAX(timestamp) DESC, sample_id DESC LIMIT ?`

// timestampLayout is fixed width so lexical order equals chronological order.
const timestampLayout = "2006-01-02 15:04:05.000000000"

var schemas = map[metrics.Family]string{
	metrics.FamilySystem: `
CREATE TABLE IF NOT EXISTS system_metrics (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp          TEXT    NOT NULL,
	cpu_percent        REAL    NOT NULL,
	memory_percent     REAL    NOT NULL,
	disk_usage         REAL    NOT NULL,
	network_bytes_sent INTEGER NOT NULL,
	network_bytes_recv INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_system_metrics_ts ON system_metrics (timestamp, id);`,

	metrics.FamilyMemory: `
CREATE TABLE IF NOT EXISTS memory_metrics (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp        TEXT    NOT NULL,
	memory_total     INTEGER NOT NULL,
	memory_available INTEGER NOT NULL,
	memory_used      INTEGER NOT NULL,
	memory_cached    INTEGER NOT NULL,
	memory_buffers   INTEGER NOT NULL,
	memory_percent   REAL    NOT NULL,
	swap_total       INTEGER NOT NULL,
	swap_used        INTEGER NOT NULL,
	swap_free        INTEGER NOT NULL,
	swap_percent     REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_metrics_ts ON memory_metrics (timestamp, id);`,

	metrics.FamilyIOWait: `
CREATE TABLE IF NOT EXISTS system_io_wait (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp              TEXT NOT NULL,
	read_io_bytes_per_sec  REAL NOT NULL,
	write_io_bytes_per_sec REAL NOT NULL,
	busy_percentage        REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_system_io_wait_ts ON system_io_wait (timestamp, id);`,

	metrics.FamilyProcessIO: `
CREATE TABLE IF NOT EXISTS process_io_wait (
	id                       INTEGER PRIMARY KEY AUTOINCREMENT,
	sample_id                INTEGER NOT NULL,
	timestamp                TEXT NOT NULL,
	process_name             TEXT NOT NULL,
	io_wait_time_per_process REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_process_io_wait_ts ON process_io_wait (timestamp, sample_id, id);`,
}

// Store is the metric store. Writes are serialized across all families.
type Store struct {
	db     *sql.DB
	caps   platform.Capabilities
	logger *slog.Logger

	writeMu sync.Mutex

	schemaMu sync.Mutex
	ready    map[metrics.Family]bool
}

// Open opens (or creates) the database at path. Tables are created on first use.
func Open(path string, caps platform.Capabilities, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// A single connection keeps SQLite writers from racing each other.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	logger.Info("Metric store opened", "path", path)

	return &Store{
		db:     db,
		caps:   caps,
		logger: logger,
		ready:  make(map[metrics.Family]bool),
	}, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + q.Encode()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Supports reports whether the family can be stored on this host.
func (s *Store) Supports(family metrics.Family) bool {
	return s.caps.Supports(family)
}

// ensureSchema creates the family's table once per process. It is safe to call
// repeatedly and across restarts.
func (s *Store) ensureSchema(ctx context.Context, family metrics.Family) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.ready[family] {
		return nil
	}

	ddl, ok := schemas[family]
	if !ok {
		return fmt.Errorf("unknown family %q", family)
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", family.Table(), err)
	}

	s.ready[family] = true
	s.logger.Debug("Schema ready", "table", family.Table())
	return nil
}

// Count returns the number of rows stored for the family.
func (s *Store) Count(ctx context.Context, family metrics.Family) (int64, error) {
	if !s.caps.Supports(family) {
		return 0, nil
	}
	if err := s.ensureSchema(ctx, family); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	var n int64
	// Table names come from a fixed set, never from input.
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+family.Table()).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", ErrQuery, family.Table(), err)
	}
	return n, nil
}

// Trim keeps only the newest keep samples of the family. keep <= 0 is a no-op.
func (s *Store) Trim(ctx context.Context, family metrics.Family, keep int) (int64, error) {
	if keep <= 0 || !s.caps.Supports(family) {
		return 0, nil
	}
	if err := s.ensureSchema(ctx, family); err != nil {
		return 0, s.persistenceError(family, err)
	}

	table := family.Table()
	var stmt string
	if family == metrics.FamilyProcessIO {
		// A process I/O sample spans several rows sharing one sample_id.
		stmt = fmt.Sprintf(`DELETE FROM %[1]s WHERE sample_id NOT IN (%[2]s)`, table, newestSamples)
	} else {
		stmt = fmt.Sprintf(`DELETE FROM %[1]s WHERE id NOT IN (
			SELECT id FROM %[1]s ORDER BY timestamp DESC, id DESC LIMIT ?)`, table)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, stmt, keep)
	if err != nil {
		return 0, s.persistenceError(family, fmt.Errorf("trim: %w", err))
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Debug("Trimmed rows", "table", table, "deleted", n, "keep", keep)
	}
	return n, nil
}

func (s *Store) persistenceError(family metrics.Family, err error) error {
	s.logger.Error("Failed to persist sample", "family", family, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, family, err)
}

func (s *Store) queryError(family metrics.Family, err error) error {
	s.logger.Error("Failed to query samples", "family", family, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrQuery, family, err)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}
