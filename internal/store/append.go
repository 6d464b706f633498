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

package store

import (
	"context"
	"fmt"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// Every append inserts new rows, identical samples included. A nil sample is a
// no-op. Failures are logged and returned wrapped in ErrPersistence; they never
// panic.

// AppendSystem stores a system sample.
func (s *Store) AppendSystem(ctx context.Context, sample *metrics.SystemSample) error {
	if sample == nil {
		return nil
	}
	return s.insert(ctx, metrics.FamilySystem,
		`INSERT INTO system_metrics (timestamp, cpu_percent, memory_percent, disk_usage, network_bytes_sent, network_bytes_recv)
		VALUES (?, ?, ?, ?, ?, ?)`,
		formatTimestamp(sample.Timestamp),
		sample.CPUPercent,
		sample.MemoryPercent,
		sample.DiskUsagePercent,
		// SQLite integers are signed 64-bit.
		int64(sample.NetworkBytesSent),
		int64(sample.NetworkBytesRecv),
	)
}

// AppendMemory stores a memory sample.
func (s *Store) AppendMemory(ctx context.Context, sample *metrics.MemorySample) error {
	if sample == nil {
		return nil
	}
	return s.insert(ctx, metrics.FamilyMemory,
		`INSERT INTO memory_metrics (timestamp, memory_total, memory_available, memory_used, memory_cached, memory_buffers,
			memory_percent, swap_total, swap_used, swap_free, swap_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTimestamp(sample.Timestamp),
		sample.Total,
		sample.Available,
		sample.Used,
		sample.Cached,
		sample.Buffers,
		sample.Percent,
		sample.SwapTotal,
		sample.SwapUsed,
		sample.SwapFree,
		sample.SwapPercent,
	)
}

// AppendIOWait stores a system-wide I/O wait sample.
func (s *Store) AppendIOWait(ctx context.Context, sample *metrics.IOWaitSample) error {
	if sample == nil {
		return nil
	}
	return s.insert(ctx, metrics.FamilyIOWait,
		`INSERT INTO system_io_wait (timestamp, read_io_bytes_per_sec, write_io_bytes_per_sec, busy_percentage)
		VALUES (?, ?, ?, ?)`,
		formatTimestamp(sample.Timestamp),
		sample.ReadBytesPerSec,
		sample.WriteBytesPerSec,
		sample.BusyPercentage,
	)
}

// AppendProcessIO stores one row per ranked process, all sharing the sample
// timestamp and a fresh sample id, in a single transaction. Hosts without per-process I/O wait never
// get the table, so the call is a no-op there.
func (s *Store) AppendProcessIO(ctx context.Context, sample *metrics.ProcessIOSample) error {
	if sample == nil {
		return nil
	}
	family := metrics.FamilyProcessIO
	if !s.caps.Supports(family) {
		s.logger.Debug("Skipping unsupported family", "family", family)
		return nil
	}
	if err := s.ensureSchema(ctx, family); err != nil {
		return s.persistenceError(family, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.persistenceError(family, fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	var sampleID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sample_id), 0) + 1 FROM process_io_wait`).Scan(&sampleID); err != nil {
		return s.persistenceError(family, fmt.Errorf("next sample id: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO process_io_wait (sample_id, timestamp, process_name, io_wait_time_per_process) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return s.persistenceError(family, fmt.Errorf("prepare: %w", err))
	}
	defer func() { _ = stmt.Close() }()

	ts := formatTimestamp(sample.Timestamp)
	for _, p := range sample.Processes {
		if _, err := stmt.ExecContext(ctx, sampleID, ts, p.Name, p.IOTime); err != nil {
			return s.persistenceError(family, fmt.Errorf("insert %s: %w", p.Name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return s.persistenceError(family, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *Store) insert(ctx context.Context, family metrics.Family, query string, args ...any) error {
	if !s.caps.Supports(family) {
		return nil
	}
	if err := s.ensureSchema(ctx, family); err != nil {
		return s.persistenceError(family, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.persistenceError(family, fmt.Errorf("insert: %w", err))
	}
	return nil
}
