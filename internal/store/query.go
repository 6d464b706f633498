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
	"database/sql"
	"fmt"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// Queries return at most limit samples, newest first, with ties on timestamp
// broken by insertion order (newest first). They return an empty slice when
// limit is not positive or the family is unsupported on this host. Read errors
// are logged and returned wrapped in ErrQuery alongside an empty slice.

// QuerySystem returns the latest system samples.
func (s *Store) QuerySystem(ctx context.Context, limit int) ([]metrics.SystemSample, error) {
	out := []metrics.SystemSample{}
	err := s.query(ctx, metrics.FamilySystem, limit,
		`SELECT timestamp, cpu_percent, memory_percent, disk_usage, network_bytes_sent, network_bytes_recv
		FROM system_metrics ORDER BY timestamp DESC, id DESC LIMIT ?`,
		func(rows *sql.Rows) error {
			var (
				ts         string
				v          metrics.SystemSample
				sent, recv int64
			)
			if err := rows.Scan(&ts, &v.CPUPercent, &v.MemoryPercent, &v.DiskUsagePercent, &sent, &recv); err != nil {
				return err
			}
			t, err := parseTimestamp(ts)
			if err != nil {
				return err
			}
			v.Timestamp = t
			v.NetworkBytesSent = uint64(sent)
			v.NetworkBytesRecv = uint64(recv)
			out = append(out, v)
			return nil
		})
	if err != nil {
		return []metrics.SystemSample{}, err
	}
	return out, nil
}

// QueryMemory returns the latest memory samples.
func (s *Store) QueryMemory(ctx context.Context, limit int) ([]metrics.MemorySample, error) {
	out := []metrics.MemorySample{}
	err := s.query(ctx, metrics.FamilyMemory, limit,
		`SELECT timestamp, memory_total, memory_available, memory_used, memory_cached, memory_buffers,
			memory_percent, swap_total, swap_used, swap_free, swap_percent
		FROM memory_metrics ORDER BY timestamp DESC, id DESC LIMIT ?`,
		func(rows *sql.Rows) error {
			var (
				ts string
				v  metrics.MemorySample
			)
			if err := rows.Scan(&ts, &v.Total, &v.Available, &v.Used, &v.Cached, &v.Buffers,
				&v.Percent, &v.SwapTotal, &v.SwapUsed, &v.SwapFree, &v.SwapPercent); err != nil {
				return err
			}
			t, err := parseTimestamp(ts)
			if err != nil {
				return err
			}
			v.Timestamp = t
			out = append(out, v)
			return nil
		})
	if err != nil {
		return []metrics.MemorySample{}, err
	}
	return out, nil
}

// QueryIOWait returns the latest system-wide I/O wait samples.
func (s *Store) QueryIOWait(ctx context.Context, limit int) ([]metrics.IOWaitSample, error) {
	out := []metrics.IOWaitSample{}
	err := s.query(ctx, metrics.FamilyIOWait, limit,
		`SELECT timestamp, read_io_bytes_per_sec, write_io_bytes_per_sec, busy_percentage
		FROM system_io_wait ORDER BY timestamp DESC, id DESC LIMIT ?`,
		func(rows *sql.Rows) error {
			var (
				ts string
				v  metrics.IOWaitSample
			)
			if err := rows.Scan(&ts, &v.ReadBytesPerSec, &v.WriteBytesPerSec, &v.BusyPercentage); err != nil {
				return err
			}
			t, err := parseTimestamp(ts)
			if err != nil {
				return err
			}
			v.Timestamp = t
			out = append(out, v)
			return nil
		})
	if err != nil {
		return []metrics.IOWaitSample{}, err
	}
	return out, nil
}

// QueryProcessIO returns the latest process I/O samples. The limit counts
// samples, not rows; entries keep the ranking they were stored with.
func (s *Store) QueryProcessIO(ctx context.Context, limit int) ([]metrics.ProcessIOSample, error) {
	out := []metrics.ProcessIOSample{}
	var lastID int64
	err := s.query(ctx, metrics.FamilyProcessIO, limit,
		`SELECT sample_id, timestamp, process_name, io_wait_time_per_process FROM process_io_wait
		WHERE sample_id IN (`+newestSamples+`)
		ORDER BY timestamp DESC, sample_id DESC, id ASC`,
		func(rows *sql.Rows) error {
			var (
				id int64
				ts string
				p  metrics.ProcessIO
			)
			if err := rows.Scan(&id, &ts, &p.Name, &p.IOTime); err != nil {
				return err
			}
			t, err := parseTimestamp(ts)
			if err != nil {
				return err
			}
			if len(out) == 0 || id != lastID {
				out = append(out, metrics.ProcessIOSample{Timestamp: t})
				lastID = id
			}
			last := &out[len(out)-1]
			last.Processes = append(last.Processes, p)
			return nil
		})
	if err != nil {
		return []metrics.ProcessIOSample{}, err
	}
	return out, nil
}

// Query dispatches to the typed query for family. The result is one of
// []metrics.SystemSample, []metrics.MemorySample, []metrics.IOWaitSample or
// []metrics.ProcessIOSample.
func (s *Store) Query(ctx context.Context, family metrics.Family, limit int) (any, error) {
	switch family {
	case metrics.FamilySystem:
		return s.QuerySystem(ctx, limit)
	case metrics.FamilyMemory:
		return s.QueryMemory(ctx, limit)
	case metrics.FamilyIOWait:
		return s.QueryIOWait(ctx, limit)
	case metrics.FamilyProcessIO:
		return s.QueryProcessIO(ctx, limit)
	}
	return nil, fmt.Errorf("%w: unknown family %q", ErrQuery, family)
}

func (s *Store) query(ctx context.Context, family metrics.Family, limit int, q string, scan func(*sql.Rows) error) error {
	if limit <= 0 {
		return nil
	}
	if !s.caps.Supports(family) {
		s.logger.Debug("Query on unsupported family", "family", family)
		return nil
	}
	if err := s.ensureSchema(ctx, family); err != nil {
		return s.queryError(family, err)
	}

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return s.queryError(family, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return s.queryError(family, fmt.Errorf("scan: %w", err))
		}
	}
	if err := rows.Err(); err != nil {
		return s.queryError(family, err)
	}
	return nil
}
