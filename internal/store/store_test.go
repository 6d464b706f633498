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
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/hostscope/internal/platform"
	"github.com/phuonguno98/hostscope/pkg/metrics"
)

func openTestStore(t *testing.T, goos string) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "metrics.db"), platform.Detect(goos), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tableExists(t *testing.T, s *Store, name string) bool {
	t.Helper()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAppendQuery_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")

	sample := metrics.SystemSample{
		Timestamp:        base,
		CPUPercent:       12.5,
		MemoryPercent:    40,
		DiskUsagePercent: 71.2,
		NetworkBytesSent: 1 << 40,
		NetworkBytesRecv: 123456789,
	}
	require.NoError(t, s.AppendSystem(ctx, &sample))

	got, err := s.QuerySystem(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sample, got[0])
}

func TestQuery_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")

	// Inserted out of order; two share a timestamp.
	for i, off := range []int{2, 0, 5, 5, 1} {
		require.NoError(t, s.AppendIOWait(ctx, &metrics.IOWaitSample{
			Timestamp:       base.Add(time.Duration(off) * time.Second),
			ReadBytesPerSec: float64(i),
		}))
	}

	got, err := s.QueryIOWait(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 5)

	var reads []float64
	for _, g := range got {
		reads = append(reads, g.ReadBytesPerSec)
	}
	// ts 5 (ids 4 then 3), ts 2, ts 1, ts 0
	assert.Equal(t, []float64{3, 2, 0, 4, 1}, reads)

	limited, err := s.QueryIOWait(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, got[:2], limited)
}

func TestQuery_LimitZero(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")
	require.NoError(t, s.AppendMemory(ctx, &metrics.MemorySample{Timestamp: base, Total: 100}))

	got, err := s.QueryMemory(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = s.QueryMemory(ctx, -3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_EmptyTable(t *testing.T) {
	s := openTestStore(t, "linux")
	got, err := s.QuerySystem(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppend_NotIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")
	sample := &metrics.SystemSample{Timestamp: base, CPUPercent: 1}

	require.NoError(t, s.AppendSystem(ctx, sample))
	require.NoError(t, s.AppendSystem(ctx, sample))

	n, err := s.Count(ctx, metrics.FamilySystem)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAppend_NilIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")

	assert.NoError(t, s.AppendSystem(ctx, nil))
	assert.NoError(t, s.AppendMemory(ctx, nil))
	assert.NoError(t, s.AppendIOWait(ctx, nil))
	assert.NoError(t, s.AppendProcessIO(ctx, nil))

	assert.False(t, tableExists(t, s, "system_metrics"))
}

func TestMemory_SentinelPreserved(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "windows")
	sample := metrics.MemorySample{
		Timestamp: base,
		Total:     8 << 30,
		Available: 4 << 30,
		Used:      4 << 30,
		Cached:    metrics.Unsupported,
		Buffers:   metrics.Unsupported,
		Percent:   50,
	}
	require.NoError(t, s.AppendMemory(ctx, &sample))

	got, err := s.QueryMemory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, metrics.Unsupported, got[0].Cached)
	assert.Equal(t, metrics.Unsupported, got[0].Buffers)
}

func TestProcessIO_Grouped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")

	first := metrics.ProcessIOSample{
		Timestamp: base,
		Processes: []metrics.ProcessIO{{Name: "postgres", IOTime: 9}, {Name: "rsync", IOTime: 7}},
	}
	second := metrics.ProcessIOSample{
		Timestamp: base.Add(5 * time.Second),
		Processes: []metrics.ProcessIO{{Name: "dd", IOTime: 3}, {Name: "postgres", IOTime: 3}, {Name: "java", IOTime: 1}},
	}
	require.NoError(t, s.AppendProcessIO(ctx, &first))
	require.NoError(t, s.AppendProcessIO(ctx, &second))

	got, err := s.QueryProcessIO(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[0])
	assert.Equal(t, first, got[1])

	// limit counts samples, not rows
	got, err = s.QueryProcessIO(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Processes, 3)

	n, err := s.Count(ctx, metrics.FamilyProcessIO)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestProcessIO_SameTimestampStaysSeparate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")

	first := metrics.ProcessIOSample{
		Timestamp: base,
		Processes: []metrics.ProcessIO{{Name: "a", IOTime: 9}, {Name: "b", IOTime: 1}},
	}
	second := metrics.ProcessIOSample{
		Timestamp: base,
		Processes: []metrics.ProcessIO{{Name: "c", IOTime: 7}, {Name: "d", IOTime: 3}},
	}
	require.NoError(t, s.AppendProcessIO(ctx, &first))
	require.NoError(t, s.AppendProcessIO(ctx, &second))

	got, err := s.QueryProcessIO(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0])

	got, err = s.QueryProcessIO(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []metrics.ProcessIOSample{second, first}, got)

	deleted, err := s.Trim(ctx, metrics.FamilyProcessIO, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	got, err = s.QueryProcessIO(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []metrics.ProcessIOSample{second}, got)
}

func TestProcessIO_UnsupportedPlatform(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "darwin")

	err := s.AppendProcessIO(ctx, &metrics.ProcessIOSample{
		Timestamp: base,
		Processes: []metrics.ProcessIO{{Name: "kernel_task", IOTime: 1}},
	})
	require.NoError(t, err)

	got, err := s.QueryProcessIO(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, tableExists(t, s, "process_io_wait"))
}

func TestSchema_IdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "metrics.db")
	caps := platform.Detect("linux")

	for i := 0; i < 3; i++ {
		s, err := Open(path, caps, logger)
		require.NoError(t, err)
		require.NoError(t, s.AppendSystem(ctx, &metrics.SystemSample{Timestamp: base.Add(time.Duration(i) * time.Second)}))
		require.NoError(t, s.Close())
	}

	s, err := Open(path, caps, logger)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.QuerySystem(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(2*time.Second), got[0].Timestamp)
}

func TestQuery_Dispatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")
	require.NoError(t, s.AppendSystem(ctx, &metrics.SystemSample{Timestamp: base}))

	for _, f := range metrics.Families() {
		res, err := s.Query(ctx, f, 5)
		require.NoError(t, err, f)
		assert.NotNil(t, res, f)
	}

	res, err := s.Query(ctx, metrics.FamilySystem, 5)
	require.NoError(t, err)
	assert.Len(t, res.([]metrics.SystemSample), 1)

	_, err = s.Query(ctx, metrics.Family("bogus"), 5)
	assert.ErrorIs(t, err, ErrQuery)
}

func TestTrim(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "linux")

	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.AppendSystem(ctx, &metrics.SystemSample{Timestamp: ts, CPUPercent: float64(i)}))
		require.NoError(t, s.AppendProcessIO(ctx, &metrics.ProcessIOSample{
			Timestamp: ts,
			Processes: []metrics.ProcessIO{{Name: "a", IOTime: 2}, {Name: "b", IOTime: 1}},
		}))
	}

	deleted, err := s.Trim(ctx, metrics.FamilySystem, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	got, err := s.QuerySystem(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 4.0, got[0].CPUPercent)
	assert.Equal(t, 3.0, got[1].CPUPercent)

	deleted, err = s.Trim(ctx, metrics.FamilyProcessIO, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6), deleted)

	samples, err := s.QueryProcessIO(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	deleted, err = s.Trim(ctx, metrics.FamilySystem, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
