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

package exporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// Source reads stored samples. *store.Store implements it.
type Source interface {
	Query(ctx context.Context, family metrics.Family, limit int) (any, error)
}

// CSVExporter writes stored samples of one family as CSV, newest first.
type CSVExporter struct {
	location *time.Location // Timezone location for timestamps
	logger   *slog.Logger
}

// NewCSVExporter creates a new CSV exporter instance. A nil location means UTC.
func NewCSVExporter(loc *time.Location, logger *slog.Logger) *CSVExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVExporter{location: loc, logger: logger}
}

// ExportFile writes up to limit samples of family to path, replacing the file.
func (e *CSVExporter) ExportFile(ctx context.Context, src Source, family metrics.Family, limit int, path string) (int, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open output file: %w", err)
	}

	n, err := e.Export(ctx, src, family, limit, file)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close file: %w", cerr)
	}
	if err == nil {
		e.logger.Info("Exported samples", "family", family, "rows", n, "output", path)
	}
	return n, err
}

// Export writes up to limit samples of family to w and returns the number of
// data rows written. A process I/O sample produces one row per ranked process.
func (e *CSVExporter) Export(ctx context.Context, src Source, family metrics.Family, limit int, w io.Writer) (int, error) {
	result, err := src.Query(ctx, family, limit)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", family, err)
	}

	bufWriter := bufio.NewWriterSize(w, 8192) // 8KB buffer
	csvWriter := csv.NewWriter(bufWriter)

	header, rows, err := e.table(result)
	if err != nil {
		return 0, err
	}

	if err := csvWriter.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("failed to write rows: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return 0, fmt.Errorf("buffer writer error: %w", err)
	}

	e.logger.Debug("Flushed CSV", "family", family, "rows", len(rows))
	return len(rows), nil
}

func (e *CSVExporter) table(result any) (header []string, rows [][]string, err error) {
	switch samples := result.(type) {
	case []metrics.SystemSample:
		header = []string{"Timestamp", "CPU Utilization (%)", "Memory Utilization (%)", "Disk Usage (%)",
			"Network Bytes Sent", "Network Bytes Received"}
		for _, s := range samples {
			rows = append(rows, []string{
				e.formatTime(s.Timestamp),
				formatFloat(s.CPUPercent),
				formatFloat(s.MemoryPercent),
				formatFloat(s.DiskUsagePercent),
				strconv.FormatUint(s.NetworkBytesSent, 10),
				strconv.FormatUint(s.NetworkBytesRecv, 10),
			})
		}

	case []metrics.MemorySample:
		header = []string{"Timestamp", "Memory Total", "Memory Available", "Memory Used", "Memory Cached",
			"Memory Buffers", "Memory Utilization (%)", "Swap Total", "Swap Used", "Swap Free", "Swap Utilization (%)"}
		for _, s := range samples {
			rows = append(rows, []string{
				e.formatTime(s.Timestamp),
				formatBytes(s.Total),
				formatBytes(s.Available),
				formatBytes(s.Used),
				formatBytes(s.Cached),
				formatBytes(s.Buffers),
				formatFloat(s.Percent),
				formatBytes(s.SwapTotal),
				formatBytes(s.SwapUsed),
				formatBytes(s.SwapFree),
				formatFloat(s.SwapPercent),
			})
		}

	case []metrics.IOWaitSample:
		header = []string{"Timestamp", "Read Throughput (B/s)", "Write Throughput (B/s)", "Busy (%)"}
		for _, s := range samples {
			rows = append(rows, []string{
				e.formatTime(s.Timestamp),
				formatFloat(s.ReadBytesPerSec),
				formatFloat(s.WriteBytesPerSec),
				formatFloat(s.BusyPercentage),
			})
		}

	case []metrics.ProcessIOSample:
		header = []string{"Timestamp", "Rank", "Process", "IO Wait (s)"}
		for _, s := range samples {
			for i, p := range s.Processes {
				rows = append(rows, []string{
					e.formatTime(s.Timestamp),
					strconv.Itoa(i + 1),
					p.Name,
					formatFloat(p.IOTime),
				})
			}
		}

	default:
		return nil, nil, fmt.Errorf("unsupported result type %T", result)
	}
	return header, rows, nil
}

const naString = "N/A"

func (e *CSVExporter) formatTime(t time.Time) string {
	return t.In(e.location).Format("2006-01-02 15:04:05")
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatBytes renders the unsupported sentinel as N/A.
func formatBytes(v int64) string {
	if v == metrics.Unsupported {
		return naString
	}
	return strconv.FormatInt(v, 10)
}
