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

package metrics

import (
	"fmt"
	"math"
	"time"
)

// Unsupported marks a byte counter the host OS does not expose.
const Unsupported int64 = -1

// DefaultTopProcesses is the number of processes kept in a ranked process I/O sample.
const DefaultTopProcesses = 5

// SystemSample is a single system-wide reading.
type SystemSample struct {
	Timestamp        time.Time `json:"timestamp"`
	CPUPercent       float64   `json:"cpu_percent"`
	MemoryPercent    float64   `json:"memory_percent"`
	DiskUsagePercent float64   `json:"disk_usage"`
	NetworkBytesSent uint64    `json:"network_bytes_sent"` // cumulative
	NetworkBytesRecv uint64    `json:"network_bytes_recv"` // cumulative
}

// NewSystemSample builds a validated SystemSample.
func NewSystemSample(ts time.Time, cpu, memory, disk float64, sent, recv uint64) (SystemSample, error) {
	s := SystemSample{
		Timestamp:        ts,
		CPUPercent:       cpu,
		MemoryPercent:    memory,
		DiskUsagePercent: disk,
		NetworkBytesSent: sent,
		NetworkBytesRecv: recv,
	}
	return s, s.Validate()
}

// Validate checks the sample invariants.
func (s SystemSample) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: system sample has no timestamp", ErrInvalidSample)
	}
	if err := checkPercent("cpu_percent", s.CPUPercent); err != nil {
		return err
	}
	if err := checkPercent("memory_percent", s.MemoryPercent); err != nil {
		return err
	}
	return checkPercent("disk_usage", s.DiskUsagePercent)
}

// MemorySample is a virtual memory and swap reading. Byte fields are int64 so that
// Cached and Buffers can carry the Unsupported sentinel.
type MemorySample struct {
	Timestamp   time.Time `json:"timestamp"`
	Total       int64     `json:"memory_total"`
	Available   int64     `json:"memory_available"`
	Used        int64     `json:"memory_used"`
	Cached      int64     `json:"memory_cached"`
	Buffers     int64     `json:"memory_buffers"`
	Percent     float64   `json:"memory_percent"`
	SwapTotal   int64     `json:"swap_total"`
	SwapUsed    int64     `json:"swap_used"`
	SwapFree    int64     `json:"swap_free"`
	SwapPercent float64   `json:"swap_percent"`
}

// Validate checks the sample invariants. Total = Used + Available is not enforced,
// platforms account for memory differently.
func (s MemorySample) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: memory sample has no timestamp", ErrInvalidSample)
	}
	for name, v := range map[string]int64{
		"memory_total":     s.Total,
		"memory_available": s.Available,
		"memory_used":      s.Used,
		"swap_total":       s.SwapTotal,
		"swap_used":        s.SwapUsed,
		"swap_free":        s.SwapFree,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s = %d, want >= 0", ErrInvalidSample, name, v)
		}
	}
	if s.Cached < Unsupported || s.Buffers < Unsupported {
		return fmt.Errorf("%w: cached/buffers below the unsupported sentinel", ErrInvalidSample)
	}
	if err := checkPercent("memory_percent", s.Percent); err != nil {
		return err
	}
	return checkPercent("swap_percent", s.SwapPercent)
}

// IOWaitSample is a system-wide disk throughput reading derived from two counter snapshots.
type IOWaitSample struct {
	Timestamp        time.Time `json:"timestamp"`
	ReadBytesPerSec  float64   `json:"read_io_bytes_per_sec"`
	WriteBytesPerSec float64   `json:"write_io_bytes_per_sec"`
	// BusyPercentage is not clamped: several devices busy at once can push it past 100.
	BusyPercentage float64 `json:"busy_percentage"`
}

// Validate checks the sample invariants.
func (s IOWaitSample) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: io wait sample has no timestamp", ErrInvalidSample)
	}
	if s.ReadBytesPerSec < 0 || s.WriteBytesPerSec < 0 || s.BusyPercentage < 0 {
		return fmt.Errorf("%w: negative io wait rate", ErrInvalidSample)
	}
	return nil
}

// ProcessIO is one entry of a ranked process I/O sample.
type ProcessIO struct {
	Name   string  `json:"process_name"`
	IOTime float64 `json:"io_wait_time_per_process"` // seconds
}

// ProcessIOSample holds the processes with the largest I/O wait time, highest first.
type ProcessIOSample struct {
	Timestamp time.Time   `json:"timestamp"`
	Processes []ProcessIO `json:"processes"`
}

// Validate checks the sample invariants.
func (s ProcessIOSample) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("%w: process io sample has no timestamp", ErrInvalidSample)
	}
	for i := 1; i < len(s.Processes); i++ {
		if s.Processes[i].IOTime > s.Processes[i-1].IOTime {
			return fmt.Errorf("%w: process io ranking is not descending at %d", ErrInvalidSample, i)
		}
	}
	return nil
}

// ProcessNode is a process as seen in one snapshot. It is never persisted.
type ProcessNode struct {
	PID  int32  `json:"pid"`
	Name string `json:"name"`
	PPID int32  `json:"ppid"`
}

func checkPercent(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s = %v, want [0, 100]", ErrInvalidSample, name, v)
	}
	return nil
}
