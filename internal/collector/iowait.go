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

package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// diskCounters is one snapshot of the cumulative counters of a device.
type diskCounters struct {
	readBytes  uint64
	writeBytes uint64
	busyMillis uint64
}

// SampleIOWait takes a disk counter snapshot, waits for window, takes a second
// snapshot and derives system-wide throughput and busy percentage. Hosts
// without busy-time accounting report 0 busy. A counter that went backwards
// (device reset, reboot) contributes nothing for this window.
func (s *Sampler) SampleIOWait(ctx context.Context, window time.Duration) (*metrics.IOWaitSample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	family := metrics.FamilyIOWait

	first, err := s.diskSnapshot(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("disk counters: %w", err))
	}
	start := now()

	if err := wait(ctx, window); err != nil {
		// Nothing is reported for a window that did not complete.
		return nil, classify(family, err)
	}

	second, err := s.diskSnapshot(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("disk counters: %w", err))
	}
	end := now()

	elapsed := end.Sub(start).Seconds()
	if elapsed <= 0 {
		elapsed = window.Seconds()
	}
	if elapsed <= 0 {
		return nil, fmt.Errorf("sample %s: non-positive measurement window %v", family, window)
	}

	sample := metrics.IOWaitSample{Timestamp: end}
	for _, name := range sortedDevices(second) {
		prev, ok := first[name]
		if !ok {
			// Device appeared during the window.
			continue
		}
		cur := second[name]

		if !s.counterOK(name, "read_bytes", prev.readBytes, cur.readBytes) ||
			!s.counterOK(name, "write_bytes", prev.writeBytes, cur.writeBytes) {
			continue
		}
		sample.ReadBytesPerSec += metrics.Rate(prev.readBytes, cur.readBytes, elapsed)
		sample.WriteBytesPerSec += metrics.Rate(prev.writeBytes, cur.writeBytes, elapsed)

		if s.caps.DiskBusyTime && s.counterOK(name, "io_time", prev.busyMillis, cur.busyMillis) {
			sample.BusyPercentage += metrics.BusyPercentage(prev.busyMillis, cur.busyMillis, elapsed)
		}
	}

	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("sample %s: %w", family, err)
	}
	return &sample, nil
}

func (s *Sampler) counterOK(device, counter string, start, end uint64) bool {
	if _, ok := metrics.CounterDelta(start, end); ok {
		return true
	}
	s.logger.Info("Disk counter went backwards, skipping device for this window",
		"device", device,
		"counter", counter,
		"start", start,
		"end", end,
	)
	s.reporter.CounterReset(metrics.FamilyIOWait)
	return false
}

// diskSnapshot reads the counters of every monitored whole disk.
func (s *Sampler) diskSnapshot(ctx context.Context) (map[string]diskCounters, error) {
	counters, err := diskIOCounters(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]diskCounters, len(counters))
	for name := range counters {
		c := counters[name]
		if !s.disks.allows(name) {
			continue
		}
		if !s.disks.explicit(name) && !isWholeDisk(name) {
			continue
		}
		out[name] = diskCounters{
			readBytes:  c.ReadBytes,
			writeBytes: c.WriteBytes,
			busyMillis: c.IoTime,
		}
	}
	return out, nil
}

func sortedDevices(m map[string]diskCounters) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
