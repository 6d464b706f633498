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

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// SampleSystem reads CPU utilization over the CPU window, memory and disk
// usage percentages, and the cumulative network counters.
func (s *Sampler) SampleSystem(ctx context.Context) (*metrics.SystemSample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	family := metrics.FamilySystem

	// Blocks for the whole window.
	percents, err := cpuPercent(ctx, s.cpuWindow, false)
	if err != nil {
		return nil, classify(family, fmt.Errorf("cpu percent: %w", err))
	}
	if len(percents) == 0 {
		return nil, classify(family, fmt.Errorf("no CPU percent available"))
	}
	cpuUtil := clampPercent(percents[0])

	vm, err := virtualMemory(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("virtual memory: %w", err))
	}

	usage, err := diskUsage(ctx, s.diskPath)
	if err != nil {
		return nil, classify(family, fmt.Errorf("disk usage %s: %w", s.diskPath, err))
	}

	sent, recv, err := s.networkTotals(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("network counters: %w", err))
	}

	sample, err := metrics.NewSystemSample(now(), cpuUtil, clampPercent(vm.UsedPercent), clampPercent(usage.UsedPercent), sent, recv)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", family, err)
	}
	return &sample, nil
}

// networkTotals sums the counters of every monitored interface. Loopback
// traffic is left out unless the interface is listed in the include list.
func (s *Sampler) networkTotals(ctx context.Context) (sent, recv uint64, err error) {
	counters, err := netIOCounters(ctx, true)
	if err != nil {
		return 0, 0, err
	}

	for _, c := range counters {
		if isLoopback(c.Name) && !s.interfaces.explicit(c.Name) {
			continue
		}
		if !s.interfaces.allows(c.Name) {
			continue
		}
		sent += c.BytesSent
		recv += c.BytesRecv
	}
	return sent, recv, nil
}

// clampPercent absorbs rounding drift just outside [0, 100].
func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
