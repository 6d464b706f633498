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

// SampleProcessIO ranks live processes by cumulative I/O wait time and keeps
// the top entries. Processes that exit or deny access while being read are
// skipped.
func (s *Sampler) SampleProcessIO(ctx context.Context) (*metrics.ProcessIOSample, error) {
	family := metrics.FamilyProcessIO
	if !s.caps.ProcessIOWait {
		return nil, metrics.Unavailable(family, "per-process I/O wait not exposed on "+s.caps.OS)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	procs, err := listProcesses(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("list processes: %w", err))
	}

	entries := make([]metrics.ProcessIO, 0, len(procs))
	var gone, failed int
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, classify(family, err)
		}

		entry, err := readProcessIO(ctx, p)
		if err == nil {
			entries = append(entries, entry)
			continue
		}
		if processGone(err) {
			gone++
		} else {
			failed++
		}
	}

	if gone+failed > 0 {
		s.logger.Debug("Skipped processes while reading I/O wait",
			"family", family,
			"gone_or_denied", gone,
			"other_errors", failed,
			"read", len(entries),
		)
	}

	sample := metrics.ProcessIOSample{
		Timestamp: now(),
		Processes: metrics.RankProcessIO(entries, s.topN),
	}
	return &sample, nil
}

// readProcessIO returns the process name and its I/O wait in seconds. On Linux
// this is the delay accounting block I/O time.
func readProcessIO(ctx context.Context, p osProcess) (metrics.ProcessIO, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return metrics.ProcessIO{}, err
	}
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return metrics.ProcessIO{}, err
	}
	return metrics.ProcessIO{Name: name, IOTime: times.Iowait}, nil
}

// SampleProcesses lists (pid, name, parent pid) for every visible process.
// Processes that exit or deny access are skipped silently.
func (s *Sampler) SampleProcesses(ctx context.Context) ([]metrics.ProcessNode, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	procs, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	nodes := make([]metrics.ProcessNode, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		nodes = append(nodes, metrics.ProcessNode{PID: p.PID(), Name: name, PPID: ppid})
	}
	return nodes, nil
}
