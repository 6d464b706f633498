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

// Package collector samples host metrics and drives the periodic
// collect-and-persist cycle.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/phuonguno98/hostscope/internal/config"
	"github.com/phuonguno98/hostscope/internal/platform"
	"github.com/phuonguno98/hostscope/internal/telemetry"
	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// Sampler takes one reading per metric family. Each operation returns either
// a sample or an error; errors for which metrics.IsUnavailable holds mean
// "skip this family this cycle".
type Sampler struct {
	caps       platform.Capabilities
	diskPath   string
	cpuWindow  time.Duration
	ioWindow   time.Duration
	timeout    time.Duration
	topN       int
	disks      deviceFilter
	interfaces deviceFilter
	reporter   telemetry.Reporter
	logger     *slog.Logger
}

// NewSampler creates a sampler from the configuration and host capabilities.
func NewSampler(cfg *config.Config, caps platform.Capabilities, reporter telemetry.Reporter, logger *slog.Logger) *Sampler {
	if reporter == nil {
		reporter = telemetry.NoopReporter{}
	}
	topN := cfg.TopProcesses
	if topN <= 0 {
		topN = metrics.DefaultTopProcesses
	}
	return &Sampler{
		caps:       caps,
		diskPath:   cfg.DiskPath,
		cpuWindow:  cfg.CPUWindow,
		ioWindow:   cfg.IOWindow,
		timeout:    cfg.SampleTimeout,
		topN:       topN,
		disks:      newDiskFilter(cfg.IncludeDisks, cfg.ExcludeDisks),
		interfaces: newInterfaceFilter(cfg.IncludeNetworks, cfg.ExcludeNetworks),
		reporter:   reporter,
		logger:     logger,
	}
}

// IOWindow returns the configured disk measurement window.
func (s *Sampler) IOWindow() time.Duration {
	return s.ioWindow
}

// withTimeout bounds a single sample operation.
func (s *Sampler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps an OS-call error to Unavailable when it reflects a missing
// facility, a denied permission or an expired measurement window. Anything else
// is a sample failure. Cancellation of the parent context is passed through.
func classify(family metrics.Family, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.Unavailable(family, "deadline exceeded during measurement")
	case errors.Is(err, os.ErrPermission):
		return metrics.Unavailable(family, "permission denied")
	case notImplemented(err):
		return metrics.Unavailable(family, "not implemented on this platform")
	}
	return fmt.Errorf("sample %s: %w", family, err)
}
