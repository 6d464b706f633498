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
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/phuonguno98/hostscope/internal/config"
	"github.com/phuonguno98/hostscope/internal/telemetry"
	"github.com/phuonguno98/hostscope/pkg/metrics"
	"github.com/phuonguno98/hostscope/pkg/proctree"
)

// Persister stores samples. *store.Store implements it.
type Persister interface {
	AppendSystem(ctx context.Context, s *metrics.SystemSample) error
	AppendMemory(ctx context.Context, s *metrics.MemorySample) error
	AppendIOWait(ctx context.Context, s *metrics.IOWaitSample) error
	AppendProcessIO(ctx context.Context, s *metrics.ProcessIOSample) error
	Trim(ctx context.Context, family metrics.Family, keep int) (int64, error)
}

// errNothingToStore marks a sample that was taken but produced no rows.
var errNothingToStore = errors.New("nothing to store")

// Outcome is what happened to one family in one cycle.
type Outcome string

const (
	OutcomeStored        Outcome = "stored"
	OutcomeEmpty         Outcome = "empty"
	OutcomeUnavailable   Outcome = "unavailable"
	OutcomeSampleFailed  Outcome = "sample_failed"
	OutcomePersistFailed Outcome = "persist_failed"
)

// Cycle summarizes one collection cycle.
type Cycle struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Outcomes map[metrics.Family]Outcome
	// Processes is the number of nodes in the process tree, 0 when it could not be built.
	Processes int
}

// Manager runs the collection cycle once per interval: sample every family in
// turn, persist each successful sample immediately, and rebuild the process
// tree. No family's failure stops the others, and no cycle's failure stops
// the loop.
type Manager struct {
	config   *config.Config
	sampler  *Sampler
	store    Persister
	reporter telemetry.Reporter
	ticker   *time.Ticker
	logger   *slog.Logger

	tree atomic.Pointer[proctree.Tree]
}

// NewManager creates a new collector manager instance.
func NewManager(cfg *config.Config, sampler *Sampler, store Persister, reporter telemetry.Reporter, logger *slog.Logger) *Manager {
	if reporter == nil {
		reporter = telemetry.NoopReporter{}
	}
	return &Manager{
		config:   cfg,
		sampler:  sampler,
		store:    store,
		reporter: reporter,
		logger:   logger,
	}
}

// Start runs a first cycle right away, then one per interval until ctx is done.
// A cycle that overruns the interval delays the next tick; cycles never overlap.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("Starting collector manager",
		"interval", m.config.SamplingInterval,
		"cpu_window", m.config.CPUWindow,
		"io_window", m.config.IOWindow,
		"retention_rows", m.config.RetentionRows,
	)

	m.CollectOnce(ctx)

	m.ticker = time.NewTicker(m.config.SamplingInterval)
	defer m.ticker.Stop()

	m.logger.Info("Collector manager started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Collector manager stopping...")
			return nil

		case <-m.ticker.C:
			m.CollectOnce(ctx)
		}
	}
}

// CollectOnce performs a single collection cycle. Families run sequentially:
// the CPU and disk windows are themselves the measurement.
func (m *Manager) CollectOnce(ctx context.Context) Cycle {
	cycle := Cycle{
		ID:       uuid.NewString(),
		Started:  time.Now(),
		Outcomes: make(map[metrics.Family]Outcome, len(metrics.Families())),
	}
	logger := m.logger.With("cycle_id", cycle.ID)

	steps := []struct {
		family metrics.Family
		run    func(context.Context) (stored bool, err error)
	}{
		{metrics.FamilySystem, func(ctx context.Context) (bool, error) {
			s, err := m.sampler.SampleSystem(ctx)
			if err != nil {
				return false, err
			}
			return true, m.store.AppendSystem(ctx, s)
		}},
		{metrics.FamilyMemory, func(ctx context.Context) (bool, error) {
			s, err := m.sampler.SampleMemory(ctx)
			if err != nil {
				return false, err
			}
			return true, m.store.AppendMemory(ctx, s)
		}},
		{metrics.FamilyIOWait, func(ctx context.Context) (bool, error) {
			s, err := m.sampler.SampleIOWait(ctx, m.sampler.IOWindow())
			if err != nil {
				return false, err
			}
			return true, m.store.AppendIOWait(ctx, s)
		}},
		{metrics.FamilyProcessIO, func(ctx context.Context) (bool, error) {
			s, err := m.sampler.SampleProcessIO(ctx)
			if err != nil {
				return false, err
			}
			if len(s.Processes) == 0 {
				return true, errNothingToStore
			}
			return true, m.store.AppendProcessIO(ctx, s)
		}},
	}

	for _, step := range steps {
		if ctx.Err() != nil {
			logger.Debug("Cycle interrupted", "at", step.family)
			return m.finish(cycle)
		}
		sampled, err := step.run(ctx)
		cycle.Outcomes[step.family] = m.account(ctx, logger, step.family, sampled, err)
	}

	if ctx.Err() == nil {
		cycle.Processes = m.refreshTree(ctx, logger)
	}

	return m.finish(cycle)
}

// account logs and counts the result of one family. Unavailable is expected
// and logged at debug; sample failures at warn. Persistence failures are
// logged by the store.
func (m *Manager) account(ctx context.Context, logger *slog.Logger, family metrics.Family, sampled bool, err error) Outcome {
	switch {
	case !sampled && metrics.IsUnavailable(err):
		logger.Debug("Family unavailable this cycle", "family", family, "reason", err)
		m.reporter.SampleUnavailable(family)
		return OutcomeUnavailable

	case !sampled:
		if errors.Is(err, context.Canceled) {
			return OutcomeUnavailable
		}
		logger.Warn("Failed to sample family", "family", family, "error", err)
		m.reporter.SampleFailed(family)
		return OutcomeSampleFailed

	case errors.Is(err, errNothingToStore):
		logger.Debug("Sample had nothing to store", "family", family)
		m.reporter.SampleCollected(family)
		return OutcomeEmpty

	case err != nil:
		m.reporter.SampleCollected(family)
		m.reporter.PersistFailed(family)
		return OutcomePersistFailed
	}

	m.reporter.SampleCollected(family)
	m.reporter.SampleStored(family)

	if keep := m.config.RetentionRows; keep > 0 {
		// Trim errors are already logged by the store.
		_, _ = m.store.Trim(ctx, family, keep)
	}
	return OutcomeStored
}

// refreshTree rebuilds the process hierarchy. It is kept in memory only.
func (m *Manager) refreshTree(ctx context.Context, logger *slog.Logger) int {
	nodes, err := m.sampler.SampleProcesses(ctx)
	if err != nil {
		logger.Warn("Failed to list processes", "error", err)
		return 0
	}
	tree, err := proctree.Build(nodes)
	if err != nil {
		logger.Warn("Failed to build process tree", "error", err)
		return 0
	}
	m.tree.Store(tree)

	if len(tree.Fragments) > 0 {
		logger.Debug("Process tree fragments reparented under root",
			"root", tree.Root.PID,
			"fragments", tree.Fragments,
		)
	}
	return tree.Len()
}

func (m *Manager) finish(cycle Cycle) Cycle {
	cycle.Duration = time.Since(cycle.Started)
	m.reporter.CycleFinished(cycle.Duration)

	m.logger.Debug("Collection cycle finished",
		"cycle_id", cycle.ID,
		"duration", cycle.Duration,
		"outcomes", cycle.Outcomes,
		"processes", cycle.Processes,
	)
	if cycle.Duration > m.config.SamplingInterval {
		m.logger.Warn("Collection cycle overran the interval",
			"cycle_id", cycle.ID,
			"duration", cycle.Duration,
			"interval", m.config.SamplingInterval,
		)
	}
	return cycle
}

// Tree returns the process tree of the last cycle, or nil before the first one.
func (m *Manager) Tree() *proctree.Tree {
	return m.tree.Load()
}

// Stop gracefully stops the collector manager.
func (m *Manager) Stop() {
	if m.ticker != nil {
		m.ticker.Stop()
	}
	m.logger.Info("Collector manager stopped")
}
