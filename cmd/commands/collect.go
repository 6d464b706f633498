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

package commands

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phuonguno98/hostscope/internal/collector"
	"github.com/phuonguno98/hostscope/internal/config"
	"github.com/phuonguno98/hostscope/internal/platform"
	"github.com/phuonguno98/hostscope/internal/store"
	"github.com/phuonguno98/hostscope/internal/telemetry"
	"github.com/phuonguno98/hostscope/pkg/metrics"
	"github.com/phuonguno98/hostscope/pkg/version"
)

var (
	// Collect command specific flags
	samplingInterval time.Duration
	cpuWindow        time.Duration
	ioWindow         time.Duration
	sampleTimeout    time.Duration
	diskPath         string
	includeDisks     string
	excludeDisks     string
	includeNetworks  string
	excludeNetworks  string
	topProcesses     int
	retentionRows    int
	collectOnce      bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Start sampling host metrics into the database",
	Long: `Sample every metric family once per interval and append the readings to the
SQLite database. Families the platform does not support are skipped.

Examples:
  # Run in foreground with default settings
  hostscope collect

  # Custom interval, database and filters
  hostscope collect --interval 10s --db /var/lib/hostscope/metrics.db --include-disks "sda,nvme0n1"

  # Take a single reading and exit
  hostscope collect --once`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	addCollectFlags(collectCmd.Flags())
	collectCmd.Flags().BoolVar(&collectOnce, "once", false, "Run a single collection cycle and exit")
}

func addCollectFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&samplingInterval, "interval", config.DefaultSamplingInterval,
		"Sampling interval (e.g., 5s, 30s, 1m)")
	fs.DurationVar(&cpuWindow, "cpu-window", config.DefaultCPUWindow,
		"CPU utilization measurement window")
	fs.DurationVar(&ioWindow, "io-window", config.DefaultIOWindow,
		"Disk throughput measurement window")
	fs.DurationVar(&sampleTimeout, "sample-timeout", config.DefaultSampleTimeout,
		"Deadline for a single family reading, window included")
	fs.StringVar(&diskPath, "disk-path", config.DefaultDiskPath,
		"Filesystem path whose usage is reported")

	// Filter flags
	fs.StringVar(&includeDisks, "include-disks", "",
		"Comma-separated list of disk devices to monitor (empty = all)")
	fs.StringVar(&excludeDisks, "exclude-disks", "",
		"Comma-separated list of disk devices to exclude")
	fs.StringVar(&includeNetworks, "include-networks", "",
		"Comma-separated list of network interfaces to monitor (empty = all)")
	fs.StringVar(&excludeNetworks, "exclude-networks", "",
		"Comma-separated list of network interfaces to exclude")

	fs.IntVar(&topProcesses, "top-processes", config.DefaultTopProcesses,
		"Number of processes kept in each process I/O sample")
	fs.IntVar(&retentionRows, "retention-rows", 0,
		"Keep only the newest N samples per family (0 = keep everything)")
}

func applyCollectFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("interval") {
		cfg.SamplingInterval = samplingInterval
	}
	if fs.Changed("cpu-window") {
		cfg.CPUWindow = cpuWindow
	}
	if fs.Changed("io-window") {
		cfg.IOWindow = ioWindow
	}
	if fs.Changed("sample-timeout") {
		cfg.SampleTimeout = sampleTimeout
	}
	if fs.Changed("disk-path") {
		cfg.DiskPath = diskPath
	}
	if fs.Changed("include-disks") {
		cfg.IncludeDisks = config.ParseCommaSeparated(includeDisks)
	}
	if fs.Changed("exclude-disks") {
		cfg.ExcludeDisks = config.ParseCommaSeparated(excludeDisks)
	}
	if fs.Changed("include-networks") {
		cfg.IncludeNetworks = config.ParseCommaSeparated(includeNetworks)
	}
	if fs.Changed("exclude-networks") {
		cfg.ExcludeNetworks = config.ParseCommaSeparated(excludeNetworks)
	}
	if fs.Changed("top-processes") {
		cfg.TopProcesses = topProcesses
	}
	if fs.Changed("retention-rows") {
		cfg.RetentionRows = retentionRows
	}
}

// pipeline holds the components shared by collect, serve and run.
type pipeline struct {
	caps     platform.Capabilities
	store    *store.Store
	reporter *telemetry.PrometheusReporter
	sampler  *collector.Sampler
	manager  *collector.Manager
}

func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	caps := platform.Host()
	caps.Log(logger)

	st, err := store.Open(cfg.DBPath, caps, logger)
	if err != nil {
		return nil, err
	}

	reporter := telemetry.NewPrometheusReporter()
	sampler := collector.NewSampler(cfg, caps, reporter, logger)

	return &pipeline{
		caps:     caps,
		store:    st,
		reporter: reporter,
		sampler:  sampler,
		manager:  collector.NewManager(cfg, sampler, st, reporter, logger),
	}, nil
}

func (p *pipeline) close(logger *slog.Logger) {
	if err := p.store.Close(); err != nil {
		logger.Error("Failed to close metric store", "error", err)
	}
}

func startupLog(logger *slog.Logger, cfg *config.Config) {
	logger.Info("Starting HostScope",
		"version", version.Info(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
	)
	logger.Info("Configuration loaded", "config", cfg.String())
}

// runCollect is the main sampling entry point.
func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)
	startupLog(logger, cfg)

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start collector: %w", err)
	}
	defer p.close(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	if collectOnce {
		cycle := p.manager.CollectOnce(ctx)
		for _, family := range metrics.Families() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", family, cycle.Outcomes[family])
		}
		return nil
	}

	logger.Info("HostScope is collecting", "db", cfg.DBPath)

	// Blocks until the context is cancelled
	if err := p.manager.Start(ctx); err != nil {
		logger.Error("Collector manager stopped with error", "error", err)
	}
	p.manager.Stop()

	logger.Info("Shutdown complete")
	return nil
}
