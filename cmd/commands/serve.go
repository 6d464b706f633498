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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phuonguno98/hostscope/internal/collector"
	"github.com/phuonguno98/hostscope/internal/config"
	"github.com/phuonguno98/hostscope/internal/server"
	"github.com/phuonguno98/hostscope/pkg/proctree"
)

var (
	// Serve command specific flags
	listenAddr string
	queryLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored metrics and the live process tree over HTTP",
	Long: `Start a read-only JSON API over the metric database.

Endpoints:
  GET /api/families                 families, tables and row counts
  GET /api/metrics/{family}?limit=N newest samples first
  GET /api/processes/tree           live process hierarchy
  GET /api/version                  build information
  GET /metrics                      Prometheus self-metrics

Examples:
  # Serve on the default address
  hostscope serve

  # Localhost only
  hostscope serve --listen 127.0.0.1:3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd.Flags())
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&listenAddr, "listen", "l", config.DefaultListen, "HTTP listen address")
	fs.IntVar(&queryLimit, "query-limit", config.DefaultQueryLimit,
		"Samples returned when a request has no limit parameter")
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("listen") {
		cfg.Listen = listenAddr
	}
	if fs.Changed("query-limit") {
		cfg.QueryLimit = queryLimit
	}
}

// liveTree builds the process tree from a fresh process listing.
func liveTree(sampler *collector.Sampler) server.TreeSource {
	return func(ctx context.Context) (*proctree.Tree, error) {
		nodes, err := sampler.SampleProcesses(ctx)
		if err != nil {
			return nil, err
		}
		return proctree.Build(nodes)
	}
}

func newServer(cfg *config.Config, p *pipeline, trees server.TreeSource, logger *slog.Logger) *server.Server {
	return server.NewServer(p.store, trees, server.Options{
		DefaultLimit: cfg.QueryLimit,
		Metrics:      p.reporter.Handler(),
	}, logger)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Listen == "" {
		return errors.New("invalid configuration: listen address cannot be empty")
	}

	logger := InitLogger(cfg.LogLevel, cfg.LogFile)
	startupLog(logger, cfg)

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open metric store: %w", err)
	}
	defer p.close(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	srv := newServer(cfg, p, liveTree(p.sampler), logger)
	return srv.ListenAndServe(ctx, cfg.Listen)
}
