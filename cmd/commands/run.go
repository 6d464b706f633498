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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phuonguno98/hostscope/pkg/proctree"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect metrics and serve them from one process",
	Long: `Run the collector loop and the HTTP API together. The API serves the process
tree built by the latest collection cycle. Stopping either one stops both.

Examples:
  hostscope run --interval 10s --listen 127.0.0.1:8080`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addCollectFlags(runCmd.Flags())
	addServeFlags(runCmd.Flags())
}

func runRun(cmd *cobra.Command, _ []string) error {
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
		return fmt.Errorf("failed to start: %w", err)
	}
	defer p.close(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	live := liveTree(p.sampler)
	trees := func(ctx context.Context) (*proctree.Tree, error) {
		if t := p.manager.Tree(); t != nil {
			return t, nil
		}
		return live(ctx)
	}
	srv := newServer(cfg, p, trees, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer p.manager.Stop()
		return p.manager.Start(gctx)
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Listen)
	})

	err = g.Wait()
	logger.Info("Shutdown complete")
	return err
}
