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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/hostscope/internal/exporter"
	"github.com/phuonguno98/hostscope/internal/platform"
	"github.com/phuonguno98/hostscope/internal/store"
	"github.com/phuonguno98/hostscope/pkg/metrics"
)

var (
	// Export command specific flags
	exportFamily string
	exportLimit  int
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored samples of one family to CSV",
	Long: `Write the newest samples of a metric family as CSV, newest first.
Families: system, memory, io_wait, process_io (table names are accepted too).

Examples:
  # Last 100 system samples to stdout
  hostscope export --family system

  # Last 1000 process I/O samples to a file, timestamps in local time
  hostscope export --family process_io --limit 1000 -o procio.csv --timezone Local`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFamily, "family", "f", string(metrics.FamilySystem), "Metric family to export")
	exportCmd.Flags().IntVarP(&exportLimit, "limit", "n", 100, "Maximum number of samples")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output CSV file path (default: stdout)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	family, err := metrics.ParseFamily(exportFamily)
	if err != nil {
		return err
	}

	// Keep stdout clean for the CSV.
	logger := InitLogger(cfg.LogLevel, cfg.LogFile)
	if exportOutput == "" && cfg.LogFile == "" {
		logger = InitLogger("error", "")
	}

	st, err := store.Open(cfg.DBPath, platform.Host(), logger)
	if err != nil {
		return fmt.Errorf("failed to open metric store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close metric store", "error", err)
		}
	}()

	exp := exporter.NewCSVExporter(cfg.Location(), logger)
	ctx := context.Background()

	if exportOutput == "" {
		_, err = exp.Export(ctx, st, family, exportLimit, cmd.OutOrStdout())
		return err
	}

	n, err := exp.ExportFile(ctx, st, family, exportLimit, exportOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", n, exportOutput)
	return nil
}
