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
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/phuonguno98/hostscope/internal/collector"
	"github.com/phuonguno98/hostscope/internal/config"
	"github.com/phuonguno98/hostscope/internal/platform"
	"github.com/phuonguno98/hostscope/pkg/proctree"
)

var treeJSON bool

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the live process tree",
	Long: `List the running processes and print them as a single tree, parents before
children. Processes whose parent is gone are attached under the root and marked
with '~'.

Examples:
  hostscope tree
  hostscope tree --json`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Print the tree as JSON")
}

func runTree(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.SampleTimeout = 30 * time.Second

	logger := InitLogger("error", logFile)
	sampler := collector.NewSampler(cfg, platform.Host(), nil, logger)

	nodes, err := sampler.SampleProcesses(context.Background())
	if err != nil {
		return err
	}
	tree, err := proctree.Build(nodes)
	if err != nil {
		return err
	}

	return printTree(cmd.OutOrStdout(), tree, treeJSON)
}

func printTree(w io.Writer, tree *proctree.Tree, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}
	if err := tree.Render(w); err != nil {
		return err
	}
	if len(tree.Fragments) > 0 {
		_, err := fmt.Fprintf(w, "\n%d processes, %d reparented under %d\n", tree.Len(), len(tree.Fragments), tree.Root.PID)
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d processes\n", tree.Len())
	return err
}
