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
	"os"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/hostscope/internal/platform"
)

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List available disk devices and network interfaces",
	Long: `List mounted filesystems, block devices and network interfaces on the system.
This helps to configure include/exclude filters accurately.

Examples:
  # List all available devices
  hostscope list-devices

  # Use the output to configure filters
  hostscope collect --include-disks="sda" --exclude-networks="docker0"`,
	RunE: runListDevices,
}

func init() {
	rootCmd.AddCommand(listDevicesCmd)
}

func runListDevices(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "   HostScope - Available Devices")
	fmt.Fprintln(out, "========================================")

	inv, err := platform.Discover(context.Background())
	if err != nil {
		// Partial results are still worth printing.
		fmt.Fprintf(os.Stderr, "Error listing devices: %v\n", err)
	}
	if err := inv.Write(out); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nExample usage:")
	if len(inv.IODevices) > 0 {
		fmt.Fprintf(out, "  hostscope collect --include-disks=\"%s\"\n", inv.IODevices[0])
	}
	if len(inv.Interfaces) > 0 {
		fmt.Fprintf(out, "  hostscope collect --exclude-networks=\"%s\"\n", inv.Interfaces[0].Name)
	}

	fmt.Fprintln(out, "\nNotes:")
	fmt.Fprintln(out, "  - Use comma to separate multiple devices: --exclude-disks=\"dev1,dev2\"")
	fmt.Fprintln(out, "  - Exclude filters take priority over include filters")
	fmt.Fprintln(out, "  - Empty include list means monitor all devices (except excluded)")
	fmt.Fprintln(out, "  - Partitions are only counted for disk I/O when listed explicitly")
	fmt.Fprintln(out, "  - Loopback interfaces are only counted when listed in --include-networks")
	fmt.Fprintln(out)

	return nil
}
