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

package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

// Dependency injection points for testing
var (
	diskPartitions = disk.PartitionsWithContext
	diskUsage      = disk.UsageWithContext
	diskIOCounters = disk.IOCountersWithContext
	netInterfaces  = net.InterfacesWithContext
)

// Filesystem is a mounted partition.
type Filesystem struct {
	Device      string
	Mountpoint  string
	Fstype      string
	Total       uint64
	UsedPercent float64
}

// Interface is a network interface with at least one address.
type Interface struct {
	Name      string
	MAC       string
	Addresses []string
}

// Inventory is what the host offers for include/exclude filters. IODevices are
// the names the disk I/O sampler sees, which are not always the partition devices.
type Inventory struct {
	Filesystems []Filesystem
	IODevices   []string
	Interfaces  []Interface
}

// Discover lists filesystems, block devices and network interfaces. A failing
// source leaves its section empty; the errors are joined.
func Discover(ctx context.Context) (Inventory, error) {
	var inv Inventory
	var errs []error

	parts, err := diskPartitions(ctx, false)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing partitions: %w", err))
	}
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if _, dup := seen[p.Device]; dup {
			continue
		}
		seen[p.Device] = struct{}{}
		fs := Filesystem{Device: p.Device, Mountpoint: p.Mountpoint, Fstype: p.Fstype}
		if u, err := diskUsage(ctx, p.Mountpoint); err == nil {
			fs.Total = u.Total
			fs.UsedPercent = u.UsedPercent
		}
		inv.Filesystems = append(inv.Filesystems, fs)
	}
	slices.SortFunc(inv.Filesystems, func(a, b Filesystem) int { return strings.Compare(a.Device, b.Device) })

	counters, err := diskIOCounters(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing block devices: %w", err))
	}
	for name := range counters {
		inv.IODevices = append(inv.IODevices, name)
	}
	slices.Sort(inv.IODevices)

	ifaces, err := netInterfaces(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing network interfaces: %w", err))
	}
	for _, iface := range ifaces {
		if len(iface.Addrs) == 0 {
			continue
		}
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Addr)
		}
		inv.Interfaces = append(inv.Interfaces, Interface{Name: iface.Name, MAC: iface.HardwareAddr, Addresses: addrs})
	}
	slices.SortFunc(inv.Interfaces, func(a, b Interface) int { return strings.Compare(a.Name, b.Name) })

	return inv, errors.Join(errs...)
}

// Write prints the inventory as aligned tables.
func (inv Inventory) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "FILESYSTEM\tMOUNTPOINT\tTYPE\tSIZE\tUSED")
	for _, fs := range inv.Filesystems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\n", fs.Device, fs.Mountpoint, fs.Fstype, FormatBytes(fs.Total), fs.UsedPercent)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "BLOCK DEVICE (--include-disks / --exclude-disks)")
	for _, d := range inv.IODevices {
		fmt.Fprintln(tw, d)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "INTERFACE (--include-networks / --exclude-networks)\tMAC\tADDRESSES")
	for _, iface := range inv.Interfaces {
		mac := iface.MAC
		if mac == "" {
			mac = "N/A"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", iface.Name, mac, strings.Join(iface.Addresses, ", "))
	}

	return tw.Flush()
}

// FormatBytes converts bytes to a human-readable IEC size.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
