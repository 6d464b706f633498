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
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// OS access goes through these variables so tests can replace them.
var (
	cpuPercent     = cpu.PercentWithContext
	virtualMemory  = mem.VirtualMemoryWithContext
	swapMemory     = mem.SwapMemoryWithContext
	diskUsage      = disk.UsageWithContext
	diskIOCounters = disk.IOCountersWithContext
	netIOCounters  = net.IOCountersWithContext
	listProcesses  = listOSProcesses
	isWholeDisk    = wholeDisk

	now  = time.Now
	wait = sleepContext
)

// osProcess is the part of a process handle the samplers read.
type osProcess interface {
	PID() int32
	NameWithContext(ctx context.Context) (string, error)
	PpidWithContext(ctx context.Context) (int32, error)
	TimesWithContext(ctx context.Context) (*cpu.TimesStat, error)
}

type gopsProcess struct {
	*process.Process
}

func (p gopsProcess) PID() int32 { return p.Pid }

func listOSProcesses(ctx context.Context) ([]osProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]osProcess, 0, len(procs))
	for _, p := range procs {
		out = append(out, gopsProcess{p})
	}
	return out, nil
}

// wholeDisk reports whether a block device is a whole disk rather than a
// partition, so partitions are not counted twice. Only Linux exposes the
// distinction through /sys/block.
func wholeDisk(name string) bool {
	if runtime.GOOS != "linux" {
		return true
	}
	_, err := os.Stat(filepath.Join("/sys/block", name))
	return err == nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processGone reports whether a per-process read failed because the process
// exited or is not ours to read. Such processes are skipped.
func processGone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission)
}

// notImplemented matches gopsutil's "not implemented yet" error, whose
// sentinel lives in an internal package.
func notImplemented(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not implemented")
}
