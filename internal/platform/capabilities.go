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

// Package platform decides once, at start-up, which metric facilities the host
// exposes, and lists the devices the collectors can be filtered on.
package platform

import (
	"log/slog"
	"runtime"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

const (
	osLinux   = "linux"
	osDarwin  = "darwin"
	osWindows = "windows"
	osFreeBSD = "freebsd"
	osOpenBSD = "openbsd"
)

// Capabilities lists the optional OS facilities the samplers rely on.
type Capabilities struct {
	OS string

	// MemoryCached and MemoryBuffers report whether the page cache and buffer
	// sizes are exposed. When false the samples carry metrics.Unsupported.
	MemoryCached  bool
	MemoryBuffers bool

	// DiskBusyTime reports whether block devices expose cumulative busy time.
	// Without it the busy percentage is reported as 0.
	DiskBusyTime bool

	// ProcessIOWait reports whether per-process I/O wait time is exposed.
	// Without it the process I/O family is unavailable and its table is never created.
	ProcessIOWait bool
}

// Detect returns the capabilities of the given GOOS.
func Detect(goos string) Capabilities {
	c := Capabilities{OS: goos}
	switch goos {
	case osLinux:
		c.MemoryCached = true
		c.MemoryBuffers = true
		c.DiskBusyTime = true
		c.ProcessIOWait = true
	case osFreeBSD, osOpenBSD:
		c.MemoryCached = true
		c.MemoryBuffers = true
	}
	return c
}

// Host returns the capabilities of the running host.
func Host() Capabilities {
	return Detect(runtime.GOOS)
}

// Supports reports whether the family can be collected at all on this host.
func (c Capabilities) Supports(f metrics.Family) bool {
	if f == metrics.FamilyProcessIO {
		return c.ProcessIOWait
	}
	return true
}

// Log writes the capability summary, one warning per missing facility.
func (c Capabilities) Log(logger *slog.Logger) {
	logger.Info("Platform capabilities",
		"os", c.OS,
		"memory_cached", c.MemoryCached,
		"memory_buffers", c.MemoryBuffers,
		"disk_busy_time", c.DiskBusyTime,
		"process_io_wait", c.ProcessIOWait,
	)
	if !c.ProcessIOWait {
		logger.Warn("Per-process I/O wait is not exposed on this platform, process I/O family disabled", "os", c.OS)
	}
	if !c.DiskBusyTime {
		logger.Warn("Disk busy time is not exposed on this platform, busy percentage reported as 0", "os", c.OS)
	}
	switch c.OS {
	case osDarwin:
		logger.Info("Running on macOS: disk counters may require Full Disk Access or sudo")
	case osWindows:
		logger.Info("Running on Windows: memory cached/buffers are reported as -1")
	}
}
