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
	"slices"
	"strings"
)

// deviceFilter applies include/exclude lists to device or interface names.
type deviceFilter struct {
	include []string // empty = all
	exclude []string
}

// normalizeDeviceName strips /dev/ prefix from device names for consistent comparison.
// This allows users to specify devices as shown in list-devices (/dev/sdd)
// while internally matching against disk.IOCounters() format (sdd).
func normalizeDeviceName(name string) string {
	return strings.TrimPrefix(name, "/dev/")
}

func newDiskFilter(include, exclude []string) deviceFilter {
	norm := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, d := range in {
			out = append(out, normalizeDeviceName(d))
		}
		return out
	}
	return deviceFilter{include: norm(include), exclude: norm(exclude)}
}

func newInterfaceFilter(include, exclude []string) deviceFilter {
	return deviceFilter{include: include, exclude: exclude}
}

// allows checks the exclude list first, then the include list.
func (f deviceFilter) allows(name string) bool {
	if slices.Contains(f.exclude, name) {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	return slices.Contains(f.include, name)
}

// explicit reports whether name was listed in the include list.
func (f deviceFilter) explicit(name string) bool {
	return slices.Contains(f.include, name)
}

// isLoopback checks if an interface is a loopback interface.
func isLoopback(name string) bool {
	switch name {
	case "lo", "lo0", "Loopback":
		return true
	}
	return strings.HasPrefix(name, "Loopback Pseudo-Interface")
}
