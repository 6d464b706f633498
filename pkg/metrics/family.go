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

package metrics

import (
	"fmt"
	"strings"
)

// Family identifies a category of metric with its own schema and table.
type Family string

const (
	FamilySystem    Family = "system"
	FamilyMemory    Family = "memory"
	FamilyIOWait    Family = "io_wait"
	FamilyProcessIO Family = "process_io"
)

// Families returns every persisted family in collection order.
func Families() []Family {
	return []Family{FamilySystem, FamilyMemory, FamilyIOWait, FamilyProcessIO}
}

// Table returns the storage table backing the family.
func (f Family) Table() string {
	switch f {
	case FamilySystem:
		return "system_metrics"
	case FamilyMemory:
		return "memory_metrics"
	case FamilyIOWait:
		return "system_io_wait"
	case FamilyProcessIO:
		return "process_io_wait"
	default:
		return ""
	}
}

// ParseFamily accepts a family name or its table name, case-insensitively.
func ParseFamily(s string) (Family, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range Families() {
		if s == string(f) || s == f.Table() {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown metric family: %q", s)
}
