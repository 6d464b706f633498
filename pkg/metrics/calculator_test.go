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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRate(t *testing.T) {
	tests := []struct {
		name     string
		start    uint64
		end      uint64
		elapsed  float64
		expected float64
	}{
		{name: "No growth", start: 4096, end: 4096, elapsed: 1, expected: 0},
		{name: "One MiB over two seconds", start: 0, end: 1 << 20, elapsed: 2, expected: 524288},
		{name: "Sub-second window", start: 100, end: 600, elapsed: 0.5, expected: 1000},
		{name: "Counter reset", start: 1000, end: 10, elapsed: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rate(tt.start, tt.end, tt.elapsed)
			if math.Abs(got-tt.expected) > 0.00001 {
				t.Errorf("Rate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRate_MonotoneInDelta(t *testing.T) {
	prev := -1.0
	for delta := uint64(0); delta <= 10_000; delta += 500 {
		got := Rate(1_000, 1_000+delta, 3)
		assert.GreaterOrEqual(t, got, prev, "delta %d", delta)
		prev = got
	}
}

func TestRate_NonPositiveElapsedPanics(t *testing.T) {
	assert.Panics(t, func() { Rate(0, 10, 0) })
	assert.Panics(t, func() { Rate(0, 10, -1) })
	assert.Panics(t, func() { BusyPercentage(0, 10, math.NaN()) })
}

func TestBusyPercentage(t *testing.T) {
	tests := []struct {
		name     string
		start    uint64
		end      uint64
		elapsed  float64
		expected float64
	}{
		{name: "Idle", start: 500, end: 500, elapsed: 1, expected: 0},
		{name: "Fully busy", start: 0, end: 1000, elapsed: 1, expected: 100},
		{name: "Half busy over two seconds", start: 200, end: 1200, elapsed: 2, expected: 50},
		{name: "Several devices, not capped", start: 0, end: 2500, elapsed: 1, expected: 250},
		{name: "Counter reset", start: 9000, end: 3, elapsed: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BusyPercentage(tt.start, tt.end, tt.elapsed)
			if math.Abs(got-tt.expected) > 0.00001 {
				t.Errorf("BusyPercentage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCounterDelta(t *testing.T) {
	d, ok := CounterDelta(10, 25)
	assert.True(t, ok)
	assert.Equal(t, uint64(15), d)

	d, ok = CounterDelta(25, 10)
	assert.False(t, ok)
	assert.Zero(t, d)
}

func TestRankProcessIO(t *testing.T) {
	in := []ProcessIO{
		{Name: "a", IOTime: 5},
		{Name: "b", IOTime: 1},
		{Name: "c", IOTime: 9},
		{Name: "d", IOTime: 3},
		{Name: "e", IOTime: 7},
	}

	got := RankProcessIO(in, DefaultTopProcesses)
	assert.Equal(t, []ProcessIO{
		{Name: "c", IOTime: 9},
		{Name: "e", IOTime: 7},
		{Name: "a", IOTime: 5},
		{Name: "d", IOTime: 3},
		{Name: "b", IOTime: 1},
	}, got)

	// input untouched
	assert.Equal(t, "a", in[0].Name)
}

func TestRankProcessIO_TruncatesAndKeepsTieOrder(t *testing.T) {
	in := []ProcessIO{
		{Name: "first", IOTime: 2},
		{Name: "big", IOTime: 8},
		{Name: "second", IOTime: 2},
		{Name: "third", IOTime: 2},
		{Name: "small", IOTime: 0.5},
		{Name: "fourth", IOTime: 2},
		{Name: "fifth", IOTime: 2},
	}

	got := RankProcessIO(in, 5)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"big", "first", "second", "third", "fourth"}, names)
}

func TestRankProcessIO_Empty(t *testing.T) {
	assert.Empty(t, RankProcessIO(nil, 5))
	assert.Empty(t, RankProcessIO([]ProcessIO{{Name: "x", IOTime: 1}}, 0))
}
