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

import "sort"

// CounterDelta returns end - start for a monotonic counter. ok is false when the counter
// went backwards (reboot, driver reload or wraparound); callers treat that window as a
// discontinuity and restart from the new baseline.
func CounterDelta(start, end uint64) (delta uint64, ok bool) {
	if end < start {
		return 0, false
	}
	return end - start, true
}

// Rate converts two snapshots of a monotonic byte counter into bytes per second.
// Formula: ΔCounter / elapsedSeconds
// elapsedSeconds must be positive. A counter reset yields 0.
func Rate(counterStart, counterEnd uint64, elapsedSeconds float64) float64 {
	mustPositive(elapsedSeconds)
	delta, ok := CounterDelta(counterStart, counterEnd)
	if !ok {
		return 0
	}
	return float64(delta) / elapsedSeconds
}

// BusyPercentage converts two busy-time snapshots (milliseconds) into the share of the
// window a device spent servicing I/O.
// Formula: (ΔBusy_ms / (elapsedSeconds × 1000)) × 100
// The result is not capped at 100 (summed across devices it can legitimately exceed it).
func BusyPercentage(busyMillisStart, busyMillisEnd uint64, elapsedSeconds float64) float64 {
	mustPositive(elapsedSeconds)
	delta, ok := CounterDelta(busyMillisStart, busyMillisEnd)
	if !ok {
		return 0
	}
	return float64(delta) / (elapsedSeconds * 1000.0) * 100.0
}

func mustPositive(elapsedSeconds float64) {
	if !(elapsedSeconds > 0) {
		panic("metrics: elapsed time must be positive")
	}
}

// RankProcessIO orders entries by IOTime, highest first, and keeps at most limit of them.
// Equal times keep their input order. The input slice is not modified.
func RankProcessIO(entries []ProcessIO, limit int) []ProcessIO {
	if limit <= 0 || len(entries) == 0 {
		return []ProcessIO{}
	}
	ranked := make([]ProcessIO, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].IOTime > ranked[j].IOTime
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
