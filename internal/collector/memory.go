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
	"fmt"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

// SampleMemory reads virtual memory and swap. Cached and buffers carry
// metrics.Unsupported on hosts that do not expose them.
func (s *Sampler) SampleMemory(ctx context.Context) (*metrics.MemorySample, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	family := metrics.FamilyMemory

	vm, err := virtualMemory(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("virtual memory: %w", err))
	}
	if vm.Total == 0 {
		return nil, classify(family, fmt.Errorf("total memory is zero"))
	}

	swap, err := swapMemory(ctx)
	if err != nil {
		return nil, classify(family, fmt.Errorf("swap memory: %w", err))
	}

	sample := metrics.MemorySample{
		Timestamp:   now(),
		Total:       int64(vm.Total),
		Available:   int64(vm.Available),
		Used:        int64(vm.Used),
		Cached:      metrics.Unsupported,
		Buffers:     metrics.Unsupported,
		Percent:     clampPercent(vm.UsedPercent),
		SwapTotal:   int64(swap.Total),
		SwapUsed:    int64(swap.Used),
		SwapFree:    int64(swap.Free),
		SwapPercent: clampPercent(swap.UsedPercent),
	}
	if s.caps.MemoryCached {
		sample.Cached = int64(vm.Cached)
	}
	if s.caps.MemoryBuffers {
		sample.Buffers = int64(vm.Buffers)
	}

	if err := sample.Validate(); err != nil {
		return nil, fmt.Errorf("sample %s: %w", family, err)
	}
	return &sample, nil
}
