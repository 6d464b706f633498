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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemSample(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		ts      time.Time
		cpu     float64
		mem     float64
		disk    float64
		wantErr bool
	}{
		{"Valid", now, 12.5, 40, 71.2, false},
		{"Bounds", now, 0, 100, 100, false},
		{"CPU over 100", now, 100.1, 40, 50, true},
		{"Negative memory", now, 10, -1, 50, true},
		{"Disk over 100", now, 10, 10, 101, true},
		{"Missing timestamp", time.Time{}, 10, 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSystemSample(tt.ts, tt.cpu, tt.mem, tt.disk, 1, 2)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSample)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(1), s.NetworkBytesSent)
			assert.Equal(t, uint64(2), s.NetworkBytesRecv)
		})
	}
}

func TestMemorySample_Validate(t *testing.T) {
	base := MemorySample{
		Timestamp: time.Now(),
		Total:     8 << 30, Available: 4 << 30, Used: 3 << 30,
		Cached: Unsupported, Buffers: Unsupported,
		Percent:   50,
		SwapTotal: 2 << 30, SwapUsed: 0, SwapFree: 2 << 30,
	}
	assert.NoError(t, base.Validate())

	bad := base
	bad.Cached = -2
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSample)

	bad = base
	bad.SwapUsed = -1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSample)

	bad = base
	bad.SwapPercent = 120
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSample)
}

func TestIOWaitSample_Validate(t *testing.T) {
	s := IOWaitSample{Timestamp: time.Now(), BusyPercentage: 180}
	assert.NoError(t, s.Validate(), "busy percentage is not clamped")

	s.ReadBytesPerSec = -1
	assert.ErrorIs(t, s.Validate(), ErrInvalidSample)
}

func TestProcessIOSample_Validate(t *testing.T) {
	s := ProcessIOSample{Timestamp: time.Now(), Processes: []ProcessIO{{"a", 3}, {"b", 3}, {"c", 1}}}
	assert.NoError(t, s.Validate())

	s.Processes = []ProcessIO{{"a", 1}, {"b", 3}}
	assert.ErrorIs(t, s.Validate(), ErrInvalidSample)
}

func TestUnavailable(t *testing.T) {
	err := Unavailable(FamilyProcessIO, "not supported on darwin")
	assert.True(t, IsUnavailable(err))
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "process_io")

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, FamilyProcessIO, ue.Family)

	assert.False(t, IsUnavailable(errors.New("boom")))
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families() {
		got, err := ParseFamily(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)

		got, err = ParseFamily(f.Table())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseFamily(" System ")
	require.NoError(t, err)
	assert.Equal(t, FamilySystem, got)

	_, err = ParseFamily("gpu")
	assert.Error(t, err)
	assert.Empty(t, Family("gpu").Table())
}
