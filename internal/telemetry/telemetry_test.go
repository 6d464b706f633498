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

package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuonguno98/hostscope/pkg/metrics"
)

func TestPrometheusReporter_Counts(t *testing.T) {
	pr := NewPrometheusReporter()

	pr.SampleCollected(metrics.FamilySystem)
	pr.SampleCollected(metrics.FamilySystem)
	pr.SampleUnavailable(metrics.FamilyProcessIO)
	pr.SampleFailed(metrics.FamilyMemory)
	pr.SampleStored(metrics.FamilySystem)
	pr.PersistFailed(metrics.FamilyIOWait)
	pr.CounterReset(metrics.FamilyIOWait)
	pr.CycleFinished(1500 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.samples.WithLabelValues("system", outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.samples.WithLabelValues("process_io", outcomeUnavailable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.samples.WithLabelValues("memory", outcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.stored.WithLabelValues("system")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.persistErrors.WithLabelValues("io_wait")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.counterResets.WithLabelValues("io_wait")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.buildInfo))
}

func TestPrometheusReporter_Handler(t *testing.T) {
	pr := NewPrometheusReporter()
	pr.SampleCollected(metrics.FamilyMemory)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `hostscope_samples_total{family="memory",outcome="ok"} 1`))
	assert.True(t, strings.Contains(body, "hostscope_build_info"))
}

func TestNoopReporter(t *testing.T) {
	var r Reporter = NoopReporter{}
	assert.NotPanics(t, func() {
		r.SampleCollected(metrics.FamilySystem)
		r.CycleFinished(time.Second)
	})
}
