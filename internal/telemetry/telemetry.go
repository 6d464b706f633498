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

// Package telemetry accounts the collector's own activity.
package telemetry

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phuonguno98/hostscope/pkg/metrics"
	"github.com/phuonguno98/hostscope/pkg/version"
)

// Reporter accounts collection events.
type Reporter interface {
	SampleCollected(family metrics.Family)
	SampleUnavailable(family metrics.Family)
	SampleFailed(family metrics.Family)
	SampleStored(family metrics.Family)
	PersistFailed(family metrics.Family)
	CounterReset(family metrics.Family)
	CycleFinished(d time.Duration)
}

// NoopReporter discards everything.
type NoopReporter struct{}

func (NoopReporter) SampleCollected(metrics.Family)   {}
func (NoopReporter) SampleUnavailable(metrics.Family) {}
func (NoopReporter) SampleFailed(metrics.Family)      {}
func (NoopReporter) SampleStored(metrics.Family)      {}
func (NoopReporter) PersistFailed(metrics.Family)     {}
func (NoopReporter) CounterReset(metrics.Family)      {}
func (NoopReporter) CycleFinished(time.Duration)      {}

const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
	outcomeFailed      = "failed"
)

// PrometheusReporter exposes the events as Prometheus metrics.
type PrometheusReporter struct {
	registry      *prometheus.Registry
	samples       *prometheus.CounterVec
	stored        *prometheus.CounterVec
	persistErrors *prometheus.CounterVec
	counterResets *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	lastCycle     prometheus.Gauge
	buildInfo     prometheus.Gauge
}

// NewPrometheusReporter creates a reporter with its own registry, which also
// carries the Go runtime and process collectors.
func NewPrometheusReporter() *PrometheusReporter {
	pr := &PrometheusReporter{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostscope_samples_total",
			Help: "Samples taken per metric family, by outcome (ok, unavailable, failed)",
		}, []string{"family", "outcome"}),
		stored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostscope_samples_stored_total",
			Help: "Samples written to the metric store per family",
		}, []string{"family"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostscope_persist_errors_total",
			Help: "Samples that could not be written to the metric store",
		}, []string{"family"}),
		counterResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostscope_counter_resets_total",
			Help: "Cumulative counters observed going backwards, usually after a reboot or device reset",
		}, []string{"family"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hostscope_cycle_duration_seconds",
			Help:    "Wall time of one collection cycle, measurement windows included",
			Buckets: []float64{0.5, 1, 2, 3, 5, 10, 30},
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostscope_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed collection cycle",
		}),
		buildInfo: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostscope_build_info",
			Help: "A metric with a constant '1' value labeled by version, commit, goversion, goos and goarch.",
			ConstLabels: map[string]string{
				"goarch":    runtime.GOARCH,
				"goos":      runtime.GOOS,
				"goversion": runtime.Version(),
				"version":   version.Version,
				"revision":  version.Commit,
			},
		}),
	}
	pr.buildInfo.Set(1)

	pr.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		pr.samples,
		pr.stored,
		pr.persistErrors,
		pr.counterResets,
		pr.cycleDuration,
		pr.lastCycle,
		pr.buildInfo,
	)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (pr *PrometheusReporter) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{Registry: pr.registry})
}

// Gatherer exposes the registry for tests and embedding.
func (pr *PrometheusReporter) Gatherer() prometheus.Gatherer {
	return pr.registry
}

func (pr *PrometheusReporter) SampleCollected(f metrics.Family) {
	pr.samples.WithLabelValues(string(f), outcomeOK).Inc()
}

func (pr *PrometheusReporter) SampleUnavailable(f metrics.Family) {
	pr.samples.WithLabelValues(string(f), outcomeUnavailable).Inc()
}

func (pr *PrometheusReporter) SampleFailed(f metrics.Family) {
	pr.samples.WithLabelValues(string(f), outcomeFailed).Inc()
}

func (pr *PrometheusReporter) SampleStored(f metrics.Family) {
	pr.stored.WithLabelValues(string(f)).Inc()
}

func (pr *PrometheusReporter) PersistFailed(f metrics.Family) {
	pr.persistErrors.WithLabelValues(string(f)).Inc()
}

func (pr *PrometheusReporter) CounterReset(f metrics.Family) {
	pr.counterResets.WithLabelValues(string(f)).Inc()
}

func (pr *PrometheusReporter) CycleFinished(d time.Duration) {
	pr.cycleDuration.Observe(d.Seconds())
	pr.lastCycle.SetToCurrentTime()
}
