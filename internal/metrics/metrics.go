// Package metrics collects per-run gauges for the chart pipeline and writes
// them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"presscount/internal/domain"
)

// Metrics bundles prometheus collectors describing one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	Observations       prometheus.Gauge
	Groups             prometheus.Gauge
	RangeDays          prometheus.Gauge
	SynthesizedDays    *prometheus.GaugeVec
	RunDurationSec     prometheus.Gauge
	LastSuccess        prometheus.Gauge
	RunFailures        prometheus.Counter
	PublishedArtifacts prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Observations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presscount_observations",
			Help: "Number of CSV rows parsed in the last run.",
		}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presscount_newspapers",
			Help: "Number of distinct newspapers in the last run.",
		}),
		RangeDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presscount_range_days",
			Help: "Number of calendar days covered by the last run.",
		}),
		SynthesizedDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "presscount_synthesized_days",
			Help: "Days filled by interpolation, per series.",
		}, []string{"series"}),
		RunDurationSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presscount_run_duration_seconds",
			Help: "Wall time of the last run in seconds.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presscount_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "presscount_run_failures_total",
			Help: "Runs that ended in an error.",
		}),
		PublishedArtifacts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "presscount_published_artifacts_total",
			Help: "Chart files uploaded to object storage.",
		}),
	}

	m.registry.MustRegister(
		m.Observations,
		m.Groups,
		m.RangeDays,
		m.SynthesizedDays,
		m.RunDurationSec,
		m.LastSuccess,
		m.RunFailures,
		m.PublishedArtifacts,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSeries records range and per-series synthesized-day counts.
func (m *Metrics) ObserveSeries(rng domain.DateRange, series ...domain.DailySeries) {
	m.RangeDays.Set(float64(rng.Days()))
	for _, s := range series {
		m.SynthesizedDays.WithLabelValues(s.Name).Set(float64(s.Synthesized()))
	}
}

// Finish records the duration of a run and, when err is nil, its completion
// time.
func (m *Metrics) Finish(started, finished time.Time, err error) {
	m.RunDurationSec.Set(finished.Sub(started).Seconds())
	if err != nil {
		m.RunFailures.Inc()
		return
	}
	m.LastSuccess.Set(float64(finished.Unix()))
}

// WriteTextfile atomically writes all metrics to path for the node_exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
