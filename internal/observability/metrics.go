// Package observability records run metrics for the clickstream generator.
//
// A run is a batch job, so metrics are kept in a private registry and
// written once in Prometheus text format for the node-exporter textfile
// collector instead of being scraped.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arkilian/clickgen/pkg/types"
)

const namespace = "clickgen"

// RunMetrics holds the Prometheus metrics of one generation run.
type RunMetrics struct {
	registry *prometheus.Registry

	EventsGenerated    *prometheus.CounterVec
	GenerationDuration prometheus.Gauge
	ExportBytes        prometheus.Gauge
	ExportSuccess      prometheus.Gauge
	LastRunTimestamp   prometheus.Gauge
}

// NewRunMetrics creates the run metrics in a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		EventsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_generated_total",
			Help:      "Total number of generated events by event type.",
		}, []string{"event_type"}),
		GenerationDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time spent generating events.",
		}),
		ExportBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_bytes",
			Help:      "Size of the exported data file in bytes.",
		}),
		ExportSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_success",
			Help:      "1 if the last export reached storage, 0 otherwise.",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// ObserveEvent counts one generated event.
func (m *RunMetrics) ObserveEvent(t types.EventType) {
	m.EventsGenerated.WithLabelValues(string(t)).Inc()
}

// ObserveGeneration records how long generation took.
func (m *RunMetrics) ObserveGeneration(d time.Duration) {
	m.GenerationDuration.Set(d.Seconds())
}

// ObserveExport records the export outcome.
func (m *RunMetrics) ObserveExport(sizeBytes int64, err error) {
	if err != nil {
		m.ExportSuccess.Set(0)
		return
	}
	m.ExportSuccess.Set(1)
	m.ExportBytes.Set(float64(sizeBytes))
}

// Registry returns the registry backing the metrics.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile stamps the finish time and writes all metrics to path.
func (m *RunMetrics) WriteTextfile(path string, finished time.Time) error {
	m.LastRunTimestamp.Set(float64(finished.Unix()))
	return prometheus.WriteToTextfile(path, m.registry)
}
