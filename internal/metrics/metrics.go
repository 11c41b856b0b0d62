// Package metrics exports batch results as a Prometheus textfile, suitable
// for the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"blairpng/internal/processor"
)

const namespace = "blairpng"

// Metrics holds the batch metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FilesTotal      *prometheus.CounterVec
	BytesBefore     prometheus.Gauge
	BytesAfter      prometheus.Gauge
	DurationSeconds prometheus.Gauge
	FileReduction   prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files processed, by outcome",
		}, []string{"status"}),
		BytesBefore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_before",
			Help:      "Total size of the batch before optimization",
		}),
		BytesAfter: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_after",
			Help:      "Total size of the batch after optimization",
		}),
		DurationSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall-clock duration of the batch",
		}),
		FileReduction: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_reduction_ratio",
			Help:      "Per-file size reduction as a fraction of the original size",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75},
		}),
	}
}

// Increment records one file outcome. It satisfies processor.ProgressSink.
func (m *Metrics) Increment(o processor.FileOutcome) {
	m.FilesTotal.WithLabelValues(o.Status.String()).Inc()
	if o.Status != processor.StatusFailed && o.Before > 0 {
		m.FileReduction.Observe(float64(o.Reduction()) / float64(o.Before))
	}
}

// Observe records the batch totals.
func (m *Metrics) Observe(s processor.Summary) {
	m.BytesBefore.Set(float64(s.Before))
	m.BytesAfter.Set(float64(s.After))
	m.DurationSeconds.Set(s.Elapsed.Seconds())
}

// WriteFile atomically writes all metrics to path in the text exposition
// format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// Tee fans one progress stream out to several sinks. Nil sinks are skipped.
func Tee(sinks ...processor.ProgressSink) processor.ProgressSink {
	var live []processor.ProgressSink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return tee(live)
}

type tee []processor.ProgressSink

func (t tee) Increment(o processor.FileOutcome) {
	for _, s := range t {
		s.Increment(o)
	}
}
