// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by using
// client_golang CounterVec and SummaryVec collectors and pushing the
// collected registry to a Pushgateway instead of exposing a scrape
// endpoint. A load is a short-lived batch job, which is exactly the shape
// the Pushgateway exists for. All Prometheus-specific dependencies stay in
// this package so the pipeline can swap backends without changes.
package prompush

import (
	"fmt"

	"bendload/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // "load_step_total"
	stepDuration *prometheus.SummaryVec // "load_step_duration_seconds"
	lineCounter  *prometheus.CounterVec // "load_lines_total"
	batchCounter *prometheus.CounterVec // "load_batches_total"
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway grouping key; gatewayURL is the base URL of the server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "load"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_step_total",
			Help: "Total load step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "load_step_duration_seconds",
			Help:       "Duration of load steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	lineCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_lines_total",
			Help: "Line-level counts per kind (read, skipped_header, dropped_blank, inserted).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_batches_total",
			Help: "Batches dispatched for this load, partitioned by outcome.",
		},
		[]string{"status"},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, lineCounter, batchCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		lineCounter:  lineCounter,
		batchCounter: batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "load_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case "load_lines_total":
		b.lineCounter.WithLabelValues(labels["kind"]).Add(delta)
	case "load_batches_total":
		b.batchCounter.WithLabelValues(labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if name != "load_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
