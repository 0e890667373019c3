// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the load pipeline.
//
// It exposes a narrow Backend interface focused on counters and timing
// data, plus a global, pluggable backend that defaults to a no-op so every
// call site is safe even when no real backend is configured. Concrete
// systems (Prometheus Pushgateway, Datadog) live in subpackages; the rest
// of the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style observation.
	ObserveDuration(name string, value float64, labels Labels)
	// Flush pushes metrics if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep measures one pipeline step: latency plus success/failure.
// Steps are e.g. "resolve_schema", "dispatch".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter("load_step_total", 1, lbls)
	backend.ObserveDuration("load_step_duration_seconds", d.Seconds(), lbls)
}

// RecordLines increments a line-level counter for the given kind.
//
// Kinds mirror the load summary fields:
//   - "read"
//   - "skipped_header"
//   - "dropped_blank"
//   - "inserted"
func RecordLines(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("load_lines_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatch counts one dispatched batch with its outcome.
func RecordBatch(job string, err error) {
	status := "acknowledged"
	if err != nil {
		status = "failed"
	}
	backend.IncCounter("load_batches_total", 1, Labels{
		"job":    job,
		"status": status,
	})
}
