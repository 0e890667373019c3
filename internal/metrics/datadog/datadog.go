// Package datadog implements a Datadog backend for the metrics package.
//
// It adapts the generic metrics.Backend interface to Datadog's DogStatsD
// protocol via the official statsd client, translating metric labels into
// Datadog tags. Datadog-specific dependencies and configuration stay here;
// the pipeline depends only on metrics.Backend.
package datadog

import (
	"fmt"
	"time"

	"bendload/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or
	// "unix:///path/to/socket".
	Addr string

	// Namespace is an optional prefix added to all metric names, e.g. "load.".
	Namespace string

	// GlobalTags are applied to all metrics emitted by this backend,
	// e.g. []string{"env:prod", "service:bendload"}.
	GlobalTags []string
}

// Backend is a Datadog implementation of metrics.Backend. The same instance
// is intended to be installed globally via metrics.SetBackend.
type Backend struct {
	client *statsd.Client
}

// NewBackend constructs a Datadog metrics backend. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}

	return &Backend{client: c}, nil
}

// IncCounter implements metrics.Backend using Datadog Count metrics. Only
// the pipeline's counters are forwarded; unknown names are dropped so a
// backend change never invents series on the Datadog side.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	switch name {
	case "load_step_total", "load_lines_total", "load_batches_total":
		// DogStatsD Count expects an int64; the pipeline only sends whole
		// line/batch deltas.
		b.client.Count(name, int64(delta), labelsToTags(labels), 1)
	}
}

// ObserveDuration implements metrics.Backend. Step durations arrive in
// seconds and go out as a DogStatsD timer, which Datadog aggregates into
// percentiles server-side.
func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	if b.client == nil || name != "load_step_duration_seconds" {
		return
	}
	b.client.Timing("load_step_duration", time.Duration(value*float64(time.Second)), labelsToTags(labels), 1)
}

// Flush implements metrics.Backend. For the statsd client, Close is the
// closest equivalent and flushes any buffered data at shutdown.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// labelsToTags converts labels into Datadog tag strings "key:value".
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, fmt.Sprintf("%s:%s", k, v))
	}
	return out
}
