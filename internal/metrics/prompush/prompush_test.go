package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bendload/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend("bendload", ""); err == nil || b != nil {
		t.Fatalf("NewBackend with empty URL = (%v, %v), want error", b, err)
	}

	b, err := NewBackend("", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.jobName != "load" {
		t.Errorf("empty job name = %q, want default %q", b.jobName, "load")
	}

	b, err = NewBackend("nightly-load", "http://pushgateway:9091")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.jobName != "nightly-load" || b.gatewayURL != "http://pushgateway:9091" {
		t.Errorf("backend = {job=%q url=%q}", b.jobName, b.gatewayURL)
	}
}

// TestIncCounter verifies IncCounter routes updates to the correct
// collectors and ignores unknown metric names.
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("load", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter("load_step_total", 3, metrics.Labels{"step": "dispatch", "status": "success"})
	b.IncCounter("load_lines_total", 5, metrics.Labels{"kind": "inserted"})
	b.IncCounter("load_batches_total", 2, metrics.Labels{"status": "acknowledged"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("dispatch", "success")); got != 3 {
		t.Errorf("stepCounter value = %v, want 3", got)
	}
	if got := readCounterValue(t, b.lineCounter.WithLabelValues("inserted")); got != 5 {
		t.Errorf("lineCounter value = %v, want 5", got)
	}
	if got := readCounterValue(t, b.batchCounter.WithLabelValues("acknowledged")); got != 2 {
		t.Errorf("batchCounter value = %v, want 2", got)
	}
	// Label combinations the unknown metric carried must stay untouched.
	if got := readCounterValue(t, b.stepCounter.WithLabelValues("foo", "bar")); got != 0 {
		t.Errorf("stepCounter(foo,bar) = %v, want 0", got)
	}
}

// TestObserveDuration verifies observations land on the step duration
// summary for the known metric name only.
func TestObserveDuration(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("load", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.ObserveDuration("load_step_duration_seconds", 1.5, metrics.Labels{"step": "dispatch", "status": "success"})
	b.ObserveDuration("other_metric", 2.0, metrics.Labels{"step": "dispatch", "status": "success"})

	count, sum := readSummaryCountSum(t, b.stepDuration, "dispatch", "success")
	if count != 1 {
		t.Errorf("summary sample count = %d, want 1", count)
	}
	if sum != 1.5 {
		t.Errorf("summary sample sum = %v, want 1.5", sum)
	}
}

// TestFlush verifies Flush pushes the registry to the gateway URL.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushInfo struct {
		method  string
		path    string
		bodyLen int
	}
	reqCh := make(chan pushInfo, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushInfo{method: r.Method, path: r.URL.Path, bodyLen: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBackend("bendload", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter("load_batches_total", 1, metrics.Labels{"status": "acknowledged"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushInfo
	select {
	case got = <-reqCh:
	default:
		t.Fatal("Flush() did not reach the Pushgateway")
	}
	if got.method == "" || got.path == "" {
		t.Fatalf("push request = %+v", got)
	}
	if got.bodyLen == 0 {
		t.Fatal("push request body is empty")
	}
}
