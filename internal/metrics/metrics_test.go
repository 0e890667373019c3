package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	durations  []durationCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type durationCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveDuration(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durations = append(f.durations, durationCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordStep("jobA", "resolve_schema", nil, 2*time.Second)
	RecordStep("jobB", "dispatch", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}
	if len(fb.durations) != 2 {
		t.Fatalf("expected 2 duration calls, got %d", len(fb.durations))
	}

	c0 := fb.counters[0]
	if c0.name != "load_step_total" || c0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=load_step_total, delta=1", c0)
	}
	if c0.labels["job"] != "jobA" || c0.labels["step"] != "resolve_schema" {
		t.Fatalf("counter[0] labels = %v; want jobA/resolve_schema", c0.labels)
	}
	if got := c0.labels["status"]; got != "success" {
		t.Fatalf("counter[0].labels[status]=%q; want %q", got, "success")
	}

	d0 := fb.durations[0]
	if d0.name != "load_step_duration_seconds" {
		t.Fatalf("duration[0].name=%q; want load_step_duration_seconds", d0.name)
	}
	if d0.value < 2.0-0.001 || d0.value > 2.0+0.001 {
		t.Fatalf("duration[0].value=%v; want ~2.0", d0.value)
	}

	c1 := fb.counters[1]
	if c1.labels["job"] != "jobB" || c1.labels["step"] != "dispatch" {
		t.Fatalf("counter[1] labels job/step = %v; want jobB/dispatch", c1.labels)
	}
	if c1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want %q", c1.labels["status"], "failure")
	}

	d1 := fb.durations[1]
	if d1.value < 1.5-0.001 || d1.value > 1.5+0.001 {
		t.Fatalf("duration[1].value=%v; want ~1.5", d1.value)
	}
}

func TestRecordLines(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordLines("jobX", "read", 3)
	RecordLines("jobX", "dropped_blank", 0)  // should be ignored
	RecordLines("jobX", "dropped_blank", -1) // should be ignored
	RecordLines("jobY", "inserted", 5)

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}

	c0 := fb.counters[0]
	if c0.name != "load_lines_total" || c0.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=load_lines_total, delta=3", c0)
	}
	if c0.labels["job"] != "jobX" || c0.labels["kind"] != "read" {
		t.Fatalf("counter[0] labels = %v; want job=jobX, kind=read", c0.labels)
	}

	c1 := fb.counters[1]
	if c1.delta != 5 || c1.labels["kind"] != "inserted" {
		t.Fatalf("counter[1] = %#v; want delta=5, kind=inserted", c1)
	}
}

func TestRecordBatch(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordBatch("jobX", nil)
	RecordBatch("jobX", errors.New("rejected"))

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}
	c0, c1 := fb.counters[0], fb.counters[1]
	if c0.name != "load_batches_total" || c0.labels["status"] != "acknowledged" {
		t.Fatalf("counter[0] = %#v; want acknowledged batch", c0)
	}
	if c1.labels["status"] != "failed" {
		t.Fatalf("counter[1].labels[status]=%q; want %q", c1.labels["status"], "failed")
	}
	if c0.labels["job"] != "jobX" {
		t.Fatalf("counter[0].labels[job]=%q; want %q", c0.labels["job"], "jobX")
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)

	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
