package metrics

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type panicSink struct{}

func (panicSink) RecordOperation(Operation) { panic("boom") }

func TestSafe_SwallowsPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := Safe(panicSink{}, logger)
	s.RecordOperation(Operation{Name: "loadSession"})

	if !strings.Contains(buf.String(), "metrics sink panicked") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestSafe_NilAndIdempotent(t *testing.T) {
	if _, ok := Safe(nil, nil).(nopSink); !ok {
		t.Error("Safe(nil) should return the no-op sink")
	}

	once := Safe(&Recorder{}, nil)
	if twice := Safe(once, nil); twice != once {
		t.Error("Safe() should not double-wrap")
	}
}

func TestRecorder_Named(t *testing.T) {
	r := &Recorder{}
	r.RecordOperation(Operation{Name: "a"})
	r.RecordOperation(Operation{Name: "b"})
	r.RecordOperation(Operation{Name: "a", Success: true})

	if got := len(r.Named("a")); got != 2 {
		t.Errorf("Named(a) = %d operations, want 2", got)
	}
}

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink("test", reg)
	if err != nil {
		t.Fatalf("NewPrometheusSink() error = %v", err)
	}

	sink.RecordOperation(Operation{Name: "addIteration", Duration: 5 * time.Millisecond, Success: true})
	sink.RecordOperation(Operation{Name: "addIteration", Duration: time.Millisecond, ErrorType: "not_found"})
	sink.RecordOperation(Operation{Name: "saveSession"})

	if got := testutil.ToFloat64(sink.failures.WithLabelValues("addIteration", "not_found")); got != 1 {
		t.Errorf("addIteration not_found failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.failures.WithLabelValues("saveSession", "unknown")); got != 1 {
		t.Errorf("saveSession unknown failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(sink.duration); got != 3 {
		t.Errorf("duration series = %d, want 3", got)
	}
}

func TestPrometheusSink_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusSink("shared", reg)
	if err != nil {
		t.Fatalf("first NewPrometheusSink() error = %v", err)
	}
	second, err := NewPrometheusSink("shared", reg)
	if err != nil {
		t.Fatalf("second NewPrometheusSink() error = %v", err)
	}
	if first.failures != second.failures {
		t.Error("second sink should reuse the registered counter")
	}
}
