package metrics

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Operation is one timed engine call.
type Operation struct {
	Name      string
	Duration  time.Duration
	Success   bool
	ErrorType string
	SessionID string
}

// Sink receives operation timings. Implementations must not block.
type Sink interface {
	RecordOperation(op Operation)
}

type nopSink struct{}

func (nopSink) RecordOperation(Operation) {}

func Nop() Sink {
	return nopSink{}
}

// Safe wraps a sink so that a panicking implementation is logged and
// swallowed instead of unwinding into the caller.
func Safe(s Sink, logger *slog.Logger) Sink {
	if s == nil {
		return Nop()
	}
	if _, ok := s.(*safeSink); ok {
		return s
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &safeSink{next: s, logger: logger}
}

type safeSink struct {
	next   Sink
	logger *slog.Logger
}

func (s *safeSink) RecordOperation(op Operation) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("metrics sink panicked", "operation", op.Name, "panic", r)
		}
	}()
	s.next.RecordOperation(op)
}

// Recorder keeps every operation in memory. Useful in tests.
type Recorder struct {
	mu  sync.Mutex
	ops []Operation
}

func (r *Recorder) RecordOperation(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *Recorder) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ops)
}

func (r *Recorder) Named(name string) []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Operation
	for _, op := range r.ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}
