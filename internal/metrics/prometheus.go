package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink exports operation timings. Session ids are never
// used as labels.
type PrometheusSink struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func NewPrometheusSink(namespace string, reg prometheus.Registerer) (*PrometheusSink, error) {
	if namespace == "" {
		namespace = "genstate"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of state engine operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Count of failed state engine operations by error type.",
	}, []string{"operation", "error_type"})

	var err error
	if duration, err = register(reg, duration); err != nil {
		return nil, fmt.Errorf("register duration histogram: %w", err)
	}
	if failures, err = register(reg, failures); err != nil {
		return nil, fmt.Errorf("register error counter: %w", err)
	}
	return &PrometheusSink{duration: duration, failures: failures}, nil
}

// register returns the already registered collector when an identical one
// exists, so several stores can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (p *PrometheusSink) RecordOperation(op Operation) {
	if p == nil {
		return
	}
	outcome := "success"
	if !op.Success {
		outcome = "failure"
	}
	p.duration.WithLabelValues(op.Name, outcome).Observe(op.Duration.Seconds())
	if !op.Success {
		errType := op.ErrorType
		if errType == "" {
			errType = "unknown"
		}
		p.failures.WithLabelValues(op.Name, errType).Inc()
	}
}

var _ Sink = (*PrometheusSink)(nil)
