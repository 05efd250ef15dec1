// Package metrics provides metrics collection for the driver boundary:
// per-function call counts and latencies, plus live-handle gauges.
package metrics

import (
	"time"
)

// Collector is the interface boundary instrumentation records through.
type Collector interface {
	// IncrementCounter increments a counter metric.
	IncrementCounter(name string, labels ...string)

	// RecordHistogram records a value in a histogram metric.
	RecordHistogram(name string, value float64, labels ...string)

	// RecordGauge records a gauge metric value.
	RecordGauge(name string, value float64, labels ...string)

	// StartTimer starts a timer for measuring duration.
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	// Stop stops the timer and returns the duration in seconds.
	Stop() float64
}

// NoOpCollector discards every measurement; it is the default when the
// application opts out of metrics.
type NoOpCollector struct{}

// NewNoOpCollector creates a new no-op collector.
func NewNoOpCollector() Collector {
	return &NoOpCollector{}
}

func (n *NoOpCollector) IncrementCounter(string, ...string)         {}
func (n *NoOpCollector) RecordHistogram(string, float64, ...string) {}
func (n *NoOpCollector) RecordGauge(string, float64, ...string)     {}

// StartTimer returns a timer that still measures, so callers can use the
// elapsed value for logging even without a metrics backend.
func (n *NoOpCollector) StartTimer(string) Timer {
	return &noOpTimer{start: time.Now()}
}

type noOpTimer struct {
	start time.Time
}

func (t *noOpTimer) Stop() float64 {
	return time.Since(t.start).Seconds()
}
