// Package observability provides metrics recorders for batch runs.
package observability

import (
	"context"
	"time"
)

// MetricsRecorder receives one observation per operation outcome. Recorders
// must be safe for concurrent use by worker goroutines.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// NoopMetricsRecorder discards all observations.
type NoopMetricsRecorder struct{}

// Observe discards the observation.
func (NoopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}
