package observability

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// ExpvarMetricsRecorder aggregates per-operation outcomes of a batch run and
// publishes them through expvar, for deployments that want process-local
// metrics without a scrape endpoint.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*operationTotals
}

type operationTotals struct {
	succeeded int64
	failed    int64
	elapsed   time.Duration
}

// OperationTotals is the aggregate outcome of one operation across a run.
type OperationTotals struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

// ExpvarMetricsSnapshot is a read-only view of the recorded totals, keyed by
// operation name.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationTotals `json:"operations"`
	TakenAt    time.Time                  `json:"taken_at"`
}

// NewExpvarMetricsRecorder constructs a recorder and publishes it under the
// supplied expvar name. When name is empty, a unique identifier is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("polytropos_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name: name,
		ops:  make(map[string]*operationTotals),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns a copy of the aggregated totals.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	operations := make(map[string]OperationTotals, len(r.ops))
	for op, totals := range r.ops {
		operations[op] = OperationTotals{
			Succeeded: totals.succeeded,
			Failed:    totals.failed,
			ElapsedMS: totals.elapsed.Milliseconds(),
		}
	}
	return ExpvarMetricsSnapshot{
		Operations: operations,
		TakenAt:    time.Now().UTC(),
	}
}

// Observe records an operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals, ok := r.ops[operation]
	if !ok {
		totals = &operationTotals{}
		r.ops[operation] = totals
	}
	if success {
		totals.succeeded++
	} else {
		totals.failed++
	}
	totals.elapsed += duration
}
