package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"polytropos/internal/blob"
	"polytropos/internal/ledger"
	"polytropos/internal/observability"
)

// ItemFailure is one document that could not be processed. Failures never
// abort sibling documents.
type ItemFailure struct {
	Key string
	Err error
}

// Report summarizes one batch run. Filtered counts documents a filter step
// dropped; they are processed successfully but never written to the target.
type Report struct {
	RunID    string
	Task     string
	Total    int
	Filtered int
	Failures []ItemFailure
	Elapsed  time.Duration
}

// Err joins the per-item failures into one error, or nil if all documents
// processed cleanly.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Key, f.Err))
	}
	return errors.Join(errs...)
}

// Runner fans a document pipeline out over a worker pool between two
// document stores.
type Runner struct {
	Source  blob.Store
	Target  blob.Store
	Workers int
	Logger  *slog.Logger
	Metrics observability.MetricsRecorder
	Ledger  ledger.Ledger
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) metrics() observability.MetricsRecorder {
	if r.Metrics != nil {
		return r.Metrics
	}
	return observability.NoopMetricsRecorder{}
}

func (r *Runner) ledger() ledger.Ledger {
	if r.Ledger != nil {
		return r.Ledger
	}
	return ledger.NewMemory()
}

// Run loads the task, builds its pipeline, and processes every JSON document
// in the source store. The returned Report carries per-item failures; the
// error return is reserved for failures of the run itself.
func (r *Runner) Run(ctx context.Context, task TaskSpec) (Report, error) {
	fn, err := BuildPipeline(task)
	if err != nil {
		return Report{}, err
	}
	return r.RunFunc(ctx, task.Name, fn)
}

// RunFunc processes every JSON document in the source store through fn.
func (r *Runner) RunFunc(ctx context.Context, taskName string, fn DocumentFunc) (Report, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := r.logger().With("run_id", runID, "task", taskName)
	led := r.ledger()

	keys, err := r.documentKeys(ctx)
	if err != nil {
		return Report{}, err
	}
	if err := led.BeginRun(ctx, ledger.Run{ID: runID, Task: taskName, StartedAt: started.UTC()}); err != nil {
		return Report{}, err
	}
	log.Info("run started", "documents", len(keys), "workers", r.workers())

	work := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []ItemFailure
	filtered := 0

	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range work {
				itemStart := time.Now()
				dropped, err := r.processOne(ctx, key, fn)
				elapsed := time.Since(itemStart)
				r.metrics().Observe(ctx, "document", err == nil, elapsed)
				item := ledger.Item{RunID: runID, Key: key, Duration: elapsed, RecordedAt: time.Now().UTC()}
				switch {
				case err != nil:
					item.Err = err.Error()
					log.Error("document failed", "key", key, "error", err)
					mu.Lock()
					failures = append(failures, ItemFailure{Key: key, Err: err})
					mu.Unlock()
				case dropped:
					log.Debug("document filtered out", "key", key)
					mu.Lock()
					filtered++
					mu.Unlock()
				}
				if lerr := led.RecordItem(ctx, item); lerr != nil {
					log.Error("ledger record failed", "key", key, "error", lerr)
				}
			}
		}()
	}

	for _, key := range keys {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return Report{}, ctx.Err()
		case work <- key:
		}
	}
	close(work)
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool { return failures[i].Key < failures[j].Key })
	status := ledger.StatusSucceeded
	if len(failures) > 0 {
		status = ledger.StatusFailed
	}
	if err := led.FinishRun(ctx, runID, len(keys), len(failures), status); err != nil {
		log.Error("ledger finish failed", "error", err)
	}
	report := Report{RunID: runID, Task: taskName, Total: len(keys), Filtered: filtered, Failures: failures, Elapsed: time.Since(started)}
	log.Info("run finished", "documents", report.Total, "filtered", filtered, "failed", len(failures), "elapsed", report.Elapsed)
	return report, nil
}

// documentKeys lists the source store's JSON documents, skipping dotfiles.
func (r *Runner) documentKeys(ctx context.Context) ([]string, error) {
	infos, err := r.Source.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("runner: list source documents: %w", err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		base := path.Base(info.Key)
		if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".json") {
			continue
		}
		keys = append(keys, info.Key)
	}
	return keys, nil
}

// processOne runs one document through the pipeline. The bool reports whether
// a filter step dropped the document; dropped documents are never written.
func (r *Runner) processOne(ctx context.Context, key string, fn DocumentFunc) (bool, error) {
	rc, err := r.Source.Get(ctx, key)
	if err != nil {
		return false, err
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return false, err
	}
	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return false, fmt.Errorf("decode document: %w", err)
	}
	id := strings.TrimSuffix(path.Base(key), ".json")
	out, err := fn(id, content)
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode document: %w", err)
	}
	if _, err := r.Target.Put(ctx, key, bytes.NewReader(encoded)); err != nil {
		return false, err
	}
	return false, nil
}
