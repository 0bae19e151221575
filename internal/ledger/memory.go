package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory implements Ledger in process memory. Intended for tests and for
// runs that do not configure a durable ledger.
type Memory struct {
	mu    sync.Mutex
	runs  map[string]Run
	items map[string][]Item
}

// NewMemory returns an in-memory ledger.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]Run), items: make(map[string][]Item)}
}

func (m *Memory) BeginRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("ledger: run %s already begun", run.ID)
	}
	run.Status = StatusRunning
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) RecordItem(_ context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[item.RunID]; !ok {
		return fmt.Errorf("ledger: record item %s: %w", item.Key, ErrUnknownRun)
	}
	m.items[item.RunID] = append(m.items[item.RunID], item)
	return nil
}

func (m *Memory) FinishRun(_ context.Context, id string, total, failed int, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("ledger: finish run %s: %w", id, ErrUnknownRun)
	}
	run.Total = total
	run.Failed = failed
	run.Status = status
	m.runs[id] = run
	return nil
}

func (m *Memory) Runs(_ context.Context) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (m *Memory) Items(_ context.Context, runID string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[runID]
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

func (m *Memory) Close() error { return nil }
