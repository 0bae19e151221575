// Package runner drives batch runs: it loads a task specification, builds
// the per-document pipeline, and fans document processing out over a worker
// pool against blob-backed document stores.
package runner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"polytropos/pkg/evolve"
)

// StepKind names the pipeline step types.
type StepKind string

const (
	StepTranslate StepKind = "translate"
	StepEvolve    StepKind = "evolve"
	StepFilter    StepKind = "filter"
)

// StepSpec is one pipeline step. Exactly one of the step bodies is set,
// keyed by the step kind in the YAML document.
type StepSpec struct {
	Translate *TranslateStep     `yaml:"translate,omitempty"`
	Evolve    *EvolveStep        `yaml:"evolve,omitempty"`
	Filter    *evolve.ChangeSpec `yaml:"filter,omitempty"`
}

// Kind reports which step body is populated.
func (s StepSpec) Kind() (StepKind, error) {
	var kinds []StepKind
	if s.Translate != nil {
		kinds = append(kinds, StepTranslate)
	}
	if s.Evolve != nil {
		kinds = append(kinds, StepEvolve)
	}
	if s.Filter != nil {
		kinds = append(kinds, StepFilter)
	}
	if len(kinds) != 1 {
		return "", fmt.Errorf("runner: step must declare exactly one of translate, evolve or filter, got %d", len(kinds))
	}
	return kinds[0], nil
}

// TranslateStep moves documents across a stage boundary into the task's
// target schema.
type TranslateStep struct{}

// EvolveStep applies an ordered change list within the target schema.
type EvolveStep struct {
	Changes []evolve.ChangeSpec `yaml:"changes"`
	Lookups []string            `yaml:"lookups,omitempty"`
}

// TaskSpec is a complete batch task: where the schemas live, and the ordered
// steps to run over every document.
type TaskSpec struct {
	Name         string     `yaml:"name"`
	SchemaDir    string     `yaml:"schema"`
	SourceSchema string     `yaml:"source_schema,omitempty"`
	LookupDir    string     `yaml:"lookup_dir,omitempty"`
	Steps        []StepSpec `yaml:"steps"`
}

// LoadTask reads and validates a YAML task specification.
func LoadTask(path string) (TaskSpec, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- task location is operator-supplied configuration
	if err != nil {
		return TaskSpec{}, fmt.Errorf("runner: read task %q: %w", path, err)
	}
	var task TaskSpec
	if err := yaml.Unmarshal(data, &task); err != nil {
		return TaskSpec{}, fmt.Errorf("runner: decode task %q: %w", path, err)
	}
	if task.Name == "" {
		return TaskSpec{}, fmt.Errorf("runner: task %q has no name", path)
	}
	if task.SchemaDir == "" {
		return TaskSpec{}, fmt.Errorf("runner: task %q names no schema", task.Name)
	}
	if len(task.Steps) == 0 {
		return TaskSpec{}, fmt.Errorf("runner: task %q has no steps", task.Name)
	}
	for i, step := range task.Steps {
		kind, err := step.Kind()
		if err != nil {
			return TaskSpec{}, fmt.Errorf("runner: task %q step %d: %w", task.Name, i, err)
		}
		if kind == StepTranslate && task.SourceSchema == "" {
			return TaskSpec{}, fmt.Errorf("runner: task %q step %d translates but names no source schema", task.Name, i)
		}
	}
	return task, nil
}
