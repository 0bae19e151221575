package runner

import (
	"fmt"

	"polytropos/pkg/evolve"
	"polytropos/pkg/ontology"
	"polytropos/pkg/translate"
)

// DocumentFunc processes one raw document and returns its replacement. The
// input map is owned by the caller and may be mutated. A nil replacement with
// a nil error drops the document from the batch.
type DocumentFunc func(id string, content map[string]any) (map[string]any, error)

// BuildPipeline resolves a task spec into a single DocumentFunc composing the
// task's steps in order. Schemas and lookup tables load once, up front.
func BuildPipeline(task TaskSpec) (DocumentFunc, error) {
	var source *ontology.Schema
	if task.SourceSchema != "" {
		loaded, err := ontology.LoadSchema(task.SourceSchema, nil)
		if err != nil {
			return nil, fmt.Errorf("runner: task %q: load source schema: %w", task.Name, err)
		}
		source = loaded
	}
	schema, err := ontology.LoadSchema(task.SchemaDir, source)
	if err != nil {
		return nil, fmt.Errorf("runner: task %q: load schema: %w", task.Name, err)
	}

	lookups := evolve.DirLookupSource{Dir: task.LookupDir}
	steps := make([]DocumentFunc, 0, len(task.Steps))
	for i, spec := range task.Steps {
		kind, err := spec.Kind()
		if err != nil {
			return nil, err
		}
		switch kind {
		case StepTranslate:
			dt := translate.NewDocumentTranslator(schema)
			steps = append(steps, func(_ string, content map[string]any) (map[string]any, error) {
				return dt.TranslateComposite(content)
			})
		case StepEvolve:
			m, err := evolve.Build(spec.Evolve.Changes, spec.Evolve.Lookups, schema, lookups)
			if err != nil {
				return nil, fmt.Errorf("runner: task %q step %d: %w", task.Name, i, err)
			}
			steps = append(steps, func(id string, content map[string]any) (map[string]any, error) {
				composite := ontology.NewComposite(schema, content, id)
				if err := m.Apply(composite); err != nil {
					return nil, err
				}
				return composite.Content, nil
			})
		case StepFilter:
			f, err := evolve.BuildFilter(*spec.Filter, nil, schema, lookups)
			if err != nil {
				return nil, fmt.Errorf("runner: task %q step %d: %w", task.Name, i, err)
			}
			steps = append(steps, func(id string, content map[string]any) (map[string]any, error) {
				pass, err := f.Passes(ontology.NewComposite(schema, content, id))
				if err != nil {
					return nil, err
				}
				if !pass {
					return nil, nil
				}
				return content, nil
			})
		}
	}

	return func(id string, content map[string]any) (map[string]any, error) {
		for _, step := range steps {
			next, err := step(id, content)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return nil, nil
			}
			content = next
		}
		return content, nil
	}, nil
}
