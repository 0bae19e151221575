package evolve

import (
	"fmt"

	"polytropos/pkg/ontology"
)

// SubjectBindingError reports a change or filter spec whose subject bindings
// violate the kind's declared contract.
type SubjectBindingError struct {
	Kind string
	Role string
	Msg  string
}

func (e *SubjectBindingError) Error() string {
	return fmt.Sprintf("evolve: %q: subject %q: %s", e.Kind, e.Role, e.Msg)
}

func bindingErr(kind, role, format string, args ...any) error {
	return &SubjectBindingError{Kind: kind, Role: role, Msg: fmt.Sprintf(format, args...)}
}

// Metamorphosis is an ordered sequence of changes applied to a single
// composite, without reference to any other composite. Ordering is a hard
// contract: later changes observe the writes of earlier ones.
type Metamorphosis struct {
	changes []Change
	schema  *ontology.Schema
}

// Build resolves a change specification against a schema, loads the
// requested lookup tables, validates every subject binding against the
// registered change definitions, and instantiates the changes in spec order.
func Build(specs []ChangeSpec, lookupNames []string, schema *ontology.Schema, lookups LookupSource) (*Metamorphosis, error) {
	loaded := make(map[string]map[string]any, len(lookupNames))
	for _, name := range lookupNames {
		table, err := lookups.Load(name)
		if err != nil {
			return nil, err
		}
		loaded[name] = table
	}

	changes := make([]Change, 0, len(specs))
	for _, spec := range specs {
		def, ok := Lookup(spec.Name)
		if !ok {
			return nil, fmt.Errorf("evolve: unknown change kind %q", spec.Name)
		}
		binding, err := resolveBinding(def.Name, def.Subjects, def.Lookups, spec, schema, loaded, lookups)
		if err != nil {
			return nil, err
		}
		change, err := def.New(binding)
		if err != nil {
			return nil, fmt.Errorf("evolve: construct change %q: %w", spec.Name, err)
		}
		changes = append(changes, change)
	}
	return &Metamorphosis{changes: changes, schema: schema}, nil
}

// resolveBinding is shared by changes and filters: both declare subjects the
// same way and bind them through the same single-key wire shape.
func resolveBinding(kind string, declared []Subject, required []string, spec ChangeSpec, schema *ontology.Schema, loaded map[string]map[string]any, lookups LookupSource) (Binding, error) {
	subjects := make(map[string]*ontology.Variable, len(declared))
	for role := range spec.Subjects {
		if _, ok := subjectByRole(declared, role); !ok {
			return Binding{}, bindingErr(kind, role, "role is not declared by the kind")
		}
	}
	for _, subject := range declared {
		varID, bound := spec.Subjects[subject.Role]
		if !bound {
			return Binding{}, bindingErr(kind, subject.Role, "role is not bound by the specification")
		}
		v, ok := schema.Get(varID)
		if !ok {
			return Binding{}, bindingErr(kind, subject.Role, "variable %q does not exist in schema %q", varID, schema.Name())
		}
		if err := checkSubject(kind, subject, v, schema); err != nil {
			return Binding{}, err
		}
		subjects[subject.Role] = v
	}

	// Definitions may require tables beyond the task-level list; load them on
	// demand so the requirement is part of the kind's contract.
	for _, name := range required {
		if _, ok := loaded[name]; ok {
			continue
		}
		table, err := lookups.Load(name)
		if err != nil {
			return Binding{}, err
		}
		loaded[name] = table
	}
	return Binding{Schema: schema, Subjects: subjects, Lookups: loaded}, nil
}

func checkSubject(change string, subject Subject, v *ontology.Variable, schema *ontology.Schema) error {
	if len(subject.Kinds) > 0 {
		allowed := false
		for _, kind := range subject.Kinds {
			if v.Kind() == kind {
				allowed = true
				break
			}
		}
		if !allowed {
			return bindingErr(change, subject.Role, "variable %q has kind %s, want one of %v", v.ID(), v.Kind(), subject.Kinds)
		}
	}
	if subject.Temporality != TemporalityAny {
		temporal, err := schema.IsTemporal(v.ID())
		if err != nil {
			return bindingErr(change, subject.Role, "%v", err)
		}
		if subject.Temporality == Temporal && !temporal {
			return bindingErr(change, subject.Role, "variable %q must be temporal", v.ID())
		}
		if subject.Temporality == Invariant && temporal {
			return bindingErr(change, subject.Role, "variable %q must be invariant", v.ID())
		}
	}
	return nil
}

// Apply runs every change in declared order against the same composite.
func (m *Metamorphosis) Apply(c *ontology.Composite) error {
	for _, change := range m.changes {
		if err := change.Apply(c); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of changes in the sequence.
func (m *Metamorphosis) Len() int { return len(m.changes) }

// Schema returns the schema the metamorphosis operates within.
func (m *Metamorphosis) Schema() *ontology.Schema { return m.schema }
