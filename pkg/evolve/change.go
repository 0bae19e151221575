// Package evolve applies ordered, declared-subject transformations to a
// single composite within one schema stage.
package evolve

import (
	"fmt"
	"sort"
	"sync"

	"polytropos/pkg/ontology"
)

// Change is one transformation step. Apply reads and writes the composite's
// values through the subject variables bound at construction; it must not
// consult any other document and carries no per-invocation state.
type Change interface {
	Apply(c *ontology.Composite) error
}

// Mode declares how a change accesses a subject.
type Mode int

const (
	// ModeRead marks a subject the change only reads.
	ModeRead Mode = iota
	// ModeWrite marks a subject the change only writes.
	ModeWrite
	// ModeReadWrite marks a subject the change alters in place.
	ModeReadWrite
)

// Temporality constrains which track a subject must come from. Sign
// semantics: 1 temporal, -1 invariant, 0 either.
type Temporality int

const (
	// TemporalityAny accepts subjects from either track.
	TemporalityAny Temporality = 0
	// Temporal requires a subject that repeats per observation period.
	Temporal Temporality = 1
	// Invariant requires a subject that appears once per composite.
	Invariant Temporality = -1
)

// Subject declares one role a change binds to a concrete variable at build
// time: the role's name, the kinds it accepts, which track it must come
// from, and how the change accesses it.
type Subject struct {
	Role        string
	Kinds       []ontology.Kind // empty accepts any kind
	Temporality Temporality
	Mode        Mode
}

// Binding carries everything a change constructor receives: the schema, the
// resolved subject variables keyed by role, and the loaded lookup tables.
type Binding struct {
	Schema   *ontology.Schema
	Subjects map[string]*ontology.Variable
	Lookups  map[string]map[string]any
}

// Subject returns the variable bound to a role. Roles are validated against
// the definition before construction, so a missing role is a programming
// error surfaced as such.
func (b Binding) Subject(role string) *ontology.Variable {
	v, ok := b.Subjects[role]
	if !ok {
		panic(fmt.Sprintf("evolve: role %q was not declared by the change definition", role))
	}
	return v
}

// Lookup returns a loaded lookup table by name.
func (b Binding) Lookup(name string) map[string]any {
	table, ok := b.Lookups[name]
	if !ok {
		panic(fmt.Sprintf("evolve: lookup table %q was not declared by the change definition", name))
	}
	return table
}

// Definition registers one change kind: its name on the wire, the subjects
// it binds, the lookup tables it requires, and its constructor.
type Definition struct {
	Name     string
	Subjects []Subject
	Lookups  []string
	New      func(b Binding) (Change, error)
}

func subjectByRole(subjects []Subject, role string) (Subject, bool) {
	for _, s := range subjects {
		if s.Role == role {
			return s, true
		}
	}
	return Subject{}, false
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Definition)
)

// Register adds a change definition to the global registry. Registering two
// definitions under the same name is a programming error.
func Register(def Definition) {
	if def.Name == "" || def.New == nil {
		panic("evolve: change definition requires a name and a constructor")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("evolve: change %q already registered", def.Name))
	}
	registry[def.Name] = def
}

// Lookup returns a registered change definition by name.
func Lookup(name string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[name]
	return def, ok
}

// RegisteredNames returns the sorted names of all registered change kinds.
func RegisteredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
