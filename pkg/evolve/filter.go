package evolve

import (
	"fmt"
	"sort"
	"sync"

	"polytropos/pkg/ontology"
)

// Filter decides whether a composite stays in the batch. Passes must not
// mutate the composite.
type Filter interface {
	Passes(c *ontology.Composite) (bool, error)
}

// FilterDefinition registers one filter kind: its name on the wire, the
// subjects it binds, the lookup tables it requires, and its constructor.
type FilterDefinition struct {
	Name     string
	Subjects []Subject
	Lookups  []string
	New      func(b Binding) (Filter, error)
}

var (
	filterRegistryMu sync.RWMutex
	filterRegistry   = make(map[string]FilterDefinition)
)

// RegisterFilter adds a filter definition to the global registry. Registering
// two definitions under the same name is a programming error.
func RegisterFilter(def FilterDefinition) {
	if def.Name == "" || def.New == nil {
		panic("evolve: filter definition requires a name and a constructor")
	}
	filterRegistryMu.Lock()
	defer filterRegistryMu.Unlock()
	if _, exists := filterRegistry[def.Name]; exists {
		panic(fmt.Sprintf("evolve: filter %q already registered", def.Name))
	}
	filterRegistry[def.Name] = def
}

// LookupFilter returns a registered filter definition by name.
func LookupFilter(name string) (FilterDefinition, bool) {
	filterRegistryMu.RLock()
	defer filterRegistryMu.RUnlock()
	def, ok := filterRegistry[name]
	return def, ok
}

// RegisteredFilterNames returns the sorted names of all registered filter
// kinds.
func RegisteredFilterNames() []string {
	filterRegistryMu.RLock()
	defer filterRegistryMu.RUnlock()
	names := make([]string, 0, len(filterRegistry))
	for name := range filterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildFilter resolves a filter spec against a schema and instantiates the
// filter. The wire shape is the same single-key object changes use: the
// filter kind's registered name mapping each subject role to a variable id.
func BuildFilter(spec ChangeSpec, lookupNames []string, schema *ontology.Schema, lookups LookupSource) (Filter, error) {
	loaded := make(map[string]map[string]any, len(lookupNames))
	for _, name := range lookupNames {
		table, err := lookups.Load(name)
		if err != nil {
			return nil, err
		}
		loaded[name] = table
	}
	def, ok := LookupFilter(spec.Name)
	if !ok {
		return nil, fmt.Errorf("evolve: unknown filter kind %q", spec.Name)
	}
	binding, err := resolveBinding(def.Name, def.Subjects, def.Lookups, spec, schema, loaded, lookups)
	if err != nil {
		return nil, err
	}
	f, err := def.New(binding)
	if err != nil {
		return nil, fmt.Errorf("evolve: construct filter %q: %w", spec.Name, err)
	}
	return f, nil
}
