package evolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LookupSource loads named lookup tables. Tables are static keyed mappings
// (e.g. name → category) loaded once per metamorphosis and shared, read-only,
// across all document applications.
type LookupSource interface {
	Load(name string) (map[string]any, error)
}

// DirLookupSource reads lookup tables from one JSON object file per table,
// named <table>.json inside Dir.
type DirLookupSource struct {
	Dir string
}

// Load reads and decodes one lookup table.
func (s DirLookupSource) Load(name string) (map[string]any, error) {
	path := filepath.Join(s.Dir, name+".json")
	data, err := os.ReadFile(path) // #nosec G304 -- lookup location is operator-supplied configuration
	if err != nil {
		return nil, fmt.Errorf("evolve: load lookup %q: %w", name, err)
	}
	var table map[string]any
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("evolve: decode lookup %q: %w", name, err)
	}
	return table, nil
}

// MapLookupSource serves lookup tables from memory. Intended for tests and
// embedded configurations.
type MapLookupSource map[string]map[string]any

// Load returns the named table.
func (s MapLookupSource) Load(name string) (map[string]any, error) {
	table, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("evolve: lookup table %q is not available", name)
	}
	return table, nil
}
