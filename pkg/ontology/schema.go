package ontology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrackType selects which track a schema lookup is expected to resolve in.
type TrackType int

const (
	// TrackAny accepts a variable from either track.
	TrackAny TrackType = iota
	// TrackTemporal requires the variable to repeat per observation period.
	TrackTemporal
	// TrackInvariant requires the variable to appear once per composite.
	TrackInvariant
)

// Schema identifies every temporal and invariant property a composite can
// have at one pipeline stage. It owns a temporal track and an invariant
// track and guarantees variable ids are unique across both.
type Schema struct {
	name      string
	temporal  *Track
	invariant *Track
	source    *Schema

	// Lazily rebuilt absolute-path index, nil when stale.
	pathIndex map[string]*Variable
}

// NewSchema aggregates a temporal and an invariant track. It fails when the
// two tracks share a variable id, when two variables resolve to the same
// absolute path, or when the tracks descend from different source schemas.
func NewSchema(name string, temporal, invariant *Track) (*Schema, error) {
	s := &Schema{name: name, temporal: temporal, invariant: invariant}
	for id := range temporal.variables {
		if invariant.Has(id) {
			return nil, validationErr(id, "var_id", "appears in both the temporal and invariant tracks")
		}
	}
	if temporal.source != nil && invariant.source != nil {
		if temporal.source.schema != invariant.source.schema {
			return nil, fmt.Errorf("ontology: temporal and invariant tracks have different source schemas")
		}
		s.source = temporal.source.schema
	}
	temporal.schema = s
	invariant.schema = s
	if err := s.buildPathIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the schema's name.
func (s *Schema) Name() string { return s.name }

// Temporal returns the temporal track.
func (s *Schema) Temporal() *Track { return s.temporal }

// Invariant returns the invariant track.
func (s *Schema) Invariant() *Track { return s.invariant }

// Source returns the upstream schema this one can be translated from, if any.
func (s *Schema) Source() *Schema { return s.source }

// Get retrieves a variable by id regardless of the track that holds it.
func (s *Schema) Get(id VariableId) (*Variable, bool) {
	if v, ok := s.temporal.Get(id); ok {
		return v, true
	}
	return s.invariant.Get(id)
}

// GetTracked retrieves a variable by id and verifies which track it came
// from.
func (s *Schema) GetTracked(id VariableId, tt TrackType) (*Variable, error) {
	v, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("ontology: schema %q has no variable %q", s.name, id)
	}
	temporal := s.temporal.Has(id)
	if tt == TrackTemporal && !temporal {
		return nil, fmt.Errorf("ontology: variable %q was expected to be temporal, but it is invariant", id)
	}
	if tt == TrackInvariant && temporal {
		return nil, fmt.Errorf("ontology: variable %q was expected to be invariant, but it is temporal", id)
	}
	return v, nil
}

// IsTemporal classifies a variable id: true when it repeats per observation
// period, false when it appears once under the invariant key.
func (s *Schema) IsTemporal(id VariableId) (bool, error) {
	if s.temporal.Has(id) {
		return true, nil
	}
	if s.invariant.Has(id) {
		return false, nil
	}
	return false, fmt.Errorf("ontology: schema %q has no variable %q", s.name, id)
}

// Lookup resolves a variable by absolute path.
func (s *Schema) Lookup(path []string) (*Variable, bool) {
	if s.pathIndex == nil {
		// Construction and every path-affecting mutation validate schema-wide
		// path uniqueness, so the rebuild cannot hit a collision.
		if err := s.buildPathIndex(); err != nil {
			return nil, false
		}
	}
	v, ok := s.pathIndex[pathKey(path)]
	return v, ok
}

// Variables returns every variable in the schema, temporal track first.
func (s *Schema) Variables() []*Variable {
	out := s.temporal.Variables()
	return append(out, s.invariant.Variables()...)
}

func (s *Schema) buildPathIndex() error {
	index := make(map[string]*Variable, s.temporal.Len()+s.invariant.Len())
	for _, track := range []*Track{s.temporal, s.invariant} {
		for _, v := range track.Variables() {
			key := pathKey(v.AbsolutePath())
			if prior, dup := index[key]; dup {
				return &DuplicatePathError{First: prior.id, Second: v.id, Path: v.AbsolutePath()}
			}
			index[key] = v
		}
	}
	s.pathIndex = index
	return nil
}

func pathKey(path []string) string {
	return strings.Join(path, "/")
}

func (s *Schema) invalidate() {
	s.pathIndex = nil
}

const (
	temporalFilename  = "temporal.json"
	invariantFilename = "invariant.json"
)

// LoadSchema reads a schema from temporal.json and invariant.json inside dir.
// When sourceSchema is non-nil the loaded tracks are chained to its tracks so
// that source declarations resolve across the stage boundary.
func LoadSchema(dir string, sourceSchema *Schema) (*Schema, error) {
	name := strings.ReplaceAll(filepath.ToSlash(filepath.Clean(dir)), "/", "_")
	var sourceTemporal, sourceInvariant *Track
	if sourceSchema != nil {
		sourceTemporal = sourceSchema.temporal
		sourceInvariant = sourceSchema.invariant
	}
	temporal, err := loadTrack(filepath.Join(dir, temporalFilename), sourceTemporal, name+"_temporal")
	if err != nil {
		return nil, err
	}
	invariant, err := loadTrack(filepath.Join(dir, invariantFilename), sourceInvariant, name+"_invariant")
	if err != nil {
		return nil, err
	}
	return NewSchema(name, temporal, invariant)
}

func loadTrack(path string, source *Track, name string) (*Track, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- schema location is operator-supplied configuration
	if err != nil {
		return nil, fmt.Errorf("read track %q: %w", path, err)
	}
	var specs map[VariableId]VariableSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decode track %q: %w", path, err)
	}
	return BuildTrack(specs, source, name)
}

// Serialize writes the schema's tracks as JSON files into dir.
func (s *Schema) Serialize(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeTrack(filepath.Join(dir, temporalFilename), s.temporal); err != nil {
		return err
	}
	return writeTrack(filepath.Join(dir, invariantFilename), s.invariant)
}

func writeTrack(path string, t *Track) error {
	data, err := json.MarshalIndent(t.Dump(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) // #nosec G306 -- schema files are shared configuration
}
