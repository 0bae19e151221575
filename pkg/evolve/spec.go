package evolve

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"polytropos/pkg/ontology"
)

// ChangeSpec is one entry of a change specification: a single-key object
// whose key is the change kind's registered name and whose value maps each
// declared subject role to a variable id.
type ChangeSpec struct {
	Name     string
	Subjects map[string]ontology.VariableId
}

// UnmarshalYAML decodes the single-key wire shape.
func (s *ChangeSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]map[string]ontology.VariableId
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.fromRaw(raw)
}

// UnmarshalJSON decodes the single-key wire shape.
func (s *ChangeSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]ontology.VariableId
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.fromRaw(raw)
}

func (s *ChangeSpec) fromRaw(raw map[string]map[string]ontology.VariableId) error {
	if len(raw) != 1 {
		return fmt.Errorf("evolve: malformed change specification: expected one change kind, got %d", len(raw))
	}
	for name, subjects := range raw {
		s.Name = name
		s.Subjects = subjects
	}
	return nil
}

// MarshalYAML emits the single-key wire shape.
func (s ChangeSpec) MarshalYAML() (any, error) {
	return map[string]map[string]ontology.VariableId{s.Name: s.Subjects}, nil
}

// MarshalJSON emits the single-key wire shape.
func (s ChangeSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]ontology.VariableId{s.Name: s.Subjects})
}
