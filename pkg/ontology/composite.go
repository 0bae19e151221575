package ontology

import (
	"fmt"
	"sort"

	"polytropos/pkg/nested"
)

// InvariantKey is the reserved top-level document key for data that appears
// once per composite rather than once per observation period.
const InvariantKey = "invariant"

// Composite is one document instance being processed: a nested mapping whose
// top level is keyed by period label or the invariant key. Composites carry
// no identity beyond the current processing call and are discarded once the
// batch driver has persisted them.
type Composite struct {
	schema *Schema

	// Content is the raw nested document, mutated in place by changes.
	Content map[string]any

	// ID is the originating item's identifier, when known. Informational.
	ID string
}

// NewComposite wraps a raw document in the shape implied by schema.
func NewComposite(schema *Schema, content map[string]any, id string) *Composite {
	if content == nil {
		content = make(map[string]any)
	}
	return &Composite{schema: schema, Content: content, ID: id}
}

// Schema returns the schema the composite is based on.
func (c *Composite) Schema() *Schema { return c.schema }

// Periods returns the sorted observation period labels present in the
// document. Period labels are the all-digit top-level keys.
func (c *Composite) Periods() []string {
	var out []string
	for key := range c.Content {
		if isDigits(key) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// GetInvariant reads the value of an invariant variable.
func (c *Composite) GetInvariant(v *Variable) (any, error) {
	return nested.Get(c.Content, append([]string{InvariantKey}, v.AbsolutePath()...))
}

// SetInvariant writes the value of an invariant variable, creating
// intermediate containers as needed.
func (c *Composite) SetInvariant(v *Variable, value any) error {
	return nested.Put(c.Content, append([]string{InvariantKey}, v.AbsolutePath()...), value)
}

// GetObservation reads the value of a temporal variable for one period.
func (c *Composite) GetObservation(v *Variable, period string) (any, error) {
	return nested.Get(c.Content, append([]string{period}, v.AbsolutePath()...))
}

// SetObservation writes the value of a temporal variable for one period.
func (c *Composite) SetObservation(v *Variable, period string, value any) error {
	return nested.Put(c.Content, append([]string{period}, v.AbsolutePath()...), value)
}

// DeleteObservation removes a temporal variable's value for one period, if
// present.
func (c *Composite) DeleteObservation(v *Variable, period string) {
	nested.Delete(c.Content, append([]string{period}, v.AbsolutePath()...))
}

// DeleteInvariant removes an invariant variable's value, if present.
func (c *Composite) DeleteInvariant(v *Variable) {
	nested.Delete(c.Content, append([]string{InvariantKey}, v.AbsolutePath()...))
}

// EarliestPeriod returns the smallest period label in the document.
func (c *Composite) EarliestPeriod() (string, error) {
	periods := c.Periods()
	if len(periods) == 0 {
		return "", fmt.Errorf("ontology: composite %q has no observation periods", c.ID)
	}
	return periods[0], nil
}

// LatestPeriod returns the largest period label in the document.
func (c *Composite) LatestPeriod() (string, error) {
	periods := c.Periods()
	if len(periods) == 0 {
		return "", fmt.Errorf("ontology: composite %q has no observation periods", c.ID)
	}
	return periods[len(periods)-1], nil
}
