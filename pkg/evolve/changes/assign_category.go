package changes

import (
	"errors"
	"fmt"
	"strings"

	"polytropos/pkg/evolve"
	"polytropos/pkg/nested"
	"polytropos/pkg/ontology"
)

func init() {
	evolve.Register(evolve.Definition{
		Name: "assign_category",
		Subjects: []evolve.Subject{
			{Role: "source_var", Kinds: []ontology.Kind{ontology.KindText}, Temporality: evolve.Invariant, Mode: evolve.ModeRead},
			{Role: "target_var", Kinds: []ontology.Kind{ontology.KindText}, Temporality: evolve.Invariant, Mode: evolve.ModeWrite},
		},
		Lookups: []string{"categories"},
		New: func(b evolve.Binding) (evolve.Change, error) {
			return &assignCategory{
				source:     b.Subject("source_var"),
				target:     b.Subject("target_var"),
				categories: b.Lookup("categories"),
			}, nil
		},
	})
}

// assignCategory maps an invariant text value through the "categories" lookup
// table, keyed case-insensitively, and writes the result to another invariant
// variable. Composites whose source value is absent or unmapped are left
// untouched.
type assignCategory struct {
	source     *ontology.Variable
	target     *ontology.Variable
	categories map[string]any
}

func (a *assignCategory) Apply(c *ontology.Composite) error {
	raw, err := c.GetInvariant(a.source)
	if err != nil {
		if errors.Is(err, nested.ErrMissing) {
			return nil
		}
		return err
	}
	text, ok := raw.(string)
	if !ok {
		return fmt.Errorf("changes: composite %q: category source is %T, not a string", c.ID, raw)
	}
	category, ok := a.categories[strings.ToLower(text)]
	if !ok {
		return nil
	}
	return c.SetInvariant(a.target, category)
}
