// Package changes holds the built-in change kinds. Importing the package
// registers them with the evolve registry.
package changes

import (
	"fmt"

	"polytropos/pkg/evolve"
	"polytropos/pkg/ontology"
)

func init() {
	evolve.Register(evolve.Definition{
		Name: "calculate_weight_gain",
		Subjects: []evolve.Subject{
			{Role: "weight_var", Kinds: []ontology.Kind{ontology.KindDecimal}, Temporality: evolve.Temporal, Mode: evolve.ModeRead},
			{Role: "weight_gain_var", Kinds: []ontology.Kind{ontology.KindDecimal}, Temporality: evolve.Invariant, Mode: evolve.ModeWrite},
		},
		New: func(b evolve.Binding) (evolve.Change, error) {
			return &weightGain{
				weight: b.Subject("weight_var"),
				gain:   b.Subject("weight_gain_var"),
			}, nil
		},
	})
}

// weightGain records the difference between the latest and earliest observed
// weight as an invariant property.
type weightGain struct {
	weight *ontology.Variable
	gain   *ontology.Variable
}

func (g *weightGain) Apply(c *ontology.Composite) error {
	earliest, err := c.EarliestPeriod()
	if err != nil {
		return err
	}
	latest, err := c.LatestPeriod()
	if err != nil {
		return err
	}
	first, err := observedWeight(c, g.weight, earliest)
	if err != nil {
		return err
	}
	last, err := observedWeight(c, g.weight, latest)
	if err != nil {
		return err
	}
	return c.SetInvariant(g.gain, last-first)
}

func observedWeight(c *ontology.Composite, v *ontology.Variable, period string) (float64, error) {
	raw, err := c.GetObservation(v, period)
	if err != nil {
		return 0, err
	}
	switch value := raw.(type) {
	case float64:
		return value, nil
	case int64:
		return float64(value), nil
	case int:
		return float64(value), nil
	default:
		return 0, fmt.Errorf("changes: composite %q period %s: weight is %T, not a number", c.ID, period, raw)
	}
}
