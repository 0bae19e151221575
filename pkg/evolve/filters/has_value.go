// Package filters holds the built-in filter kinds. Importing the package
// registers them with the evolve registry.
package filters

import (
	"errors"

	"polytropos/pkg/evolve"
	"polytropos/pkg/nested"
	"polytropos/pkg/ontology"
)

func init() {
	evolve.RegisterFilter(evolve.FilterDefinition{
		Name: "has_value",
		Subjects: []evolve.Subject{
			{Role: "var", Mode: evolve.ModeRead},
		},
		New: newHasValue,
	})
	evolve.RegisterFilter(evolve.FilterDefinition{
		Name: "has_periods",
		New: func(evolve.Binding) (evolve.Filter, error) {
			return hasPeriods{}, nil
		},
	})
}

// hasValue passes composites that carry a non-nil value for the subject
// variable: in at least one observation period for a temporal subject, under
// the invariant key otherwise.
type hasValue struct {
	v        *ontology.Variable
	temporal bool
}

func newHasValue(b evolve.Binding) (evolve.Filter, error) {
	v := b.Subject("var")
	temporal, err := b.Schema.IsTemporal(v.ID())
	if err != nil {
		return nil, err
	}
	return &hasValue{v: v, temporal: temporal}, nil
}

func (f *hasValue) Passes(c *ontology.Composite) (bool, error) {
	if !f.temporal {
		return present(c.GetInvariant(f.v))
	}
	for _, period := range c.Periods() {
		ok, err := present(c.GetObservation(f.v, period))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func present(value any, err error) (bool, error) {
	if errors.Is(err, nested.ErrMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

// hasPeriods passes composites with at least one observation period. Useful
// ahead of changes that compare earliest and latest observations.
type hasPeriods struct{}

func (hasPeriods) Passes(c *ontology.Composite) (bool, error) {
	return len(c.Periods()) > 0, nil
}
