package changes

import (
	"polytropos/pkg/evolve"
	"polytropos/pkg/ontology"
)

func init() {
	evolve.Register(evolve.Definition{
		Name: "cast_all",
		New: func(b evolve.Binding) (evolve.Change, error) {
			return &castAll{schema: b.Schema}, nil
		},
	})
}

// castAll coerces every primitive value in the document to its variable's
// declared kind, in place. Null markers and values that cannot be coerced are
// removed rather than left in a foreign representation.
type castAll struct {
	schema *ontology.Schema
}

func (a *castAll) Apply(c *ontology.Composite) error {
	for _, period := range c.Periods() {
		if section, ok := c.Content[period].(map[string]any); ok {
			castSection(section, a.schema.Temporal().Roots())
		}
	}
	if section, ok := c.Content[ontology.InvariantKey].(map[string]any); ok {
		castSection(section, a.schema.Invariant().Roots())
	}
	return nil
}

func castSection(section map[string]any, vars []*ontology.Variable) {
	for _, v := range vars {
		value, present := section[v.Name()]
		if !present {
			continue
		}
		switch {
		case v.Kind() == ontology.KindFolder:
			if folder, ok := value.(map[string]any); ok {
				castSection(folder, v.Children())
			}
		case v.Kind() == ontology.KindList:
			if items, ok := value.([]any); ok {
				for _, item := range items {
					if element, ok := item.(map[string]any); ok {
						castSection(element, v.Children())
					}
				}
			}
		case v.Kind() == ontology.KindNamedList:
			if entries, ok := value.(map[string]any); ok {
				for _, entry := range entries {
					if element, ok := entry.(map[string]any); ok {
						castSection(element, v.Children())
					}
				}
			}
		default:
			cast, err := v.Kind().Cast(value)
			if err != nil || cast == nil {
				delete(section, v.Name())
				continue
			}
			section[v.Name()] = cast
		}
	}
}
