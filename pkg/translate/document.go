package translate

import (
	"polytropos/pkg/ontology"
)

// DocumentTranslator translates whole composites across a stage boundary:
// every all-digit top-level key runs through the temporal translator, the
// invariant key through the invariant translator, and anything else is
// dropped.
type DocumentTranslator struct {
	target    *ontology.Schema
	temporal  *Translator
	invariant *Translator
}

// NewDocumentTranslator builds the per-track translators for a target schema.
func NewDocumentTranslator(target *ontology.Schema) *DocumentTranslator {
	return &DocumentTranslator{
		target:    target,
		temporal:  NewTranslator(target.Temporal()),
		invariant: NewTranslator(target.Invariant()),
	}
}

// Target returns the schema the translator produces documents for.
func (d *DocumentTranslator) Target() *ontology.Schema { return d.target }

// TranslateComposite produces a new document in the target schema's shape.
// The input document is never mutated.
func (d *DocumentTranslator) TranslateComposite(content map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(content))
	for key, value := range content {
		section, ok := value.(map[string]any)
		if !ok {
			continue
		}
		switch {
		case key == ontology.InvariantKey:
			translated, err := d.invariant.Translate(section)
			if err != nil {
				return nil, err
			}
			out[key] = translated
		case isPeriodLabel(key):
			translated, err := d.temporal.Translate(section)
			if err != nil {
				return nil, err
			}
			out[key] = translated
		}
	}
	return out, nil
}

func isPeriodLabel(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
