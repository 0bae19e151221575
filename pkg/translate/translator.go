package translate

import (
	"errors"
	"fmt"
	"sort"

	"polytropos/pkg/ontology"
)

// Translator translates documents into the shape of one target track. The
// target track's variables are grouped by parent once at construction; the
// translator itself is read-only and safe for concurrent use across
// documents.
type Translator struct {
	target   *ontology.Track
	byParent map[ontology.VariableId][]*ontology.Variable
}

// NewTranslator builds a translator for the given target track. The track
// must have an upstream source track for source declarations to resolve.
func NewTranslator(target *ontology.Track) *Translator {
	byParent := make(map[ontology.VariableId][]*ontology.Variable)
	for _, v := range target.Variables() {
		byParent[v.Parent()] = append(byParent[v.Parent()], v)
	}
	for _, siblings := range byParent {
		sort.Slice(siblings, func(i, j int) bool { return siblings[i].SortOrder() < siblings[j].SortOrder() })
	}
	return &Translator{target: target, byParent: byParent}
}

// Translate produces a new document in the target track's shape from a raw
// source-shaped document. Variables without declared sources contribute
// nothing; folders are emitted only when a descendant produced a value.
func (t *Translator) Translate(document map[string]any) (map[string]any, error) {
	return t.translate(document, "", "")
}

// translate walks one level of the target tree. parentID selects which
// target variables to emit; sourceParentID bounds source path resolution so
// that list elements are looked up relative to their own sub-document.
func (t *Translator) translate(document map[string]any, parentID, sourceParentID ontology.VariableId) (map[string]any, error) {
	out := make(map[string]any)
	provider := NewValueProvider(document)
	for _, v := range t.byParent[parentID] {
		if v.Kind() == ontology.KindFolder {
			sub, err := t.translate(document, v.ID(), sourceParentID)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				out[v.Name()] = sub
			}
			continue
		}
		if len(v.Sources()) == 0 {
			continue
		}
		value, found, err := t.translateValue(provider, v, sourceParentID)
		if err != nil {
			return nil, err
		}
		if found {
			out[v.Name()] = value
		}
	}
	return out, nil
}

// translateValue dispatches on the target variable's kind and accumulates a
// value from the variable's declared sources.
func (t *Translator) translateValue(provider *ValueProvider, v *ontology.Variable, sourceParentID ontology.VariableId) (any, bool, error) {
	switch {
	case v.Kind() == ontology.KindList:
		return t.translateList(provider, v, sourceParentID)
	case v.Kind() == ontology.KindNamedList:
		return t.translateNamedList(provider, v, sourceParentID)
	case v.Kind().IsPrimitive():
		return t.translatePrimitive(provider, v, sourceParentID)
	default:
		return nil, false, fmt.Errorf("translate: variable %q has untranslatable kind %s", v.ID(), v.Kind())
	}
}

// translatePrimitive casts the first source value present in the document.
// When no source is present, no value is contributed.
func (t *Translator) translatePrimitive(provider *ValueProvider, v *ontology.Variable, sourceParentID ontology.VariableId) (any, bool, error) {
	for _, srcID := range v.Sources() {
		raw, err := t.sourceValue(provider, v, srcID, sourceParentID)
		if errors.Is(err, ErrSourceNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		cast, err := v.Kind().Cast(raw)
		if err != nil {
			return nil, false, err
		}
		return cast, true, nil
	}
	return nil, false, nil
}

// translateList concatenates the translations of every source list's
// elements, source by source, preserving element order. An upstream folder
// acting as a single-element list is wrapped accordingly. Absent sources
// contribute nothing; the result is an empty sequence rather than absence
// when no source produced elements.
func (t *Translator) translateList(provider *ValueProvider, v *ontology.Variable, sourceParentID ontology.VariableId) (any, bool, error) {
	result := make([]any, 0)
	for _, srcID := range v.Sources() {
		raw, err := t.sourceValue(provider, v, srcID, sourceParentID)
		if errors.Is(err, ErrSourceNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		var elements []any
		switch value := raw.(type) {
		case map[string]any:
			elements = []any{value}
		case []any:
			elements = value
		default:
			return nil, false, fmt.Errorf("translate: list %q source %q holds %T, expected a sequence", v.ID(), srcID, raw)
		}
		for _, element := range elements {
			item, ok := element.(map[string]any)
			if !ok {
				return nil, false, fmt.Errorf("translate: list %q source %q element is %T, expected a mapping", v.ID(), srcID, element)
			}
			translated, err := t.translate(item, v.ID(), srcID)
			if err != nil {
				return nil, false, err
			}
			result = append(result, translated)
		}
	}
	return result, true, nil
}

// translateNamedList accumulates keyed translations across sources. Each key
// must be produced by exactly one contributing element; collisions fail with
// a *DuplicateKeyError.
func (t *Translator) translateNamedList(provider *ValueProvider, v *ontology.Variable, sourceParentID ontology.VariableId) (any, bool, error) {
	result := make(map[string]any)
	for _, srcID := range v.Sources() {
		raw, err := t.sourceValue(provider, v, srcID, sourceParentID)
		if errors.Is(err, ErrSourceNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		entries, ok := raw.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("translate: named list %q source %q holds %T, expected a mapping", v.ID(), srcID, raw)
		}
		for _, key := range sortedKeys(entries) {
			if _, dup := result[key]; dup {
				return nil, false, &DuplicateKeyError{VarID: v.ID(), Key: key}
			}
			item, ok := entries[key].(map[string]any)
			if !ok {
				return nil, false, fmt.Errorf("translate: named list %q source %q entry %q is %T, expected a mapping", v.ID(), srcID, key, entries[key])
			}
			translated, err := t.translate(item, v.ID(), srcID)
			if err != nil {
				return nil, false, err
			}
			result[key] = translated
		}
	}
	return result, true, nil
}

// sourceValue resolves one declared source id in the upstream track and looks
// its value up in the document.
func (t *Translator) sourceValue(provider *ValueProvider, v *ontology.Variable, srcID, sourceParentID ontology.VariableId) (any, error) {
	source := t.target.Source()
	if source == nil {
		return nil, fmt.Errorf("translate: track %q has no source track", t.target.Name())
	}
	src, ok := source.Get(srcID)
	if !ok {
		return nil, fmt.Errorf("translate: source %q of variable %q does not exist in track %q", srcID, v.ID(), source.Name())
	}
	return provider.VariableValue(src, sourceParentID)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
