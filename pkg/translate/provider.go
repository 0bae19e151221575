// Package translate produces a document in a target track's shape from a
// document in its source track's shape, field by field, following declared
// source links.
package translate

import (
	"errors"
	"fmt"

	"polytropos/pkg/ontology"
)

// ErrSourceNotFound indicates that a declared source path is absent from the
// input document. Translation treats this as "no value contributed" rather
// than a hard failure.
var ErrSourceNotFound = errors.New("translate: source not found in document")

// DuplicateKeyError reports two contributing named-list elements that collide
// on the same key. This is a hard failure for the document being translated.
type DuplicateKeyError struct {
	VarID ontology.VariableId // named-list variable being accumulated
	Key   string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("translate: named list %q produced duplicate key %q", e.VarID, e.Key)
}

// ValueProvider performs read-only, path-based lookup of values inside one
// raw document. Each call re-walks the variable's ancestor chain; there is no
// memory across calls.
type ValueProvider struct {
	document map[string]any
}

// NewValueProvider wraps a raw document for lookups.
func NewValueProvider(document map[string]any) *ValueProvider {
	return &ValueProvider{document: document}
}

// VariableValue finds the value for a variable inside the document. The
// variable's ancestor chain is walked up to the root, or to the ancestor
// whose parent is stopParent when stopParent is non-empty, then reversed into
// a root-to-leaf name path. Missing segments, non-mapping intermediates and
// empty documents yield ErrSourceNotFound.
func (p *ValueProvider) VariableValue(v *ontology.Variable, stopParent ontology.VariableId) (any, error) {
	if len(p.document) == 0 {
		return nil, ErrSourceNotFound
	}
	ancestors := v.Ancestors(stopParent)
	var current any = p.document
	for i := len(ancestors) - 1; i >= 0; i-- {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, ErrSourceNotFound
		}
		current, ok = m[ancestors[i].Name()]
		if !ok {
			return nil, ErrSourceNotFound
		}
	}
	return current, nil
}
