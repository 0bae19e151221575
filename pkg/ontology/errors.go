package ontology

import (
	"fmt"
	"strings"
)

// SchemaValidationError reports a structural invariant violation during
// variable construction or mutation. The failing mutation is rejected and the
// prior state is left intact.
type SchemaValidationError struct {
	VarID VariableId // variable being constructed or mutated
	Field string     // offending attribute (var_id, name, parent, sources, sort_order)
	Msg   string
}

func (e *SchemaValidationError) Error() string {
	if e.VarID == "" {
		return fmt.Sprintf("ontology: invalid %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("ontology: variable %q: invalid %s: %s", e.VarID, e.Field, e.Msg)
}

func validationErr(varID VariableId, field, format string, args ...any) error {
	return &SchemaValidationError{VarID: varID, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// CastError reports a raw value that cannot be coerced to its declared kind.
// This is a hard failure for the document being processed.
type CastError struct {
	Kind   Kind
	Value  any
	Reason string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("ontology: cannot cast %v (%T) as %s: %s", e.Value, e.Value, e.Kind, e.Reason)
}

// DuplicatePathError reports two variables in one schema that resolve to the
// same absolute path.
type DuplicatePathError struct {
	First  VariableId
	Second VariableId
	Path   []string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("ontology: variables %q and %q share the absolute path %s",
		e.First, e.Second, strings.Join(e.Path, "/"))
}
