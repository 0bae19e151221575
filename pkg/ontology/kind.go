package ontology

import "fmt"

// Kind identifies the concrete data type of a Variable. The set of kinds is
// closed; translation and change dispatch switch on this tag rather than on
// runtime types.
type Kind string

const (
	// KindFolder is a purely structural container. Folders never declare
	// sources and never hold values of their own.
	KindFolder Kind = "Folder"
	// KindList is an ordered collection of nested records.
	KindList Kind = "List"
	// KindNamedList is a keyed collection of nested records.
	KindNamedList Kind = "NamedList"

	// KindInteger is a whole-number primitive.
	KindInteger Kind = "Integer"
	// KindText is a free-form text primitive.
	KindText Kind = "Text"
	// KindDecimal is a floating-point primitive.
	KindDecimal Kind = "Decimal"
	// KindUnary is a primitive that is either present (true) or absent.
	KindUnary Kind = "Unary"
	// KindBinary is a true/false primitive.
	KindBinary Kind = "Binary"
	// KindCurrency is a monetary amount primitive.
	KindCurrency Kind = "Currency"
	// KindPhone is a phone-number primitive (stored as text).
	KindPhone Kind = "Phone"
	// KindEmail is an e-mail address primitive (stored as text).
	KindEmail Kind = "Email"
	// KindURL is a URL primitive (stored as text).
	KindURL Kind = "URL"
	// KindDate is a calendar-date primitive normalized to YYYY-MM-DD.
	KindDate Kind = "Date"
)

var allKinds = map[Kind]struct{}{
	KindFolder: {}, KindList: {}, KindNamedList: {},
	KindInteger: {}, KindText: {}, KindDecimal: {}, KindUnary: {},
	KindBinary: {}, KindCurrency: {}, KindPhone: {}, KindEmail: {},
	KindURL: {}, KindDate: {},
}

// ParseKind converts a serialized data type name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := allKinds[k]; !ok {
		return "", fmt.Errorf("ontology: unknown data type %q", s)
	}
	return k, nil
}

// IsContainer reports whether the kind may own child variables.
func (k Kind) IsContainer() bool {
	return k == KindFolder || k.IsGenericList()
}

// IsGenericList reports whether the kind starts a new path root for its
// children (lists and named lists).
func (k Kind) IsGenericList() bool {
	return k == KindList || k == KindNamedList
}

// IsPrimitive reports whether the kind holds a scalar value.
func (k Kind) IsPrimitive() bool {
	_, ok := allKinds[k]
	return ok && !k.IsContainer()
}

// CompatibleSource reports whether a variable of the receiver kind may declare
// a source variable of kind src. Kinds must match exactly, except that a List
// may additionally source from a Folder (single-element lists are sometimes
// represented upstream as folders).
func (k Kind) CompatibleSource(src Kind) bool {
	if k == KindList {
		return src == KindList || src == KindFolder
	}
	return k == src
}
