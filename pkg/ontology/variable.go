package ontology

import "errors"

// VariableId uniquely identifies a variable across an entire schema, i.e.
// across every track combined. Ids are opaque and never encode structure.
type VariableId string

// ErrFolderTargets is returned when Targets is called on a Folder; folders
// cannot be depended upon by downstream variables.
var ErrFolderTargets = errors.New("ontology: folders cannot have targets")

// Variable is one named, typed node in a Track's tree. Variables are owned
// exclusively by their Track; parent, child and source relationships are
// plain id references resolved through the track, never direct links.
//
// Structural attributes (name, parent, sort order, sources) are mutated
// through the owning Track, which validates before committing and invalidates
// memoized derived state. The metadata fields carry no invariants and may be
// set freely.
type Variable struct {
	track     *Track
	id        VariableId
	kind      Kind
	name      string
	sortOrder int
	parent    VariableId // empty when the variable is a root
	sources   []VariableId

	// Operator-facing metadata with no structural meaning.
	Notes            string
	EarliestEpoch    string
	LatestEpoch      string
	ShortDescription string
	LongDescription  string

	// Memoized derived state, nil when invalid. Guarded by the single-writer
	// lifecycle: schema mutation and document processing never interleave.
	absPath []string
	relPath []string
	tree    map[string]any
}

// ID returns the variable's immutable identity.
func (v *Variable) ID() VariableId { return v.id }

// Kind returns the variable's concrete kind, fixed at construction.
func (v *Variable) Kind() Kind { return v.kind }

// Name returns the local path segment for this variable.
func (v *Variable) Name() string { return v.name }

// SortOrder returns the zero-based position among siblings.
func (v *Variable) SortOrder() int { return v.sortOrder }

// Parent returns the parent variable id, empty for roots.
func (v *Variable) Parent() VariableId { return v.parent }

// Track returns the owning track.
func (v *Variable) Track() *Track { return v.track }

// Sources returns a copy of the ordered upstream variable ids this variable
// derives its value from during translation.
func (v *Variable) Sources() []VariableId {
	out := make([]VariableId, len(v.sources))
	copy(out, v.sources)
	return out
}

// Temporal reports whether the variable repeats once per observation period.
// It is false for variables in tracks not attached to a schema.
func (v *Variable) Temporal() bool {
	if v.track.schema == nil {
		return false
	}
	temporal, err := v.track.schema.IsTemporal(v.id)
	return err == nil && temporal
}

// Siblings returns the ids of all variables sharing this variable's parent,
// including the variable itself.
func (v *Variable) Siblings() []VariableId {
	siblings := v.track.childrenOf(v.parent)
	out := make([]VariableId, 0, len(siblings))
	for _, s := range siblings {
		out = append(out, s.id)
	}
	return out
}

// Children returns this variable's children ordered by sort order.
func (v *Variable) Children() []*Variable {
	kids := v.track.childrenOf(v.id)
	out := make([]*Variable, len(kids))
	copy(out, kids)
	return out
}

// HasTargets reports whether any downstream variable depends on this one.
// Folders never have targets.
func (v *Variable) HasTargets() bool {
	if v.kind == KindFolder {
		return false
	}
	targets, err := v.Targets()
	return err == nil && len(targets) > 0
}

// Targets returns the ids of variables in the downstream track whose sources
// include this variable. Calling Targets on a Folder is an error.
func (v *Variable) Targets() ([]VariableId, error) {
	if v.kind == KindFolder {
		return nil, ErrFolderTargets
	}
	var out []VariableId
	if v.track.target == nil {
		return out, nil
	}
	for _, candidate := range v.track.target.Variables() {
		for _, src := range candidate.sources {
			if src == v.id {
				out = append(out, candidate.id)
				break
			}
		}
	}
	return out, nil
}

// DescendsFromList reports whether this variable or any ancestor sits inside
// a list or named list.
func (v *Variable) DescendsFromList() bool {
	if v.parent == "" {
		return false
	}
	parent, ok := v.track.Get(v.parent)
	if !ok {
		return false
	}
	return parent.kind.IsGenericList() || parent.DescendsFromList()
}

// AbsolutePath returns the root-to-self chain of names. The result is
// memoized and invalidated when any structural attribute changes on this
// variable or an ancestor.
func (v *Variable) AbsolutePath() []string {
	if v.absPath == nil {
		if v.parent == "" {
			v.absPath = []string{v.name}
		} else {
			parent, _ := v.track.Get(v.parent)
			v.absPath = append(append([]string{}, parent.AbsolutePath()...), v.name)
		}
	}
	out := make([]string, len(v.absPath))
	copy(out, v.absPath)
	return out
}

// RelativePath returns the name chain from the nearest enclosing list (or the
// root) to this variable. Lists act as fresh path roots for their children.
func (v *Variable) RelativePath() []string {
	if v.relPath == nil {
		if v.parent == "" {
			v.relPath = []string{v.name}
		} else {
			parent, _ := v.track.Get(v.parent)
			if parent.kind.IsGenericList() {
				v.relPath = []string{v.name}
			} else {
				v.relPath = append(append([]string{}, parent.RelativePath()...), v.name)
			}
		}
	}
	out := make([]string, len(v.relPath))
	copy(out, v.relPath)
	return out
}

// Tree returns a nested representation of this variable and its descendants,
// ordered by sort order. Intended for authoring UIs.
func (v *Variable) Tree() map[string]any {
	if v.tree == nil {
		node := map[string]any{
			"title":    v.name,
			"varId":    string(v.id),
			"dataType": string(v.kind),
		}
		children := v.Children()
		if len(children) > 0 {
			subtrees := make([]map[string]any, 0, len(children))
			for _, child := range children {
				subtrees = append(subtrees, child.Tree())
			}
			node["children"] = subtrees
		}
		v.tree = node
	}
	return cloneTree(v.tree)
}

func cloneTree(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for key, value := range node {
		if children, ok := value.([]map[string]any); ok {
			cloned := make([]map[string]any, 0, len(children))
			for _, child := range children {
				cloned = append(cloned, cloneTree(child))
			}
			out[key] = cloned
			continue
		}
		out[key] = value
	}
	return out
}

// CheckAncestor reports whether childID's ancestor chain reaches this
// variable. With stopAtList the walk refuses to cross a list boundary.
func (v *Variable) CheckAncestor(childID VariableId, stopAtList bool) bool {
	child, ok := v.track.Get(childID)
	if !ok || child.parent == "" {
		return false
	}
	if child.parent == v.id {
		return true
	}
	if stopAtList {
		if parent, ok := v.track.Get(child.parent); ok && parent.kind.IsGenericList() {
			return false
		}
	}
	return v.CheckAncestor(child.parent, stopAtList)
}

// FirstListAncestor returns the nearest enclosing list or named list, or nil.
func (v *Variable) FirstListAncestor() *Variable {
	if v.parent == "" {
		return nil
	}
	parent, ok := v.track.Get(v.parent)
	if !ok {
		return nil
	}
	if parent.kind.IsGenericList() {
		return parent
	}
	return parent.FirstListAncestor()
}

// Ancestors returns the chain self, parent, grandparent, ... . When
// stopParent is non-empty the walk ends with the ancestor whose parent equals
// stopParent; otherwise it ends at the root.
func (v *Variable) Ancestors(stopParent VariableId) []*Variable {
	out := []*Variable{v}
	current := v
	for current.parent != "" && current.parent != stopParent {
		next, ok := v.track.Get(current.parent)
		if !ok {
			break
		}
		out = append(out, next)
		current = next
	}
	return out
}

// Filter restricts descendant queries. The tri-state fields follow sign
// semantics: 1 requires the property, -1 excludes it, 0 ignores it.
type Filter struct {
	Kind       Kind // restrict to one concrete kind; zero value matches all
	Targets    int
	Container  int
	InsideList int
}

func (f Filter) matches(v *Variable) bool {
	if f.Kind != "" && v.kind != f.Kind {
		return false
	}
	if f.Targets == 1 && !v.HasTargets() {
		return false
	}
	if f.Targets == -1 && v.HasTargets() {
		return false
	}
	if f.Container == 1 && !v.kind.IsContainer() {
		return false
	}
	if f.Container == -1 && v.kind.IsContainer() {
		return false
	}
	if f.InsideList == 1 && !v.DescendsFromList() {
		return false
	}
	if f.InsideList == -1 && v.DescendsFromList() {
		return false
	}
	return true
}

// DescendantsThat returns ids from this variable's own subtree matching the
// filter. The subtree is bounded by the nearest list: descendants reached
// only by crossing a nested list boundary are excluded.
func (v *Variable) DescendantsThat(f Filter) []VariableId {
	var out []VariableId
	for _, id := range v.track.DescendantsThat(f) {
		if v.CheckAncestor(id, true) {
			out = append(out, id)
		}
	}
	return out
}

// Dump returns a serializable representation of this variable, mirroring the
// on-disk track spec shape.
func (v *Variable) Dump() VariableSpec {
	return VariableSpec{
		Name:             v.name,
		DataType:         string(v.kind),
		SortOrder:        v.sortOrder,
		Parent:           v.parent,
		Sources:          v.Sources(),
		Notes:            v.Notes,
		EarliestEpoch:    v.EarliestEpoch,
		LatestEpoch:      v.LatestEpoch,
		ShortDescription: v.ShortDescription,
		LongDescription:  v.LongDescription,
	}
}

// invalidate clears memoized derived state for this variable only.
func (v *Variable) invalidate() {
	v.absPath = nil
	v.relPath = nil
	v.tree = nil
}
