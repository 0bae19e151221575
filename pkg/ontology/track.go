package ontology

import (
	"sort"
	"strings"
)

// Track owns one schema version's forest of variables. All variables are
// stored in an arena keyed by id; relationships between them are resolved
// through the track. Tracks form a linear pipeline chain through their
// source (upstream) and target (downstream) references.
type Track struct {
	name   string
	source *Track
	target *Track
	schema *Schema

	variables map[VariableId]*Variable

	// Lazily built child index, nil when stale. Roots live under the empty
	// parent id.
	children map[VariableId][]*Variable

	// StrictLineage additionally requires every source declared by a variable
	// inside a list to descend from one of the enclosing list's own sources.
	// Off by default: the looser descendant-source pruning applied on source
	// mutation is the active behavior.
	StrictLineage bool
}

// VariableSpec is the serialized shape of one variable in a track file.
type VariableSpec struct {
	Name             string       `json:"name"`
	DataType         string       `json:"data_type"`
	SortOrder        int          `json:"sort_order"`
	Parent           VariableId   `json:"parent,omitempty"`
	Sources          []VariableId `json:"sources,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	EarliestEpoch    string       `json:"earliest_epoch,omitempty"`
	LatestEpoch      string       `json:"latest_epoch,omitempty"`
	ShortDescription string       `json:"short_description,omitempty"`
	LongDescription  string       `json:"long_description,omitempty"`
}

// NewTrack constructs an empty track. When source is non-nil the new track
// becomes the source's downstream target, extending the pipeline chain.
func NewTrack(name string, source *Track) *Track {
	t := &Track{name: name, variables: make(map[VariableId]*Variable)}
	if source != nil {
		t.source = source
		source.target = t
	}
	return t
}

// BuildTrack constructs a track from serialized specs. Insertion is relaxed
// (a child may be declared before its parent); the full structural validation
// runs once every node is present and fails with a *SchemaValidationError on
// the first violation, returning no track.
func BuildTrack(specs map[VariableId]VariableSpec, source *Track, name string) (*Track, error) {
	t := NewTrack(name, source)
	for id, spec := range specs {
		v, err := t.newVariable(id, spec)
		if err != nil {
			return nil, err
		}
		t.variables[id] = v
	}
	for _, v := range t.Variables() {
		if err := t.validateVariable(v); err != nil {
			return nil, err
		}
	}
	if err := t.validateSiblingOrders(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Track) newVariable(id VariableId, spec VariableSpec) (*Variable, error) {
	kind, err := ParseKind(spec.DataType)
	if err != nil {
		return nil, validationErr(id, "data_type", "%v", err)
	}
	return &Variable{
		track:            t,
		id:               id,
		kind:             kind,
		name:             spec.Name,
		sortOrder:        spec.SortOrder,
		parent:           spec.Parent,
		sources:          append([]VariableId{}, spec.Sources...),
		Notes:            strings.TrimSpace(spec.Notes),
		EarliestEpoch:    strings.TrimSpace(spec.EarliestEpoch),
		LatestEpoch:      strings.TrimSpace(spec.LatestEpoch),
		ShortDescription: strings.TrimSpace(spec.ShortDescription),
		LongDescription:  strings.TrimSpace(spec.LongDescription),
	}, nil
}

// Name returns the track's name.
func (t *Track) Name() string { return t.name }

// Source returns the upstream track, nil for the first pipeline stage.
func (t *Track) Source() *Track { return t.source }

// Target returns the downstream track, nil for the last pipeline stage.
func (t *Track) Target() *Track { return t.target }

// Schema returns the schema this track is attached to, if any.
func (t *Track) Schema() *Schema { return t.schema }

// Len returns the number of variables in the track.
func (t *Track) Len() int { return len(t.variables) }

// Get returns the variable with the given id.
func (t *Track) Get(id VariableId) (*Variable, bool) {
	v, ok := t.variables[id]
	return v, ok
}

// Has reports whether the track owns a variable with the given id.
func (t *Track) Has(id VariableId) bool {
	_, ok := t.variables[id]
	return ok
}

// Variables returns every variable in the track, ordered by id for
// deterministic iteration.
func (t *Track) Variables() []*Variable {
	out := make([]*Variable, 0, len(t.variables))
	for _, v := range t.variables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Roots returns the track's root variables ordered by sort order.
func (t *Track) Roots() []*Variable {
	roots := t.childrenOf("")
	out := make([]*Variable, len(roots))
	copy(out, roots)
	return out
}

// DescendantsThat returns the ids of all variables in the track matching the
// filter, ordered by id.
func (t *Track) DescendantsThat(f Filter) []VariableId {
	var out []VariableId
	for _, v := range t.Variables() {
		if f.matches(v) {
			out = append(out, v.id)
		}
	}
	return out
}

// Dump returns the serializable spec map for the whole track.
func (t *Track) Dump() map[VariableId]VariableSpec {
	out := make(map[VariableId]VariableSpec, len(t.variables))
	for id, v := range t.variables {
		out[id] = v.Dump()
	}
	return out
}

// Add constructs and inserts a new variable, running full structural
// validation first. Existing siblings at or after the requested sort order
// are shifted up by one. On any validation failure the track is unmodified.
func (t *Track) Add(id VariableId, spec VariableSpec) (*Variable, error) {
	if err := validateVarID(id); err != nil {
		return nil, err
	}
	if t.Has(id) {
		return nil, validationErr(id, "var_id", "already exists in track %q", t.name)
	}
	if t.schema != nil {
		if _, ok := t.schema.Get(id); ok {
			return nil, validationErr(id, "var_id", "already exists elsewhere in the schema")
		}
	}
	v, err := t.newVariable(id, spec)
	if err != nil {
		return nil, err
	}
	if err := t.validateParentRef(id, v.parent); err != nil {
		return nil, err
	}
	if err := t.validateName(id, v.parent, v.name); err != nil {
		return nil, err
	}
	if err := t.validateSchemaPath(id, v.parent, v.name); err != nil {
		return nil, err
	}
	if err := t.validateSources(id, v.kind, v.sources); err != nil {
		return nil, err
	}
	if err := t.validateSortOrder(id, v.parent, v.sortOrder); err != nil {
		return nil, err
	}

	for _, sibling := range t.childrenOf(v.parent) {
		if sibling.sortOrder >= v.sortOrder {
			sibling.sortOrder++
		}
	}
	t.variables[id] = v
	t.structuralChange(v, nil)
	return v, nil
}

// Delete removes a leaf variable and renumbers its remaining siblings. A
// variable with children or with downstream dependents cannot be deleted.
func (t *Track) Delete(id VariableId) error {
	v, ok := t.Get(id)
	if !ok {
		return validationErr(id, "var_id", "does not exist in track %q", t.name)
	}
	if len(t.childrenOf(id)) > 0 {
		return validationErr(id, "var_id", "cannot delete a variable with children")
	}
	if v.HasTargets() {
		return validationErr(id, "var_id", "cannot delete a variable that downstream variables depend on")
	}
	siblings := t.childrenOf(v.parent)
	delete(t.variables, id)
	for _, sibling := range siblings {
		if sibling.id != id && sibling.sortOrder > v.sortOrder {
			sibling.sortOrder--
		}
	}
	t.structuralChange(v, nil)
	return nil
}

// SetName renames a variable after validating sibling uniqueness and path
// legality. Memoized paths for the variable and its descendants are
// invalidated; unrelated siblings keep their caches.
func (t *Track) SetName(id VariableId, name string) error {
	v, ok := t.Get(id)
	if !ok {
		return validationErr(id, "var_id", "does not exist in track %q", t.name)
	}
	if err := t.validateName(id, v.parent, name); err != nil {
		return err
	}
	if err := t.validateSchemaPath(id, v.parent, name); err != nil {
		return err
	}
	v.name = name
	t.structuralChange(v, nil)
	return nil
}

// SetSortOrder repositions a variable among its siblings, shifting the
// affected siblings so that sort orders remain a dense zero-based permutation.
func (t *Track) SetSortOrder(id VariableId, order int) error {
	v, ok := t.Get(id)
	if !ok {
		return validationErr(id, "var_id", "does not exist in track %q", t.name)
	}
	if err := t.validateSortOrder(id, v.parent, order); err != nil {
		return err
	}
	if order == v.sortOrder {
		return nil
	}
	old := v.sortOrder
	for _, sibling := range t.childrenOf(v.parent) {
		if sibling.id == id {
			continue
		}
		switch {
		case order > old && sibling.sortOrder > old && sibling.sortOrder <= order:
			sibling.sortOrder--
		case order < old && sibling.sortOrder >= order && sibling.sortOrder < old:
			sibling.sortOrder++
		}
	}
	v.sortOrder = order
	t.structuralChange(v, nil)
	return nil
}

// Move reparents a variable, appending it at the requested position under the
// new parent. Reparenting a variable into its own subtree is rejected. The
// operation is atomic: all validation happens before any renumbering.
func (t *Track) Move(id VariableId, newParent VariableId, order int) error {
	v, ok := t.Get(id)
	if !ok {
		return validationErr(id, "var_id", "does not exist in track %q", t.name)
	}
	if newParent == v.parent {
		return t.SetSortOrder(id, order)
	}
	if err := t.validateParentRef(id, newParent); err != nil {
		return err
	}
	if newParent == id || v.CheckAncestor(newParent, false) {
		return validationErr(id, "parent", "cannot move a variable into its own subtree")
	}
	if err := t.validateName(id, newParent, v.name); err != nil {
		return err
	}
	if err := t.validateSchemaPath(id, newParent, v.name); err != nil {
		return err
	}
	newSiblings := t.childrenOf(newParent)
	if order < 0 || order > len(newSiblings) {
		return validationErr(id, "sort_order", "%d is out of range for %d siblings", order, len(newSiblings))
	}

	oldAncestors := v.Ancestors("")
	for _, sibling := range t.childrenOf(v.parent) {
		if sibling.id != id && sibling.sortOrder > v.sortOrder {
			sibling.sortOrder--
		}
	}
	for _, sibling := range newSiblings {
		if sibling.sortOrder >= order {
			sibling.sortOrder++
		}
	}
	v.parent = newParent
	v.sortOrder = order
	t.structuralChange(v, oldAncestors)
	return nil
}

// SetSources replaces a variable's declared upstream sources. When the
// variable is a list or named list, sources previously declared by its
// descendants that are no longer reachable through the new source set are
// pruned from those descendants.
func (t *Track) SetSources(id VariableId, sources []VariableId) error {
	v, ok := t.Get(id)
	if !ok {
		return validationErr(id, "var_id", "does not exist in track %q", t.name)
	}
	if err := t.validateSources(id, v.kind, sources); err != nil {
		return err
	}
	v.sources = append([]VariableId{}, sources...)
	if v.kind.IsGenericList() && t.source != nil {
		t.pruneUnreachableSources(v)
	}
	return nil
}

// pruneUnreachableSources removes, from every descendant of list, any source
// that does not descend from one of the list's own declared sources.
func (t *Track) pruneUnreachableSources(list *Variable) {
	t.walkSubtree(list, func(d *Variable) {
		if len(d.sources) == 0 {
			return
		}
		kept := d.sources[:0]
		for _, candidate := range d.sources {
			reachable := false
			for _, parentSource := range list.sources {
				if src, ok := t.source.Get(parentSource); ok && src.CheckAncestor(candidate, false) {
					reachable = true
					break
				}
			}
			if reachable {
				kept = append(kept, candidate)
			}
		}
		d.sources = kept
	})
}

func (t *Track) walkSubtree(v *Variable, fn func(*Variable)) {
	for _, child := range t.childrenOf(v.id) {
		fn(child)
		t.walkSubtree(child, fn)
	}
}

// childrenOf returns the cached, sort-ordered children of a parent id. The
// empty id yields the track's roots.
func (t *Track) childrenOf(parent VariableId) []*Variable {
	if t.children == nil {
		index := make(map[VariableId][]*Variable)
		for _, v := range t.variables {
			index[v.parent] = append(index[v.parent], v)
		}
		for _, siblings := range index {
			sort.Slice(siblings, func(i, j int) bool {
				if siblings[i].sortOrder != siblings[j].sortOrder {
					return siblings[i].sortOrder < siblings[j].sortOrder
				}
				return siblings[i].id < siblings[j].id
			})
		}
		t.children = index
	}
	return t.children[parent]
}

// InvalidateCache drops every memoized derived value in the track: the child
// index, per-variable paths and trees, and the owning schema's lookup caches.
func (t *Track) InvalidateCache() {
	t.children = nil
	for _, v := range t.variables {
		v.invalidate()
	}
	if t.schema != nil {
		t.schema.invalidate()
	}
}

// structuralChange propagates cache invalidation after a committed mutation:
// the changed variable's subtree, its ancestor chains (old and new), the
// child index and the schema caches. Unrelated siblings are untouched.
func (t *Track) structuralChange(v *Variable, oldAncestors []*Variable) {
	t.children = nil
	t.invalidateSubtree(v)
	for _, a := range v.Ancestors("") {
		a.invalidate()
	}
	for _, a := range oldAncestors {
		a.invalidate()
	}
	if t.schema != nil {
		t.schema.invalidate()
	}
}

func (t *Track) invalidateSubtree(v *Variable) {
	v.invalidate()
	for _, w := range t.variables {
		if w.parent == v.id {
			t.invalidateSubtree(w)
		}
	}
}
