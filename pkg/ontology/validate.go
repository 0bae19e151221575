package ontology

import "strings"

// Path delimiter characters that may not appear in variable names.
const nameDelimiters = "/."

func validateVarID(id VariableId) error {
	if id == "" {
		return validationErr("", "var_id", "variable id is an empty string")
	}
	return nil
}

// validateVariable runs the full structural validation for one variable that
// is already present in the arena. Used by BuildTrack once every node has
// been inserted, so forward references between siblings and parents resolve.
func (t *Track) validateVariable(v *Variable) error {
	if err := validateVarID(v.id); err != nil {
		return err
	}
	if err := t.validateParentRef(v.id, v.parent); err != nil {
		return err
	}
	if err := t.validateName(v.id, v.parent, v.name); err != nil {
		return err
	}
	if err := t.validateSources(v.id, v.kind, v.sources); err != nil {
		return err
	}
	return t.validateSortOrder(v.id, v.parent, v.sortOrder)
}

func (t *Track) validateParentRef(id VariableId, parent VariableId) error {
	if parent == "" {
		return nil
	}
	p, ok := t.Get(parent)
	if !ok {
		return validationErr(id, "parent", "parent %q does not exist in track %q", parent, t.name)
	}
	if !p.kind.IsContainer() {
		return validationErr(id, "parent", "parent %q (%s) is not a container", parent, p.kind)
	}
	return nil
}

func (t *Track) validateName(id VariableId, parent VariableId, name string) error {
	if name == "" {
		return validationErr(id, "name", "name is an empty string")
	}
	if strings.ContainsAny(name, nameDelimiters) {
		return validationErr(id, "name", "name %q contains a path delimiter", name)
	}
	for _, sibling := range t.childrenOf(parent) {
		if sibling.id != id && sibling.name == name {
			return validationErr(id, "name", "name %q duplicates sibling %q", name, sibling.id)
		}
	}
	return nil
}

// validateSchemaPath rejects a mutation that would give the variable the same
// absolute path as a variable in the schema's other track. Every ancestor
// prefix of a variable's path is itself some variable's path, so checking the
// mutated variable's own new path also rules out collisions under its
// descendants.
func (t *Track) validateSchemaPath(id VariableId, parent VariableId, name string) error {
	if t.schema == nil {
		return nil
	}
	path := []string{name}
	if p, ok := t.Get(parent); ok {
		path = append(append([]string{}, p.AbsolutePath()...), name)
	}
	if existing, ok := t.schema.Lookup(path); ok && existing.id != id {
		return validationErr(id, "name",
			"absolute path %q is already taken by %q", pathKey(path), existing.id)
	}
	return nil
}

// validateSortOrder checks that order addresses a valid sibling position.
// The variable itself is excluded from the count, which makes the same bound
// hold for repositioning an existing variable and inserting a new one.
func (t *Track) validateSortOrder(id VariableId, parent VariableId, order int) error {
	if order < 0 {
		return validationErr(id, "sort_order", "sort order %d is negative", order)
	}
	others := 0
	for _, sibling := range t.childrenOf(parent) {
		if sibling.id != id {
			others++
		}
	}
	if order > others {
		return validationErr(id, "sort_order", "%d is out of range for %d siblings", order, others)
	}
	return nil
}

// validateSiblingOrders verifies that each sibling group's sort orders form a
// dense zero-based permutation. Run once per bulk build.
func (t *Track) validateSiblingOrders() error {
	groups := make(map[VariableId][]*Variable)
	for _, v := range t.variables {
		groups[v.parent] = append(groups[v.parent], v)
	}
	for _, siblings := range groups {
		seen := make(map[int]VariableId, len(siblings))
		for _, v := range siblings {
			if prior, dup := seen[v.sortOrder]; dup {
				return validationErr(v.id, "sort_order", "%d duplicates sibling %q", v.sortOrder, prior)
			}
			if v.sortOrder < 0 || v.sortOrder >= len(siblings) {
				return validationErr(v.id, "sort_order", "%d is out of range for %d siblings", v.sortOrder, len(siblings))
			}
			seen[v.sortOrder] = v.id
		}
	}
	return nil
}

// validateSources checks the source lineage rules: folders declare none,
// every source must exist in the upstream track, and each source's kind must
// be compatible with the declaring variable's kind. Tracks without an
// upstream source skip source validation entirely.
func (t *Track) validateSources(id VariableId, kind Kind, sources []VariableId) error {
	if kind == KindFolder && len(sources) > 0 {
		return validationErr(id, "sources", "folders cannot have sources, got %d", len(sources))
	}
	if t.source == nil {
		return nil
	}
	for _, srcID := range sources {
		src, ok := t.source.Get(srcID)
		if !ok {
			return validationErr(id, "sources",
				"source %q does not exist in source track %q", srcID, t.source.name)
		}
		if !kind.CompatibleSource(src.kind) {
			return validationErr(id, "sources",
				"source %q (%s) is incompatible with kind %s", srcID, src.kind, kind)
		}
		if t.StrictLineage {
			if err := t.verifySourceLineage(id, srcID); err != nil {
				return err
			}
		}
	}
	return nil
}

// verifySourceLineage enforces the stricter rule that a variable inside a
// list may only declare sources descending from the enclosing list's own
// sources. Only active when Track.StrictLineage is set.
func (t *Track) verifySourceLineage(id VariableId, srcID VariableId) error {
	v, ok := t.Get(id)
	if !ok {
		return nil // variable not yet inserted; lineage is re-checked on later mutation
	}
	listAncestor := v.FirstListAncestor()
	if listAncestor == nil {
		return nil
	}
	parentSources := make(map[VariableId]struct{}, len(listAncestor.sources))
	for _, s := range listAncestor.sources {
		parentSources[s] = struct{}{}
	}
	src, ok := t.source.Get(srcID)
	if !ok {
		return nil // existence already validated
	}
	for src.parent != "" {
		if _, found := parentSources[src.id]; found {
			return nil
		}
		src, _ = t.source.Get(src.parent)
	}
	if _, found := parentSources[src.id]; found {
		return nil
	}
	return validationErr(id, "sources",
		"source %q does not descend from any source of enclosing list %q", srcID, listAncestor.id)
}
