package ontology

import (
	"errors"
	"testing"
)

// originSpecs describes the upstream stage used across tests: a folder with
// two primitives and a list of pets.
func originSpecs() map[VariableId]VariableSpec {
	return map[VariableId]VariableSpec{
		"o_outer":    {Name: "outer", DataType: "Folder", SortOrder: 0},
		"o_name":     {Name: "name", DataType: "Text", SortOrder: 0, Parent: "o_outer"},
		"o_age":      {Name: "age", DataType: "Integer", SortOrder: 1, Parent: "o_outer"},
		"o_pets":     {Name: "pets", DataType: "List", SortOrder: 1},
		"o_pet_name": {Name: "name", DataType: "Text", SortOrder: 0, Parent: "o_pets"},
		"o_pet_kind": {Name: "kind", DataType: "Text", SortOrder: 1, Parent: "o_pets"},
	}
}

func stageSpecs() map[VariableId]VariableSpec {
	return map[VariableId]VariableSpec{
		"t_outer":    {Name: "outer", DataType: "Folder", SortOrder: 0},
		"t_name":     {Name: "name", DataType: "Text", SortOrder: 0, Parent: "t_outer", Sources: []VariableId{"o_name"}},
		"t_age":      {Name: "age", DataType: "Integer", SortOrder: 1, Parent: "t_outer", Sources: []VariableId{"o_age"}},
		"t_pets":     {Name: "pets", DataType: "List", SortOrder: 1, Sources: []VariableId{"o_pets"}},
		"t_pet_name": {Name: "name", DataType: "Text", SortOrder: 0, Parent: "t_pets", Sources: []VariableId{"o_pet_name"}},
	}
}

func newOriginTrack(t *testing.T) *Track {
	t.Helper()
	track, err := BuildTrack(originSpecs(), nil, "origin")
	if err != nil {
		t.Fatalf("build origin track: %v", err)
	}
	return track
}

func newStageTrack(t *testing.T) *Track {
	t.Helper()
	origin := newOriginTrack(t)
	track, err := BuildTrack(stageSpecs(), origin, "stage")
	if err != nil {
		t.Fatalf("build stage track: %v", err)
	}
	return track
}

func TestBuildTrackResolvesForwardReferences(t *testing.T) {
	// Child declared under a parent that only exists once the whole spec map
	// is inserted. Map iteration order makes this probabilistic in a single
	// run but deterministic in intent.
	track, err := BuildTrack(map[VariableId]VariableSpec{
		"zz_child":  {Name: "child", DataType: "Text", SortOrder: 0, Parent: "aa_parent"},
		"aa_parent": {Name: "parent", DataType: "Folder", SortOrder: 0},
	}, nil, "fwd")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if track.Len() != 2 {
		t.Fatalf("expected 2 variables, got %d", track.Len())
	}
}

func TestBuildTrackRejectsFolderWithSources(t *testing.T) {
	origin := newOriginTrack(t)
	specs := stageSpecs()
	specs["t_outer"] = VariableSpec{Name: "outer", DataType: "Folder", SortOrder: 0, Sources: []VariableId{"o_outer"}}
	_, err := BuildTrack(specs, origin, "stage")
	var verr *SchemaValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected SchemaValidationError, got %v", err)
	}
	if verr.Field != "sources" {
		t.Fatalf("expected sources violation, got %q", verr.Field)
	}
}

func TestBuildTrackRejectsInvalidSpecs(t *testing.T) {
	cases := []struct {
		name  string
		specs map[VariableId]VariableSpec
		field string
	}{
		{
			name: "empty name",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "", DataType: "Text", SortOrder: 0},
			},
			field: "name",
		},
		{
			name: "name with delimiter",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "first/last", DataType: "Text", SortOrder: 0},
			},
			field: "name",
		},
		{
			name: "duplicate sibling name",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "twin", DataType: "Text", SortOrder: 0},
				"b": {Name: "twin", DataType: "Text", SortOrder: 1},
			},
			field: "name",
		},
		{
			name: "missing parent",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "orphan", DataType: "Text", SortOrder: 0, Parent: "ghost"},
			},
			field: "parent",
		},
		{
			name: "primitive parent",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "leaf", DataType: "Text", SortOrder: 0},
				"b": {Name: "child", DataType: "Text", SortOrder: 0, Parent: "a"},
			},
			field: "parent",
		},
		{
			name: "sparse sort orders",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "first", DataType: "Text", SortOrder: 0},
				"b": {Name: "second", DataType: "Text", SortOrder: 2},
			},
			field: "sort_order",
		},
		{
			name: "duplicate sort orders",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "first", DataType: "Text", SortOrder: 0},
				"b": {Name: "second", DataType: "Text", SortOrder: 0},
			},
			field: "sort_order",
		},
		{
			name: "negative sort order",
			specs: map[VariableId]VariableSpec{
				"a": {Name: "first", DataType: "Text", SortOrder: -1},
			},
			field: "sort_order",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildTrack(tc.specs, nil, "invalid")
			var verr *SchemaValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected SchemaValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected %q violation, got %q (%v)", tc.field, verr.Field, verr)
			}
		})
	}
}

func TestBuildTrackSourceCompatibility(t *testing.T) {
	origin := newOriginTrack(t)
	cases := []struct {
		name    string
		spec    VariableSpec
		wantErr bool
	}{
		{
			name: "same kind",
			spec: VariableSpec{Name: "v", DataType: "Text", SortOrder: 0, Sources: []VariableId{"o_name"}},
		},
		{
			name: "list from list",
			spec: VariableSpec{Name: "v", DataType: "List", SortOrder: 0, Sources: []VariableId{"o_pets"}},
		},
		{
			name: "list from folder",
			spec: VariableSpec{Name: "v", DataType: "List", SortOrder: 0, Sources: []VariableId{"o_outer"}},
		},
		{
			name:    "list from text",
			spec:    VariableSpec{Name: "v", DataType: "List", SortOrder: 0, Sources: []VariableId{"o_name"}},
			wantErr: true,
		},
		{
			name:    "text from integer",
			spec:    VariableSpec{Name: "v", DataType: "Text", SortOrder: 0, Sources: []VariableId{"o_age"}},
			wantErr: true,
		},
		{
			name:    "unknown source",
			spec:    VariableSpec{Name: "v", DataType: "Text", SortOrder: 0, Sources: []VariableId{"o_ghost"}},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildTrack(map[VariableId]VariableSpec{"v": tc.spec}, origin, "compat")
			if tc.wantErr && err == nil {
				t.Fatal("expected validation failure")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected failure: %v", err)
			}
		})
	}
}

func TestAddShiftsSiblings(t *testing.T) {
	track := newStageTrack(t)
	if _, err := track.Add("t_email", VariableSpec{Name: "email", DataType: "Email", SortOrder: 0, Parent: "t_outer"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	wantOrder := []VariableId{"t_email", "t_name", "t_age"}
	children := mustGet(t, track, "t_outer").Children()
	if len(children) != len(wantOrder) {
		t.Fatalf("expected %d children, got %d", len(wantOrder), len(children))
	}
	for i, child := range children {
		if child.ID() != wantOrder[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantOrder[i], child.ID())
		}
		if child.SortOrder() != i {
			t.Fatalf("position %d: sort order %d is not dense", i, child.SortOrder())
		}
	}
}

func TestAddRejectsWithoutMutation(t *testing.T) {
	track := newStageTrack(t)
	before := mustGet(t, track, "t_name").SortOrder()
	_, err := track.Add("t_dup", VariableSpec{Name: "name", DataType: "Text", SortOrder: 0, Parent: "t_outer"})
	if err == nil {
		t.Fatal("expected duplicate name rejection")
	}
	if got := mustGet(t, track, "t_name").SortOrder(); got != before {
		t.Fatalf("rejected add mutated sibling order: %d != %d", got, before)
	}
	if _, err := track.Add("t_name", VariableSpec{Name: "other", DataType: "Text", SortOrder: 0, Parent: "t_outer"}); err == nil {
		t.Fatal("expected duplicate id rejection")
	}
}

func TestDelete(t *testing.T) {
	track := newStageTrack(t)
	if err := track.Delete("t_outer"); err == nil {
		t.Fatal("expected rejection: variable has children")
	}
	if err := track.Delete("t_ghost"); err == nil {
		t.Fatal("expected rejection: variable does not exist")
	}
	if err := track.Delete("t_name"); err != nil {
		t.Fatalf("delete leaf: %v", err)
	}
	if track.Has("t_name") {
		t.Fatal("deleted variable still present")
	}
	if got := mustGet(t, track, "t_age").SortOrder(); got != 0 {
		t.Fatalf("sibling not renumbered after delete: %d", got)
	}
}

func TestDeleteRejectsSourceOfDownstream(t *testing.T) {
	origin := newOriginTrack(t)
	if _, err := BuildTrack(stageSpecs(), origin, "stage"); err != nil {
		t.Fatalf("build stage: %v", err)
	}
	if err := origin.Delete("o_name"); err == nil {
		t.Fatal("expected rejection: downstream variable depends on o_name")
	}
}

func TestSetSortOrder(t *testing.T) {
	track := newStageTrack(t)
	if err := track.SetSortOrder("t_name", 1); err != nil {
		t.Fatalf("set sort order: %v", err)
	}
	children := mustGet(t, track, "t_outer").Children()
	if children[0].ID() != "t_age" || children[1].ID() != "t_name" {
		t.Fatalf("unexpected order: %s, %s", children[0].ID(), children[1].ID())
	}
	for i, child := range children {
		if child.SortOrder() != i {
			t.Fatalf("orders not dense after reposition: %v at %d", child.ID(), child.SortOrder())
		}
	}
	if err := track.SetSortOrder("t_name", 5); err == nil {
		t.Fatal("expected out-of-range rejection")
	}
}

func TestSetSortOrderKeepsOrdersDense(t *testing.T) {
	build := func(t *testing.T) *Track {
		t.Helper()
		track, err := BuildTrack(map[VariableId]VariableSpec{
			"a": {Name: "a", DataType: "Text", SortOrder: 0},
			"b": {Name: "b", DataType: "Text", SortOrder: 1},
			"c": {Name: "c", DataType: "Text", SortOrder: 2},
		}, nil, "dense")
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return track
	}
	cases := []struct {
		name  string
		id    VariableId
		order int
		want  []VariableId
	}{
		{name: "first to last", id: "a", order: 2, want: []VariableId{"b", "c", "a"}},
		{name: "last to first", id: "c", order: 0, want: []VariableId{"c", "a", "b"}},
		{name: "middle to last", id: "b", order: 2, want: []VariableId{"a", "c", "b"}},
		{name: "no-op", id: "b", order: 1, want: []VariableId{"a", "b", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			track := build(t)
			if err := track.SetSortOrder(tc.id, tc.order); err != nil {
				t.Fatalf("set sort order: %v", err)
			}
			roots := track.Roots()
			for i, root := range roots {
				if root.ID() != tc.want[i] {
					t.Fatalf("unexpected order: got %v at %d, want %v", root.ID(), i, tc.want[i])
				}
				if root.SortOrder() != i {
					t.Fatalf("orders not dense: %v at %d", root.ID(), root.SortOrder())
				}
			}
		})
	}
}

func TestMove(t *testing.T) {
	track := newStageTrack(t)
	if err := track.Move("t_age", "t_pets", 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	moved := mustGet(t, track, "t_age")
	if moved.Parent() != "t_pets" {
		t.Fatalf("parent not updated: %s", moved.Parent())
	}
	if got := mustGet(t, track, "t_name").SortOrder(); got != 0 {
		t.Fatalf("old sibling not renumbered: %d", got)
	}
	pets := mustGet(t, track, "t_pets").Children()
	if len(pets) != 2 || pets[1].ID() != "t_age" {
		t.Fatalf("unexpected children of list: %v", pets)
	}
}

func TestMoveRejectsOwnSubtree(t *testing.T) {
	track, err := BuildTrack(map[VariableId]VariableSpec{
		"a": {Name: "a", DataType: "Folder", SortOrder: 0},
		"b": {Name: "b", DataType: "Folder", SortOrder: 0, Parent: "a"},
		"c": {Name: "c", DataType: "Folder", SortOrder: 0, Parent: "b"},
	}, nil, "cycle")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := track.Move("a", "c", 0); err == nil {
		t.Fatal("expected rejection: move into own subtree")
	}
	if err := track.Move("a", "a", 0); err == nil {
		t.Fatal("expected rejection: move under itself")
	}
}

func TestSetSourcesPrunesDescendants(t *testing.T) {
	origin := newOriginTrack(t)
	track, err := BuildTrack(stageSpecs(), origin, "stage")
	if err != nil {
		t.Fatalf("build stage: %v", err)
	}
	// Re-point the list at the folder; the pet-name source no longer descends
	// from any list source and must be pruned.
	if err := track.SetSources("t_pets", []VariableId{"o_outer"}); err != nil {
		t.Fatalf("set sources: %v", err)
	}
	if got := mustGet(t, track, "t_pet_name").Sources(); len(got) != 0 {
		t.Fatalf("expected pruned sources, got %v", got)
	}
}

func mustGet(t *testing.T, track *Track, id VariableId) *Variable {
	t.Helper()
	v, ok := track.Get(id)
	if !ok {
		t.Fatalf("variable %s not found", id)
	}
	return v
}
