package translate

import (
	"reflect"
	"testing"

	"polytropos/pkg/ontology"
)

func stageSchemas(t *testing.T) (*ontology.Schema, *ontology.Schema) {
	t.Helper()
	srcTemporal, err := ontology.BuildTrack(map[ontology.VariableId]ontology.VariableSpec{
		"s_weight": {Name: "weight", DataType: "Decimal", SortOrder: 0},
	}, nil, "src_temporal")
	if err != nil {
		t.Fatalf("build src temporal: %v", err)
	}
	srcInvariant, err := ontology.BuildTrack(map[ontology.VariableId]ontology.VariableSpec{
		"s_species": {Name: "species", DataType: "Text", SortOrder: 0},
	}, nil, "src_invariant")
	if err != nil {
		t.Fatalf("build src invariant: %v", err)
	}
	source, err := ontology.NewSchema("source", srcTemporal, srcInvariant)
	if err != nil {
		t.Fatalf("build source schema: %v", err)
	}

	temporal, err := ontology.BuildTrack(map[ontology.VariableId]ontology.VariableSpec{
		"t_weight": {Name: "weight", DataType: "Decimal", SortOrder: 0, Sources: []ontology.VariableId{"s_weight"}},
	}, srcTemporal, "temporal")
	if err != nil {
		t.Fatalf("build temporal: %v", err)
	}
	invariant, err := ontology.BuildTrack(map[ontology.VariableId]ontology.VariableSpec{
		"t_species": {Name: "species", DataType: "Text", SortOrder: 0, Sources: []ontology.VariableId{"s_species"}},
	}, srcInvariant, "invariant")
	if err != nil {
		t.Fatalf("build invariant: %v", err)
	}
	target, err := ontology.NewSchema("target", temporal, invariant)
	if err != nil {
		t.Fatalf("build target schema: %v", err)
	}
	return source, target
}

func TestTranslateComposite(t *testing.T) {
	_, target := stageSchemas(t)
	dt := NewDocumentTranslator(target)
	input := map[string]any{
		"2020":      map[string]any{"weight": "70.0"},
		"2021":      map[string]any{"weight": "75.5"},
		"invariant": map[string]any{"species": "capra hircus"},
		"comment":   map[string]any{"weight": "dropped"},
		"2022":      "not a mapping",
	}
	out, err := dt.TranslateComposite(input)
	if err != nil {
		t.Fatalf("translate composite: %v", err)
	}
	want := map[string]any{
		"2020":      map[string]any{"weight": 70.0},
		"2021":      map[string]any{"weight": 75.5},
		"invariant": map[string]any{"species": "capra hircus"},
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %#v, want %#v", out, want)
	}
	// The input document is untouched.
	if input["2020"].(map[string]any)["weight"] != "70.0" {
		t.Fatal("input document was mutated")
	}
}

func TestTranslateCompositeEmpty(t *testing.T) {
	_, target := stageSchemas(t)
	dt := NewDocumentTranslator(target)
	out, err := dt.TranslateComposite(map[string]any{})
	if err != nil {
		t.Fatalf("translate composite: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %#v", out)
	}
}
