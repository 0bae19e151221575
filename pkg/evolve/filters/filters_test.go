package filters

import (
	"testing"

	"polytropos/pkg/evolve"
	"polytropos/pkg/ontology"
)

func vitalsSchema(t *testing.T) *ontology.Schema {
	t.Helper()
	temporal, err := ontology.BuildTrack(map[ontology.VariableId]ontology.VariableSpec{
		"weight": {Name: "weight", DataType: "Decimal", SortOrder: 0},
	}, nil, "temporal")
	if err != nil {
		t.Fatalf("build temporal: %v", err)
	}
	invariant, err := ontology.BuildTrack(map[ontology.VariableId]ontology.VariableSpec{
		"species": {Name: "species", DataType: "Text", SortOrder: 0},
	}, nil, "invariant")
	if err != nil {
		t.Fatalf("build invariant: %v", err)
	}
	schema, err := ontology.NewSchema("vitals", temporal, invariant)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return schema
}

func buildFilter(t *testing.T, schema *ontology.Schema, spec evolve.ChangeSpec) evolve.Filter {
	t.Helper()
	f, err := evolve.BuildFilter(spec, nil, schema, evolve.MapLookupSource{})
	if err != nil {
		t.Fatalf("build filter %s: %v", spec.Name, err)
	}
	return f
}

func TestHasValueInvariant(t *testing.T) {
	schema := vitalsSchema(t)
	f := buildFilter(t, schema, evolve.ChangeSpec{
		Name:     "has_value",
		Subjects: map[string]ontology.VariableId{"var": "species"},
	})
	cases := []struct {
		name    string
		content map[string]any
		want    bool
	}{
		{
			name:    "present",
			content: map[string]any{"invariant": map[string]any{"species": "goat"}},
			want:    true,
		},
		{
			name:    "absent",
			content: map[string]any{"invariant": map[string]any{}},
			want:    false,
		},
		{
			name:    "explicit null",
			content: map[string]any{"invariant": map[string]any{"species": nil}},
			want:    false,
		},
		{
			name:    "no invariant section",
			content: map[string]any{},
			want:    false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.Passes(ontology.NewComposite(schema, tc.content, "doc"))
			if err != nil || got != tc.want {
				t.Fatalf("passes: got (%v, %v), want %v", got, err, tc.want)
			}
		})
	}
}

func TestHasValueTemporal(t *testing.T) {
	schema := vitalsSchema(t)
	f := buildFilter(t, schema, evolve.ChangeSpec{
		Name:     "has_value",
		Subjects: map[string]ontology.VariableId{"var": "weight"},
	})
	observed := ontology.NewComposite(schema, map[string]any{
		"2020": map[string]any{},
		"2021": map[string]any{"weight": 70.5},
	}, "doc")
	got, err := f.Passes(observed)
	if err != nil || !got {
		t.Fatalf("value in one period should pass: (%v, %v)", got, err)
	}
	empty := ontology.NewComposite(schema, map[string]any{
		"2020": map[string]any{},
	}, "doc")
	got, err = f.Passes(empty)
	if err != nil || got {
		t.Fatalf("no observed value should not pass: (%v, %v)", got, err)
	}
}

func TestHasPeriods(t *testing.T) {
	schema := vitalsSchema(t)
	f := buildFilter(t, schema, evolve.ChangeSpec{Name: "has_periods"})
	observed := ontology.NewComposite(schema, map[string]any{"2020": map[string]any{}}, "doc")
	got, err := f.Passes(observed)
	if err != nil || !got {
		t.Fatalf("composite with a period should pass: (%v, %v)", got, err)
	}
	invariantOnly := ontology.NewComposite(schema, map[string]any{
		"invariant": map[string]any{"species": "goat"},
	}, "doc")
	got, err = f.Passes(invariantOnly)
	if err != nil || got {
		t.Fatalf("composite without periods should not pass: (%v, %v)", got, err)
	}
}
