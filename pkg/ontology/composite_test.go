package ontology

import (
	"reflect"
	"testing"
)

func TestCompositePeriods(t *testing.T) {
	schema := newTestSchema(t)
	c := NewComposite(schema, map[string]any{
		"2021":      map[string]any{},
		"2019":      map[string]any{},
		"invariant": map[string]any{},
		"notes":     "ignored",
	}, "doc1")
	if got := c.Periods(); !reflect.DeepEqual(got, []string{"2019", "2021"}) {
		t.Fatalf("periods: got %v", got)
	}
	earliest, err := c.EarliestPeriod()
	if err != nil || earliest != "2019" {
		t.Fatalf("earliest: (%v, %v)", earliest, err)
	}
	latest, err := c.LatestPeriod()
	if err != nil || latest != "2021" {
		t.Fatalf("latest: (%v, %v)", latest, err)
	}
}

func TestCompositePeriodsEmpty(t *testing.T) {
	schema := newTestSchema(t)
	c := NewComposite(schema, nil, "doc1")
	if got := c.Periods(); len(got) != 0 {
		t.Fatalf("periods of empty document: %v", got)
	}
	if _, err := c.EarliestPeriod(); err == nil {
		t.Fatal("expected error for document with no periods")
	}
}

func TestCompositeValues(t *testing.T) {
	schema := newTestSchema(t)
	c := NewComposite(schema, nil, "doc1")
	weight := mustGet(t, schema.Temporal(), "weight")
	species := mustGet(t, schema.Invariant(), "species")

	if err := c.SetObservation(weight, "2020", 70.0); err != nil {
		t.Fatalf("set observation: %v", err)
	}
	if err := c.SetInvariant(species, "capra hircus"); err != nil {
		t.Fatalf("set invariant: %v", err)
	}
	got, err := c.GetObservation(weight, "2020")
	if err != nil || got != 70.0 {
		t.Fatalf("get observation: (%v, %v)", got, err)
	}
	got, err = c.GetInvariant(species)
	if err != nil || got != "capra hircus" {
		t.Fatalf("get invariant: (%v, %v)", got, err)
	}
	if _, err := c.GetObservation(weight, "2021"); err == nil {
		t.Fatal("expected missing-value error for unset period")
	}

	c.DeleteObservation(weight, "2020")
	if _, err := c.GetObservation(weight, "2020"); err == nil {
		t.Fatal("observation still present after delete")
	}
	c.DeleteInvariant(species)
	if _, err := c.GetInvariant(species); err == nil {
		t.Fatal("invariant still present after delete")
	}
}
