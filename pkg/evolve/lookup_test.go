package evolve

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirLookupSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "categories.json"), []byte(`{"goat": "ruminant"}`), 0o644); err != nil {
		t.Fatalf("write lookup: %v", err)
	}
	src := DirLookupSource{Dir: dir}
	table, err := src.Load("categories")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table["goat"] != "ruminant" {
		t.Fatalf("unexpected table: %v", table)
	}
	if _, err := src.Load("missing"); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestDirLookupSourceRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`[1, 2]`), 0o644); err != nil {
		t.Fatalf("write lookup: %v", err)
	}
	if _, err := (DirLookupSource{Dir: dir}).Load("bad"); err == nil {
		t.Fatal("expected decode error for non-object table")
	}
}
