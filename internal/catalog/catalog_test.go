package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"codequiz/internal/quiz"
)

func TestBuiltinCatalogLoads(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if len(c.LanguageIDs()) != 3 {
		t.Fatalf("expected 3 languages, got %v", c.LanguageIDs())
	}
	java := c.DefaultSettings(quiz.LanguageJava)
	if java.Difficulty != quiz.DifficultyEasy || len(java.Topics) != 3 || java.Topics[0] != "Lists" {
		t.Fatalf("unexpected java defaults %#v", java)
	}
	if got := c.Topics(quiz.LanguageC); len(got) != 5 {
		t.Fatalf("expected 5 C topics, got %v", got)
	}
}

func TestValidateRejectsUnknownDefaultTopic(t *testing.T) {
	body := []byte(`
languages:
  - id: c
    defaults:
      topics: [Generics]
    topics: [Arrays]
`)
	if _, err := Parse(body); err == nil {
		t.Fatalf("expected error for default topic outside topic list")
	}
}

func TestLoadOverrideFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := []byte(`
kind: catalog
schema_version: 1
languages:
  - id: ocaml
    topics: [Fold]
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry, ok := c.Lookup(quiz.LanguageOCaml)
	if !ok || entry.Label != "OCaml" || entry.Defaults.Difficulty != quiz.DifficultyEasy {
		t.Fatalf("expected defaults applied, got %#v", entry)
	}
	if _, ok := c.Lookup(quiz.LanguageJava); ok {
		t.Fatalf("did not expect java in override catalog")
	}
}
