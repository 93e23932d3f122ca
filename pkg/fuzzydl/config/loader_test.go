package config

import (
	"errors"
	"testing"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
)

func TestLoaderEmpty(t *testing.T) {
	loader := &Loader{}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if comp.Config == nil || comp.KnowledgeBase == nil {
		t.Fatal("Expected default config and empty knowledge base")
	}
	if len(comp.Queries) != 0 {
		t.Errorf("Expected no queries, got %d", len(comp.Queries))
	}
}

func TestLoaderBuildsDocument(t *testing.T) {
	cfgPath := writeFile(t, "reasoner.yaml", "logic: lukasiewicz\nmax_individuals: 50\n")
	kbPath := writeFile(t, "kb.yaml", `name: pets
axioms:
  - [implies, Dog, Animal]
  - [instance, rex, Dog, 0.8]
queries:
  - [min-instance?, rex, Animal]
`)

	loader := &Loader{ConfigPath: cfgPath, KnowledgeBasePath: kbPath}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if comp.Name != "pets" {
		t.Errorf("Expected name pets, got %q", comp.Name)
	}
	if comp.KnowledgeBase.Logic() != kb.Lukasiewicz {
		t.Errorf("Expected lukasiewicz, got %s", comp.KnowledgeBase.Logic())
	}
	if comp.KnowledgeBase.MaxIndividuals() != 50 {
		t.Errorf("Expected max individuals 50, got %d", comp.KnowledgeBase.MaxIndividuals())
	}
	if len(comp.Queries) != 1 {
		t.Fatalf("Expected 1 query, got %d", len(comp.Queries))
	}

	res, err := comp.Queries[0].Solve(comp.KnowledgeBase)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if v := res.Value(); v < 0.8-1e-4 || v > 0.8+1e-4 {
		t.Errorf("Expected 0.8, got %g", v)
	}
}

func TestLoaderWrapsErrors(t *testing.T) {
	badCfg := writeFile(t, "reasoner.yaml", "epsilon: 2\n")
	if _, err := (&Loader{ConfigPath: badCfg}).Load(); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	badKB := writeFile(t, "kb.yaml", "axioms:\n  - [instance, a]\n")
	if _, err := (&Loader{KnowledgeBasePath: badKB}).Load(); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
