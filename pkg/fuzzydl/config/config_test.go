package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.Logic != "zadeh" || cfg.Blocking != "subset" || cfg.MaxIndividuals != -1 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadReasoner(t *testing.T) {
	path := writeFile(t, "reasoner.yaml", `logic: lukasiewicz
epsilon: 0.0001
blocking: anywhere-double
trace: true
solver:
  max_nodes: 500
  time_limit: 2s
`)

	cfg, err := LoadReasoner(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logic != "lukasiewicz" {
		t.Errorf("Expected lukasiewicz, got %s", cfg.Logic)
	}
	if cfg.Epsilon != 0.0001 {
		t.Errorf("Expected epsilon 0.0001, got %g", cfg.Epsilon)
	}
	if !cfg.Trace {
		t.Error("Expected trace to be on")
	}
	if cfg.Solver.MaxNodes != 500 || cfg.Solver.TimeLimit != 2*time.Second {
		t.Errorf("Unexpected solver settings: %+v", cfg.Solver)
	}
	// Keys absent from the file keep their defaults
	if cfg.Digits != 6 || cfg.OptimizationLevel != 1 {
		t.Errorf("Defaults lost: digits=%d optimization_level=%d", cfg.Digits, cfg.OptimizationLevel)
	}
	if cfg.Solver.IntegralityTolerance != 1e-6 {
		t.Errorf("Expected default integrality tolerance, got %g", cfg.Solver.IntegralityTolerance)
	}
}

func TestLoadReasonerRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"logic":     "logic: fuzzy\n",
		"blocking":  "blocking: sometimes\n",
		"epsilon":   "epsilon: 0\n",
		"digits":    "digits: 40\n",
		"max":       "max_individuals: 0\n",
		"level":     "optimization_level: -2\n",
		"tolerance": "solver:\n  integrality_tolerance: 0.7\n",
		"syntax":    "logic: [zadeh\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadReasoner(writeFile(t, "bad.yaml", content))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadReasonerMissingFile(t *testing.T) {
	if _, err := LoadReasoner(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestKBOptions(t *testing.T) {
	cfg := Default()
	cfg.Logic = "classical"
	cfg.Blocking = "no"
	cfg.MaxIndividuals = 7
	cfg.OptimizationLevel = 0

	k := kb.New(cfg.KBOptions(nil)...)
	if k.Logic() != kb.Classical {
		t.Errorf("Expected classical logic, got %s", k.Logic())
	}
	if k.Blocking() != kb.NoBlocking {
		t.Errorf("Expected no blocking, got %s", k.Blocking())
	}
	if k.MaxIndividuals() != 7 || k.OptimizationLevel() != 0 {
		t.Errorf("Unexpected limits: max=%d level=%d", k.MaxIndividuals(), k.OptimizationLevel())
	}
	if k.Logger() == nil {
		t.Error("Expected a no-op logger")
	}
}
