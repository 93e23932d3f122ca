package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp/simplex"
)

// Reasoner holds the reasoner settings
type Reasoner struct {
	Logic             string  `yaml:"logic"`
	Epsilon           float64 `yaml:"epsilon"`
	OptimizationLevel int     `yaml:"optimization_level"`
	MaxIndividuals    int     `yaml:"max_individuals"`
	Blocking          string  `yaml:"blocking"`
	Digits            int     `yaml:"digits"`
	Trace             bool    `yaml:"trace"`
	Solver            Solver  `yaml:"solver"`
}

// Solver holds the limits of the built-in MILP backend
type Solver struct {
	MaxNodes             int           `yaml:"max_nodes"`
	IntegralityTolerance float64       `yaml:"integrality_tolerance"`
	TimeLimit            time.Duration `yaml:"time_limit"`
}

// Default returns the settings used when no file is given
func Default() *Reasoner {
	s := simplex.DefaultConfig()
	return &Reasoner{
		Logic:             "zadeh",
		Epsilon:           0.001,
		OptimizationLevel: 1,
		MaxIndividuals:    -1,
		Blocking:          "subset",
		Digits:            6,
		Solver: Solver{
			MaxNodes:             s.MaxNodes,
			IntegralityTolerance: s.IntegralityTolerance,
		},
	}
}

// LoadReasoner loads reasoner settings from a YAML file. Keys missing from
// the file keep their default values.
func LoadReasoner(path string) (*Reasoner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and keywords
func (r *Reasoner) Validate() error {
	if _, err := kb.ParseLogic(r.Logic); err != nil {
		return fmt.Errorf("logic: %w", internalerr.ErrInvalidConfig)
	}
	if _, err := kb.ParseBlocking(r.Blocking); err != nil {
		return err
	}
	switch {
	case r.Epsilon <= 0 || r.Epsilon >= 0.5:
		return fmt.Errorf("epsilon %g not in (0, 0.5): %w", r.Epsilon, internalerr.ErrInvalidConfig)
	case r.OptimizationLevel < 0:
		return fmt.Errorf("optimization_level %d: %w", r.OptimizationLevel, internalerr.ErrInvalidConfig)
	case r.MaxIndividuals < -1 || r.MaxIndividuals == 0:
		return fmt.Errorf("max_individuals %d: %w", r.MaxIndividuals, internalerr.ErrInvalidConfig)
	case r.Digits < 1 || r.Digits > 15:
		return fmt.Errorf("digits %d not in [1, 15]: %w", r.Digits, internalerr.ErrInvalidConfig)
	case r.Solver.MaxNodes < 0:
		return fmt.Errorf("solver.max_nodes %d: %w", r.Solver.MaxNodes, internalerr.ErrInvalidConfig)
	case r.Solver.IntegralityTolerance < 0 || r.Solver.IntegralityTolerance >= 0.5:
		return fmt.Errorf("solver.integrality_tolerance %g: %w", r.Solver.IntegralityTolerance, internalerr.ErrInvalidConfig)
	case r.Solver.TimeLimit < 0:
		return fmt.Errorf("solver.time_limit %s: %w", r.Solver.TimeLimit, internalerr.ErrInvalidConfig)
	}
	return nil
}

// KBOptions translates the settings into knowledge-base options. The
// settings must be valid.
func (r *Reasoner) KBOptions(logger *zap.Logger) []kb.Option {
	logic, _ := kb.ParseLogic(r.Logic)
	blocking, _ := kb.ParseBlocking(r.Blocking)
	if logger == nil {
		logger = zap.NewNop()
	}
	return []kb.Option{
		kb.WithLogger(logger),
		kb.WithTrace(r.Trace),
		kb.WithLogic(logic),
		kb.WithEpsilon(r.Epsilon),
		kb.WithOptimizationLevel(r.OptimizationLevel),
		kb.WithMaxIndividuals(r.MaxIndividuals),
		kb.WithBlocking(blocking),
		kb.WithDigits(r.Digits),
		kb.WithSolver(simplex.New(simplex.Config{
			MaxNodes:             r.Solver.MaxNodes,
			IntegralityTolerance: r.Solver.IntegralityTolerance,
			TimeLimit:            r.Solver.TimeLimit,
		})),
	}
}
