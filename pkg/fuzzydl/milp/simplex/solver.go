// Package simplex is the built-in numeric backend: a dense bounded two-phase
// simplex for linear relaxations and a depth-first branch and bound over
// binary, integer and semi-continuous variables.
package simplex

import (
	"fmt"
	"math"
	"time"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Config bounds the work done per Solve call.
type Config struct {
	MaxNodes             int
	IntegralityTolerance float64
	TimeLimit            time.Duration
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxNodes:             100000,
		IntegralityTolerance: 1e-6,
	}
}

// Solver implements milp.Solver.
type Solver struct {
	cfg Config
}

// New creates a solver. Zero fields of cfg fall back to DefaultConfig.
func New(cfg Config) *Solver {
	def := DefaultConfig()
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = def.MaxNodes
	}
	if cfg.IntegralityTolerance <= 0 {
		cfg.IntegralityTolerance = def.IntegralityTolerance
	}
	return &Solver{cfg: cfg}
}

type node struct {
	lower []float64
	upper []float64
}

// Solve implements milp.Solver.
func (s *Solver) Solve(m *milp.Model) (milp.Result, error) {
	n := m.NumVariables()
	cost := make([]float64, n)
	for j, c := range m.Objective {
		if m.Sense == milp.Maximize {
			c = -c
		}
		cost[j] = c
	}
	lower := append([]float64(nil), m.Lower...)
	upper := append([]float64(nil), m.Upper...)
	for j, k := range m.Kinds {
		if k == milp.SemiContinuous && lower[j] > 0 {
			lower[j] = 0
		}
	}

	start := time.Now()
	tol := s.cfg.IntegralityTolerance
	stack := []node{{lower: lower, upper: upper}}
	bestObj := math.Inf(1)
	var bestX []float64
	explored := 0
	limited := false

	for len(stack) > 0 {
		if explored >= s.cfg.MaxNodes || (s.cfg.TimeLimit > 0 && time.Since(start) > s.cfg.TimeLimit) {
			limited = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		explored++

		res, err := solveLP(m, nd.lower, nd.upper, cost)
		if err != nil {
			return milp.Result{}, err
		}
		switch res.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			return milp.Result{Status: milp.Unbounded}, nil
		}
		if res.obj >= bestObj-1e-9 {
			continue
		}

		j, down, up := s.branchPoint(m, res.x, tol)
		if j < 0 {
			bestObj, bestX = res.obj, res.x
			continue
		}
		left := node{lower: nd.lower, upper: append([]float64(nil), nd.upper...)}
		left.upper[j] = down
		right := node{lower: append([]float64(nil), nd.lower...), upper: nd.upper}
		right.lower[j] = up
		// Explore the side closer to the relaxed value first.
		if res.x[j]-down < up-res.x[j] {
			stack = append(stack, right, left)
		} else {
			stack = append(stack, left, right)
		}
	}

	if bestX == nil {
		if limited {
			return milp.Result{}, fmt.Errorf("%w: no integral solution within %d nodes", internalerr.ErrSolver, explored)
		}
		return milp.Result{Status: milp.Infeasible}, nil
	}
	obj := 0.0
	for j, v := range bestX {
		obj += m.Objective[j] * v
	}
	return milp.Result{Status: milp.Optimal, Objective: obj, X: bestX}, nil
}

// branchPoint picks the first discrete variable whose relaxed value violates its
// domain and returns the upper bound of the down branch and the lower bound of
// the up branch.
func (s *Solver) branchPoint(m *milp.Model, x []float64, tol float64) (int, float64, float64) {
	for j, k := range m.Kinds {
		v := x[j]
		switch k {
		case milp.Binary, milp.Integer:
			f := v - math.Floor(v)
			if f > tol && f < 1-tol {
				return j, math.Floor(v), math.Ceil(v)
			}
		case milp.SemiContinuous:
			lo := m.Lower[j]
			if v > tol && v < lo-tol {
				return j, 0, lo
			}
		}
	}
	return -1, 0, 0
}
