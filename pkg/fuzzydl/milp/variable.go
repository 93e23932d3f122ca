// Package milp is the solver-agnostic vocabulary the reasoner uses to state graded
// constraints: variables, linear expressions, constraints and solutions. It holds
// no solver code; a Solver turns an assembled Model into a Result.
package milp

import (
	"fmt"
	"math"
)

// VariableKind selects the domain of a decision variable.
type VariableKind uint8

const (
	// Continuous variables range over [Lower, Upper].
	Continuous VariableKind = iota
	// Binary variables take 0 or 1.
	Binary
	// Integer variables take whole values in [Lower, Upper].
	Integer
	// SemiContinuous variables are either exactly 0 or within [Lower, Upper].
	SemiContinuous
)

func (k VariableKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	case SemiContinuous:
		return "semi-continuous"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsDiscrete reports whether branch and bound has to branch on the kind.
func (k VariableKind) IsDiscrete() bool {
	return k != Continuous
}

// Variable is a decision variable. Variables are created by a Problem and are
// immutable afterwards, so clones of a problem share them.
type Variable struct {
	id    int
	name  string
	kind  VariableKind
	lower float64
	upper float64
}

// ID is the column index of the variable inside its problem.
func (v *Variable) ID() int { return v.id }

// Name returns the unique name of the variable.
func (v *Variable) Name() string { return v.name }

// Kind returns the variable kind.
func (v *Variable) Kind() VariableKind { return v.kind }

// Lower returns the lower bound (may be -Inf).
func (v *Variable) Lower() float64 { return v.lower }

// Upper returns the upper bound (may be +Inf).
func (v *Variable) Upper() float64 { return v.upper }

func (v *Variable) String() string {
	return v.name
}

func normalizeBounds(kind VariableKind, lower, upper float64) (float64, float64, error) {
	if kind == Binary {
		return 0, 1, nil
	}
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return 0, 0, fmt.Errorf("NaN bound")
	}
	if lower > upper {
		return 0, 0, fmt.Errorf("lower bound %g exceeds upper bound %g", lower, upper)
	}
	if kind == SemiContinuous && lower < 0 {
		return 0, 0, fmt.Errorf("semi-continuous variable needs a non-negative lower bound, got %g", lower)
	}
	if kind == Integer {
		if !math.IsInf(lower, 0) {
			lower = math.Ceil(lower)
		}
		if !math.IsInf(upper, 0) {
			upper = math.Floor(upper)
		}
		if lower > upper {
			return 0, 0, fmt.Errorf("integer variable has empty range")
		}
	}
	return lower, upper, nil
}
