package milp

import (
	"math"
	"sort"
	"strconv"
)

// Solution is the outcome of an optimisation: either an inconsistency marker or
// an optimum value together with the values of the problem variables.
type Solution struct {
	consistent bool
	value      float64
	values     map[string]float64
}

// NewSolution builds a consistent solution with the given optimum.
func NewSolution(value float64, values map[string]float64) *Solution {
	return &Solution{consistent: true, value: value, values: values}
}

// InconsistentSolution is the solution reported for an inconsistent knowledge base.
func InconsistentSolution() *Solution {
	return &Solution{consistent: false, value: math.NaN()}
}

// IsConsistent reports whether an optimum exists.
func (s *Solution) IsConsistent() bool { return s.consistent }

// Value returns the optimum. It is NaN for an inconsistent solution.
func (s *Solution) Value() float64 { return s.value }

// VariableValue returns the value of a named variable in the optimum.
func (s *Solution) VariableValue(name string) (float64, bool) {
	v, ok := s.values[name]
	return v, ok
}

// VariableNames lists the variables carried by the solution, sorted.
func (s *Solution) VariableNames() []string {
	names := make([]string, 0, len(s.values))
	for n := range s.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Solution) String() string {
	if !s.consistent {
		return "Inconsistent KB"
	}
	return strconv.FormatFloat(s.value, 'g', -1, 64)
}

// Round rounds v to the given number of decimal digits. Negative digits disable
// rounding.
func Round(v float64, digits int) float64 {
	if digits < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	p := math.Pow(10, float64(digits))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}
