package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// DefuzzifyMethod picks a crisp value among the feature values that reach
// the maximal degree.
type DefuzzifyMethod uint8

const (
	// SmallestOfMaxima returns the least such value.
	SmallestOfMaxima DefuzzifyMethod = iota
	// LargestOfMaxima returns the greatest such value.
	LargestOfMaxima
	// MiddleOfMaxima returns the midpoint of the two.
	MiddleOfMaxima
)

func (m DefuzzifyMethod) String() string {
	switch m {
	case LargestOfMaxima:
		return "lom"
	case MiddleOfMaxima:
		return "mom"
	}
	return "som"
}

// ParseDefuzzifyMethod accepts som, lom and mom.
func ParseDefuzzifyMethod(s string) (DefuzzifyMethod, error) {
	switch strings.ToLower(s) {
	case "som":
		return SmallestOfMaxima, nil
	case "lom":
		return LargestOfMaxima, nil
	case "mom":
		return MiddleOfMaxima, nil
	}
	return 0, fmt.Errorf("defuzzification %q: %w", s, internalerr.ErrInvalidInput)
}

// maximaSlack keeps the second stage feasible after rounding of the first.
const maximaSlack = 1e-6

// Defuzzify computes a crisp value of Feature at Individual from the fuzzy
// set Concept.
type Defuzzify struct {
	Concept    *concept.Concept
	Individual string
	Feature    string
	Method     DefuzzifyMethod
}

func (q Defuzzify) String() string {
	return fmt.Sprintf("(defuzzify-%s? %s %s %s)", q.Method, q.Concept, q.Individual, q.Feature)
}

// Solve first maximises Individual : Concept, then optimises the feature
// among the models reaching that degree.
func (q Defuzzify) Solve(k *kb.KnowledgeBase) (*Result, error) {
	start := time.Now()
	if _, ok := k.Feature(q.Feature); !ok {
		return nil, fmt.Errorf("%s: feature %s: %w", q, q.Feature, internalerr.ErrNotFound)
	}
	top, err := MaxInstance{Individual: q.Individual, Concept: q.Concept}.Solve(k)
	if err != nil {
		return nil, err
	}
	if !top.IsConsistent() {
		return inconsistent(q), nil
	}
	d := top.Value()

	var senses []milp.Sense
	switch q.Method {
	case SmallestOfMaxima:
		senses = []milp.Sense{milp.Minimize}
	case LargestOfMaxima:
		senses = []milp.Sense{milp.Maximize}
	default:
		senses = []milp.Sense{milp.Minimize, milp.Maximize}
	}
	sum := 0.0
	var last *milp.Solution
	for _, sense := range senses {
		work := k.Clone()
		if err := work.AddAssertion(q.Individual, q.Concept, degree.Numeric(max(0, d-maximaSlack))); err != nil {
			return nil, err
		}
		v, err := work.FeatureVariable(q.Individual, q.Feature)
		if err != nil {
			return nil, err
		}
		sol, err := work.Optimize(milp.Var(v), sense)
		if errors.Is(err, internalerr.ErrInconsistentOntology) {
			return inconsistent(q), nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q, err)
		}
		sum += sol.Value()
		last = sol
	}
	value := sum / float64(len(senses))
	values := map[string]float64{}
	for _, name := range last.VariableNames() {
		values[name], _ = last.VariableValue(name)
	}
	return &Result{Query: q.String(), Solution: milp.NewSolution(milp.Round(value, k.Digits()), values), Elapsed: time.Since(start)}, nil
}
