package concept

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

var (
	top    = build(&Concept{kind: KindTop})
	bottom = build(&Concept{kind: KindBottom})
)

// Top returns the universal concept.
func Top() *Concept { return top }

// Bottom returns the empty concept.
func Bottom() *Concept { return bottom }

// Atomic returns a named concept.
func Atomic(name string) *Concept {
	return build(&Concept{kind: KindAtomic, atom: name})
}

// And is the Goedel/Zadeh (minimum) conjunction. Nested conjunctions are
// flattened, *top* operands dropped and *bottom* absorbs.
func And(cs ...*Concept) *Concept {
	return nary(KindAnd, top, bottom, cs)
}

// Or is the maximum disjunction.
func Or(cs ...*Concept) *Concept {
	return nary(KindOr, bottom, top, cs)
}

// LukasiewiczAnd is the Lukasiewicz t-norm conjunction.
func LukasiewiczAnd(cs ...*Concept) *Concept {
	return nary(KindLukasiewiczAnd, top, bottom, cs)
}

// LukasiewiczOr is the bounded-sum disjunction.
func LukasiewiczOr(cs ...*Concept) *Concept {
	return nary(KindLukasiewiczOr, bottom, top, cs)
}

func nary(kind Kind, identity, absorbing *Concept, cs []*Concept) *Concept {
	flat := make([]*Concept, 0, len(cs))
	for _, c := range cs {
		switch {
		case c.kind == absorbing.kind:
			return absorbing
		case c.kind == identity.kind:
		case c.kind == kind:
			flat = append(flat, c.children...)
		default:
			flat = append(flat, c)
		}
	}
	switch len(flat) {
	case 0:
		return identity
	case 1:
		return flat[0]
	}
	sortByName(flat)
	return build(&Concept{kind: kind, children: flat})
}

// Not returns the involutive negation of c in negation normal form where a
// dual exists.
func Not(c *Concept) *Concept {
	switch c.kind {
	case KindTop:
		return bottom
	case KindBottom:
		return top
	case KindNot:
		return c.children[0]
	case KindAnd:
		return Or(mapNot(c.children)...)
	case KindOr:
		return And(mapNot(c.children)...)
	case KindLukasiewiczAnd:
		return LukasiewiczOr(mapNot(c.children)...)
	case KindLukasiewiczOr:
		return LukasiewiczAnd(mapNot(c.children)...)
	case KindSome:
		return All(c.role, Not(c.children[0]))
	case KindAll:
		return Some(c.role, Not(c.children[0]))
	case KindAtLeast:
		return atMost(c.card-1, c.role, c.children[0])
	case KindAtMost:
		return atLeast(c.card+1, c.role, c.children[0])
	case KindWeightedMax:
		return weightedAggregate(KindWeightedMin, c.weights, mapNot(c.children))
	case KindWeightedMin:
		return weightedAggregate(KindWeightedMax, c.weights, mapNot(c.children))
	}
	return build(&Concept{kind: KindNot, children: []*Concept{c}})
}

func mapNot(cs []*Concept) []*Concept {
	out := make([]*Concept, len(cs))
	for i, c := range cs {
		out[i] = Not(c)
	}
	return out
}

// Some is the existential restriction (some r C).
func Some(role string, c *Concept) *Concept {
	if c.kind == KindBottom {
		return bottom
	}
	return build(&Concept{kind: KindSome, role: role, children: []*Concept{c}})
}

// All is the universal restriction (all r C).
func All(role string, c *Concept) *Concept {
	if c.kind == KindTop {
		return top
	}
	return build(&Concept{kind: KindAll, role: role, children: []*Concept{c}})
}

// HasValue is the nominal restriction (b-some r i).
func HasValue(role, individual string) *Concept {
	return build(&Concept{kind: KindHasValue, role: role, ind: individual})
}

// Self is the local reflexivity concept (self r).
func Self(role string) *Concept {
	return build(&Concept{kind: KindSelf, role: role})
}

// AtLeast is the qualified cardinality restriction (at-least n r C).
func AtLeast(n int, role string, c *Concept) (*Concept, error) {
	if n < 0 {
		return nil, fmt.Errorf("at-least %d: %w", n, internalerr.ErrInvalidInput)
	}
	return atLeast(n, role, c), nil
}

// AtMost is the qualified cardinality restriction (at-most n r C).
func AtMost(n int, role string, c *Concept) (*Concept, error) {
	if n < 0 {
		return nil, fmt.Errorf("at-most %d: %w", n, internalerr.ErrInvalidInput)
	}
	return atMost(n, role, c), nil
}

func atLeast(n int, role string, c *Concept) *Concept {
	if n <= 0 {
		return top
	}
	if c.kind == KindBottom {
		return bottom
	}
	return build(&Concept{kind: KindAtLeast, card: n, role: role, children: []*Concept{c}})
}

func atMost(n int, role string, c *Concept) *Concept {
	if n < 0 {
		return bottom
	}
	if c.kind == KindBottom {
		return top
	}
	return build(&Concept{kind: KindAtMost, card: n, role: role, children: []*Concept{c}})
}

// ExactValue is the concrete restriction (= f v).
func ExactValue(feature string, v float64) *Concept {
	return build(&Concept{kind: KindExactValue, role: feature, value: v})
}

// AtLeastValue is the concrete restriction (>= f v).
func AtLeastValue(feature string, v float64) *Concept {
	return build(&Concept{kind: KindAtLeastValue, role: feature, value: v})
}

// AtMostValue is the concrete restriction (<= f v).
func AtMostValue(feature string, v float64) *Concept {
	return build(&Concept{kind: KindAtMostValue, role: feature, value: v})
}

// FuzzyDatatype wraps a validated datatype as a concrete concept. It is used
// as the filler of a some/all restriction over a concrete feature.
func FuzzyDatatype(dt *Datatype) *Concept {
	return build(&Concept{kind: KindDatatype, dt: dt})
}

// Weighted scales c by w in [0,1].
func Weighted(w float64, c *Concept) (*Concept, error) {
	if err := checkUnit("weight", w); err != nil {
		return nil, err
	}
	switch {
	case w == 1:
		return c, nil
	case w == 0 || c.kind == KindBottom:
		return bottom, nil
	}
	return build(&Concept{kind: KindWeighted, value: w, children: []*Concept{c}}), nil
}

// WeightedSum is the weighted sum of cs. The weights must be non-negative and
// sum to at most 1.
func WeightedSum(weights []float64, cs []*Concept) (*Concept, error) {
	if err := checkWeights(weights, cs); err != nil {
		return nil, err
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum > 1+1e-9 {
		return nil, fmt.Errorf("w-sum weights add up to %g: %w", sum, internalerr.ErrInvalidInput)
	}
	if len(cs) == 1 {
		return Weighted(weights[0], cs[0])
	}
	return weightedAggregate(KindWeightedSum, weights, cs), nil
}

// WeightedMax is max_i min(w_i, C_i).
func WeightedMax(weights []float64, cs []*Concept) (*Concept, error) {
	if err := checkWeights(weights, cs); err != nil {
		return nil, err
	}
	return weightedAggregate(KindWeightedMax, weights, cs), nil
}

// WeightedMin is min_i max(1 - w_i, C_i).
func WeightedMin(weights []float64, cs []*Concept) (*Concept, error) {
	if err := checkWeights(weights, cs); err != nil {
		return nil, err
	}
	return weightedAggregate(KindWeightedMin, weights, cs), nil
}

// PosThreshold is 1 when c is at least t and 0 otherwise.
func PosThreshold(t float64, c *Concept) (*Concept, error) {
	if err := checkUnit("threshold", t); err != nil {
		return nil, err
	}
	return build(&Concept{kind: KindPosThreshold, value: t, children: []*Concept{c}}), nil
}

// NegThreshold is 1 when c is at most t and 0 otherwise.
func NegThreshold(t float64, c *Concept) (*Concept, error) {
	if err := checkUnit("threshold", t); err != nil {
		return nil, err
	}
	return build(&Concept{kind: KindNegThreshold, value: t, children: []*Concept{c}}), nil
}

type weighted struct {
	w float64
	c *Concept
}

// weightedAggregate sorts the (weight, concept) pairs by concept name so the
// aggregation is canonical under permutation.
func weightedAggregate(kind Kind, weights []float64, cs []*Concept) *Concept {
	pairs := make([]weighted, len(cs))
	for i := range cs {
		pairs[i] = weighted{weights[i], cs[i]}
	}
	sortPairs(pairs)
	ws := make([]float64, len(pairs))
	children := make([]*Concept, len(pairs))
	for i, p := range pairs {
		ws[i], children[i] = p.w, p.c
	}
	return build(&Concept{kind: kind, weights: ws, children: children})
}

func sortPairs(pairs []weighted) {
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].c.name != pairs[j].c.name {
			return pairs[i].c.name < pairs[j].c.name
		}
		return pairs[i].w < pairs[j].w
	})
}

func checkWeights(weights []float64, cs []*Concept) error {
	if len(cs) == 0 || len(weights) != len(cs) {
		return fmt.Errorf("%d weights for %d concepts: %w", len(weights), len(cs), internalerr.ErrInvalidInput)
	}
	for _, w := range weights {
		if err := checkUnit("weight", w); err != nil {
			return err
		}
	}
	return nil
}

func checkUnit(what string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s %g outside [0,1]: %w", what, v, internalerr.ErrInvalidInput)
	}
	return nil
}
