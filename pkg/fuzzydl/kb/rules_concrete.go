package kb

import (
	"fmt"
	"math"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// featureVar returns the value of feature f at individual i. Features are
// functional, so there is one variable per individual and feature.
func (k *KnowledgeBase) featureVar(i int, f string) (*milp.Variable, Feature, error) {
	feat, ok := k.features[f]
	if !ok {
		return nil, Feature{}, fmt.Errorf("concrete feature %s: %w", f, internalerr.ErrNotFound)
	}
	ind := k.individuals[i]
	if v, ok := ind.features[f]; ok {
		return v, feat, nil
	}
	kind := milp.Continuous
	if feat.Kind == IntegerFeature {
		kind = milp.Integer
	}
	v, err := k.problem.Variable(fmt.Sprintf("%s%d.%s", aboxVarPrefix, i, f), kind, feat.Lower, feat.Upper)
	if err != nil {
		return nil, feat, err
	}
	ind.features[f] = v
	return v, feat, nil
}

// FeatureVariable returns the value variable of a concrete feature at a
// named individual.
func (k *KnowledgeBase) FeatureVariable(individual, feature string) (*milp.Variable, error) {
	v, _, err := k.featureVar(k.named(individual), feature)
	return v, err
}

// applyConcreteRestriction handles (some f D) and (all f D) for a concrete
// feature f. The feature always has a value, so both read the membership of
// that value.
func (k *KnowledgeBase) applyConcreteRestriction(i int, c *concept.Concept, x milp.Expression) error {
	filler := c.Operand()
	negated := filler.Kind() == concept.KindNot
	dtConcept := filler
	if negated {
		dtConcept = filler.Operand()
	}
	if dtConcept.Kind() != concept.KindDatatype {
		return fmt.Errorf("%s needs a fuzzy datatype filler in %s: %w", c.Role(), c, internalerr.ErrConcreteConcept)
	}
	mu, err := k.membership(i, c.Role(), dtConcept.Datatype())
	if err != nil {
		return err
	}
	if negated {
		k.problem.AddConstraint(milp.LE(x.AddTerm(1, mu), milp.Constant(1)))
		return nil
	}
	k.problem.AddConstraint(milp.GE(milp.Var(mu), x))
	return nil
}

// membership returns a variable equal to dt's membership degree of the value
// of feature f at i. One binary per linear piece selects the piece the value
// falls in.
func (k *KnowledgeBase) membership(i int, f string, dt *concept.Datatype) (*milp.Variable, error) {
	key := "mu\x00" + f + "\x00" + dt.Name
	ind := k.individuals[i]
	if mu, ok := ind.exact[key]; ok {
		return mu, nil
	}
	v, feat, err := k.featureVar(i, f)
	if err != nil {
		return nil, err
	}
	mu, err := k.continuous()
	if err != nil {
		return nil, err
	}
	ind.exact[key] = mu

	lo, hi := feat.Lower, feat.Upper
	var pieces []concept.Segment
	if lo < dt.K1 {
		pieces = append(pieces, concept.Segment{From: lo, To: dt.K1})
	}
	pieces = append(pieces, dt.Segments()...)
	if hi > dt.K2 {
		pieces = append(pieces, concept.Segment{From: dt.K2, To: hi})
	}
	var segs []concept.Segment
	for _, s := range pieces {
		s.From, s.To = math.Max(s.From, lo), math.Min(s.To, hi)
		if s.From <= s.To {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		k.problem.AddConstraint(milp.LE(milp.Var(mu), milp.Constant(0)))
		return mu, nil
	}

	bigV := (hi - lo) + (dt.K2 - dt.K1)
	choice := milp.Constant(0)
	for _, s := range segs {
		z, err := k.binary()
		if err != nil {
			return nil, err
		}
		choice = choice.AddTerm(1, z)
		bigMu := math.Max(math.Abs(s.At(lo)), math.Abs(s.At(hi))) + 1
		// From <= v <= To when z = 1.
		k.problem.AddConstraint(milp.GE(milp.Var(v).AddTerm(-bigV, z), milp.Constant(s.From-bigV)))
		k.problem.AddConstraint(milp.LE(milp.Var(v).AddTerm(bigV, z), milp.Constant(s.To+bigV)))
		// mu = Slope*v + Intercept when z = 1.
		line := milp.Var(mu).AddTerm(-s.Slope, v)
		k.problem.AddConstraint(milp.GE(line.AddTerm(-bigMu, z), milp.Constant(s.Intercept-bigMu)))
		k.problem.AddConstraint(milp.LE(line.AddTerm(bigMu, z), milp.Constant(s.Intercept+bigMu)))
	}
	k.problem.AddConstraint(milp.EQ(choice, milp.Constant(1)))
	return mu, nil
}

// applyValueRestriction encodes the crisp restrictions (= f v), (>= f v) and
// (<= f v), or their negations: they hold whenever their label is positive.
func (k *KnowledgeBase) applyValueRestriction(i int, c *concept.Concept, x milp.Expression, negated bool) error {
	v, feat, err := k.featureVar(i, c.Role())
	if err != nil {
		return err
	}
	b, err := k.indicator(x)
	if err != nil {
		return err
	}
	val := c.Value()
	eps := k.epsilon
	bigM := math.Max(feat.Upper, val) - math.Min(feat.Lower, val) + 1
	V := milp.Var(v)
	atLeast := func(bound float64) {
		// v >= bound - M(1 - b)
		k.problem.AddConstraint(milp.GE(V.AddTerm(-bigM, b), milp.Constant(bound-bigM)))
	}
	atMost := func(bound float64) {
		// v <= bound + M(1 - b)
		k.problem.AddConstraint(milp.LE(V.AddTerm(bigM, b), milp.Constant(bound+bigM)))
	}

	switch {
	case !negated && c.Kind() == concept.KindAtLeastValue:
		atLeast(val)
	case !negated && c.Kind() == concept.KindAtMostValue:
		atMost(val)
	case !negated:
		atLeast(val)
		atMost(val)
	case c.Kind() == concept.KindAtLeastValue:
		atMost(val - eps)
	case c.Kind() == concept.KindAtMostValue:
		atLeast(val + eps)
	default:
		// v <= val - eps or v >= val + eps, selected by s.
		s, err := k.binary()
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.LE(V.AddTerm(bigM, b).AddTerm(-bigM, s), milp.Constant(val-eps+bigM)))
		k.problem.AddConstraint(milp.GE(V.AddTerm(-bigM, b).AddTerm(-bigM, s), milp.Constant(val+eps-2*bigM)))
	}
	return nil
}
