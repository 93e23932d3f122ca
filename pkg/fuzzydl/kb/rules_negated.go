package kb

import (
	"fmt"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// applyNegated fires the label i : not c with lower bound x. Negation normal
// form leaves only the variants without a dual under not.
func (k *KnowledgeBase) applyNegated(i int, c *concept.Concept, x milp.Expression) error {
	one := milp.Constant(1)
	switch c.Kind() {
	case concept.KindAtomic:
		xa, err := k.conceptVar(i, c)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.LE(x.AddTerm(1, xa), one))
		if d, ok := k.tbox.definitions[c.AtomicName()]; ok {
			return k.assert(i, concept.Not(d), x)
		}
		return nil
	case concept.KindGoedelImplies:
		// v > w and w <= 1 - x whenever x > 0.
		v, w, y, err := k.implicationVars(i, c)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.LE(x.AddTerm(-1, y), milp.Constant(0)))
		k.problem.AddConstraint(milp.GE(milp.Var(v).AddTerm(-1, w).AddTerm(-1, y), milp.Constant(k.epsilon-1)))
		k.problem.AddConstraint(milp.LE(x.AddTerm(1, w), one))
		return nil
	case concept.KindZadehImplies:
		v, w, y, err := k.implicationVars(i, c)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(y), x))
		k.problem.AddConstraint(milp.GE(milp.Var(v).AddTerm(-1, w).AddTerm(-1, y), milp.Constant(k.epsilon-1)))
		return nil
	case concept.KindHasValue:
		xr, err := k.edgeVar(i, c.Role(), k.named(c.Individual()))
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.LE(x.AddTerm(1, xr), one))
		return nil
	case concept.KindSelf:
		xr, err := k.edgeVar(i, c.Role(), i)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.LE(x.AddTerm(1, xr), one))
		return nil
	case concept.KindExactValue, concept.KindAtLeastValue, concept.KindAtMostValue:
		return k.applyValueRestriction(i, c, x, true)
	case concept.KindWeighted:
		// 1 - w*C >= x, so not C >= 1 - (1 - x)/w.
		w := c.Value()
		return k.assert(i, concept.Not(c.Operand()), x.Scale(1/w).AddConstant(1-1/w))
	case concept.KindWeightedSum:
		ws := c.Weights()
		sum := x
		for n, ch := range c.Children() {
			u, err := k.continuous()
			if err != nil {
				return err
			}
			if err := k.assert(i, concept.Not(ch), milp.Var(u).Negate().AddConstant(1)); err != nil {
				return err
			}
			sum = sum.AddTerm(ws[n], u)
		}
		k.problem.AddConstraint(milp.LE(sum, one))
		return nil
	case concept.KindPosThreshold:
		// x > 0 forces C < t.
		b, err := k.indicator(x)
		if err != nil {
			return err
		}
		return k.assert(i, concept.Not(c.Operand()), milp.Var(b).Scale(1-c.Value()+k.epsilon))
	case concept.KindNegThreshold:
		// x > 0 forces C > t.
		b, err := k.indicator(x)
		if err != nil {
			return err
		}
		return k.assert(i, c.Operand(), milp.Var(b).Scale(c.Value()+k.epsilon))
	case concept.KindDatatype:
		return fmt.Errorf("%s : (not %s): %w", k.individuals[i].name, c, internalerr.ErrConcreteConcept)
	}
	return fmt.Errorf("rule for (not %s): %w", c.Kind(), internalerr.ErrUnsupportedOperation)
}
