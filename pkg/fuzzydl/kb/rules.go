package kb

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/axiom"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Each rule reads x, the lower bound of the label i : c, and adds the
// constraints that make the label hold. Atomic and role variables are the
// interpretation itself.

// maxAtMostSubsets bounds the combinations an at-most rule may encode.
const maxAtMostSubsets = 4096

func (k *KnowledgeBase) applyRule(i int, c *concept.Concept, x *milp.Variable) error {
	X := milp.Var(x)
	switch c.Kind() {
	case concept.KindTop, concept.KindAtMost:
		// at-most waits for the complete graph, see applyFinalRules.
		return nil
	case concept.KindBottom:
		k.problem.AddConstraint(milp.LE(X, milp.Constant(0)))
		return nil
	case concept.KindAtomic:
		return k.unfoldAtomic(i, c, X)
	case concept.KindNot:
		return k.applyNegated(i, c.Operand(), X)
	case concept.KindAnd:
		for _, ch := range c.Children() {
			if err := k.assert(i, ch, X); err != nil {
				return err
			}
		}
		return nil
	case concept.KindOr:
		return k.applyOr(i, c.Children(), X)
	case concept.KindLukasiewiczAnd:
		children := c.Children()
		sum := milp.Constant(-float64(len(children) - 1))
		for _, ch := range children {
			v, err := k.labelVar(i, ch)
			if err != nil {
				return err
			}
			sum = sum.AddTerm(1, v)
		}
		k.problem.AddConstraint(milp.GE(sum, X))
		return nil
	case concept.KindLukasiewiczOr:
		sum := milp.Constant(0)
		for _, ch := range c.Children() {
			v, err := k.labelVar(i, ch)
			if err != nil {
				return err
			}
			sum = sum.AddTerm(1, v)
		}
		k.problem.AddConstraint(milp.GE(sum, X))
		return nil
	case concept.KindGoedelImplies:
		v, w, y, err := k.implicationVars(i, c)
		if err != nil {
			return err
		}
		// y = 1: v <= w. y = 0: w >= x.
		k.problem.AddConstraint(milp.LE(milp.Var(v).AddTerm(-1, w).AddTerm(1, y), milp.Constant(1)))
		k.problem.AddConstraint(milp.GE(milp.Var(w).AddTerm(1, y), X))
		return nil
	case concept.KindZadehImplies:
		v, w, y, err := k.implicationVars(i, c)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(y), X))
		k.problem.AddConstraint(milp.LE(milp.Var(v).AddTerm(-1, w).AddTerm(1, y), milp.Constant(1)))
		return nil
	case concept.KindSome, concept.KindAll:
		if _, concrete := k.features[c.Role()]; concrete {
			return k.applyConcreteRestriction(i, c, X)
		}
		if c.Operand().IsConcrete() {
			return fmt.Errorf("%s is not a concrete feature in %s: %w", c.Role(), c, internalerr.ErrConcreteConcept)
		}
		if c.Kind() == concept.KindSome {
			k.agenda.generating = append(k.agenda.generating, task{kind: taskLabel, ind: i, label: c.Name()})
			return nil
		}
		name := c.Name()
		for idx, e := range k.individuals[i].edges {
			if e.role != c.Role() {
				continue
			}
			if err := k.applyAll(i, name, idx); err != nil {
				return err
			}
		}
		return nil
	case concept.KindAtLeast:
		k.agenda.generating = append(k.agenda.generating, task{kind: taskLabel, ind: i, label: c.Name()})
		return nil
	case concept.KindHasValue:
		xr, err := k.edgeVar(i, c.Role(), k.named(c.Individual()))
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(xr), X))
		return nil
	case concept.KindSelf:
		xr, err := k.edgeVar(i, c.Role(), i)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(xr), X))
		return nil
	case concept.KindExactValue, concept.KindAtLeastValue, concept.KindAtMostValue:
		return k.applyValueRestriction(i, c, X, false)
	case concept.KindWeighted:
		return k.assert(i, c.Operand(), X.Scale(1/c.Value()))
	case concept.KindWeightedSum:
		sum := milp.Constant(0)
		ws := c.Weights()
		for n, ch := range c.Children() {
			v, err := k.labelVar(i, ch)
			if err != nil {
				return err
			}
			sum = sum.AddTerm(ws[n], v)
		}
		k.problem.AddConstraint(milp.GE(sum, X))
		return nil
	case concept.KindWeightedMax:
		// max_n min(w_n, C_n) >= x: one operand reaches x.
		ws := c.Weights()
		children := c.Children()
		sumY := milp.Constant(0)
		for n, ch := range children {
			y, err := k.binary()
			if err != nil {
				return err
			}
			sumY = sumY.AddTerm(1, y)
			k.problem.AddConstraint(milp.LE(X.AddTerm(-1, y), milp.Constant(ws[n])))
			if err := k.assert(i, ch, X.AddTerm(-1, y)); err != nil {
				return err
			}
		}
		k.problem.AddConstraint(milp.LE(sumY, milp.Constant(float64(len(children)-1))))
		return nil
	case concept.KindWeightedMin:
		// min_n max(1 - w_n, C_n) >= x: every operand reaches x or is
		// weighted below 1 - x.
		ws := c.Weights()
		for n, ch := range c.Children() {
			if ws[n] == 0 {
				continue
			}
			y, err := k.binary()
			if err != nil {
				return err
			}
			k.problem.AddConstraint(milp.LE(X.AddTerm(-1, y), milp.Constant(1-ws[n])))
			if err := k.assert(i, ch, X.AddTerm(1, y).AddConstant(-1)); err != nil {
				return err
			}
		}
		return nil
	case concept.KindPosThreshold:
		b, err := k.indicator(X)
		if err != nil {
			return err
		}
		return k.assert(i, c.Operand(), milp.Var(b).Scale(c.Value()))
	case concept.KindNegThreshold:
		b, err := k.indicator(X)
		if err != nil {
			return err
		}
		return k.assert(i, concept.Not(c.Operand()), milp.Var(b).Scale(1-c.Value()))
	case concept.KindDatatype:
		return fmt.Errorf("%s : %s: %w", k.individuals[i].name, c, internalerr.ErrConcreteConcept)
	}
	return fmt.Errorf("rule for %s: %w", c.Kind(), internalerr.ErrUnsupportedOperation)
}

// indicator returns a binary b with b >= x, so that b = 1 whenever x > 0.
func (k *KnowledgeBase) indicator(x milp.Expression) (*milp.Variable, error) {
	b, err := k.binary()
	if err != nil {
		return nil, err
	}
	k.problem.AddConstraint(milp.GE(milp.Var(b), x))
	return b, nil
}

func (k *KnowledgeBase) unfoldAtomic(i int, a *concept.Concept, x milp.Expression) error {
	name := a.AtomicName()
	if d, ok := k.tbox.definitions[name]; ok {
		if err := k.assert(i, d, x); err != nil {
			return err
		}
	}
	for _, inc := range k.tbox.primitives[name] {
		bound, err := k.consequentBound(x, inc.degree, inc.impl)
		if err != nil {
			return err
		}
		if err := k.assert(i, inc.c, bound); err != nil {
			return err
		}
	}
	return nil
}

// applyOr picks one disjunct per model: binaries y_n with at most n-1 of them
// set, C_n >= x - y_n.
func (k *KnowledgeBase) applyOr(i int, children []*concept.Concept, x milp.Expression) error {
	sumY := milp.Constant(0)
	for _, ch := range children {
		y, err := k.binary()
		if err != nil {
			return err
		}
		sumY = sumY.AddTerm(1, y)
		if err := k.assert(i, ch, x.AddTerm(-1, y)); err != nil {
			return err
		}
	}
	k.problem.AddConstraint(milp.LE(sumY, milp.Constant(float64(len(children)-1))))
	return nil
}

// implicationVars returns the exact degrees of antecedent and consequent and
// a fresh binary.
func (k *KnowledgeBase) implicationVars(i int, c *concept.Concept) (v, w, y *milp.Variable, err error) {
	if v, err = k.exactValue(i, c.Antecedent()); err != nil {
		return
	}
	if w, err = k.exactValue(i, c.Consequent()); err != nil {
		return
	}
	y, err = k.binary()
	return
}

// exactValue returns a variable equal to the degree of i : c, obtained by
// bounding c from below and its negation from below.
func (k *KnowledgeBase) exactValue(i int, c *concept.Concept) (*milp.Variable, error) {
	ind := k.individuals[i]
	if v, ok := ind.exact[c.Name()]; ok {
		return v, nil
	}
	v, err := k.continuous()
	if err != nil {
		return nil, err
	}
	ind.exact[c.Name()] = v
	if err := k.assert(i, c, milp.Var(v)); err != nil {
		return nil, err
	}
	if err := k.assert(i, concept.Not(c), milp.Var(v).Negate().AddConstant(1)); err != nil {
		return nil, err
	}
	return v, nil
}

// applyGenerating fires an existential or at-least restriction. The caller
// has checked that i is not blocked.
func (k *KnowledgeBase) applyGenerating(i int, l label) error {
	c := l.concept
	X := milp.Var(l.x)
	role := c.Role()
	functional := k.hasCharacteristic(role, axiom.Functional)
	if k.trace {
		k.logger.Debug("generating rule", zap.String("individual", k.individuals[i].name), zap.Stringer("concept", c))
	}
	if c.Kind() == concept.KindAtLeast {
		if functional && c.Cardinality() > 1 {
			k.problem.AddConstraint(milp.LE(X, milp.Constant(0)))
			return nil
		}
		for n := 0; n < c.Cardinality(); n++ {
			j, err := k.newIndividual(i, role)
			if err != nil {
				return err
			}
			if err := k.linkSuccessor(i, role, j, c.Operand(), X); err != nil {
				return err
			}
		}
		return nil
	}

	j := -1
	if functional {
		for _, e := range k.individuals[i].edges {
			if e.role == role {
				j = e.to
				break
			}
		}
	}
	if j < 0 {
		var err error
		if j, err = k.newIndividual(i, role); err != nil {
			return err
		}
	}
	return k.linkSuccessor(i, role, j, c.Operand(), X)
}

// linkSuccessor makes (i, j) : role and j : filler jointly reach x, using the
// t-norm of the logic.
func (k *KnowledgeBase) linkSuccessor(i int, role string, j int, filler *concept.Concept, x milp.Expression) error {
	xr, err := k.edgeVar(i, role, j)
	if err != nil {
		return err
	}
	if k.logic == Lukasiewicz {
		xc, err := k.labelVar(j, filler)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(xr).AddTerm(1, xc).AddConstant(-1), x))
		return nil
	}
	k.problem.AddConstraint(milp.GE(milp.Var(xr), x))
	return k.assert(j, filler, x)
}

// applyAll propagates the universal restriction labelled name on i along
// edge idx. Transitive roles also carry the restriction itself.
func (k *KnowledgeBase) applyAll(i int, name string, idx int) error {
	if !k.agenda.once("all\x00" + strconv.Itoa(i) + "\x00" + name + "\x00" + strconv.Itoa(idx)) {
		return nil
	}
	l := k.individuals[i].labels[name]
	e := k.individuals[i].edges[idx]
	X := milp.Var(l.x)
	transitive := k.hasCharacteristic(e.role, axiom.Transitive)

	var bound milp.Expression
	if k.logic == Lukasiewicz {
		// min(1, 1 - r + C) >= x
		bound = X.AddTerm(1, e.x).AddConstant(-1)
	} else {
		// max(1 - r, C) >= x
		y, err := k.binary()
		if err != nil {
			return err
		}
		bound = X.AddTerm(-1, y)
		k.problem.AddConstraint(milp.LE(X.AddTerm(1, e.x).AddTerm(1, y), milp.Constant(2)))
	}
	if err := k.assert(e.to, l.concept.Operand(), bound); err != nil {
		return err
	}
	if transitive {
		return k.assert(e.to, l.concept, bound)
	}
	return nil
}

// applyFinalRules encodes the at-most restrictions over the successors that
// exist once expansion has stopped. It reports whether anything was added.
func (k *KnowledgeBase) applyFinalRules() (bool, error) {
	before := k.problem.NumConstraints()
	for i := 0; i < len(k.individuals); i++ {
		for _, name := range append([]string(nil), k.individuals[i].order...) {
			if k.individuals[i].labels[name].concept.Kind() != concept.KindAtMost {
				continue
			}
			if err := k.applyAtMost(i, name); err != nil {
				return false, err
			}
		}
	}
	return k.problem.NumConstraints() != before || k.agenda.pending() > 0, nil
}

// applyAtMost states, for every n+1 distinct role successors, that one of
// them is linked with degree at most 1 - x or is a C with degree at most
// 1 - x. Successors are never merged.
func (k *KnowledgeBase) applyAtMost(i int, name string) error {
	l := k.individuals[i].labels[name]
	c := l.concept
	X := milp.Var(l.x)
	var succ []int
	for idx, e := range k.individuals[i].edges {
		if e.role == c.Role() {
			succ = append(succ, idx)
		}
	}
	n := c.Cardinality()
	if len(succ) <= n {
		return nil
	}
	if binomial(len(succ), n+1) > maxAtMostSubsets {
		return fmt.Errorf("%s on %d successors: %w", c, len(succ), internalerr.ErrUnsupportedOperation)
	}
	notC := concept.Not(c.Operand())
	var err error
	combinations(succ, n+1, func(subset []int) {
		if err != nil {
			return
		}
		parts := make([]string, len(subset))
		for p, idx := range subset {
			parts[p] = strconv.Itoa(idx)
		}
		if !k.agenda.once("at-most\x00" + strconv.Itoa(i) + "\x00" + name + "\x00" + strings.Join(parts, ",")) {
			return
		}
		choices := milp.Constant(0)
		for _, idx := range subset {
			e := k.individuals[i].edges[idx]
			u, uerr := k.binary()
			if uerr != nil {
				err = uerr
				return
			}
			w, werr := k.binary()
			if werr != nil {
				err = werr
				return
			}
			choices = choices.AddTerm(1, u).AddTerm(1, w)
			k.problem.AddConstraint(milp.LE(X.AddTerm(1, e.x).AddTerm(1, u), milp.Constant(2)))
			if aerr := k.assert(e.to, notC, X.AddTerm(1, w).AddConstant(-1)); aerr != nil {
				err = aerr
				return
			}
		}
		k.problem.AddConstraint(milp.GE(choices, milp.Constant(1)))
	})
	return err
}

func combinations(xs []int, size int, fn func([]int)) {
	subset := make([]int, 0, size)
	var rec func(start int)
	rec = func(start int) {
		if len(subset) == size {
			fn(append([]int(nil), subset...))
			return
		}
		for p := start; p <= len(xs)-(size-len(subset)); p++ {
			subset = append(subset, xs[p])
			rec(p + 1)
			subset = subset[:len(subset)-1]
		}
	}
	rec(0)
}

func binomial(n, r int) int {
	if r < 0 || r > n {
		return 0
	}
	out := 1
	for p := 1; p <= r; p++ {
		out = out * (n - r + p) / p
		if out > maxAtMostSubsets {
			return out
		}
	}
	return out
}
