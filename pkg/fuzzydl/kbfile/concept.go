package kbfile

import (
	"gopkg.in/yaml.v3"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
)

// concept reads a concept expression. Scalars name atomic concepts,
// datatypes, *top* or *bottom*; lists apply a constructor.
func (p *parser) concept(n *yaml.Node) (*concept.Concept, error) {
	if n.Kind == yaml.ScalarNode {
		return p.atom(n)
	}
	op, args, err := form(n)
	if err != nil {
		return nil, err
	}
	fam := p.k.Logic().Family()
	switch op {
	case "and", "or", "g-and", "g-or", "l-and", "l-or":
		if err := arity(n, op, args, 1, -1); err != nil {
			return nil, err
		}
		cs, err := p.concepts(args)
		if err != nil {
			return nil, err
		}
		switch op {
		case "and":
			return fam.And(cs...), nil
		case "or":
			return fam.Or(cs...), nil
		case "g-and":
			return concept.And(cs...), nil
		case "g-or":
			return concept.Or(cs...), nil
		case "l-and":
			return concept.LukasiewiczAnd(cs...), nil
		}
		return concept.LukasiewiczOr(cs...), nil

	case "not":
		if err := arity(n, op, args, 1, 1); err != nil {
			return nil, err
		}
		c, err := p.concept(args[0])
		if err != nil {
			return nil, err
		}
		return concept.Not(c), nil

	case "implies", "g-implies", "l-implies", "kd-implies", "z-implies", "c-implies":
		if err := arity(n, op, args, 2, 2); err != nil {
			return nil, err
		}
		a, err := p.concept(args[0])
		if err != nil {
			return nil, err
		}
		b, err := p.concept(args[1])
		if err != nil {
			return nil, err
		}
		switch op {
		case "implies":
			return fam.Implies(a, b), nil
		case "g-implies":
			return concept.GoedelImplies(a, b), nil
		case "l-implies":
			return concept.LukasiewiczImplies(a, b), nil
		case "kd-implies":
			return concept.KleeneDienesImplies(a, b), nil
		case "z-implies":
			return concept.ZadehImplies(a, b), nil
		}
		return concept.ClassicalImplies(a, b), nil

	case "some", "all":
		if err := arity(n, op, args, 2, 2); err != nil {
			return nil, err
		}
		role, err := name(args[0])
		if err != nil {
			return nil, err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return nil, err
		}
		if op == "some" {
			return concept.Some(role, c), nil
		}
		return concept.All(role, c), nil

	case "b-some":
		if err := arity(n, op, args, 2, 2); err != nil {
			return nil, err
		}
		role, err := name(args[0])
		if err != nil {
			return nil, err
		}
		ind, err := name(args[1])
		if err != nil {
			return nil, err
		}
		return concept.HasValue(role, ind), nil

	case "self":
		if err := arity(n, op, args, 1, 1); err != nil {
			return nil, err
		}
		role, err := name(args[0])
		if err != nil {
			return nil, err
		}
		return concept.Self(role), nil

	case "at-least", "at-most":
		if err := arity(n, op, args, 2, 3); err != nil {
			return nil, err
		}
		card, err := integer(args[0])
		if err != nil {
			return nil, err
		}
		role, err := name(args[1])
		if err != nil {
			return nil, err
		}
		filler := concept.Top()
		if len(args) == 3 {
			if filler, err = p.concept(args[2]); err != nil {
				return nil, err
			}
		}
		var c *concept.Concept
		if op == "at-least" {
			c, err = concept.AtLeast(card, role, filler)
		} else {
			c, err = concept.AtMost(card, role, filler)
		}
		if err != nil {
			return nil, errorAt(n, "%v", err)
		}
		return c, nil

	case "=", ">=", "<=":
		if err := arity(n, op, args, 2, 2); err != nil {
			return nil, err
		}
		f, err := name(args[0])
		if err != nil {
			return nil, err
		}
		v, err := number(args[1])
		if err != nil {
			return nil, err
		}
		switch op {
		case "=":
			return concept.ExactValue(f, v), nil
		case ">=":
			return concept.AtLeastValue(f, v), nil
		}
		return concept.AtMostValue(f, v), nil

	case "weighted", "pos-threshold", "neg-threshold":
		if err := arity(n, op, args, 2, 2); err != nil {
			return nil, err
		}
		w, err := number(args[0])
		if err != nil {
			return nil, err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return nil, err
		}
		switch op {
		case "weighted":
			c, err = concept.Weighted(w, c)
		case "pos-threshold":
			c, err = concept.PosThreshold(w, c)
		default:
			c, err = concept.NegThreshold(w, c)
		}
		if err != nil {
			return nil, errorAt(n, "%v", err)
		}
		return c, nil

	case "w-sum", "w-max", "w-min":
		return p.aggregate(n, op, args)
	}
	return nil, errorAt(n, "unknown concept constructor %q", op)
}

func (p *parser) concepts(nodes []*yaml.Node) ([]*concept.Concept, error) {
	cs := make([]*concept.Concept, 0, len(nodes))
	for _, a := range nodes {
		c, err := p.concept(a)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func (p *parser) atom(n *yaml.Node) (*concept.Concept, error) {
	switch n.Value {
	case "":
		return nil, errorAt(n, "empty concept name")
	case "*top*":
		return concept.Top(), nil
	case "*bottom*":
		return concept.Bottom(), nil
	}
	if dt, ok := p.k.Datatype(n.Value); ok {
		return concept.FuzzyDatatype(dt), nil
	}
	return concept.Atomic(n.Value), nil
}

// aggregate reads [w-sum, [w1, C1], [w2, C2], ...].
func (p *parser) aggregate(n *yaml.Node, op string, args []*yaml.Node) (*concept.Concept, error) {
	if err := arity(n, op, args, 1, -1); err != nil {
		return nil, err
	}
	weights := make([]float64, 0, len(args))
	cs := make([]*concept.Concept, 0, len(args))
	for _, a := range args {
		if a.Kind != yaml.SequenceNode || len(a.Content) != 2 {
			return nil, errorAt(a, "%s expects [weight, concept] pairs", op)
		}
		w, err := number(a.Content[0])
		if err != nil {
			return nil, err
		}
		c, err := p.concept(a.Content[1])
		if err != nil {
			return nil, err
		}
		weights = append(weights, w)
		cs = append(cs, c)
	}
	var (
		c   *concept.Concept
		err error
	)
	switch op {
	case "w-sum":
		c, err = concept.WeightedSum(weights, cs)
	case "w-max":
		c, err = concept.WeightedMax(weights, cs)
	default:
		c, err = concept.WeightedMin(weights, cs)
	}
	if err != nil {
		return nil, errorAt(n, "%v", err)
	}
	return c, nil
}
