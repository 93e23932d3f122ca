package kbfile

import (
	"gopkg.in/yaml.v3"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/query"
)

func (p *parser) query(n *yaml.Node) (query.Query, error) {
	op, args, err := form(n)
	if err != nil {
		return nil, err
	}
	switch op {
	case "min-instance?", "max-instance?":
		if err := arity(n, op, args, 2, 2); err != nil {
			return nil, err
		}
		ind, err := name(args[0])
		if err != nil {
			return nil, err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return nil, err
		}
		if op == "min-instance?" {
			return query.MinInstance{Individual: ind, Concept: c}, nil
		}
		return query.MaxInstance{Individual: ind, Concept: c}, nil

	case "all-instances?":
		if err := arity(n, op, args, 1, 1); err != nil {
			return nil, err
		}
		c, err := p.concept(args[0])
		if err != nil {
			return nil, err
		}
		return query.AllInstances{Concept: c}, nil

	case "min-sat?", "max-sat?":
		if err := arity(n, op, args, 1, 2); err != nil {
			return nil, err
		}
		c, err := p.concept(args[0])
		if err != nil {
			return nil, err
		}
		var ind string
		if len(args) == 2 {
			if ind, err = name(args[1]); err != nil {
				return nil, err
			}
		}
		if op == "min-sat?" {
			return query.MinSatisfiable{Concept: c, Individual: ind}, nil
		}
		return query.MaxSatisfiable{Concept: c, Individual: ind}, nil

	case "min-subs?", "max-subs?":
		if err := arity(n, op, args, 2, 3); err != nil {
			return nil, err
		}
		sub, err := p.concept(args[0])
		if err != nil {
			return nil, err
		}
		sup, err := p.concept(args[1])
		if err != nil {
			return nil, err
		}
		impl := p.k.Logic().DefaultImplication()
		if len(args) == 3 {
			if impl, err = concept.ParseImplication(args[2].Value); err != nil {
				return nil, errorAt(args[2], "%v", err)
			}
		}
		return query.Subsumes{Subsumed: sub, Subsumer: sup, Implication: impl, Sense: sense(op)}, nil

	case "min-related?", "max-related?":
		if err := arity(n, op, args, 3, 3); err != nil {
			return nil, err
		}
		from, err := name(args[0])
		if err != nil {
			return nil, err
		}
		to, err := name(args[1])
		if err != nil {
			return nil, err
		}
		role, err := name(args[2])
		if err != nil {
			return nil, err
		}
		return query.Related{From: from, Role: role, To: to, Sense: sense(op)}, nil

	case "min-var?", "max-var?":
		if err := arity(n, op, args, 1, 1); err != nil {
			return nil, err
		}
		v, err := name(args[0])
		if err != nil {
			return nil, err
		}
		return query.Var{Name: v, Sense: sense(op)}, nil

	case "defuzzify-som?", "defuzzify-lom?", "defuzzify-mom?":
		if err := arity(n, op, args, 3, 3); err != nil {
			return nil, err
		}
		method, err := query.ParseDefuzzifyMethod(op[len("defuzzify-") : len(op)-1])
		if err != nil {
			return nil, errorAt(n, "%v", err)
		}
		c, err := p.concept(args[0])
		if err != nil {
			return nil, err
		}
		ind, err := name(args[1])
		if err != nil {
			return nil, err
		}
		f, err := name(args[2])
		if err != nil {
			return nil, err
		}
		return query.Defuzzify{Concept: c, Individual: ind, Feature: f, Method: method}, nil
	}
	return nil, errorAt(n, "unknown query %q", op)
}

func sense(op string) milp.Sense {
	if op[:3] == "max" {
		return milp.Maximize
	}
	return milp.Minimize
}
