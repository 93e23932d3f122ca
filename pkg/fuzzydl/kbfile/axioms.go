package kbfile

import (
	"gopkg.in/yaml.v3"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/axiom"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
)

var roleCharacteristics = map[string]axiom.RoleCharacteristic{
	"functional": axiom.Functional,
	"transitive": axiom.Transitive,
	"reflexive":  axiom.Reflexive,
	"symmetric":  axiom.Symmetric,
}

func (p *parser) axiom(n *yaml.Node) error {
	op, args, err := form(n)
	if err != nil {
		return err
	}
	if c, ok := roleCharacteristics[op]; ok {
		if err := arity(n, op, args, 1, 1); err != nil {
			return err
		}
		role, err := name(args[0])
		if err != nil {
			return err
		}
		return p.k.AddRoleCharacteristic(role, c)
	}

	switch op {
	case "individual":
		if err := arity(n, op, args, 1, 1); err != nil {
			return err
		}
		ind, err := name(args[0])
		if err != nil {
			return err
		}
		p.k.AddIndividual(ind)
		return nil

	case "instance":
		if err := arity(n, op, args, 2, 3); err != nil {
			return err
		}
		ind, err := name(args[0])
		if err != nil {
			return err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return err
		}
		d, err := p.degree(args, 2)
		if err != nil {
			return err
		}
		return p.k.AddAssertion(ind, c, d)

	case "related":
		if err := arity(n, op, args, 3, 4); err != nil {
			return err
		}
		from, err := name(args[0])
		if err != nil {
			return err
		}
		to, err := name(args[1])
		if err != nil {
			return err
		}
		role, err := name(args[2])
		if err != nil {
			return err
		}
		d, err := p.degree(args, 3)
		if err != nil {
			return err
		}
		return p.k.AddRelation(from, role, to, d)

	case "implies", "g-implies", "l-implies", "kd-implies", "z-implies":
		if err := arity(n, op, args, 2, 3); err != nil {
			return err
		}
		impl := p.k.Logic().DefaultImplication()
		if op != "implies" {
			if impl, err = concept.ParseImplication(op); err != nil {
				return errorAt(n, "%v", err)
			}
		}
		sub, err := p.concept(args[0])
		if err != nil {
			return err
		}
		sup, err := p.concept(args[1])
		if err != nil {
			return err
		}
		d, err := p.degree(args, 2)
		if err != nil {
			return err
		}
		return p.k.AddGCI(sub, sup, d, impl)

	case "define-concept":
		if err := arity(n, op, args, 2, 2); err != nil {
			return err
		}
		a, err := name(args[0])
		if err != nil {
			return err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return err
		}
		return p.k.AddConceptDefinition(a, c)

	case "define-primitive-concept":
		if err := arity(n, op, args, 2, 4); err != nil {
			return err
		}
		a, err := name(args[0])
		if err != nil {
			return err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return err
		}
		deg, err := optionalNumber(args, 2, 1)
		if err != nil {
			return err
		}
		impl := p.k.Logic().DefaultImplication()
		if len(args) == 4 {
			if impl, err = concept.ParseImplication(args[3].Value); err != nil {
				return errorAt(args[3], "%v", err)
			}
		}
		return p.k.AddPrimitiveConceptDefinition(a, c, deg, impl)

	case "disjoint":
		if err := arity(n, op, args, 2, -1); err != nil {
			return err
		}
		names := make([]string, 0, len(args))
		for _, a := range args {
			s, err := name(a)
			if err != nil {
				return err
			}
			names = append(names, s)
		}
		return p.k.AddDisjoint(names...)

	case "inverse":
		if err := arity(n, op, args, 2, 2); err != nil {
			return err
		}
		r, err := name(args[0])
		if err != nil {
			return err
		}
		s, err := name(args[1])
		if err != nil {
			return err
		}
		p.k.AddInverse(r, s)
		return nil

	case "implies-role":
		if err := arity(n, op, args, 2, 3); err != nil {
			return err
		}
		sub, err := name(args[0])
		if err != nil {
			return err
		}
		sup, err := name(args[1])
		if err != nil {
			return err
		}
		deg, err := optionalNumber(args, 2, 1)
		if err != nil {
			return err
		}
		return p.k.AddSubRole(sub, sup, deg)

	case "domain", "range":
		if err := arity(n, op, args, 2, 3); err != nil {
			return err
		}
		role, err := name(args[0])
		if err != nil {
			return err
		}
		c, err := p.concept(args[1])
		if err != nil {
			return err
		}
		deg, err := optionalNumber(args, 2, 1)
		if err != nil {
			return err
		}
		if op == "domain" {
			p.k.AddDomain(role, c, deg)
		} else {
			p.k.AddRange(role, c, deg)
		}
		return nil
	}
	return errorAt(n, "unknown axiom %q", op)
}

// degree reads an optional lower bound: a number or the name of a declared
// variable. The default is 1.
func (p *parser) degree(args []*yaml.Node, i int) (degree.Degree, error) {
	if i >= len(args) {
		return degree.One(), nil
	}
	n := args[i]
	if n.Kind == yaml.ScalarNode {
		if v, ok := p.k.Variable(n.Value); ok {
			return degree.FromVariable(v), nil
		}
	}
	f, err := number(n)
	if err != nil {
		return degree.Degree{}, errorAt(n, "degree must be a number or a declared variable")
	}
	return degree.Numeric(f), nil
}
