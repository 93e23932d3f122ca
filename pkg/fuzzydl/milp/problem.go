package milp

import (
	"fmt"
	"math"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

// Problem accumulates variables and constraints while the knowledge base is
// expanded, and hands them to a Solver on Optimize.
type Problem struct {
	solver      Solver
	digits      int
	vars        []*Variable
	byName      map[string]*Variable
	constraints []Constraint
	keys        map[string]struct{}
	fresh       int
}

// Option configures a Problem.
type Option func(*Problem)

// WithDigits sets the number of decimal digits optimum values are rounded to.
func WithDigits(digits int) Option {
	return func(p *Problem) { p.digits = digits }
}

// NewProblem creates an empty problem solved by s.
func NewProblem(s Solver, opts ...Option) *Problem {
	p := &Problem{
		solver: s,
		digits: 6,
		byName: make(map[string]*Variable),
		keys:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Variable returns the variable called name, creating it with the given kind
// and bounds when it does not exist yet.
func (p *Problem) Variable(name string, kind VariableKind, lower, upper float64) (*Variable, error) {
	if v, ok := p.byName[name]; ok {
		if v.kind != kind {
			return nil, fmt.Errorf("%w: variable %s already declared as %s", internalerr.ErrInvalidInput, name, v.kind)
		}
		return v, nil
	}
	lo, hi, err := normalizeBounds(kind, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("%w: variable %s: %v", internalerr.ErrInvalidInput, name, err)
	}
	v := &Variable{id: len(p.vars), name: name, kind: kind, lower: lo, upper: hi}
	p.vars = append(p.vars, v)
	p.byName[name] = v
	return v, nil
}

// Fresh creates a new variable whose name is prefix followed by a counter.
func (p *Problem) Fresh(prefix string, kind VariableKind, lower, upper float64) (*Variable, error) {
	for {
		p.fresh++
		name := fmt.Sprintf("%s%d", prefix, p.fresh)
		if _, taken := p.byName[name]; !taken {
			return p.Variable(name, kind, lower, upper)
		}
	}
}

// Lookup finds a variable by name.
func (p *Problem) Lookup(name string) (*Variable, bool) {
	v, ok := p.byName[name]
	return v, ok
}

// Variables returns the variables in creation order.
func (p *Problem) Variables() []*Variable {
	return append([]*Variable(nil), p.vars...)
}

// Constraints returns the constraints added so far.
func (p *Problem) Constraints() []Constraint {
	return append([]Constraint(nil), p.constraints...)
}

// NumConstraints returns the number of distinct constraints.
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// AddConstraint records c unless an identical constraint is already present.
// Variables created by another problem are adopted by name.
func (p *Problem) AddConstraint(c Constraint) {
	c.Expr = c.Expr.Simplify()
	key := c.String()
	if _, dup := p.keys[key]; dup {
		return
	}
	for _, t := range c.Expr.terms {
		p.adopt(t.Var)
	}
	p.keys[key] = struct{}{}
	p.constraints = append(p.constraints, c)
}

func (p *Problem) adopt(v *Variable) {
	if _, ok := p.byName[v.name]; ok {
		return
	}
	own := &Variable{id: len(p.vars), name: v.name, kind: v.kind, lower: v.lower, upper: v.upper}
	p.vars = append(p.vars, own)
	p.byName[v.name] = own
}

// column maps a variable to its column in this problem.
func (p *Problem) column(v *Variable) int {
	if own, ok := p.byName[v.name]; ok {
		return own.id
	}
	return -1
}

// Clone copies the problem. Variables and constraints are immutable and shared.
func (p *Problem) Clone() *Problem {
	c := &Problem{
		solver:      p.solver,
		digits:      p.digits,
		vars:        append([]*Variable(nil), p.vars...),
		byName:      make(map[string]*Variable, len(p.byName)),
		constraints: append([]Constraint(nil), p.constraints...),
		keys:        make(map[string]struct{}, len(p.keys)),
		fresh:       p.fresh,
	}
	for k, v := range p.byName {
		c.byName[k] = v
	}
	for k := range p.keys {
		c.keys[k] = struct{}{}
	}
	return c
}

// Model assembles the dense model for objective and sense. It also returns the
// constant part of the objective and whether a variable-free constraint is
// already violated. Objective variables must belong to the problem.
func (p *Problem) Model(objective Expression, sense Sense) (*Model, float64, bool, error) {
	n := len(p.vars)
	m := &Model{
		Names:     make([]string, n),
		Kinds:     make([]VariableKind, n),
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
		Objective: make([]float64, n),
		Sense:     sense,
	}
	for i, v := range p.vars {
		m.Names[i] = v.name
		m.Kinds[i] = v.kind
		m.Lower[i] = v.lower
		m.Upper[i] = v.upper
	}
	violated := false
	for _, c := range p.constraints {
		e := c.Expr.Simplify()
		if len(e.terms) == 0 {
			if !c.Satisfied(nil, 1e-9) {
				violated = true
			}
			continue
		}
		row := Row{Type: c.Type, RHS: -e.constant}
		for _, t := range e.terms {
			row.Index = append(row.Index, p.column(t.Var))
			row.Coeff = append(row.Coeff, t.Coeff)
		}
		m.Rows = append(m.Rows, row)
	}
	obj := objective.Simplify()
	for _, t := range obj.terms {
		col := p.column(t.Var)
		if col < 0 {
			return nil, 0, false, fmt.Errorf("%w: objective variable %s is not in the problem", internalerr.ErrSolver, t.Var.name)
		}
		m.Objective[col] += t.Coeff
	}
	return m, obj.constant, violated, nil
}

// Optimize adds every accumulated constraint, sets the objective and asks the
// solver for an optimum. An infeasible problem yields InconsistentSolution.
func (p *Problem) Optimize(objective Expression, sense Sense) (*Solution, error) {
	if p.solver == nil {
		return nil, fmt.Errorf("%w: no solver configured", internalerr.ErrSolver)
	}
	model, constant, violated, err := p.Model(objective, sense)
	if err != nil {
		return nil, err
	}
	if violated {
		return InconsistentSolution(), nil
	}
	res, err := p.solver.Solve(model)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case Infeasible:
		return InconsistentSolution(), nil
	case Unbounded:
		return nil, fmt.Errorf("%w: objective %s is unbounded", internalerr.ErrSolver, objective)
	}
	values := make(map[string]float64, len(res.X))
	for i, x := range res.X {
		if model.Kinds[i] == Binary || model.Kinds[i] == Integer {
			x = math.Round(x)
		}
		values[model.Names[i]] = Round(x, p.digits)
	}
	return NewSolution(Round(res.Objective+constant, p.digits), values), nil
}
