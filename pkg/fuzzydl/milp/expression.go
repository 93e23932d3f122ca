package milp

import (
	"sort"
	"strconv"
	"strings"
)

// Term is coefficient * variable.
type Term struct {
	Coeff float64
	Var   *Variable
}

// NewTerm builds a term.
func NewTerm(coeff float64, v *Variable) Term {
	return Term{Coeff: coeff, Var: v}
}

// Scale returns the term multiplied by c.
func (t Term) Scale(c float64) Term {
	return Term{Coeff: t.Coeff * c, Var: t.Var}
}

// Negate returns -t.
func (t Term) Negate() Term {
	return t.Scale(-1)
}

func (t Term) String() string {
	return formatNumber(t.Coeff) + "*" + t.Var.Name()
}

// Expression is constant + sum(terms). Expressions are values: every combinator
// returns a new expression and leaves its operands untouched.
type Expression struct {
	constant float64
	terms    []Term
}

// NewExpression builds an expression from a constant and terms.
func NewExpression(constant float64, terms ...Term) Expression {
	e := Expression{constant: constant}
	if len(terms) > 0 {
		e.terms = append([]Term(nil), terms...)
	}
	return e
}

// Constant builds a constant expression.
func Constant(c float64) Expression {
	return Expression{constant: c}
}

// Var builds the expression 1*v.
func Var(v *Variable) Expression {
	return Expression{terms: []Term{{Coeff: 1, Var: v}}}
}

// ConstantValue returns the constant part.
func (e Expression) ConstantValue() float64 { return e.constant }

// Terms returns a copy of the terms.
func (e Expression) Terms() []Term {
	return append([]Term(nil), e.terms...)
}

// IsConstant reports whether the expression has no variable terms after
// cancelling.
func (e Expression) IsConstant() bool {
	return len(e.Simplify().terms) == 0
}

// Add returns e + o.
func (e Expression) Add(o Expression) Expression {
	out := Expression{constant: e.constant + o.constant}
	out.terms = make([]Term, 0, len(e.terms)+len(o.terms))
	out.terms = append(out.terms, e.terms...)
	out.terms = append(out.terms, o.terms...)
	return out
}

// Sub returns e - o.
func (e Expression) Sub(o Expression) Expression {
	return e.Add(o.Negate())
}

// AddTerm returns e + coeff*v.
func (e Expression) AddTerm(coeff float64, v *Variable) Expression {
	return e.Add(Expression{terms: []Term{{Coeff: coeff, Var: v}}})
}

// AddConstant returns e + c.
func (e Expression) AddConstant(c float64) Expression {
	return e.Add(Constant(c))
}

// Scale returns c*e.
func (e Expression) Scale(c float64) Expression {
	out := Expression{constant: e.constant * c, terms: make([]Term, len(e.terms))}
	for i, t := range e.terms {
		out.terms[i] = t.Scale(c)
	}
	return out
}

// Negate returns -e.
func (e Expression) Negate() Expression {
	return e.Scale(-1)
}

// Simplify merges terms on the same variable, drops zero coefficients and sorts
// terms by variable name. Variables are identified by name so expressions stay
// valid when a problem is cloned.
func (e Expression) Simplify() Expression {
	if len(e.terms) == 0 {
		return Expression{constant: e.constant}
	}
	acc := make(map[string]Term, len(e.terms))
	for _, t := range e.terms {
		cur, ok := acc[t.Var.name]
		if !ok {
			acc[t.Var.name] = t
			continue
		}
		cur.Coeff += t.Coeff
		acc[t.Var.name] = cur
	}
	out := Expression{constant: e.constant}
	for _, t := range acc {
		if t.Coeff == 0 {
			continue
		}
		out.terms = append(out.terms, t)
	}
	sort.Slice(out.terms, func(i, j int) bool { return out.terms[i].Var.name < out.terms[j].Var.name })
	return out
}

// Evaluate computes the expression for the given variable values (by name).
// Missing variables count as zero.
func (e Expression) Evaluate(values map[string]float64) float64 {
	sum := e.constant
	for _, t := range e.terms {
		sum += t.Coeff * values[t.Var.name]
	}
	return sum
}

// Variables returns the distinct variables mentioned by the expression.
func (e Expression) Variables() []*Variable {
	s := e.Simplify()
	out := make([]*Variable, len(s.terms))
	for i, t := range s.terms {
		out[i] = t.Var
	}
	return out
}

func (e Expression) String() string {
	s := e.Simplify()
	parts := make([]string, 0, len(s.terms)+1)
	for _, t := range s.terms {
		parts = append(parts, t.String())
	}
	if s.constant != 0 || len(parts) == 0 {
		parts = append(parts, formatNumber(s.constant))
	}
	return strings.Join(parts, " + ")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
