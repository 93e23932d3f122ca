// Package degree represents the graded lower bound attached to axioms and
// assertions: a numeric constant, a solver variable, or a linear expression
// over solver variables.
package degree

import (
	"strconv"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Degree is an immutable lower bound.
type Degree struct {
	expr    milp.Expression
	numeric bool
}

// Numeric builds a constant degree.
func Numeric(v float64) Degree {
	return Degree{expr: milp.Constant(v), numeric: true}
}

// One is the degree 1.
func One() Degree { return Numeric(1) }

// Zero is the degree 0.
func Zero() Degree { return Numeric(0) }

// FromVariable builds a degree equal to a solver variable.
func FromVariable(v *milp.Variable) Degree {
	return Degree{expr: milp.Var(v)}
}

// FromExpression builds a degree from a linear expression. Expressions without
// variable terms are numeric.
func FromExpression(e milp.Expression) Degree {
	s := e.Simplify()
	return Degree{expr: s, numeric: len(s.Terms()) == 0}
}

// IsNumeric reports whether the degree is a constant.
func (d Degree) IsNumeric() bool { return d.numeric }

// NumericValue returns the constant value; it is only meaningful when IsNumeric.
func (d Degree) NumericValue() float64 { return d.expr.ConstantValue() }

// Expression returns the degree as a linear expression.
func (d Degree) Expression() milp.Expression { return d.expr }

// IsZero reports whether the degree is the constant 0.
func (d Degree) IsZero() bool {
	return d.numeric && d.expr.ConstantValue() == 0
}

// Complement returns 1 - d.
func (d Degree) Complement() Degree {
	return FromExpression(milp.Constant(1).Sub(d.expr))
}

// Add returns d + o.
func (d Degree) Add(o Degree) Degree {
	return FromExpression(d.expr.Add(o.expr))
}

// Scale returns c*d.
func (d Degree) Scale(c float64) Degree {
	return FromExpression(d.expr.Scale(c))
}

// Bound returns the constraint x >= d for the variable x.
func (d Degree) Bound(x *milp.Variable) milp.Constraint {
	return milp.GE(milp.Var(x), d.expr)
}

func (d Degree) String() string {
	if d.numeric {
		return strconv.FormatFloat(d.expr.ConstantValue(), 'g', -1, 64)
	}
	return d.expr.String()
}
