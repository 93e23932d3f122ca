package milp

// InequalityType is the relation between a constraint expression and zero.
type InequalityType uint8

const (
	// GreaterEqual means expr >= 0.
	GreaterEqual InequalityType = iota
	// LessEqual means expr <= 0.
	LessEqual
	// Equal means expr == 0.
	Equal
)

func (t InequalityType) String() string {
	switch t {
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	default:
		return "="
	}
}

// Constraint states Expr (>=|<=|=) 0.
type Constraint struct {
	Expr Expression
	Type InequalityType
}

// GE builds lhs >= rhs.
func GE(lhs, rhs Expression) Constraint {
	return Constraint{Expr: lhs.Sub(rhs).Simplify(), Type: GreaterEqual}
}

// LE builds lhs <= rhs.
func LE(lhs, rhs Expression) Constraint {
	return Constraint{Expr: lhs.Sub(rhs).Simplify(), Type: LessEqual}
}

// EQ builds lhs == rhs.
func EQ(lhs, rhs Expression) Constraint {
	return Constraint{Expr: lhs.Sub(rhs).Simplify(), Type: Equal}
}

// Satisfied checks the constraint against an assignment, with tolerance tol.
func (c Constraint) Satisfied(values map[string]float64, tol float64) bool {
	v := c.Expr.Evaluate(values)
	switch c.Type {
	case GreaterEqual:
		return v >= -tol
	case LessEqual:
		return v <= tol
	default:
		return v >= -tol && v <= tol
	}
}

func (c Constraint) String() string {
	return c.Expr.String() + " " + c.Type.String() + " 0"
}
