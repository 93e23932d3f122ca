package milp

// Sense is the optimisation direction.
type Sense uint8

const (
	// Minimize the objective.
	Minimize Sense = iota
	// Maximize the objective.
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "max"
	}
	return "min"
}

// Row is one linear constraint of a Model: sum(Coeff[k]*x[Index[k]]) op RHS.
type Row struct {
	Index []int
	Coeff []float64
	Type  InequalityType
	RHS   float64
}

// Model is the dense, solver-facing form of a Problem. Columns are the problem
// variables in creation order.
type Model struct {
	Names     []string
	Kinds     []VariableKind
	Lower     []float64
	Upper     []float64
	Rows      []Row
	Objective []float64
	Sense     Sense
}

// NumVariables returns the number of columns.
func (m *Model) NumVariables() int { return len(m.Names) }

// Status is the outcome reported by a solver.
type Status uint8

const (
	// Optimal means X is an optimal assignment.
	Optimal Status = iota
	// Infeasible means no assignment satisfies the constraints.
	Infeasible
	// Unbounded means the objective can be improved without limit.
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	default:
		return "unbounded"
	}
}

// Result is what a solver returns for a model. Objective excludes any constant
// the problem folded out of the objective expression.
type Result struct {
	Status    Status
	Objective float64
	X         []float64
}

// Solver is the contract every numeric backend satisfies. Solve is synchronous
// and may run for a long time; backends impose their own limits.
type Solver interface {
	Solve(m *Model) (Result, error)
}
