package simplex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

func newProblem() *milp.Problem {
	return milp.NewProblem(New(DefaultConfig()))
}

func TestSolveContinuousLP(t *testing.T) {
	p := newProblem()
	x, err := p.Variable("x", milp.Continuous, 0, 4)
	require.NoError(t, err)
	y, err := p.Variable("y", milp.Continuous, 0, 4)
	require.NoError(t, err)

	// max x + 2y s.t. x + y <= 5
	p.AddConstraint(milp.LE(milp.Var(x).Add(milp.Var(y)), milp.Constant(5)))
	sol, err := p.Optimize(milp.Var(x).AddTerm(2, y), milp.Maximize)
	require.NoError(t, err)
	require.True(t, sol.IsConsistent())
	assert.InDelta(t, 9.0, sol.Value(), 1e-9)

	yv, ok := sol.VariableValue("y")
	require.True(t, ok)
	assert.InDelta(t, 4.0, yv, 1e-9)
}

func TestSolveGreaterEqualAndEquality(t *testing.T) {
	p := newProblem()
	x, _ := p.Variable("x", milp.Continuous, 0, 1)
	y, _ := p.Variable("y", milp.Continuous, 0, 1)

	p.AddConstraint(milp.GE(milp.Var(x), milp.Constant(0.3)))
	p.AddConstraint(milp.EQ(milp.Var(x).Add(milp.Var(y)), milp.Constant(1)))
	sol, err := p.Optimize(milp.Var(y), milp.Maximize)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, sol.Value(), 1e-9)
}

func TestSolveInfeasible(t *testing.T) {
	p := newProblem()
	x, _ := p.Variable("x", milp.Continuous, 0, 1)
	p.AddConstraint(milp.GE(milp.Var(x), milp.Constant(0.8)))
	p.AddConstraint(milp.LE(milp.Var(x), milp.Constant(0.2)))

	sol, err := p.Optimize(milp.Var(x), milp.Minimize)
	require.NoError(t, err)
	assert.False(t, sol.IsConsistent())
	assert.True(t, math.IsNaN(sol.Value()))
}

func TestSolveBinaryDisjunction(t *testing.T) {
	p := newProblem()
	a, _ := p.Variable("a", milp.Continuous, 0, 1)
	b, _ := p.Variable("b", milp.Continuous, 0, 1)
	y, _ := p.Variable("y", milp.Binary, 0, 1)

	// a >= 0.6 - y, b >= 0.6 - (1 - y): one of them reaches 0.6
	p.AddConstraint(milp.GE(milp.Var(a), milp.Constant(0.6).AddTerm(-1, y)))
	p.AddConstraint(milp.GE(milp.Var(b), milp.Constant(-0.4).AddTerm(1, y)))
	sol, err := p.Optimize(milp.Var(a).Add(milp.Var(b)), milp.Minimize)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, sol.Value(), 1e-9)
}

func TestSolveIntegerRounding(t *testing.T) {
	p := newProblem()
	x, _ := p.Variable("x", milp.Integer, 0, 10)
	p.AddConstraint(milp.LE(milp.Var(x).Scale(2), milp.Constant(7)))

	sol, err := p.Optimize(milp.Var(x), milp.Maximize)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sol.Value())
}

func TestSolveSemiContinuous(t *testing.T) {
	p := newProblem()
	q, _ := p.Variable("q", milp.SemiContinuous, 0.5, 1)
	p.AddConstraint(milp.GE(milp.Var(q), milp.Constant(0.1)))

	// q cannot sit in (0, 0.5): the smallest value above 0.1 is 0.5
	sol, err := p.Optimize(milp.Var(q), milp.Minimize)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sol.Value(), 1e-9)
}

func TestSolveFreeVariable(t *testing.T) {
	p := newProblem()
	v, _ := p.Variable("v", milp.Continuous, math.Inf(-1), math.Inf(1))
	p.AddConstraint(milp.GE(milp.Var(v), milp.Constant(-12.5)))

	sol, err := p.Optimize(milp.Var(v), milp.Minimize)
	require.NoError(t, err)
	assert.InDelta(t, -12.5, sol.Value(), 1e-9)

	_, err = p.Optimize(milp.Var(v), milp.Maximize)
	require.Error(t, err)
}

func TestSolveObjectiveConstant(t *testing.T) {
	p := newProblem()
	x, _ := p.Variable("x", milp.Continuous, 0, 1)
	sol, err := p.Optimize(milp.Constant(1).AddTerm(-1, x), milp.Minimize)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sol.Value(), 1e-9)
}

func TestNodeLimit(t *testing.T) {
	s := New(Config{MaxNodes: 1})
	p := milp.NewProblem(s)
	x, _ := p.Variable("x", milp.Integer, 0, 10)
	p.AddConstraint(milp.LE(milp.Var(x).Scale(2), milp.Constant(7)))
	_, err := p.Optimize(milp.Var(x), milp.Maximize)
	require.Error(t, err)
}
