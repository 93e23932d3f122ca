package milp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

func TestExpressionArithmetic(t *testing.T) {
	p := NewProblem(nil)
	x, err := p.Variable("x", Continuous, 0, 1)
	require.NoError(t, err)
	y, err := p.Variable("y", Continuous, 0, 1)
	require.NoError(t, err)

	e := NewExpression(1, NewTerm(2, x)).Add(Var(y)).Sub(Var(x))
	s := e.Simplify()
	assert.Equal(t, 1.0, s.ConstantValue())
	require.Len(t, s.Terms(), 2)
	assert.Equal(t, 1.0, s.Terms()[0].Coeff)
	assert.Equal(t, "1*x + 1*y + 1", e.String())

	n := e.Negate()
	assert.Equal(t, -1.0, n.ConstantValue())
	assert.Equal(t, 2.5, e.Evaluate(map[string]float64{"x": 0.5, "y": 1}))

	assert.True(t, Var(x).Sub(Var(x)).IsConstant())
	assert.Len(t, e.Variables(), 2)
}

func TestVariableRedeclaration(t *testing.T) {
	p := NewProblem(nil)
	v1, err := p.Variable("x", Binary, 0, 1)
	require.NoError(t, err)
	v2, err := p.Variable("x", Binary, 0, 1)
	require.NoError(t, err)
	assert.Same(t, v1, v2)

	_, err = p.Variable("x", Continuous, 0, 1)
	require.Error(t, err)

	_, err = p.Variable("z", Continuous, 2, 1)
	require.Error(t, err)

	_, err = p.Variable("s", SemiContinuous, -1, 1)
	require.Error(t, err)
}

func TestConstraintDeduplicationAndClone(t *testing.T) {
	p := NewProblem(nil)
	x, _ := p.Variable("x", Continuous, 0, 1)
	p.AddConstraint(GE(Var(x), Constant(0.5)))
	p.AddConstraint(GE(Var(x), Constant(0.5)))
	assert.Equal(t, 1, p.NumConstraints())

	c := p.Clone()
	c.AddConstraint(LE(Var(x), Constant(0.9)))
	assert.Equal(t, 1, p.NumConstraints())
	assert.Equal(t, 2, c.NumConstraints())

	f, err := c.Fresh("y", Binary, 0, 1)
	require.NoError(t, err)
	_, inOriginal := p.Lookup(f.Name())
	assert.False(t, inOriginal)
}

func TestModelFlagsViolatedConstantConstraint(t *testing.T) {
	p := NewProblem(nil)
	x, _ := p.Variable("x", Continuous, 0, 1)
	p.AddConstraint(GE(Var(x).Sub(Var(x)), Constant(1)))
	_, _, violated, err := p.Model(Var(x), Minimize)
	require.NoError(t, err)
	assert.True(t, violated)
}

func TestModelRejectsUnknownObjectiveVariable(t *testing.T) {
	p := NewProblem(nil)
	x, err := p.Variable("x", Continuous, 0, 1)
	require.NoError(t, err)
	p.AddConstraint(GE(Var(x), Constant(0.5)))

	other := NewProblem(nil)
	typo, err := other.Variable("xx", Continuous, 0, 1)
	require.NoError(t, err)

	_, _, _, err = p.Model(Var(x).Add(Var(typo)), Minimize)
	assert.ErrorIs(t, err, internalerr.ErrSolver)
	assert.Contains(t, err.Error(), "xx")
}

func TestOptimizeWithoutSolver(t *testing.T) {
	p := NewProblem(nil)
	_, err := p.Optimize(Constant(0), Minimize)
	require.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.333, Round(1.0/3, 3))
	assert.Equal(t, 0.0, Round(-1e-12, 6))
	assert.Equal(t, 1.25, Round(1.25, -1))
}

func TestInconsistentSolutionString(t *testing.T) {
	assert.Equal(t, "Inconsistent KB", InconsistentSolution().String())
	assert.Equal(t, "0.5", NewSolution(0.5, nil).String())
}
