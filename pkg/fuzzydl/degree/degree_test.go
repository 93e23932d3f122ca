package degree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

func TestNumericDegree(t *testing.T) {
	d := Numeric(0.25)
	assert.True(t, d.IsNumeric())
	assert.Equal(t, 0.25, d.NumericValue())
	assert.Equal(t, "0.25", d.String())
	assert.Equal(t, 0.75, d.Complement().NumericValue())
	assert.True(t, Zero().IsZero())
	assert.False(t, One().IsZero())
}

func TestVariableDegree(t *testing.T) {
	p := milp.NewProblem(nil)
	q, err := p.Variable("q", milp.SemiContinuous, 0, 1)
	require.NoError(t, err)

	d := FromVariable(q)
	assert.False(t, d.IsNumeric())

	c := d.Complement()
	assert.False(t, c.IsNumeric())
	assert.Equal(t, 1.0, c.Expression().ConstantValue())
	assert.Equal(t, "-1*q + 1", c.String())

	// q - q collapses back to a number
	assert.True(t, d.Add(d.Scale(-1)).IsNumeric())
}

func TestBound(t *testing.T) {
	p := milp.NewProblem(nil)
	x, _ := p.Variable("x", milp.Continuous, 0, 1)
	c := Numeric(0.4).Bound(x)
	assert.Equal(t, milp.GreaterEqual, c.Type)
	assert.True(t, c.Satisfied(map[string]float64{"x": 0.4}, 1e-9))
	assert.False(t, c.Satisfied(map[string]float64{"x": 0.3}, 1e-9))
}
