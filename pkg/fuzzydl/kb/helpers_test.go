package kb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

const tol = 1e-4

// minInstance returns the least degree of ind : c over the models of k,
// leaving k untouched.
func minInstance(t *testing.T, k *KnowledgeBase, ind string, c *concept.Concept) float64 {
	t.Helper()
	w := k.Clone()
	q, err := w.Problem().Fresh("_q", milp.SemiContinuous, w.Epsilon(), 1)
	require.NoError(t, err)
	gap := degree.FromExpression(milp.Var(q).Negate().AddConstant(1))
	require.NoError(t, w.AddAssertion(ind, concept.Not(c), gap))
	sol, err := w.Optimize(milp.Var(q), milp.Minimize)
	require.NoError(t, err)
	return sol.Value()
}

func subsumption(t *testing.T, k *KnowledgeBase, sub, sup *concept.Concept, impl concept.Implication, sense milp.Sense) float64 {
	t.Helper()
	w := k.CloneWithoutABox()
	ind, err := w.GetNewIndividual()
	require.NoError(t, err)
	q, err := w.EncodeSubsumption(ind, sub, sup, impl, sense)
	require.NoError(t, err)
	sol, err := w.Optimize(milp.Var(q), sense)
	require.NoError(t, err)
	return sol.Value()
}

func atom(name string) *concept.Concept { return concept.Atomic(name) }

func deg(v float64) degree.Degree { return degree.Numeric(v) }

func degreeOf(v *milp.Variable) degree.Degree { return degree.FromVariable(v) }
