package kb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

func TestNewDefaults(t *testing.T) {
	k := New()
	assert.Equal(t, Zadeh, k.Logic())
	assert.Equal(t, 0.001, k.Epsilon())
	assert.Equal(t, 1, k.OptimizationLevel())
	assert.Equal(t, -1, k.MaxIndividuals())
	assert.Equal(t, SubsetBlocking, k.Blocking())
	assert.Equal(t, 6, k.Digits())
	assert.False(t, k.IsClassified())
}

func TestParseLogic(t *testing.T) {
	for _, l := range []Logic{Classical, Zadeh, Lukasiewicz} {
		got, err := ParseLogic(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLogic("product")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestDefaultImplicationFollowsLogic(t *testing.T) {
	assert.Equal(t, concept.KleeneDienesImplication, Classical.DefaultImplication())
	assert.Equal(t, concept.ZadehImplication, Zadeh.DefaultImplication())
	assert.Equal(t, concept.LukasiewiczImplication, Lukasiewicz.DefaultImplication())
}

func TestAddAssertionRejectsBadInput(t *testing.T) {
	k := New()
	dt, err := concept.NewDatatype("Young", concept.LeftShoulder, 0, 100, 20, 30)
	require.NoError(t, err)

	err = k.AddAssertion("a", concept.FuzzyDatatype(dt), deg(1))
	assert.True(t, errors.Is(err, internalerr.ErrConcreteConcept))

	err = k.AddAssertion("a", atom("A"), deg(1.5))
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	err = k.AddGCI(atom("A"), concept.FuzzyDatatype(dt), deg(1), concept.GoedelImplication)
	assert.True(t, errors.Is(err, internalerr.ErrConcreteConcept))
}

func TestIndividualsListsNamedOnly(t *testing.T) {
	k := New()
	k.AddIndividual("b")
	require.NoError(t, k.AddAssertion("a", concept.Some("r", atom("A")), deg(1)))
	require.NoError(t, k.SolveABox())

	assert.Equal(t, []string{"b", "a"}, k.Individuals())
	assert.Equal(t, 1, k.NumCreatedIndividuals())
	ind, ok := k.Individual("a")
	require.True(t, ok)
	assert.False(t, ind.IsCreated())
}

func TestCloneIsIndependent(t *testing.T) {
	k := New()
	require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.5)))

	c := k.Clone()
	require.NoError(t, c.AddAssertion("a", atom("B"), deg(1)))
	require.NoError(t, c.AddGCI(atom("B"), atom("C"), deg(1), concept.GoedelImplication))
	require.NoError(t, c.SolveABox())

	orig, _ := k.Individual("a")
	assert.True(t, orig.HasLabel(atom("A")))
	assert.False(t, orig.HasLabel(atom("B")))
	assert.Empty(t, k.AtomicConcepts())

	cloned, _ := c.Individual("a")
	assert.True(t, cloned.HasLabel(atom("C")))
	assert.Len(t, c.AtomicConcepts(), 2)
	assert.Greater(t, c.Problem().NumConstraints(), k.Problem().NumConstraints())
}

func TestCloneWithoutABoxKeepsTBoxAndVariables(t *testing.T) {
	k := New()
	require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(1), concept.ZadehImplication))
	require.NoError(t, k.AddAssertion("a", atom("A"), deg(1)))
	_, err := k.DeclareVariable("x", milp.Continuous, 0, 10)
	require.NoError(t, err)

	c := k.CloneWithoutABox()
	assert.Empty(t, c.Individuals())
	_, ok := c.Variable("x")
	assert.True(t, ok)
	assert.Equal(t, k.Fingerprint(), c.Fingerprint())
}

func TestDeclareVariableRejectsDuplicates(t *testing.T) {
	k := New()
	_, err := k.DeclareVariable("x", milp.Continuous, 0, 1)
	require.NoError(t, err)
	_, err = k.DeclareVariable("x", milp.Continuous, 0, 1)
	assert.True(t, errors.Is(err, internalerr.ErrDuplicate))

	_, err = k.DeclareVariable("#0:A", milp.Continuous, 0, 1)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestFingerprintTracksTBox(t *testing.T) {
	k := New()
	before := k.Fingerprint()
	require.NoError(t, k.AddAssertion("a", atom("A"), deg(1)))
	assert.Equal(t, before, k.Fingerprint())

	require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(1), concept.GoedelImplication))
	assert.NotEqual(t, before, k.Fingerprint())

	other := New(WithLogic(Lukasiewicz))
	require.NoError(t, other.AddGCI(atom("A"), atom("B"), deg(1), concept.GoedelImplication))
	assert.NotEqual(t, k.Fingerprint(), other.Fingerprint())
}

func TestGetNewIndividualRespectsLimit(t *testing.T) {
	k := New(WithMaxIndividuals(2))
	a, err := k.GetNewIndividual()
	require.NoError(t, err)
	b, err := k.GetNewIndividual()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = k.GetNewIndividual()
	assert.True(t, errors.Is(err, internalerr.ErrIndividualLimit))
	assert.Equal(t, 2, k.NumCreatedIndividuals())
}
