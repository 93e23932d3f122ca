package kb

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

func cyclicKB(t *testing.T, opts ...Option) *KnowledgeBase {
	t.Helper()
	k := New(opts...)
	require.NoError(t, k.AddGCI(atom("C"), concept.Some("r", atom("C")), deg(1), concept.ZadehImplication))
	require.NoError(t, k.AddAssertion("i", atom("C"), deg(1)))
	return k
}

func TestParseBlocking(t *testing.T) {
	for b := NoBlocking; b <= AnywhereDoubleBlocking; b++ {
		got, err := ParseBlocking(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	got, err := ParseBlocking(" Anywhere-Set ")
	require.NoError(t, err)
	assert.Equal(t, AnywhereSetBlocking, got)

	_, err = ParseBlocking("pairwise")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestBlockingTerminatesCyclicExistential(t *testing.T) {
	strategies := []BlockingStrategy{
		SubsetBlocking, SetBlocking, DoubleBlocking,
		AnywhereSubsetBlocking, AnywhereSetBlocking, AnywhereDoubleBlocking,
	}
	for _, b := range strategies {
		t.Run(b.String(), func(t *testing.T) {
			k := cyclicKB(t, WithBlocking(b), WithMaxIndividuals(50))
			require.NoError(t, k.SolveABox())
			assert.LessOrEqual(t, k.NumCreatedIndividuals(), 4)

			blocked := 0
			for n := 1; n <= k.NumCreatedIndividuals(); n++ {
				ind, ok := k.Individual("_i" + strconv.Itoa(n))
				require.True(t, ok)
				if k.IsBlocked(ind.Name()) {
					blocked++
				}
			}
			assert.GreaterOrEqual(t, blocked, 1)
			assert.False(t, k.IsBlocked("i"))
		})
	}
}

func TestNoBlockingHitsIndividualLimit(t *testing.T) {
	k := cyclicKB(t, WithBlocking(NoBlocking), WithMaxIndividuals(10))
	err := k.SolveABox()
	assert.True(t, errors.Is(err, internalerr.ErrIndividualLimit))
	assert.Equal(t, 10, k.NumCreatedIndividuals())
}

func TestBlockedIndividualIsReleasedWhenLabelsDiverge(t *testing.T) {
	k := cyclicKB(t)
	require.NoError(t, k.SolveABox())
	require.True(t, k.IsBlocked("_i2"))

	// A new label on the blocked individual breaks the subset relation.
	i := k.byName["_i2"]
	_, err := k.labelVar(i, atom("D"))
	require.NoError(t, err)
	assert.False(t, k.IsBlocked("_i2"))
	require.NoError(t, k.SolveABox())
	assert.Greater(t, k.NumCreatedIndividuals(), 2)
}

func TestBlockedKBStillAnswersQueries(t *testing.T) {
	k := cyclicKB(t)
	assert.InDelta(t, 1, minInstance(t, k, "i", concept.Some("r", concept.Some("r", atom("C")))), tol)
}
