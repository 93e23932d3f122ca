package kb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

func TestSubsumptionMonotonicity(t *testing.T) {
	for _, impl := range concept.Implications {
		t.Run(impl.String(), func(t *testing.T) {
			k := New()
			require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(1), impl))
			assert.InDelta(t, 1, subsumption(t, k, atom("A"), atom("B"), impl, milp.Minimize), tol)
		})
	}
}

func TestSubsumptionDegrees(t *testing.T) {
	k := New()
	require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(0.4), concept.GoedelImplication))

	assert.InDelta(t, 0.4, subsumption(t, k, atom("A"), atom("B"), concept.GoedelImplication, milp.Minimize), tol)
	assert.InDelta(t, 1, subsumption(t, k, atom("A"), atom("B"), concept.GoedelImplication, milp.Maximize), tol)
	assert.InDelta(t, 0, subsumption(t, k, atom("B"), atom("A"), concept.GoedelImplication, milp.Minimize), tol)
	assert.InDelta(t, 1, subsumption(t, k, atom("A"), concept.Top(), concept.KleeneDienesImplication, milp.Minimize), tol)
	// Kleene-Dienes is not reflexive on fuzzy degrees.
	assert.InDelta(t, 0.5, subsumption(t, k, atom("A"), atom("A"), concept.KleeneDienesImplication, milp.Minimize), tol)
}

func TestEncodeSubsumptionRejectsConcreteConcepts(t *testing.T) {
	k := New()
	dt, err := concept.NewDatatype("D", concept.Triangular, 0, 10, 2, 5, 8)
	require.NoError(t, err)
	ind, err := k.GetNewIndividual()
	require.NoError(t, err)
	_, err = k.EncodeSubsumption(ind, concept.FuzzyDatatype(dt), atom("A"), concept.GoedelImplication, milp.Minimize)
	assert.ErrorContains(t, err, "concrete")
}

func classifiedKB(t *testing.T, opts ...Option) *KnowledgeBase {
	t.Helper()
	k := New(opts...)
	require.NoError(t, k.AddGCI(atom("Dog"), atom("Animal"), deg(1), concept.GoedelImplication))
	require.NoError(t, k.AddGCI(atom("Puppy"), atom("Dog"), deg(0.8), concept.GoedelImplication))
	require.NoError(t, k.Classify())
	return k
}

func TestClassify(t *testing.T) {
	k := classifiedKB(t)
	require.True(t, k.IsClassified())
	assert.Equal(t, k.Fingerprint(), k.Classification().Fingerprint())

	got, ok := k.CachedSubsumption("Dog", "Animal", concept.GoedelImplication, milp.Minimize)
	require.True(t, ok)
	assert.InDelta(t, 1, got, tol)

	got, ok = k.CachedSubsumption("Puppy", "Animal", concept.GoedelImplication, milp.Minimize)
	require.True(t, ok)
	assert.InDelta(t, 0.8, got, tol)

	got, ok = k.CachedSubsumption("Animal", "Dog", concept.GoedelImplication, milp.Minimize)
	require.True(t, ok)
	assert.InDelta(t, 0, got, tol)

	got, ok = k.CachedSubsumption("Animal", "*top*", concept.LukasiewiczImplication, milp.Minimize)
	require.True(t, ok)
	assert.Equal(t, 1.0, got)

	_, ok = k.CachedSubsumption("Cat", "Animal", concept.GoedelImplication, milp.Minimize)
	assert.False(t, ok)

	node, ok := k.Classification().Lookup("Dog")
	require.True(t, ok)
	assert.Empty(t, cmp.Diff([]string{"*top*", "Animal", "Dog"}, node.Subsumers(concept.GoedelImplication)))
	assert.False(t, node.IsTop())
	top, ok := k.Classification().Lookup("*top*")
	require.True(t, ok)
	assert.True(t, top.IsTop())

	// four subsumed, four subsumers, four implications
	assert.Len(t, k.Classification().Rows(), 64)
}

func TestClassificationMatchesFullReasoning(t *testing.T) {
	k := classifiedKB(t)
	plain := New(WithOptimizationLevel(0))
	require.NoError(t, plain.AddGCI(atom("Dog"), atom("Animal"), deg(1), concept.GoedelImplication))
	require.NoError(t, plain.AddGCI(atom("Puppy"), atom("Dog"), deg(0.8), concept.GoedelImplication))

	for _, sense := range []milp.Sense{milp.Minimize, milp.Maximize} {
		for _, impl := range concept.Implications {
			cached, ok := k.CachedSubsumption("Puppy", "Animal", impl, sense)
			require.True(t, ok)
			direct := subsumption(t, plain, atom("Puppy"), atom("Animal"), impl, sense)
			assert.InDelta(t, direct, cached, tol, "%s %s", impl, sense)
		}
	}
}

func TestTBoxChangeClearsClassification(t *testing.T) {
	k := classifiedKB(t)
	rows := k.Classification().Rows()
	fp := k.Fingerprint()

	require.NoError(t, k.AddGCI(atom("Cat"), atom("Animal"), deg(1), concept.GoedelImplication))
	assert.False(t, k.IsClassified())
	assert.False(t, k.RestoreClassification(fp, rows))

	fresh := New()
	require.NoError(t, fresh.AddGCI(atom("Dog"), atom("Animal"), deg(1), concept.GoedelImplication))
	require.NoError(t, fresh.AddGCI(atom("Puppy"), atom("Dog"), deg(0.8), concept.GoedelImplication))
	require.True(t, fresh.RestoreClassification(fp, rows))
	assert.Empty(t, cmp.Diff(rows, fresh.Classification().Rows()))
}
