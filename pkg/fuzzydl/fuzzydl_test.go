package fuzzydl

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/query"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/store/memstore"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/store/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const tol = 1e-4

func petsKB(t *testing.T, opts ...kb.Option) *kb.KnowledgeBase {
	t.Helper()
	k := kb.New(opts...)
	impl := k.Logic().DefaultImplication()
	require.NoError(t, k.AddGCI(concept.Atomic("Dog"), concept.Atomic("Animal"), degree.One(), impl))
	require.NoError(t, k.AddGCI(concept.Atomic("Cat"), concept.Atomic("Animal"), degree.One(), impl))
	require.NoError(t, k.AddAssertion("rex", concept.Atomic("Dog"), degree.Numeric(0.8)))
	require.NoError(t, k.AddAssertion("tom", concept.Atomic("Cat"), degree.Numeric(0.6)))
	return k
}

func petQueries() []query.Query {
	animal := concept.Atomic("Animal")
	return []query.Query{
		query.MinInstance{Individual: "rex", Concept: animal},
		query.MinInstance{Individual: "tom", Concept: animal},
		query.MaxSatisfiable{Concept: concept.Atomic("Dog")},
		query.MinSubsumes(concept.Atomic("Dog"), animal, concept.LukasiewiczImplication),
		query.AllInstances{Concept: animal},
	}
}

func TestAskRecordsReport(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	r := New(Options{KnowledgeBase: petsKB(t), Name: "pets", Store: st})
	defer r.Close()

	rep, err := r.Ask(ctx, query.MinInstance{Individual: "rex", Concept: concept.Atomic("Animal")})
	require.NoError(t, err)
	assert.True(t, rep.Consistent)
	assert.InDelta(t, 0.8, rep.Value, tol)
	assert.Equal(t, "pets", rep.KnowledgeBase)

	stored, ok, err := st.GetReport(ctx, rep.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rep.Query, stored.Query)

	history, err := r.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rep.ID, history[0].ID)
}

func TestAskWrapsQueryErrors(t *testing.T) {
	k := petsKB(t)
	require.NoError(t, k.AddConcreteFeature(kb.Feature{Name: "age", Lower: 0, Upper: 10}))
	r := New(Options{KnowledgeBase: k})

	_, err := r.Ask(context.Background(), query.MinSubsumes(concept.AtLeastValue("age", 3), concept.Atomic("Dog"), concept.GoedelImplication))
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrConcreteConcept))
}

func TestAskAllMatchesSequentialAnswers(t *testing.T) {
	ctx := context.Background()
	qs := petQueries()

	sequential := New(Options{KnowledgeBase: petsKB(t), Name: "pets"})
	var want []float64
	for _, q := range qs {
		rep, err := sequential.Ask(ctx, q)
		require.NoError(t, err)
		want = append(want, rep.Value)
	}
	assert.InDeltaSlice(t, []float64{0.8, 0.6, 1, 1, 0}, want, tol)

	k := petsKB(t)
	before := k.Individuals()
	r := New(Options{KnowledgeBase: k, Name: "pets", Store: memstore.New()})
	defer r.Close()
	reports, err := r.AskAll(ctx, qs, 3)
	require.NoError(t, err)
	require.Len(t, reports, len(qs))
	for i, rep := range reports {
		assert.Equal(t, qs[i].String(), rep.Query)
		assert.InDelta(t, want[i], rep.Value, tol, rep.Query)
	}
	require.Len(t, reports[4].Instances, 2)
	assert.InDelta(t, 0.8, reports[4].Instances[0].Degree, tol)
	assert.InDelta(t, 0.6, reports[4].Instances[1].Degree, tol)

	assert.Equal(t, before, k.Individuals())
	assert.Equal(t, 0, k.NumCreatedIndividuals())

	history, err := r.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, len(qs))
}

func TestAskAllInconsistentKnowledgeBase(t *testing.T) {
	k := petsKB(t)
	require.NoError(t, k.AddAssertion("rex", concept.Not(concept.Atomic("Animal")), degree.One()))
	r := New(Options{KnowledgeBase: k})

	reports, err := r.AskAll(context.Background(), petQueries(), 2)
	require.NoError(t, err)
	for _, rep := range reports {
		assert.False(t, rep.Consistent, rep.Query)
		assert.Contains(t, rep.Answer(), "inconsistent KB")
	}

	_, err = r.Classify(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrInconsistentOntology))
}

func TestAskAllStopsOnError(t *testing.T) {
	r := New(Options{KnowledgeBase: petsKB(t)})
	qs := append(petQueries(), query.Var{Name: "missing", Sense: milp.Maximize})

	_, err := r.AskAll(context.Background(), qs, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestAskAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(Options{KnowledgeBase: petsKB(t)})

	_, err := r.AskAll(ctx, petQueries(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, filepath.Join(t.TempDir(), "fuzzydl.db"))
	require.NoError(t, err)
	defer st.Close()

	first := New(Options{KnowledgeBase: petsKB(t), Name: "pets", Store: st})
	restored, err := first.Classify(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	require.True(t, first.KnowledgeBase().IsClassified())

	second := New(Options{KnowledgeBase: petsKB(t), Name: "pets", Store: st})
	restored, err = second.Classify(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	q := query.MaxSubsumes(concept.Atomic("Animal"), concept.Atomic("Dog"), concept.GoedelImplication)
	a, err := first.Ask(ctx, q)
	require.NoError(t, err)
	b, err := second.Ask(ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, a.Value, b.Value, tol)
	assert.Equal(t, first.KnowledgeBase().Classification().Rows(), second.KnowledgeBase().Classification().Rows())

	// A different TBox does not match the stored fingerprint
	other := petsKB(t)
	require.NoError(t, other.AddGCI(concept.Atomic("Dog"), concept.Atomic("Pet"), degree.One(), concept.ZadehImplication))
	third := New(Options{KnowledgeBase: other, Name: "pets", Store: st})
	restored, err = third.Classify(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
}
