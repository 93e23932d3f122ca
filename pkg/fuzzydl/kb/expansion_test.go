package kb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/axiom"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

func TestInstanceDegrees(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		ind   string
		setup func(t *testing.T, k *KnowledgeBase)
		query *concept.Concept
		want  float64
	}{
		{
			name: "asserted atom",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.7)))
			},
			query: atom("A"),
			want:  0.7,
		},
		{
			name: "conjunct",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddAssertion("a", concept.And(atom("A"), atom("B")), deg(0.6)))
			},
			query: atom("B"),
			want:  0.6,
		},
		{
			name: "conjunction of two assertions",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.6)))
				require.NoError(t, k.AddAssertion("a", atom("B"), deg(0.9)))
			},
			query: concept.And(atom("A"), atom("B")),
			want:  0.6,
		},
		{
			name: "unknown atom",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.6)))
			},
			query: atom("B"),
			want:  0,
		},
		{
			name: "zadeh inclusion",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(1), concept.ZadehImplication))
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.8)))
			},
			query: atom("B"),
			want:  0.8,
		},
		{
			name:  "lukasiewicz inclusion",
			opts:  []Option{WithLogic(Lukasiewicz)},
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(0.9), concept.LukasiewiczImplication))
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.8)))
			},
			query: atom("B"),
			want:  0.7,
		},
		{
			name: "goedel primitive definition",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddPrimitiveConceptDefinition("A", atom("B"), 0.6, concept.GoedelImplication))
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(0.8)))
			},
			query: atom("B"),
			want:  0.6,
		},
		{
			name: "existential successor",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddGCI(atom("A"), atom("B"), deg(1), concept.ZadehImplication))
				require.NoError(t, k.AddAssertion("a", concept.Some("r", atom("A")), deg(0.6)))
			},
			query: concept.Some("r", atom("B")),
			want:  0.6,
		},
		{
			name: "universal over asserted edge",
			ind:  "b",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddRelation("a", "r", "b", deg(0.9)))
				require.NoError(t, k.AddAssertion("a", concept.All("r", atom("A")), deg(0.7)))
			},
			query: atom("A"),
			want:  0.7,
		},
		{
			name: "has value",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddAssertion("a", concept.HasValue("r", "b"), deg(0.4)))
				require.NoError(t, k.AddAssertion("b", atom("A"), deg(1)))
			},
			query: concept.Some("r", atom("A")),
			want:  0.4,
		},
		{
			name: "synonym",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddConceptDefinition("A", atom("B")))
				require.NoError(t, k.AddAssertion("a", atom("B"), deg(0.6)))
			},
			query: atom("A"),
			want:  0.6,
		},
		{
			name: "weighted sum",
			setup: func(t *testing.T, k *KnowledgeBase) {
				require.NoError(t, k.AddAssertion("a", atom("A"), deg(1)))
				require.NoError(t, k.AddAssertion("a", atom("B"), deg(0.5)))
			},
			query: mustConcept(concept.WeightedSum([]float64{0.6, 0.4}, []*concept.Concept{atom("A"), atom("B")})),
			want:  0.8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := New(tt.opts...)
			tt.setup(t, k)
			ind := tt.ind
			if ind == "" {
				ind = "a"
			}
			assert.InDelta(t, tt.want, minInstance(t, k, ind, tt.query), tol)
		})
	}
}

func mustConcept(c *concept.Concept, err error) *concept.Concept {
	if err != nil {
		panic(err)
	}
	return c
}

func TestRoleAxioms(t *testing.T) {
	t.Run("sub role", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddSubRole("r", "s", 1))
		require.NoError(t, k.AddRelation("a", "r", "b", deg(0.7)))
		assert.InDelta(t, 0.7, minInstance(t, k, "a", concept.Some("s", concept.Top())), tol)
	})
	t.Run("inverse", func(t *testing.T) {
		k := New()
		k.AddInverse("hasChild", "hasParent")
		require.NoError(t, k.AddRelation("a", "hasChild", "b", deg(0.8)))
		assert.InDelta(t, 0.8, minInstance(t, k, "b", concept.Some("hasParent", concept.Top())), tol)
	})
	t.Run("symmetric", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddRoleCharacteristic("friend", axiom.Symmetric))
		require.NoError(t, k.AddRelation("a", "friend", "b", deg(0.5)))
		assert.InDelta(t, 0.5, minInstance(t, k, "b", concept.HasValue("friend", "a")), tol)
	})
	t.Run("reflexive", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddRoleCharacteristic("knows", axiom.Reflexive))
		k.AddIndividual("a")
		assert.InDelta(t, 1, minInstance(t, k, "a", concept.Self("knows")), tol)
	})
	t.Run("domain and range", func(t *testing.T) {
		k := New()
		k.AddDomain("teaches", atom("Teacher"), 1)
		k.AddRange("teaches", atom("Course"), 1)
		require.NoError(t, k.AddRelation("a", "teaches", "c", deg(0.9)))
		assert.InDelta(t, 0.9, minInstance(t, k, "a", atom("Teacher")), tol)
		assert.InDelta(t, 0.9, minInstance(t, k, "c", atom("Course")), tol)
	})
	t.Run("transitive", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddRoleCharacteristic("partOf", axiom.Transitive))
		require.NoError(t, k.AddRelation("a", "partOf", "b", deg(1)))
		require.NoError(t, k.AddRelation("b", "partOf", "c", deg(1)))
		require.NoError(t, k.AddAssertion("a", concept.All("partOf", atom("A")), deg(1)))
		assert.InDelta(t, 1, minInstance(t, k, "c", atom("A")), tol)
	})
}

func TestFunctionalRoleReusesSuccessor(t *testing.T) {
	k := New()
	require.NoError(t, k.AddRoleCharacteristic("hasMother", axiom.Functional))
	require.NoError(t, k.AddAssertion("a", concept.Some("hasMother", atom("A")), deg(1)))
	require.NoError(t, k.AddAssertion("a", concept.Some("hasMother", atom("B")), deg(1)))
	require.NoError(t, k.SolveABox())
	assert.Equal(t, 1, k.NumCreatedIndividuals())

	k = New()
	require.NoError(t, k.AddRoleCharacteristic("hasMother", axiom.Functional))
	twoMothers, err := concept.AtLeast(2, "hasMother", concept.Top())
	require.NoError(t, err)
	require.NoError(t, k.AddAssertion("a", twoMothers, deg(0.5)))
	assert.True(t, errors.Is(k.CheckConsistency(), internalerr.ErrInconsistentOntology))
}

func TestAtMostLimitsSuccessors(t *testing.T) {
	k := New()
	atMostOne, err := concept.AtMost(1, "r", atom("A"))
	require.NoError(t, err)
	require.NoError(t, k.AddRelation("a", "r", "b", deg(1)))
	require.NoError(t, k.AddRelation("a", "r", "c", deg(1)))
	require.NoError(t, k.AddAssertion("b", atom("A"), deg(1)))
	require.NoError(t, k.AddAssertion("a", atMostOne, deg(1)))
	assert.InDelta(t, 0, minInstance(t, k, "c", atom("A")), tol)

	require.NoError(t, k.AddAssertion("c", atom("A"), deg(1)))
	assert.True(t, errors.Is(k.CheckConsistency(), internalerr.ErrInconsistentOntology))
}

func TestInconsistency(t *testing.T) {
	t.Run("classical complement", func(t *testing.T) {
		k := New(WithLogic(Classical))
		require.NoError(t, k.AddAssertion("i", atom("C"), deg(1)))
		require.NoError(t, k.AddAssertion("i", concept.Not(atom("C")), deg(1)))
		err := k.CheckConsistency()
		assert.True(t, errors.Is(err, internalerr.ErrInconsistentOntology))
		// Memoised until the knowledge base changes.
		assert.Equal(t, err, k.CheckConsistency())
	})
	t.Run("zadeh degrees above one", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddAssertion("i", atom("C"), deg(0.7)))
		require.NoError(t, k.AddAssertion("i", concept.Not(atom("C")), deg(0.7)))
		assert.True(t, errors.Is(k.CheckConsistency(), internalerr.ErrInconsistentOntology))
	})
	t.Run("zadeh degrees within one", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddAssertion("i", atom("C"), deg(0.3)))
		require.NoError(t, k.AddAssertion("i", concept.Not(atom("C")), deg(0.6)))
		assert.NoError(t, k.CheckConsistency())
	})
	t.Run("disjoint concepts", func(t *testing.T) {
		k := New()
		require.NoError(t, k.AddDisjoint("Cat", "Dog"))
		require.NoError(t, k.AddAssertion("i", atom("Cat"), deg(1)))
		require.NoError(t, k.AddAssertion("i", atom("Dog"), deg(0.5)))
		assert.True(t, errors.Is(k.CheckConsistency(), internalerr.ErrInconsistentOntology))
	})
	t.Run("bottom", func(t *testing.T) {
		k := New()
		err := k.AddAssertion("i", concept.Bottom(), deg(0.5))
		assert.True(t, errors.Is(err, internalerr.ErrInconsistentOntology))
	})
}

func TestOptimizeFreeVariable(t *testing.T) {
	k := New()
	x, err := k.DeclareVariable("x", milp.Continuous, 0, 1)
	require.NoError(t, err)
	require.NoError(t, k.AddAssertion("a", atom("A"), degreeOf(x)))
	require.NoError(t, k.AddAssertion("a", concept.Not(atom("A")), deg(0.25)))

	sol, err := k.Clone().Optimize(milp.Var(x), milp.Maximize)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, sol.Value(), tol)
}

func TestSeparatorsInNamesKeepLabelsApart(t *testing.T) {
	k := New()
	require.NoError(t, k.AddAssertion("a:b", atom("C"), deg(0.7)))
	require.NoError(t, k.AddAssertion("a", atom("b:C"), deg(0.2)))
	require.NoError(t, k.AddRelation("a,b", "r", "c", deg(0.6)))
	require.NoError(t, k.AddRelation("a", "r", "b,c", deg(0.3)))

	assert.InDelta(t, 0.2, minInstance(t, k, "a", atom("b:C")), tol)
	assert.InDelta(t, 0.7, minInstance(t, k, "a:b", atom("C")), tol)
	assert.InDelta(t, 0.3, minInstance(t, k, "a", concept.HasValue("r", "b,c")), tol)
}
