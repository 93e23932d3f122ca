package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Subsumes asks for the least (Sense Minimize) or greatest (Sense Maximize)
// degree to which Subsumer subsumes Subsumed under Implication.
type Subsumes struct {
	Subsumed    *concept.Concept
	Subsumer    *concept.Concept
	Implication concept.Implication
	Sense       milp.Sense
}

// MinSubsumes builds a min-subs? query.
func MinSubsumes(sub, sup *concept.Concept, impl concept.Implication) Subsumes {
	return Subsumes{Subsumed: sub, Subsumer: sup, Implication: impl, Sense: milp.Minimize}
}

// MaxSubsumes builds a max-subs? query.
func MaxSubsumes(sub, sup *concept.Concept, impl concept.Implication) Subsumes {
	return Subsumes{Subsumed: sub, Subsumer: sup, Implication: impl, Sense: milp.Maximize}
}

func (q Subsumes) String() string {
	return fmt.Sprintf("(%s-%s-subs? %s %s)", q.Sense, q.Implication, q.Subsumed, q.Subsumer)
}

func (q Subsumes) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase {
	return conceptWorkspace(k, "")
}

// Preprocess encodes the implication at a fresh individual.
func (q Subsumes) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	ind, err := k.GetNewIndividual()
	if err != nil {
		return Goal{}, err
	}
	v, err := k.EncodeSubsumption(ind, q.Subsumed, q.Subsumer, q.Implication, q.Sense)
	if err != nil {
		return Goal{}, err
	}
	return Goal{Objective: milp.Var(v), Sense: q.Sense}, nil
}

// Solve answers the query, from the classification when the knowledge base
// is classified and both concepts are atomic.
func (q Subsumes) Solve(k *kb.KnowledgeBase) (*Result, error) {
	if err := checkAbstract(q.Subsumed); err != nil {
		return nil, err
	}
	if err := checkAbstract(q.Subsumer); err != nil {
		return nil, err
	}
	shortcut := q.Subsumer.Kind() == concept.KindTop ||
		(k.OptimizationLevel() > 0 && k.IsClassified() && classifiable(q.Subsumed) && q.Subsumer.IsAtomic())
	if shortcut {
		start := time.Now()
		if err := k.CheckConsistency(); err != nil {
			if errors.Is(err, internalerr.ErrInconsistentOntology) {
				return inconsistent(q), nil
			}
			return nil, err
		}
		if q.Subsumer.Kind() == concept.KindTop {
			return &Result{Query: q.String(), Solution: milp.NewSolution(1, nil), Elapsed: time.Since(start)}, nil
		}
		if v, ok := k.CachedSubsumption(q.Subsumed.Name(), q.Subsumer.Name(), q.Implication, q.Sense); ok {
			return &Result{Query: q.String(), Solution: milp.NewSolution(v, nil), Elapsed: time.Since(start)}, nil
		}
	}
	return solve(k, q)
}

func classifiable(c *concept.Concept) bool {
	return c.IsAtomic() || c.Kind() == concept.KindTop
}
