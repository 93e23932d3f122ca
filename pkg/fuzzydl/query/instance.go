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

// MaxSatisfiable asks for the greatest degree Concept can take, at
// Individual or at a fresh individual when Individual is empty.
type MaxSatisfiable struct {
	Concept    *concept.Concept
	Individual string
}

func (q MaxSatisfiable) String() string { return satName("max-sat?", q.Concept, q.Individual) }

func (q MaxSatisfiable) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase {
	return conceptWorkspace(k, q.Individual)
}

// Preprocess asserts ind : C >= q.
func (q MaxSatisfiable) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	return satGoal(k, q.Concept, q.Individual, milp.Maximize)
}

// Solve answers the query.
func (q MaxSatisfiable) Solve(k *kb.KnowledgeBase) (*Result, error) { return solve(k, q) }

// MinSatisfiable asks for the least degree Concept can take, at Individual
// or at a fresh individual when Individual is empty.
type MinSatisfiable struct {
	Concept    *concept.Concept
	Individual string
}

func (q MinSatisfiable) String() string { return satName("min-sat?", q.Concept, q.Individual) }

func (q MinSatisfiable) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase {
	return conceptWorkspace(k, q.Individual)
}

// Preprocess asserts ind : C <= q.
func (q MinSatisfiable) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	return satGoal(k, q.Concept, q.Individual, milp.Minimize)
}

// Solve answers the query.
func (q MinSatisfiable) Solve(k *kb.KnowledgeBase) (*Result, error) { return solve(k, q) }

func satName(op string, c *concept.Concept, ind string) string {
	if ind == "" {
		return fmt.Sprintf("(%s %s)", op, c)
	}
	return fmt.Sprintf("(%s %s %s)", op, c, ind)
}

func satGoal(k *kb.KnowledgeBase, c *concept.Concept, ind string, sense milp.Sense) (Goal, error) {
	if err := checkAbstract(c); err != nil {
		return Goal{}, err
	}
	if ind == "" {
		var err error
		if ind, err = k.GetNewIndividual(); err != nil {
			return Goal{}, err
		}
	}
	return instanceGoal(k, ind, c, sense)
}

func instanceGoal(k *kb.KnowledgeBase, ind string, c *concept.Concept, sense milp.Sense) (Goal, error) {
	q, err := gap(k)
	if err != nil {
		return Goal{}, err
	}
	if sense == milp.Minimize {
		err = boundAbove(k, ind, c, q)
	} else {
		err = boundBelow(k, ind, c, q)
	}
	if err != nil {
		return Goal{}, err
	}
	return Goal{Objective: milp.Var(q), Sense: sense}, nil
}

// MinInstance asks for the least degree of Individual : Concept entailed by
// the knowledge base.
type MinInstance struct {
	Individual string
	Concept    *concept.Concept
}

func (q MinInstance) String() string {
	return fmt.Sprintf("(min-instance? %s %s)", q.Individual, q.Concept)
}

func (q MinInstance) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase { return k.Clone() }

// Preprocess asserts Individual : not C >= 1 - q.
func (q MinInstance) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	if err := checkAbstract(q.Concept); err != nil {
		return Goal{}, err
	}
	return instanceGoal(k, q.Individual, q.Concept, milp.Minimize)
}

// Solve answers the query.
func (q MinInstance) Solve(k *kb.KnowledgeBase) (*Result, error) { return solve(k, q) }

// MaxInstance asks for the greatest degree Individual : Concept can take.
type MaxInstance struct {
	Individual string
	Concept    *concept.Concept
}

func (q MaxInstance) String() string {
	return fmt.Sprintf("(max-instance? %s %s)", q.Individual, q.Concept)
}

func (q MaxInstance) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase { return k.Clone() }

// Preprocess asserts Individual : C >= q.
func (q MaxInstance) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	if err := checkAbstract(q.Concept); err != nil {
		return Goal{}, err
	}
	return instanceGoal(k, q.Individual, q.Concept, milp.Maximize)
}

// Solve answers the query.
func (q MaxInstance) Solve(k *kb.KnowledgeBase) (*Result, error) { return solve(k, q) }

// AllInstances runs a MinInstance query for every named individual.
type AllInstances struct {
	Concept *concept.Concept
}

func (q AllInstances) String() string { return fmt.Sprintf("(all-instances? %s)", q.Concept) }

// Solve answers the query. It stops at the first inconsistent answer.
func (q AllInstances) Solve(k *kb.KnowledgeBase) (*Result, error) {
	start := time.Now()
	if err := checkAbstract(q.Concept); err != nil {
		return nil, err
	}
	if err := k.CheckConsistency(); err != nil {
		if errors.Is(err, internalerr.ErrInconsistentOntology) {
			return inconsistent(q), nil
		}
		return nil, err
	}
	res := &Result{Query: q.String(), Solution: milp.NewSolution(0, nil)}
	for _, ind := range k.Individuals() {
		sub, err := MinInstance{Individual: ind, Concept: q.Concept}.Solve(k)
		if err != nil {
			return nil, err
		}
		if !sub.IsConsistent() {
			return inconsistent(q), nil
		}
		res.Instances = append(res.Instances, Instance{Individual: ind, Degree: sub.Value()})
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
