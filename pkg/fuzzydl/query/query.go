// Package query answers questions about a knowledge base. Every query works
// on a private clone: it adds the auxiliary individuals, assertions and gap
// variables that encode the question, then optimises one objective.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Query is a question a knowledge base can answer.
type Query interface {
	String() string
	Solve(k *kb.KnowledgeBase) (*Result, error)
}

// Goal is the objective a single-goal query optimises on its clone.
type Goal struct {
	Objective milp.Expression
	Sense     milp.Sense
}

// Result is the answer to a query. An inconsistent knowledge base yields an
// inconsistent Solution rather than an error.
type Result struct {
	Query     string
	Solution  *milp.Solution
	Instances []Instance
	Elapsed   time.Duration
}

// Instance is the degree of one individual in an AllInstances answer.
type Instance struct {
	Individual string  `json:"individual"`
	Degree     float64 `json:"degree"`
}

// IsConsistent reports whether the knowledge base was consistent.
func (r *Result) IsConsistent() bool {
	return r.Solution != nil && r.Solution.IsConsistent()
}

// Value is the optimum, or 0 for an inconsistent knowledge base.
func (r *Result) Value() float64 {
	if r.Solution == nil {
		return 0
	}
	return r.Solution.Value()
}

func (r *Result) String() string {
	if !r.IsConsistent() {
		return r.Query + " = inconsistent KB"
	}
	if len(r.Instances) > 0 {
		parts := make([]string, len(r.Instances))
		for i, in := range r.Instances {
			parts[i] = fmt.Sprintf("%s:%s", in.Individual, formatDegree(in.Degree))
		}
		return r.Query + " = {" + strings.Join(parts, ", ") + "}"
	}
	return r.Query + " = " + formatDegree(r.Solution.Value())
}

func formatDegree(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func inconsistent(q Query) *Result {
	return &Result{Query: q.String(), Solution: milp.InconsistentSolution()}
}

// goalQuery is implemented by queries that optimise one objective.
type goalQuery interface {
	Query
	workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase
	Preprocess(k *kb.KnowledgeBase) (Goal, error)
}

// solve runs the common pipeline of single-goal queries: consistency check,
// clone, preprocess, optimise.
func solve(k *kb.KnowledgeBase, q goalQuery) (*Result, error) {
	start := time.Now()
	if err := k.CheckConsistency(); err != nil {
		if errors.Is(err, internalerr.ErrInconsistentOntology) {
			return inconsistent(q), nil
		}
		return nil, err
	}
	work := q.workspace(k)
	goal, err := q.Preprocess(work)
	if err == nil {
		var sol *milp.Solution
		if sol, err = work.Optimize(goal.Objective, goal.Sense); err == nil {
			res := &Result{Query: q.String(), Solution: sol, Elapsed: time.Since(start)}
			if k.Trace() {
				k.Logger().Debug("query answered", zap.String("query", res.Query), zap.Float64("value", sol.Value()), zap.Duration("elapsed", res.Elapsed))
			}
			return res, nil
		}
	}
	if errors.Is(err, internalerr.ErrInconsistentOntology) {
		res := inconsistent(q)
		res.Elapsed = time.Since(start)
		return res, nil
	}
	return nil, fmt.Errorf("%s: %w", q, err)
}

// conceptWorkspace picks the clone a concept-level query reasons on. A TBox
// without nominals cannot make the ABox relevant to a fresh individual.
func conceptWorkspace(k *kb.KnowledgeBase, individual string) *kb.KnowledgeBase {
	if individual == "" && k.OptimizationLevel() > 0 && !k.HasNominalsInTBox() {
		return k.CloneWithoutABox()
	}
	return k.Clone()
}

// gap returns a fresh variable standing for the degree asked for. It is
// either exactly 0 or within [epsilon, 1], so branch and bound separates a
// perfect answer from a genuine fuzzy degree.
func gap(k *kb.KnowledgeBase) (*milp.Variable, error) {
	return k.Problem().Fresh("_q", milp.SemiContinuous, k.Epsilon(), 1)
}

// boundAbove states ind : c <= q by asserting ind : not c >= 1 - q.
func boundAbove(k *kb.KnowledgeBase, ind string, c *concept.Concept, q *milp.Variable) error {
	return k.AddAssertion(ind, concept.Not(c), degree.FromExpression(milp.Var(q).Negate().AddConstant(1)))
}

// boundBelow states ind : c >= q.
func boundBelow(k *kb.KnowledgeBase, ind string, c *concept.Concept, q *milp.Variable) error {
	return k.AddAssertion(ind, c, degree.FromVariable(q))
}

func checkAbstract(c *concept.Concept) error {
	if c.IsConcrete() {
		return fmt.Errorf("%s: %w", c, internalerr.ErrConcreteConcept)
	}
	return nil
}
