package query

import (
	"fmt"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Related asks for the least or greatest degree of (From, To) : Role.
type Related struct {
	From  string
	Role  string
	To    string
	Sense milp.Sense
}

// MinRelated builds a min-related? query.
func MinRelated(from, role, to string) Related {
	return Related{From: from, Role: role, To: to, Sense: milp.Minimize}
}

// MaxRelated builds a max-related? query.
func MaxRelated(from, role, to string) Related {
	return Related{From: from, Role: role, To: to, Sense: milp.Maximize}
}

func (q Related) String() string {
	return fmt.Sprintf("(%s-related? %s %s %s)", q.Sense, q.From, q.To, q.Role)
}

func (q Related) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase { return k.Clone() }

// Preprocess optimises the edge variable itself.
func (q Related) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	v, err := k.RelationVariable(q.From, q.Role, q.To)
	if err != nil {
		return Goal{}, err
	}
	return Goal{Objective: milp.Var(v), Sense: q.Sense}, nil
}

// Solve answers the query.
func (q Related) Solve(k *kb.KnowledgeBase) (*Result, error) { return solve(k, q) }

// Var optimises a declared free variable. The optimum is not confined to
// [0, 1].
type Var struct {
	Name  string
	Sense milp.Sense
}

func (q Var) String() string { return fmt.Sprintf("(%s-var? %s)", q.Sense, q.Name) }

func (q Var) workspace(k *kb.KnowledgeBase) *kb.KnowledgeBase { return k.Clone() }

// Preprocess looks the variable up.
func (q Var) Preprocess(k *kb.KnowledgeBase) (Goal, error) {
	v, ok := k.Variable(q.Name)
	if !ok {
		return Goal{}, fmt.Errorf("variable %s: %w", q.Name, internalerr.ErrNotFound)
	}
	return Goal{Objective: milp.Var(v), Sense: q.Sense}, nil
}

// Solve answers the query.
func (q Var) Solve(k *kb.KnowledgeBase) (*Result, error) { return solve(k, q) }
