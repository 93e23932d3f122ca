package kb

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/axiom"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

type taskKind uint8

const (
	taskLabel taskKind = iota
	taskEdge
	taskPrepare
)

type task struct {
	kind  taskKind
	ind   int
	label string
	edge  int
}

// agenda holds the pending rule applications. Non-generating work is always
// drained before a generating rule may create an individual.
type agenda struct {
	queue      []task
	generating []task
	blocked    []task
	applied    map[string]bool
	started    bool
}

func newAgenda() agenda {
	return agenda{applied: make(map[string]bool)}
}

func (a *agenda) clone() agenda {
	c := agenda{
		queue:      append([]task(nil), a.queue...),
		generating: append([]task(nil), a.generating...),
		blocked:    append([]task(nil), a.blocked...),
		applied:    make(map[string]bool, len(a.applied)),
		started:    a.started,
	}
	for key := range a.applied {
		c.applied[key] = true
	}
	return c
}

func (a *agenda) pushLabel(i int, name string) {
	a.queue = append(a.queue, task{kind: taskLabel, ind: i, label: name})
}

func (a *agenda) pushEdge(i, e int) {
	a.queue = append(a.queue, task{kind: taskEdge, ind: i, edge: e})
}

func (a *agenda) pushPrepare(i int) {
	a.queue = append(a.queue, task{kind: taskPrepare, ind: i})
}

func (a *agenda) pending() int {
	return len(a.queue) + len(a.generating)
}

// once reports whether key is new and records it.
func (a *agenda) once(key string) bool {
	if a.applied[key] {
		return false
	}
	a.applied[key] = true
	return true
}

// SolveAssertions applies expansion rules until no rule is applicable. Blocked
// generating rules are retried once the blocking status may have changed.
func (k *KnowledgeBase) SolveAssertions() error {
	if err := k.prepareTBox(); err != nil {
		return err
	}
	k.agenda.started = true
	for {
		if len(k.agenda.queue) > 0 {
			t := k.agenda.queue[0]
			k.agenda.queue = k.agenda.queue[1:]
			if err := k.run(t); err != nil {
				return err
			}
			continue
		}
		if len(k.agenda.generating) > 0 {
			t := k.agenda.generating[0]
			k.agenda.generating = k.agenda.generating[1:]
			if k.isBlocked(t.ind) {
				k.agenda.blocked = append(k.agenda.blocked, t)
				continue
			}
			l := k.individuals[t.ind].labels[t.label]
			if err := k.applyGenerating(t.ind, l); err != nil {
				return err
			}
			continue
		}
		if !k.releaseBlocked() {
			return nil
		}
	}
}

// releaseBlocked moves generating tasks whose individual is no longer blocked
// back to the agenda.
func (k *KnowledgeBase) releaseBlocked() bool {
	still := k.agenda.blocked[:0]
	released := false
	for _, t := range k.agenda.blocked {
		if k.isBlocked(t.ind) {
			still = append(still, t)
			continue
		}
		k.agenda.generating = append(k.agenda.generating, t)
		released = true
	}
	k.agenda.blocked = still
	return released
}

// SolveABox saturates the ABox: expansion rules, then the rules that need the
// complete graph, until nothing new is produced.
func (k *KnowledgeBase) SolveABox() error {
	for {
		if err := k.SolveAssertions(); err != nil {
			return err
		}
		added, err := k.applyFinalRules()
		if err != nil {
			return err
		}
		if !added {
			return nil
		}
	}
}

// Optimize saturates the knowledge base and optimises objective. An
// infeasible problem is reported as ErrInconsistentOntology.
func (k *KnowledgeBase) Optimize(objective milp.Expression, sense milp.Sense) (*milp.Solution, error) {
	if err := k.SolveABox(); err != nil {
		return nil, err
	}
	if k.trace {
		k.logger.Debug("solver call",
			zap.Stringer("sense", sense),
			zap.Stringer("objective", objective),
			zap.Int("variables", len(k.problem.Variables())),
			zap.Int("constraints", k.problem.NumConstraints()))
	}
	sol, err := k.problem.Optimize(objective, sense)
	if err != nil {
		return nil, err
	}
	if !sol.IsConsistent() {
		return nil, fmt.Errorf("optimise %s: %w", objective, internalerr.ErrInconsistentOntology)
	}
	return sol, nil
}

// CheckConsistency saturates a clone and checks that its problem is
// feasible. The outcome is memoised until the knowledge base changes.
func (k *KnowledgeBase) CheckConsistency() error {
	if k.consistency != nil {
		return k.consistency.err
	}
	_, err := k.Clone().Optimize(milp.Constant(0), milp.Minimize)
	if err != nil && !errors.Is(err, internalerr.ErrInconsistentOntology) {
		return err
	}
	k.consistency = &consistencyMemo{err: err}
	if err != nil {
		k.logger.Info("knowledge base is inconsistent")
	}
	return err
}

func (k *KnowledgeBase) run(t task) error {
	switch t.kind {
	case taskPrepare:
		return k.prepareIndividual(t.ind)
	case taskEdge:
		return k.applyEdgeRules(t.ind, t.edge)
	}
	l := k.individuals[t.ind].labels[t.label]
	if k.isGenerating(l.concept) {
		k.agenda.generating = append(k.agenda.generating, t)
		return nil
	}
	if k.trace {
		k.logger.Debug("rule", zap.String("individual", k.individuals[t.ind].name), zap.Stringer("concept", l.concept))
	}
	return k.applyRule(t.ind, l.concept, l.x)
}

func (k *KnowledgeBase) isGenerating(c *concept.Concept) bool {
	switch c.Kind() {
	case concept.KindAtLeast:
		return true
	case concept.KindSome:
		_, concrete := k.features[c.Role()]
		return !concrete
	}
	return false
}

// assert records individual i : c ≥ d.
func (k *KnowledgeBase) assert(i int, c *concept.Concept, d milp.Expression) error {
	d = d.Simplify()
	switch c.Kind() {
	case concept.KindTop:
		if !d.IsConstant() {
			k.problem.AddConstraint(milp.LE(d, milp.Constant(1)))
		}
		return nil
	case concept.KindBottom:
		if d.IsConstant() && d.ConstantValue() > 0 {
			return fmt.Errorf("%s : *bottom* >= %s: %w", k.individuals[i].name, d, internalerr.ErrInconsistentOntology)
		}
	}
	x, err := k.labelVar(i, c)
	if err != nil {
		return err
	}
	if d.IsConstant() && d.ConstantValue() <= 0 {
		return nil
	}
	k.problem.AddConstraint(milp.GE(milp.Var(x), d))
	return nil
}

// labelVar returns the variable of the label i : c, adding the label and
// scheduling its rule when it is new.
func (k *KnowledgeBase) labelVar(i int, c *concept.Concept) (*milp.Variable, error) {
	c = c.ReduceIdempotency()
	ind := k.individuals[i]
	if l, ok := ind.labels[c.Name()]; ok {
		return l.x, nil
	}
	if c.IsConcrete() {
		return nil, fmt.Errorf("%s : %s: %w", ind.name, c, internalerr.ErrConcreteConcept)
	}
	x, err := k.conceptVar(i, c)
	if err != nil {
		return nil, err
	}
	ind.labels[c.Name()] = label{concept: c, x: x}
	ind.order = append(ind.order, c.Name())
	k.labelChanged(i)
	k.agenda.pushLabel(i, c.Name())
	return x, nil
}

// aboxVarPrefix starts the names of every solver variable owned by an
// individual. They are keyed by individual index, so individual and concept
// names containing separators cannot collide, and DeclareVariable rejects
// the prefix.
const aboxVarPrefix = "#"

// conceptVar returns the degree variable of i : c without labelling i.
func (k *KnowledgeBase) conceptVar(i int, c *concept.Concept) (*milp.Variable, error) {
	return k.problem.Variable(fmt.Sprintf("%s%d:%s", aboxVarPrefix, i, c.Name()), k.truthKind(), 0, 1)
}

func (k *KnowledgeBase) truthKind() milp.VariableKind {
	if k.logic == Classical {
		return milp.Binary
	}
	return milp.Continuous
}

// edgeVar returns the degree variable of (i, j) : role, creating the edge.
func (k *KnowledgeBase) edgeVar(i int, role string, j int) (*milp.Variable, error) {
	from := k.individuals[i]
	key := edgeKey(role, j)
	if e, ok := from.edgeIdx[key]; ok {
		return from.edges[e].x, nil
	}
	to := k.individuals[j]
	x, err := k.problem.Variable(fmt.Sprintf("%s%d,%d:%s", aboxVarPrefix, i, j, role), k.truthKind(), 0, 1)
	if err != nil {
		return nil, err
	}
	from.edges = append(from.edges, edge{role: role, to: j, x: x})
	from.edgeIdx[key] = len(from.edges) - 1
	k.agenda.pushEdge(i, len(from.edges)-1)
	if k.trace {
		k.logger.Debug("edge", zap.String("from", from.name), zap.String("role", role), zap.String("to", to.name))
	}
	return x, nil
}

func (k *KnowledgeBase) binary() (*milp.Variable, error) {
	return k.problem.Fresh("_y", milp.Binary, 0, 1)
}

func (k *KnowledgeBase) continuous() (*milp.Variable, error) {
	return k.problem.Fresh("_v", milp.Continuous, 0, 1)
}

// prepareIndividual asserts the internalised inclusions and reflexive roles
// on a new individual.
func (k *KnowledgeBase) prepareIndividual(i int) error {
	ind := k.individuals[i]
	if ind.prepared {
		return nil
	}
	ind.prepared = true
	for _, g := range k.tbox.internal {
		if err := k.assert(i, g.Concept(), g.Degree().Expression()); err != nil {
			return err
		}
	}
	for _, role := range k.tbox.reflexive {
		x, err := k.edgeVar(i, role, i)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(x), milp.Constant(1)))
	}
	return nil
}

// applyEdgeRules fires everything a new edge triggers: universal
// restrictions of its source, the role hierarchy, inverses, symmetry, domain
// and range.
func (k *KnowledgeBase) applyEdgeRules(i, idx int) error {
	e := k.individuals[i].edges[idx]
	xe := milp.Var(e.x)
	for _, name := range append([]string(nil), k.individuals[i].order...) {
		l := k.individuals[i].labels[name]
		if l.concept.Kind() == concept.KindAll && l.concept.Role() == e.role {
			if err := k.applyAll(i, name, idx); err != nil {
				return err
			}
		}
	}
	impl := k.logic.DefaultImplication()
	for _, s := range k.tbox.superRoles[e.role] {
		xs, err := k.edgeVar(i, s.role, e.to)
		if err != nil {
			return err
		}
		bound, err := k.consequentBound(xe, degree.Numeric(s.degree), impl)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.GE(milp.Var(xs), bound))
	}
	for _, inv := range k.tbox.inverses[e.role] {
		xi, err := k.edgeVar(e.to, inv, i)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.EQ(milp.Var(xi), xe))
	}
	if k.hasCharacteristic(e.role, axiom.Symmetric) {
		xs, err := k.edgeVar(e.to, e.role, i)
		if err != nil {
			return err
		}
		k.problem.AddConstraint(milp.EQ(milp.Var(xs), xe))
	}
	for _, d := range k.tbox.domains[e.role] {
		bound, err := k.consequentBound(xe, d.degree, d.impl)
		if err != nil {
			return err
		}
		if err := k.assert(i, d.c, bound); err != nil {
			return err
		}
	}
	for _, r := range k.tbox.ranges[e.role] {
		bound, err := k.consequentBound(xe, r.degree, r.impl)
		if err != nil {
			return err
		}
		if err := k.assert(e.to, r.c, bound); err != nil {
			return err
		}
	}
	return nil
}
