package kb

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// Subsumption is one row of a classification: the least and greatest degree
// to which Subsumed is subsumed by Subsumer under an implication.
type Subsumption struct {
	Subsumed    string
	Subsumer    string
	Implication concept.Implication
	Min         float64
	Max         float64
}

type bounds struct {
	min, max float64
}

// ClassificationNode holds the subsumption degrees of one atomic concept
// against every subsumer.
type ClassificationNode struct {
	Concept string
	degrees map[string]map[concept.Implication]bounds
}

// IsTop reports whether the node is the *top* node.
func (n *ClassificationNode) IsTop() bool { return n.Concept == concept.Top().Name() }

// Degree returns the min or max subsumption degree of the node's concept by
// sup.
func (n *ClassificationNode) Degree(sup string, impl concept.Implication, sense milp.Sense) (float64, bool) {
	if sup == concept.Top().Name() {
		return 1, true
	}
	b, ok := n.degrees[sup][impl]
	if !ok {
		return 0, false
	}
	if sense == milp.Maximize {
		return b.max, true
	}
	return b.min, true
}

// Subsumers lists the concepts that subsume the node's concept with min
// degree 1 under impl.
func (n *ClassificationNode) Subsumers(impl concept.Implication) []string {
	var out []string
	for sup, byImpl := range n.degrees {
		if b, ok := byImpl[impl]; ok && b.min >= 1 {
			out = append(out, sup)
		}
	}
	sort.Strings(out)
	return out
}

// Classification is the atomic subsumption table of a TBox.
type Classification struct {
	fingerprint string
	nodes       map[string]*ClassificationNode
}

func newClassification(fingerprint string) *Classification {
	return &Classification{fingerprint: fingerprint, nodes: make(map[string]*ClassificationNode)}
}

func (c *Classification) set(s Subsumption) {
	n, ok := c.nodes[s.Subsumed]
	if !ok {
		n = &ClassificationNode{Concept: s.Subsumed, degrees: make(map[string]map[concept.Implication]bounds)}
		c.nodes[s.Subsumed] = n
	}
	if n.degrees[s.Subsumer] == nil {
		n.degrees[s.Subsumer] = make(map[concept.Implication]bounds)
	}
	n.degrees[s.Subsumer][s.Implication] = bounds{min: s.Min, max: s.Max}
}

// Fingerprint identifies the TBox the table was computed for.
func (c *Classification) Fingerprint() string { return c.fingerprint }

// Lookup returns the node of an atomic concept.
func (c *Classification) Lookup(name string) (*ClassificationNode, bool) {
	n, ok := c.nodes[name]
	return n, ok
}

// Rows flattens the table, sorted by subsumed, subsumer and implication.
func (c *Classification) Rows() []Subsumption {
	var out []Subsumption
	for sub, n := range c.nodes {
		for sup, byImpl := range n.degrees {
			for impl, b := range byImpl {
				out = append(out, Subsumption{Subsumed: sub, Subsumer: sup, Implication: impl, Min: b.min, Max: b.max})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subsumed != out[j].Subsumed {
			return out[i].Subsumed < out[j].Subsumed
		}
		if out[i].Subsumer != out[j].Subsumer {
			return out[i].Subsumer < out[j].Subsumer
		}
		return out[i].Implication < out[j].Implication
	})
	return out
}

// IsClassified reports whether the TBox has been classified since its last
// change.
func (k *KnowledgeBase) IsClassified() bool { return k.classification != nil }

// Classification returns the cached table, or nil before Classify.
func (k *KnowledgeBase) Classification() *Classification { return k.classification }

// CachedSubsumption answers an atomic subsumption from the classification.
func (k *KnowledgeBase) CachedSubsumption(sub, sup string, impl concept.Implication, sense milp.Sense) (float64, bool) {
	if k.classification == nil {
		return 0, false
	}
	if sup == concept.Top().Name() {
		return 1, true
	}
	n, ok := k.classification.Lookup(sub)
	if !ok {
		return 0, false
	}
	return n.Degree(sup, impl, sense)
}

// RestoreClassification installs rows computed earlier for the same TBox. It
// reports false, leaving the knowledge base unclassified, when fingerprint
// does not match.
func (k *KnowledgeBase) RestoreClassification(fingerprint string, rows []Subsumption) bool {
	if fingerprint != k.Fingerprint() {
		return false
	}
	c := newClassification(fingerprint)
	for _, r := range rows {
		c.set(r)
	}
	k.classification = c
	return true
}

// Classify computes the min and max subsumption degree of every ordered pair
// of atomic concepts, *top* included, under the four implications.
func (k *KnowledgeBase) Classify() error {
	if k.classification != nil {
		return nil
	}
	if err := k.CheckConsistency(); err != nil {
		return err
	}
	// Clones share the index.
	if err := k.prepareTBox(); err != nil {
		return err
	}
	top := concept.Top().Name()
	names := []string{top}
	for _, a := range k.AtomicConcepts() {
		names = append(names, a.Name())
	}
	aboxFree := k.optLevel > 0 && !k.HasNominalsInTBox()
	c := newClassification(k.Fingerprint())
	for _, sub := range names {
		for _, sup := range names {
			for _, impl := range concept.Implications {
				s := Subsumption{Subsumed: sub, Subsumer: sup, Implication: impl, Min: 1, Max: 1}
				if sup != top {
					var err error
					if s.Min, err = k.subsumptionDegree(sub, sup, impl, milp.Minimize, aboxFree); err != nil {
						return err
					}
					if s.Max, err = k.subsumptionDegree(sub, sup, impl, milp.Maximize, aboxFree); err != nil {
						return err
					}
				}
				c.set(s)
			}
		}
	}
	k.classification = c
	k.logger.Info("classified", zap.Int("concepts", len(names)), zap.String("fingerprint", c.fingerprint))
	return nil
}

func classConcept(name string) *concept.Concept {
	if name == concept.Top().Name() {
		return concept.Top()
	}
	return concept.Atomic(name)
}

func (k *KnowledgeBase) subsumptionDegree(sub, sup string, impl concept.Implication, sense milp.Sense, aboxFree bool) (float64, error) {
	var work *KnowledgeBase
	if aboxFree {
		work = k.CloneWithoutABox()
	} else {
		work = k.Clone()
	}
	ind, err := work.GetNewIndividual()
	if err != nil {
		return 0, err
	}
	q, err := work.EncodeSubsumption(ind, classConcept(sub), classConcept(sup), impl, sense)
	if err != nil {
		return 0, err
	}
	sol, err := work.Optimize(milp.Var(q), sense)
	if err != nil {
		return 0, fmt.Errorf("classify %s ⊑ %s (%s): %w", sub, sup, impl, err)
	}
	return sol.Value(), nil
}

// EncodeSubsumption states the degree of sub →impl sup at individual ind as a
// fresh variable q to be optimised in the given sense. For Minimize the
// implication is bounded above by q, for Maximize below.
func (k *KnowledgeBase) EncodeSubsumption(ind string, sub, sup *concept.Concept, impl concept.Implication, sense milp.Sense) (*milp.Variable, error) {
	if sub.IsConcrete() || sup.IsConcrete() {
		return nil, fmt.Errorf("subsumption %s ⊑ %s: %w", sub, sup, internalerr.ErrConcreteConcept)
	}
	q, err := k.problem.Fresh("_q", milp.SemiContinuous, k.epsilon, 1)
	if err != nil {
		return nil, err
	}
	c := impl.Build(sub, sup)
	i := k.named(ind)
	Q := milp.Var(q)
	if sense == milp.Minimize {
		err = k.assert(i, concept.Not(c), Q.Negate().AddConstant(1))
	} else {
		err = k.assert(i, c, Q)
	}
	if err != nil {
		return nil, err
	}
	k.aboxChanged()
	return q, nil
}
