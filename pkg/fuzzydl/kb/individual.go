package kb

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
)

// BlockingStatus is recomputed lazily after the labels of an individual or
// one of its ancestors change.
type BlockingStatus uint8

const (
	Unchecked BlockingStatus = iota
	NotBlocked
	Blocked
)

func (s BlockingStatus) String() string {
	switch s {
	case NotBlocked:
		return "not-blocked"
	case Blocked:
		return "blocked"
	}
	return "unchecked"
}

type label struct {
	concept *concept.Concept
	x       *milp.Variable
}

type edge struct {
	role string
	to   int
	x    *milp.Variable
}

// Individual is a node of the completion graph. Individuals live in the
// arena of their knowledge base and refer to each other by index, so a clone
// is a structural copy.
type Individual struct {
	name     string
	created  bool
	parent   int
	via      string
	prepared bool

	labels   map[string]label
	order    []string
	edges    []edge
	edgeIdx  map[string]int
	children []int
	features map[string]*milp.Variable
	exact    map[string]*milp.Variable

	status  BlockingStatus
	blocker int
}

func newIndividualNode(name string, created bool, parent int, via string) *Individual {
	return &Individual{
		name:     name,
		created:  created,
		parent:   parent,
		via:      via,
		labels:   make(map[string]label),
		edgeIdx:  make(map[string]int),
		features: make(map[string]*milp.Variable),
		exact:    make(map[string]*milp.Variable),
		blocker:  -1,
	}
}

// Name returns the individual name.
func (ind *Individual) Name() string { return ind.name }

// IsCreated reports whether the tableau created the individual.
func (ind *Individual) IsCreated() bool { return ind.created }

// Status returns the cached blocking status.
func (ind *Individual) Status() BlockingStatus { return ind.status }

// Labels returns the concepts asserted on the individual in insertion order.
func (ind *Individual) Labels() []*concept.Concept {
	out := make([]*concept.Concept, len(ind.order))
	for i, n := range ind.order {
		out[i] = ind.labels[n].concept
	}
	return out
}

// HasLabel reports whether c labels the individual.
func (ind *Individual) HasLabel(c *concept.Concept) bool {
	_, ok := ind.labels[c.Name()]
	return ok
}

func (ind *Individual) clone() *Individual {
	c := *ind
	c.labels = make(map[string]label, len(ind.labels))
	for n, l := range ind.labels {
		c.labels[n] = l
	}
	c.order = append([]string(nil), ind.order...)
	c.edges = append([]edge(nil), ind.edges...)
	c.edgeIdx = make(map[string]int, len(ind.edgeIdx))
	for key, i := range ind.edgeIdx {
		c.edgeIdx[key] = i
	}
	c.children = append([]int(nil), ind.children...)
	c.features = make(map[string]*milp.Variable, len(ind.features))
	for f, v := range ind.features {
		c.features[f] = v
	}
	c.exact = make(map[string]*milp.Variable, len(ind.exact))
	for n, v := range ind.exact {
		c.exact[n] = v
	}
	return &c
}

func edgeKey(role string, to int) string {
	return fmt.Sprintf("%s\x00%d", role, to)
}

// named returns the index of a named individual, creating it on first use.
func (k *KnowledgeBase) named(name string) int {
	if i, ok := k.byName[name]; ok {
		return i
	}
	return k.addNode(newIndividualNode(name, false, -1, ""))
}

func (k *KnowledgeBase) addNode(ind *Individual) int {
	i := len(k.individuals)
	k.individuals = append(k.individuals, ind)
	k.byName[ind.name] = i
	if k.tbox != nil {
		k.agenda.pushPrepare(i)
	}
	return i
}

// newIndividual creates a system individual as an r-successor of parent, or
// as a root when parent is negative.
func (k *KnowledgeBase) newIndividual(parent int, role string) (int, error) {
	if k.maxInd >= 0 && k.created >= k.maxInd {
		return -1, fmt.Errorf("%d system individuals: %w", k.created, internalerr.ErrIndividualLimit)
	}
	k.created++
	name := fmt.Sprintf("_i%d", k.created)
	for {
		if _, taken := k.byName[name]; !taken {
			break
		}
		name += "'"
	}
	i := k.addNode(newIndividualNode(name, true, parent, role))
	if parent >= 0 {
		k.individuals[parent].children = append(k.individuals[parent].children, i)
	}
	if k.trace {
		k.logger.Debug("individual created", zap.String("name", name), zap.Int("parent", parent), zap.String("role", role))
	}
	return i, nil
}

// GetNewIndividual allocates a fresh root system individual and returns its
// name. It fails with ErrIndividualLimit once the configured maximum is
// reached.
func (k *KnowledgeBase) GetNewIndividual() (string, error) {
	i, err := k.newIndividual(-1, "")
	if err != nil {
		return "", err
	}
	return k.individuals[i].name, nil
}

// ancestors returns the parent chain of i, nearest first.
func (k *KnowledgeBase) ancestors(i int) []int {
	var out []int
	for p := k.individuals[i].parent; p >= 0; p = k.individuals[p].parent {
		out = append(out, p)
	}
	return out
}

// labelChanged resets the blocking status of i and everything that may have
// been blocked with reference to it.
func (k *KnowledgeBase) labelChanged(i int) {
	if k.blocking.anywhere() {
		for _, ind := range k.individuals {
			ind.status = Unchecked
			ind.blocker = -1
		}
		return
	}
	stack := []int{i}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ind := k.individuals[n]
		ind.status = Unchecked
		ind.blocker = -1
		stack = append(stack, ind.children...)
	}
}
