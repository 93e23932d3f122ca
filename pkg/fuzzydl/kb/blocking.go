package kb

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

// BlockingStrategy selects when a created individual stops generating
// successors because an earlier individual already stands for it.
type BlockingStrategy uint8

const (
	NoBlocking BlockingStrategy = iota
	SubsetBlocking
	SetBlocking
	DoubleBlocking
	AnywhereSubsetBlocking
	AnywhereSetBlocking
	AnywhereDoubleBlocking
)

var blockingNames = map[BlockingStrategy]string{
	NoBlocking:             "none",
	SubsetBlocking:         "subset",
	SetBlocking:            "set",
	DoubleBlocking:         "double",
	AnywhereSubsetBlocking: "anywhere-subset",
	AnywhereSetBlocking:    "anywhere-set",
	AnywhereDoubleBlocking: "anywhere-double",
}

func (b BlockingStrategy) String() string {
	if s, ok := blockingNames[b]; ok {
		return s
	}
	return fmt.Sprintf("blocking(%d)", uint8(b))
}

// ParseBlocking accepts the names printed by String, and "no".
func ParseBlocking(s string) (BlockingStrategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "no" {
		return NoBlocking, nil
	}
	for b, name := range blockingNames {
		if name == s {
			return b, nil
		}
	}
	return NoBlocking, fmt.Errorf("blocking strategy %q: %w", s, internalerr.ErrInvalidConfig)
}

// anywhere reports whether blockers may be any older individual rather than
// an ancestor.
func (b BlockingStrategy) anywhere() bool {
	return b >= AnywhereSubsetBlocking
}

func (b BlockingStrategy) base() BlockingStrategy {
	if b.anywhere() {
		return b - AnywhereSubsetBlocking + SubsetBlocking
	}
	return b
}

// IsBlocked reports whether the named individual is currently blocked.
func (k *KnowledgeBase) IsBlocked(name string) bool {
	i, ok := k.byName[name]
	if !ok {
		return false
	}
	return k.isBlocked(i)
}

func (k *KnowledgeBase) isBlocked(i int) bool {
	ind := k.individuals[i]
	if !ind.created || k.blocking == NoBlocking {
		return false
	}
	if ind.status != Unchecked {
		return ind.status == Blocked
	}
	ind.status = NotBlocked
	ind.blocker = -1

	var candidates []int
	if k.blocking.anywhere() {
		for j := 0; j < i; j++ {
			if k.individuals[j].created && !k.isBlocked(j) {
				candidates = append(candidates, j)
			}
		}
	} else {
		anc := k.ancestors(i)
		for _, a := range anc {
			if k.isBlocked(a) {
				// Indirectly blocked through an ancestor.
				ind.status = Blocked
				ind.blocker = k.individuals[a].blocker
				return true
			}
		}
		candidates = anc
	}
	for _, j := range candidates {
		if k.blocks(j, i) {
			ind.status = Blocked
			ind.blocker = j
			if k.trace {
				k.logger.Debug("blocked",
					zap.String("individual", ind.name),
					zap.String("blocker", k.individuals[j].name),
					zap.Stringer("strategy", k.blocking))
			}
			return true
		}
	}
	return false
}

// blocks reports whether a can stand for b under the configured strategy.
func (k *KnowledgeBase) blocks(a, b int) bool {
	x, y := k.individuals[a], k.individuals[b]
	if !x.created {
		return false
	}
	switch k.blocking.base() {
	case SubsetBlocking:
		return subsetLabels(y, x)
	case SetBlocking:
		return sameLabels(x, y)
	case DoubleBlocking:
		if !sameLabels(x, y) || x.parent < 0 || y.parent < 0 || x.via != y.via {
			return false
		}
		return sameLabels(k.individuals[x.parent], k.individuals[y.parent])
	}
	return false
}

// subsetLabels reports whether every label of sub is also a label of sup.
func subsetLabels(sub, sup *Individual) bool {
	if len(sub.labels) > len(sup.labels) {
		return false
	}
	for name := range sub.labels {
		if _, ok := sup.labels[name]; !ok {
			return false
		}
	}
	return true
}

func sameLabels(a, b *Individual) bool {
	return len(a.labels) == len(b.labels) && subsetLabels(a, b)
}
