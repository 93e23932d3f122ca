package concept

import (
	"fmt"
	"sort"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

// AtomicConcepts returns the atomic leaves of c sorted by name.
func (c *Concept) AtomicConcepts() []*Concept {
	seen := map[string]*Concept{}
	c.Walk(func(n *Concept) {
		if n.kind == KindAtomic {
			seen[n.name] = n
		}
	})
	out := make([]*Concept, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sortByName(out)
	return out
}

// Roles returns every role and concrete feature mentioned in c, sorted.
func (c *Concept) Roles() []string {
	seen := map[string]struct{}{}
	c.Walk(func(n *Concept) {
		if n.role != "" {
			seen[n.role] = struct{}{}
		}
	})
	return sortedKeys(seen)
}

// Individuals returns the nominals mentioned by has-value restrictions.
func (c *Concept) Individuals() []string {
	seen := map[string]struct{}{}
	c.Walk(func(n *Concept) {
		if n.kind == KindHasValue {
			seen[n.ind] = struct{}{}
		}
	})
	return sortedKeys(seen)
}

// Walk visits c and all its sub-concepts in pre-order.
func (c *Concept) Walk(fn func(*Concept)) {
	fn(c)
	for _, ch := range c.children {
		ch.Walk(fn)
	}
}

// Contains reports whether target occurs in c.
func (c *Concept) Contains(target *Concept) bool {
	if c.Equal(target) {
		return true
	}
	for _, ch := range c.children {
		if ch.Contains(target) {
			return true
		}
	}
	return false
}

// Replace substitutes every occurrence of target by replacement and rebuilds
// the affected nodes through the smart constructors. It returns c itself when
// target does not occur.
func (c *Concept) Replace(target, replacement *Concept) (*Concept, error) {
	if c.Equal(target) {
		return c.replaceSelf(replacement)
	}
	if len(c.children) == 0 {
		return c, nil
	}
	children := make([]*Concept, len(c.children))
	changed := false
	for i, ch := range c.children {
		r, err := ch.Replace(target, replacement)
		if err != nil {
			return nil, err
		}
		children[i] = r
		changed = changed || r != ch
	}
	if !changed {
		return c, nil
	}
	return c.rebuild(children), nil
}

func (c *Concept) replaceSelf(replacement *Concept) (*Concept, error) {
	switch c.kind {
	case KindAtomic:
		if replacement.kind != KindAtomic {
			return nil, fmt.Errorf("atomic %s replaced by %s: %w", c.name, replacement.name, internalerr.ErrInvalidReplacement)
		}
	case KindHasValue, KindSelf, KindExactValue, KindAtLeastValue, KindAtMostValue, KindDatatype:
		return nil, fmt.Errorf("replace %s: %w", c.name, internalerr.ErrUnsupportedOperation)
	case KindGoedelImplies:
		ok := replacement.kind == KindGoedelImplies ||
			(replacement.kind == KindNot && replacement.children[0].kind == KindGoedelImplies)
		if !ok {
			return nil, fmt.Errorf("implication %s replaced by %s: %w", c.name, replacement.name, internalerr.ErrInvalidReplacement)
		}
	}
	return replacement, nil
}

// rebuild creates a node of the same variant over new children. Parameters
// were validated when c was built, so the checked constructors are bypassed.
func (c *Concept) rebuild(children []*Concept) *Concept {
	switch c.kind {
	case KindNot:
		return Not(children[0])
	case KindAnd:
		return And(children...)
	case KindOr:
		return Or(children...)
	case KindLukasiewiczAnd:
		return LukasiewiczAnd(children...)
	case KindLukasiewiczOr:
		return LukasiewiczOr(children...)
	case KindGoedelImplies:
		return GoedelImplies(children[0], children[1])
	case KindZadehImplies:
		return ZadehImplies(children[0], children[1])
	case KindSome:
		return Some(c.role, children[0])
	case KindAll:
		return All(c.role, children[0])
	case KindAtLeast:
		return atLeast(c.card, c.role, children[0])
	case KindAtMost:
		return atMost(c.card, c.role, children[0])
	case KindWeighted:
		w, _ := Weighted(c.value, children[0])
		return w
	case KindWeightedSum, KindWeightedMax, KindWeightedMin:
		return weightedAggregate(c.kind, c.weights, children)
	case KindPosThreshold, KindNegThreshold:
		return build(&Concept{kind: c.kind, value: c.value, children: children})
	}
	panic(fmt.Sprintf("concept: rebuild of leaf kind %s", c.kind))
}

// ReduceIdempotency removes repeated operands of the idempotent connectives
// and and or, at every depth. The Lukasiewicz connectives are not idempotent
// and keep their duplicates.
func (c *Concept) ReduceIdempotency() *Concept {
	if len(c.children) == 0 {
		return c
	}
	children := make([]*Concept, 0, len(c.children))
	changed := false
	seen := map[string]bool{}
	dedupe := c.kind == KindAnd || c.kind == KindOr
	for _, ch := range c.children {
		r := ch.ReduceIdempotency()
		changed = changed || r != ch
		if dedupe {
			if seen[r.name] {
				changed = true
				continue
			}
			seen[r.name] = true
		}
		children = append(children, r)
	}
	if !changed {
		return c
	}
	return c.rebuild(children)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
