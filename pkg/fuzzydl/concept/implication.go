package concept

import (
	"fmt"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
)

// GoedelImplies is the Goedel residuum: 1 when a <= b, otherwise b.
// An antecedent disjunction is distributed into a conjunction of implications.
func GoedelImplies(a, b *Concept) *Concept {
	switch {
	case b.kind == KindTop || a.kind == KindBottom || a.Equal(b):
		return top
	case a.kind == KindTop:
		return b
	case a.kind == KindOr:
		parts := make([]*Concept, len(a.children))
		for i, ai := range a.children {
			parts[i] = GoedelImplies(ai, b)
		}
		return And(parts...)
	}
	return build(&Concept{kind: KindGoedelImplies, children: []*Concept{a, b}})
}

// ZadehImplies is the crisp implication: 1 when a <= b, otherwise 0.
func ZadehImplies(a, b *Concept) *Concept {
	if b.kind == KindTop || a.kind == KindBottom || a.Equal(b) {
		return top
	}
	return build(&Concept{kind: KindZadehImplies, children: []*Concept{a, b}})
}

// KleeneDienesImplies is max(1 - a, b).
func KleeneDienesImplies(a, b *Concept) *Concept {
	return Or(Not(a), b)
}

// LukasiewiczImplies is min(1, 1 - a + b).
func LukasiewiczImplies(a, b *Concept) *Concept {
	return LukasiewiczOr(Not(a), b)
}

// ClassicalImplies is the material implication over crisp concepts.
func ClassicalImplies(a, b *Concept) *Concept {
	return Or(Not(a), b)
}

// Implication names a fuzzy implication family.
type Implication uint8

const (
	LukasiewiczImplication Implication = iota
	GoedelImplication
	KleeneDienesImplication
	ZadehImplication
)

// Implications lists every family in the order queries iterate them.
var Implications = []Implication{
	LukasiewiczImplication,
	GoedelImplication,
	KleeneDienesImplication,
	ZadehImplication,
}

func (i Implication) String() string {
	switch i {
	case LukasiewiczImplication:
		return "l"
	case GoedelImplication:
		return "g"
	case KleeneDienesImplication:
		return "kd"
	case ZadehImplication:
		return "z"
	}
	return fmt.Sprintf("implication(%d)", uint8(i))
}

// Build returns the implication a -> b of this family.
func (i Implication) Build(a, b *Concept) *Concept {
	switch i {
	case GoedelImplication:
		return GoedelImplies(a, b)
	case KleeneDienesImplication:
		return KleeneDienesImplies(a, b)
	case ZadehImplication:
		return ZadehImplies(a, b)
	default:
		return LukasiewiczImplies(a, b)
	}
}

// ParseImplication accepts the short names used in knowledge-base files.
func ParseImplication(s string) (Implication, error) {
	switch s {
	case "l", "lukasiewicz", "l-implies":
		return LukasiewiczImplication, nil
	case "g", "goedel", "gödel", "g-implies":
		return GoedelImplication, nil
	case "kd", "kleene-dienes", "kd-implies":
		return KleeneDienesImplication, nil
	case "z", "zadeh", "z-implies":
		return ZadehImplication, nil
	}
	return 0, fmt.Errorf("implication %q: %w", s, internalerr.ErrInvalidInput)
}

// Family groups the connectives of one fuzzy logic.
type Family uint8

const (
	ClassicalFamily Family = iota
	ZadehFamily
	GoedelFamily
	LukasiewiczFamily
)

func (f Family) String() string {
	switch f {
	case ClassicalFamily:
		return "classical"
	case ZadehFamily:
		return "zadeh"
	case GoedelFamily:
		return "goedel"
	case LukasiewiczFamily:
		return "lukasiewicz"
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

// And is the family conjunction.
func (f Family) And(cs ...*Concept) *Concept {
	if f == LukasiewiczFamily {
		return LukasiewiczAnd(cs...)
	}
	return And(cs...)
}

// Or is the family disjunction.
func (f Family) Or(cs ...*Concept) *Concept {
	if f == LukasiewiczFamily {
		return LukasiewiczOr(cs...)
	}
	return Or(cs...)
}

// Not is shared by every family.
func (f Family) Not(c *Concept) *Concept { return Not(c) }

// Implies is the family implication.
func (f Family) Implies(a, b *Concept) *Concept {
	switch f {
	case ClassicalFamily:
		return ClassicalImplies(a, b)
	case ZadehFamily:
		return ZadehImplies(a, b)
	case GoedelFamily:
		return GoedelImplies(a, b)
	default:
		return LukasiewiczImplies(a, b)
	}
}
