// Package concept models fuzzy class descriptions. A Concept is an immutable
// node tagged with its Kind; its canonical name is computed once when the node
// is built and is the basis of equality. Nodes are only minted by the smart
// constructors in this package, which simplify as they build, so a concept
// graph can never contain a cycle.
package concept

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the closed set of concept variants.
type Kind uint8

const (
	KindTop Kind = iota
	KindBottom
	KindAtomic
	KindNot
	KindAnd
	KindOr
	KindLukasiewiczAnd
	KindLukasiewiczOr
	KindGoedelImplies
	KindZadehImplies
	KindSome
	KindAll
	KindHasValue
	KindSelf
	KindAtLeast
	KindAtMost
	KindExactValue
	KindAtLeastValue
	KindAtMostValue
	KindDatatype
	KindWeighted
	KindWeightedSum
	KindWeightedMax
	KindWeightedMin
	KindPosThreshold
	KindNegThreshold
)

var kindNames = [...]string{
	KindTop:            "top",
	KindBottom:         "bottom",
	KindAtomic:         "atomic",
	KindNot:            "not",
	KindAnd:            "and",
	KindOr:             "or",
	KindLukasiewiczAnd: "l-and",
	KindLukasiewiczOr:  "l-or",
	KindGoedelImplies:  "g-implies",
	KindZadehImplies:   "z-implies",
	KindSome:           "some",
	KindAll:            "all",
	KindHasValue:       "b-some",
	KindSelf:           "self",
	KindAtLeast:        "at-least",
	KindAtMost:         "at-most",
	KindExactValue:     "=",
	KindAtLeastValue:   ">=",
	KindAtMostValue:    "<=",
	KindDatatype:       "datatype",
	KindWeighted:       "weighted",
	KindWeightedSum:    "w-sum",
	KindWeightedMax:    "w-max",
	KindWeightedMin:    "w-min",
	KindPosThreshold:   "pos-threshold",
	KindNegThreshold:   "neg-threshold",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Concept is an immutable fuzzy concept expression.
type Concept struct {
	kind     Kind
	name     string
	atom     string
	role     string
	ind      string
	value    float64
	card     int
	weights  []float64
	children []*Concept
	dt       *Datatype
}

// Kind returns the variant tag.
func (c *Concept) Kind() Kind { return c.kind }

// Name returns the canonical name.
func (c *Concept) Name() string { return c.name }

func (c *Concept) String() string { return c.name }

// Equal compares canonical names.
func (c *Concept) Equal(o *Concept) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.name == o.name
}

// AtomicName returns the name of an atomic concept.
func (c *Concept) AtomicName() string { return c.atom }

// Role returns the role or concrete feature of a restriction.
func (c *Concept) Role() string { return c.role }

// Individual returns the individual of a has-value restriction.
func (c *Concept) Individual() string { return c.ind }

// Value returns the numeric payload: the value of a concrete value restriction,
// the weight of a weighted concept or the threshold of a threshold concept.
func (c *Concept) Value() float64 { return c.value }

// Cardinality returns n for at-least / at-most restrictions.
func (c *Concept) Cardinality() int { return c.card }

// Weights returns a copy of the weights of an aggregation concept.
func (c *Concept) Weights() []float64 { return append([]float64(nil), c.weights...) }

// Children returns a copy of the sub-concepts.
func (c *Concept) Children() []*Concept { return append([]*Concept(nil), c.children...) }

// Operand returns the single sub-concept of not, quantified, weighted and
// threshold concepts, or nil.
func (c *Concept) Operand() *Concept {
	if len(c.children) == 0 {
		return nil
	}
	return c.children[0]
}

// Antecedent returns the left side of an implication.
func (c *Concept) Antecedent() *Concept { return c.Operand() }

// Consequent returns the right side of an implication.
func (c *Concept) Consequent() *Concept {
	if len(c.children) < 2 {
		return nil
	}
	return c.children[1]
}

// Datatype returns the fuzzy datatype of a concrete concept.
func (c *Concept) Datatype() *Datatype { return c.dt }

// IsAtomic reports whether c is an atomic concept.
func (c *Concept) IsAtomic() bool { return c.kind == KindAtomic }

// IsComplementedAtomic reports whether c is the negation of an atomic concept.
func (c *Concept) IsComplementedAtomic() bool {
	return c.kind == KindNot && c.children[0].kind == KindAtomic
}

// IsConcrete reports whether c is a fuzzy datatype or its negation. Concrete
// concepts only appear as fillers of concrete-feature restrictions.
func (c *Concept) IsConcrete() bool {
	if c.kind == KindDatatype {
		return true
	}
	return c.kind == KindNot && c.children[0].kind == KindDatatype
}

// IsTruthConstant reports whether c is *top* or *bottom*.
func (c *Concept) IsTruthConstant() bool {
	return c.kind == KindTop || c.kind == KindBottom
}

// IsImplication reports whether c is a Goedel or Zadeh implication.
func (c *Concept) IsImplication() bool {
	return c.kind == KindGoedelImplies || c.kind == KindZadehImplies
}

// computeName builds the canonical name from the variant fields.
func (c *Concept) computeName() string {
	switch c.kind {
	case KindTop:
		return "*top*"
	case KindBottom:
		return "*bottom*"
	case KindAtomic:
		return c.atom
	case KindDatatype:
		return c.dt.Name
	case KindNot:
		return "(not " + c.children[0].name + ")"
	case KindAnd, KindOr, KindLukasiewiczAnd, KindLukasiewiczOr:
		return "(" + c.kind.String() + " " + joinNames(c.children) + ")"
	case KindGoedelImplies, KindZadehImplies:
		return "(" + c.kind.String() + " " + c.children[0].name + " " + c.children[1].name + ")"
	case KindSome, KindAll:
		return "(" + c.kind.String() + " " + c.role + " " + c.children[0].name + ")"
	case KindHasValue:
		return "(b-some " + c.role + " " + c.ind + ")"
	case KindSelf:
		return "(self " + c.role + ")"
	case KindAtLeast, KindAtMost:
		return fmt.Sprintf("(%s %d %s %s)", c.kind, c.card, c.role, c.children[0].name)
	case KindExactValue, KindAtLeastValue, KindAtMostValue:
		return "(" + c.kind.String() + " " + c.role + " " + formatFloat(c.value) + ")"
	case KindWeighted, KindPosThreshold, KindNegThreshold:
		return "(" + c.kind.String() + " " + formatFloat(c.value) + " " + c.children[0].name + ")"
	case KindWeightedSum, KindWeightedMax, KindWeightedMin:
		parts := make([]string, len(c.children))
		for i, ch := range c.children {
			parts[i] = "(" + formatFloat(c.weights[i]) + " " + ch.name + ")"
		}
		return "(" + c.kind.String() + " " + strings.Join(parts, " ") + ")"
	default:
		panic(fmt.Sprintf("concept: unhandled kind %d", c.kind))
	}
}

func build(c *Concept) *Concept {
	c.name = c.computeName()
	return c
}

func joinNames(cs []*Concept) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.name
	}
	return strings.Join(parts, " ")
}

func sortByName(cs []*Concept) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].name < cs[j].name })
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
