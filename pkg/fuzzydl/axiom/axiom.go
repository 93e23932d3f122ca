// Package axiom holds the terminological axioms of a knowledge base.
package axiom

import (
	"fmt"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/degree"
)

// GCI is the graded inclusion subsumed ⊑ subsumer ≥ degree under an
// implication family.
type GCI struct {
	subsumed    *concept.Concept
	subsumer    *concept.Concept
	degree      degree.Degree
	implication concept.Implication
}

// NewGCI builds an inclusion axiom.
func NewGCI(subsumed, subsumer *concept.Concept, d degree.Degree, impl concept.Implication) *GCI {
	return &GCI{subsumed: subsumed, subsumer: subsumer, degree: d, implication: impl}
}

func (g *GCI) Subsumed() *concept.Concept { return g.subsumed }
func (g *GCI) Subsumer() *concept.Concept { return g.subsumer }
func (g *GCI) Degree() degree.Degree { return g.degree }
func (g *GCI) Implication() concept.Implication { return g.implication }

func (g *GCI) SetSubsumed(c *concept.Concept) { g.subsumed = c }
func (g *GCI) SetSubsumer(c *concept.Concept) { g.subsumer = c }
func (g *GCI) SetDegree(d degree.Degree) { g.degree = d }
func (g *GCI) SetImplication(i concept.Implication) { g.implication = i }

// Concept returns the implication subsumed → subsumer that must hold for
// every individual.
func (g *GCI) Concept() *concept.Concept {
	return g.implication.Build(g.subsumed, g.subsumer)
}

// Clone copies the axiom; concepts are immutable and shared.
func (g *GCI) Clone() *GCI {
	c := *g
	return &c
}

// String is also the identity used to de-duplicate axioms.
func (g *GCI) String() string {
	return fmt.Sprintf("(%s-implies %s %s) >= %s", g.implication, g.subsumed, g.subsumer, g.degree)
}

// PrimitiveConceptDefinition states defined ⊑ definition ≥ degree.
type PrimitiveConceptDefinition struct {
	Defined     string
	Definition  *concept.Concept
	Degree      float64
	Implication concept.Implication
}

func (p *PrimitiveConceptDefinition) String() string {
	return fmt.Sprintf("(define-primitive-concept %s %s) >= %g [%s]", p.Defined, p.Definition, p.Degree, p.Implication)
}

// GCI returns the equivalent inclusion axiom.
func (p *PrimitiveConceptDefinition) GCI() *GCI {
	return NewGCI(concept.Atomic(p.Defined), p.Definition, degree.Numeric(p.Degree), p.Implication)
}

// ConceptDefinition states defined ≡ definition.
type ConceptDefinition struct {
	Defined    string
	Definition *concept.Concept
}

func (d *ConceptDefinition) String() string {
	return fmt.Sprintf("(define-concept %s %s)", d.Defined, d.Definition)
}
