package axiom

import (
	"fmt"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
)

// RoleCharacteristic is a property of an abstract role.
type RoleCharacteristic uint8

const (
	Functional RoleCharacteristic = iota
	Transitive
	Reflexive
	Symmetric
)

func (r RoleCharacteristic) String() string {
	switch r {
	case Functional:
		return "functional"
	case Transitive:
		return "transitive"
	case Reflexive:
		return "reflexive"
	case Symmetric:
		return "symmetric"
	}
	return fmt.Sprintf("role-characteristic(%d)", uint8(r))
}

// SubRole states sub ⊑ super ≥ Degree.
type SubRole struct {
	Sub, Super string
	Degree     float64
}

// Inverse states that Role and InverseRole are inverse of each other.
type Inverse struct {
	Role, InverseRole string
}

// Domain states ∃Role.⊤ ⊑ Concept ≥ Degree.
type Domain struct {
	Role    string
	Concept *concept.Concept
	Degree  float64
}

// Range states ⊤ ⊑ ∀Role.Concept ≥ Degree.
type Range struct {
	Role    string
	Concept *concept.Concept
	Degree  float64
}
