package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Reasoning errors. Structural misuse and resource exhaustion are hard failures;
// ErrInconsistentOntology is an expected outcome that the query layer turns into
// an inconsistent solution.
var (
	ErrUnsupportedOperation = errors.New("operation not supported by concept")
	ErrInvalidReplacement   = errors.New("invalid concept replacement")
	ErrConcreteConcept      = errors.New("concrete concept not allowed here")
	ErrIndividualLimit      = errors.New("maximum number of individuals reached")
	ErrInconsistentOntology = errors.New("inconsistent ontology")
	ErrSolver               = errors.New("solver failure")
)
