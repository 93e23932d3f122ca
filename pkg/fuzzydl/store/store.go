package store

import (
	"context"
	"time"
)

// Store persists query reports and classification hierarchies
type Store interface {
	Close() error

	// Reports
	UpsertReport(ctx context.Context, r Report) error
	GetReport(ctx context.Context, id string) (Report, bool, error)
	ReportsByKB(ctx context.Context, kb string, limit int) ([]Report, error)

	// Classification, keyed by TBox fingerprint
	UpsertSubsumptions(ctx context.Context, fingerprint string, rows []Subsumption) error
	Subsumptions(ctx context.Context, fingerprint string) ([]Subsumption, bool, error)
}

// Report is a stored query answer
type Report struct {
	ID            string
	KnowledgeBase string
	Query         string
	Consistent    bool
	Value         float64
	Instances     []Instance
	Elapsed       time.Duration
	CreatedAt     time.Time
}

// Instance is one individual of an all-instances answer
type Instance struct {
	Individual string  `json:"individual"`
	Degree     float64 `json:"degree"`
}

// Subsumption is one row of a classification hierarchy
type Subsumption struct {
	Subsumed    string
	Subsumer    string
	Implication string // l, g, kd or z
	Min         float64
	Max         float64
}

// DefaultReportLimit is used when ReportsByKB gets a non-positive limit
const DefaultReportLimit = 50
