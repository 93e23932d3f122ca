package report

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/milp"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/query"
)

// Builder mints reports with monotonic ULIDs. It is safe for concurrent use.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new report builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Report is a stored answer to one query
type Report struct {
	ID            string           `json:"id"`
	KnowledgeBase string           `json:"kb"`
	Query         string           `json:"query"`
	Consistent    bool             `json:"consistent"`
	Value         float64          `json:"value"`
	Instances     []query.Instance `json:"instances,omitempty"`
	Elapsed       time.Duration    `json:"elapsed_ns"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Build creates a report for the result of a query on the named knowledge base
func (b *Builder) Build(kbName string, res *query.Result) Report {
	b.mu.Lock()
	now := b.now()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.mu.Unlock()

	r := Report{
		ID:            id,
		KnowledgeBase: kbName,
		Query:         res.Query,
		Consistent:    res.IsConsistent(),
		Elapsed:       res.Elapsed,
		CreatedAt:     now.UTC(),
	}
	if r.Consistent {
		r.Value = res.Value()
		r.Instances = append([]query.Instance(nil), res.Instances...)
	}
	return r
}

// Answer renders the result part of the report the way query results print
func (r Report) Answer() string {
	res := &query.Result{Query: r.Query, Instances: r.Instances}
	if r.Consistent {
		res.Solution = milp.NewSolution(r.Value, nil)
	}
	return res.String()
}
