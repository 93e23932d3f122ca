// Package fuzzydl answers graded queries over fuzzy description-logic
// knowledge bases and keeps a history of the answers.
package fuzzydl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/internalerr"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/query"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/report"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/store"
)

// Reasoner is the main facade over a knowledge base
type Reasoner struct {
	kb      *kb.KnowledgeBase
	name    string
	store   store.Store
	reports *report.Builder
	logger  *zap.Logger
}

// Options configures a Reasoner. Store may be nil, in which case nothing is
// persisted.
type Options struct {
	KnowledgeBase *kb.KnowledgeBase
	Name          string
	Store         store.Store
	Logger        *zap.Logger
}

// New creates a Reasoner with the given dependencies
func New(opts Options) *Reasoner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	k := opts.KnowledgeBase
	if k == nil {
		k = kb.New(kb.WithLogger(logger))
	}
	return &Reasoner{
		kb:      k,
		name:    opts.Name,
		store:   opts.Store,
		reports: report.New(),
		logger:  logger.With(zap.String("kb", opts.Name)),
	}
}

// Close releases the store
func (r *Reasoner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// KnowledgeBase returns the knowledge base queries run against
func (r *Reasoner) KnowledgeBase() *kb.KnowledgeBase { return r.kb }

// Ask answers one query and records the report
func (r *Reasoner) Ask(ctx context.Context, q query.Query) (report.Report, error) {
	res, err := q.Solve(r.kb)
	if err != nil {
		return report.Report{}, fmt.Errorf("%s: %w", q, err)
	}
	return r.record(ctx, res)
}

// AskAll answers the queries concurrently, at most parallel at a time, each on
// its own clone of the knowledge base. Reports come back in query order.
func (r *Reasoner) AskAll(ctx context.Context, qs []query.Query, parallel int) ([]report.Report, error) {
	// Memoised on the original so every clone inherits the outcome
	if err := r.kb.CheckConsistency(); err != nil && !isInconsistent(err) {
		return nil, err
	}

	start := time.Now()
	results := make([]*query.Result, len(qs))
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, q := range qs {
		i, q := i, q
		if gctx.Err() != nil {
			break
		}
		// Clone in this goroutine; the original is not safe for concurrent use
		k := r.kb.Clone()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := q.Solve(k)
			if err != nil {
				return fmt.Errorf("%s: %w", q, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reports := make([]report.Report, len(results))
	for i, res := range results {
		rep, err := r.record(ctx, res)
		if err != nil {
			return nil, err
		}
		reports[i] = rep
	}
	r.logger.Info("answered queries",
		zap.Int("queries", len(qs)),
		zap.Int("parallel", parallel),
		zap.Duration("elapsed", time.Since(start)))
	return reports, nil
}

func isInconsistent(err error) bool {
	return errors.Is(err, internalerr.ErrInconsistentOntology)
}

func (r *Reasoner) record(ctx context.Context, res *query.Result) (report.Report, error) {
	rep := r.reports.Build(r.name, res)
	r.logger.Debug("answer", zap.String("query", rep.Query), zap.String("answer", rep.Answer()))
	if r.store == nil {
		return rep, nil
	}
	if err := r.store.UpsertReport(ctx, toStoreReport(rep)); err != nil {
		return report.Report{}, fmt.Errorf("store report %s: %w", rep.ID, err)
	}
	return rep, nil
}

// Classify classifies the knowledge base. A hierarchy stored under the same
// TBox fingerprint is reused instead of recomputed; restored reports whether
// that happened.
func (r *Reasoner) Classify(ctx context.Context) (restored bool, err error) {
	if r.kb.IsClassified() {
		return false, nil
	}
	fp := r.kb.Fingerprint()
	if r.store != nil {
		rows, ok, err := r.store.Subsumptions(ctx, fp)
		if err != nil {
			return false, fmt.Errorf("load classification: %w", err)
		}
		if ok {
			kbRows, err := fromStoreSubsumptions(rows)
			if err != nil {
				return false, err
			}
			if r.kb.RestoreClassification(fp, kbRows) {
				r.logger.Info("classification restored", zap.String("fingerprint", fp), zap.Int("rows", len(rows)))
				return true, nil
			}
		}
	}

	start := time.Now()
	if err := r.kb.Classify(); err != nil {
		return false, err
	}
	r.logger.Info("classification computed", zap.Duration("elapsed", time.Since(start)))
	if r.store != nil {
		rows := toStoreSubsumptions(r.kb.Classification().Rows())
		if err := r.store.UpsertSubsumptions(ctx, fp, rows); err != nil {
			return false, fmt.Errorf("store classification: %w", err)
		}
	}
	return false, nil
}

// History returns the newest stored reports of this knowledge base
func (r *Reasoner) History(ctx context.Context, limit int) ([]report.Report, error) {
	if r.store == nil {
		return nil, nil
	}
	rows, err := r.store.ReportsByKB(ctx, r.name, limit)
	if err != nil {
		return nil, err
	}
	out := make([]report.Report, len(rows))
	for i, row := range rows {
		out[i] = fromStoreReport(row)
	}
	return out, nil
}

func toStoreReport(r report.Report) store.Report {
	out := store.Report{
		ID:            r.ID,
		KnowledgeBase: r.KnowledgeBase,
		Query:         r.Query,
		Consistent:    r.Consistent,
		Value:         r.Value,
		Elapsed:       r.Elapsed,
		CreatedAt:     r.CreatedAt,
	}
	for _, in := range r.Instances {
		out.Instances = append(out.Instances, store.Instance{Individual: in.Individual, Degree: in.Degree})
	}
	return out
}

func fromStoreReport(r store.Report) report.Report {
	out := report.Report{
		ID:            r.ID,
		KnowledgeBase: r.KnowledgeBase,
		Query:         r.Query,
		Consistent:    r.Consistent,
		Value:         r.Value,
		Elapsed:       r.Elapsed,
		CreatedAt:     r.CreatedAt,
	}
	for _, in := range r.Instances {
		out.Instances = append(out.Instances, query.Instance{Individual: in.Individual, Degree: in.Degree})
	}
	return out
}

func toStoreSubsumptions(rows []kb.Subsumption) []store.Subsumption {
	out := make([]store.Subsumption, len(rows))
	for i, s := range rows {
		out[i] = store.Subsumption{
			Subsumed:    s.Subsumed,
			Subsumer:    s.Subsumer,
			Implication: s.Implication.String(),
			Min:         s.Min,
			Max:         s.Max,
		}
	}
	return out
}

func fromStoreSubsumptions(rows []store.Subsumption) ([]kb.Subsumption, error) {
	out := make([]kb.Subsumption, len(rows))
	for i, s := range rows {
		impl, err := concept.ParseImplication(s.Implication)
		if err != nil {
			return nil, fmt.Errorf("stored subsumption %s %s: %w", s.Subsumed, s.Subsumer, err)
		}
		out[i] = kb.Subsumption{Subsumed: s.Subsumed, Subsumer: s.Subsumer, Implication: impl, Min: s.Min, Max: s.Max}
	}
	return out, nil
}
