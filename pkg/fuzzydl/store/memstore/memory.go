package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu           sync.RWMutex
	reports      map[string]store.Report
	subsumptions map[string][]store.Subsumption
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		reports:      make(map[string]store.Report),
		subsumptions: make(map[string][]store.Subsumption),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertReport inserts or replaces a report, keyed by ID.
func (s *Store) UpsertReport(ctx context.Context, r store.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		return nil
	}
	s.reports[r.ID] = copyReport(r)
	return nil
}

// GetReport returns a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (store.Report, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return store.Report{}, false, nil
	}
	return copyReport(r), true, nil
}

// ReportsByKB returns the newest reports of a knowledge base first.
func (s *Store) ReportsByKB(ctx context.Context, kb string, limit int) ([]store.Report, error) {
	if limit <= 0 {
		limit = store.DefaultReportLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Report
	for _, r := range s.reports {
		if r.KnowledgeBase == kb {
			out = append(out, copyReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertSubsumptions replaces the hierarchy stored under fingerprint.
func (s *Store) UpsertSubsumptions(ctx context.Context, fingerprint string, rows []store.Subsumption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subsumptions[fingerprint] = append([]store.Subsumption(nil), rows...)
	return nil
}

// Subsumptions returns the hierarchy stored under fingerprint.
func (s *Store) Subsumptions(ctx context.Context, fingerprint string) ([]store.Subsumption, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.subsumptions[fingerprint]
	if !ok {
		return nil, false, nil
	}
	return append([]store.Subsumption(nil), rows...), true, nil
}

func copyReport(r store.Report) store.Report {
	r.Instances = append([]store.Instance(nil), r.Instances...)
	return r
}
