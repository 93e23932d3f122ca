package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/store"
)

func TestReports(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	for _, r := range []store.Report{
		{ID: "01A", KnowledgeBase: "pets", Query: "(min-instance? rex Dog)", Consistent: true, Value: 0.8},
		{ID: "01B", KnowledgeBase: "pets", Query: "(all-instances? Dog)", Consistent: true,
			Instances: []store.Instance{{Individual: "rex", Degree: 0.8}}},
		{ID: "01C", KnowledgeBase: "other", Query: "(max-sat? A)"},
		{KnowledgeBase: "pets"}, // no ID, ignored
	} {
		if err := s.UpsertReport(ctx, r); err != nil {
			t.Fatalf("UpsertReport: %v", err)
		}
	}

	got, ok, err := s.GetReport(ctx, "01B")
	if err != nil || !ok {
		t.Fatalf("GetReport: ok=%v err=%v", ok, err)
	}
	if len(got.Instances) != 1 || got.Instances[0].Individual != "rex" {
		t.Errorf("Unexpected instances: %+v", got.Instances)
	}
	got.Instances[0].Degree = 0
	again, _, _ := s.GetReport(ctx, "01B")
	if again.Instances[0].Degree != 0.8 {
		t.Error("GetReport returned shared state")
	}

	if _, ok, _ := s.GetReport(ctx, "missing"); ok {
		t.Error("Expected missing report")
	}

	reports, err := s.ReportsByKB(ctx, "pets", 0)
	if err != nil {
		t.Fatalf("ReportsByKB: %v", err)
	}
	if len(reports) != 2 || reports[0].ID != "01B" || reports[1].ID != "01A" {
		t.Errorf("Expected newest first, got %+v", reports)
	}

	reports, _ = s.ReportsByKB(ctx, "pets", 1)
	if len(reports) != 1 {
		t.Errorf("Expected limit 1, got %d", len(reports))
	}
}

func TestUpsertReportReplaces(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := store.Report{ID: "X", KnowledgeBase: "kb", Value: 0.1, CreatedAt: time.Now()}
	_ = s.UpsertReport(ctx, r)
	r.Value = 0.9
	_ = s.UpsertReport(ctx, r)

	got, _, _ := s.GetReport(ctx, "X")
	if got.Value != 0.9 {
		t.Errorf("Expected replaced value 0.9, got %g", got.Value)
	}
}

func TestSubsumptions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, _ := s.Subsumptions(ctx, "fp"); ok {
		t.Error("Expected no hierarchy before upsert")
	}

	rows := []store.Subsumption{{Subsumed: "Dog", Subsumer: "Animal", Implication: "l", Min: 1, Max: 1}}
	if err := s.UpsertSubsumptions(ctx, "fp", rows); err != nil {
		t.Fatalf("UpsertSubsumptions: %v", err)
	}
	rows[0].Min = 0

	got, ok, err := s.Subsumptions(ctx, "fp")
	if err != nil || !ok {
		t.Fatalf("Subsumptions: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Min != 1 {
		t.Errorf("Unexpected rows: %+v", got)
	}

	if err := s.UpsertSubsumptions(ctx, "empty", nil); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Subsumptions(ctx, "empty"); !ok {
		t.Error("An empty hierarchy is still a classification")
	}
}
