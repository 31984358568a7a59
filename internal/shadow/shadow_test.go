package shadow

import (
	"context"
	"testing"

	"github.com/rawblock/barter-engine/pkg/models"
)

func TestCompareBatch_RecombinesBreakdownWithCandidateWeights(t *testing.T) {
	r := NewRunner(nil, Weights{Efficiency: 0.1, Fairness: 0.1, Completeness: 0.8})

	cycles := []models.ScoredCycle{
		{
			Canonical: models.CanonicalCycle{Key: "k1"},
			Score:     0.9, // production score is taken as given, not recomputed
			Breakdown: models.ScoreBreakdown{Efficiency: 1.0, Fairness: 1.0, Completeness: 1.0},
		},
	}

	out := r.CompareBatch(context.Background(), cycles)
	if len(out) != 1 {
		t.Fatalf("expected 1 comparison, got %d", len(out))
	}
	if out[0].ShadowScore != 1.0 {
		t.Errorf("expected shadow score 1.0 for all-1.0 breakdown regardless of weights, got %v", out[0].ShadowScore)
	}
}

func TestCompareBatch_NoDivergenceWhenWeightsMatchProduction(t *testing.T) {
	r := NewRunner(nil, Weights{Efficiency: 0.4, Fairness: 0.4, Completeness: 0.2})
	cycles := []models.ScoredCycle{
		{
			Canonical: models.CanonicalCycle{Key: "k1"},
			Score:     0.7,
			Breakdown: models.ScoreBreakdown{Efficiency: 0.5, Fairness: 1.0, Completeness: 1.0},
		},
	}
	out := r.CompareBatch(context.Background(), cycles)
	if out[0].Notable {
		t.Errorf("expected no divergence when candidate weights equal production weights, got %+v", out[0])
	}
}

func TestGenerateDriftReport_ErrorsWithoutPool(t *testing.T) {
	r := NewRunner(nil, Weights{Efficiency: 1, Fairness: 0, Completeness: 0})
	if _, err := r.GenerateDriftReport(context.Background()); err == nil {
		t.Fatal("expected error generating a drift report without a persistence pool")
	}
}
