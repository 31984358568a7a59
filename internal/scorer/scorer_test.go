package scorer

import (
	"math"
	"testing"

	"github.com/rawblock/barter-engine/pkg/models"
)

func TestScore_BilateralSwapDefaultWeights(t *testing.T) {
	c := models.CanonicalCycle{
		Steps: []models.CycleStep{{Account: "A", Item: "nft_1"}, {Account: "B", Item: "nft_2"}},
		Key:   "A:nft_1,B:nft_2",
	}

	s := Score(c, nil)
	if s.Score < 0.8 {
		t.Fatalf("expected score >= 0.8 for a default-weight bilateral swap, got %v", s.Score)
	}
	if s.Breakdown.Fairness != 1.0 {
		t.Errorf("expected fairness=1.0 when no valuations present, got %v", s.Breakdown.Fairness)
	}
}

func TestScore_FairnessPenalizesUnequalValues(t *testing.T) {
	c := models.CanonicalCycle{
		Steps: []models.CycleStep{{Account: "A", Item: "i1"}, {Account: "B", Item: "i2"}},
	}
	valuation := map[string]float64{"i1": 10, "i2": 1000}

	s := Score(c, func(item string) (float64, bool) {
		v, ok := valuation[item]
		return v, ok
	})
	if s.Breakdown.Fairness >= 0.9 {
		t.Errorf("expected low fairness for wildly unequal valuations, got %v", s.Breakdown.Fairness)
	}
}

func TestScore_EqualValuationsMaximizeFairness(t *testing.T) {
	c := models.CanonicalCycle{
		Steps: []models.CycleStep{{Account: "A", Item: "i1"}, {Account: "B", Item: "i2"}},
	}
	s := Score(c, func(item string) (float64, bool) { return 100, true })
	if math.Abs(s.Breakdown.Fairness-1.0) > 1e-9 {
		t.Errorf("expected fairness=1.0 for equal valuations, got %v", s.Breakdown.Fairness)
	}
}

func TestScore_Deterministic(t *testing.T) {
	c := models.CanonicalCycle{
		Steps: []models.CycleStep{{Account: "A", Item: "i1"}, {Account: "B", Item: "i2"}, {Account: "C", Item: "i3"}},
	}
	valuation := func(item string) (float64, bool) { return 50, true }

	s1 := Score(c, valuation)
	s2 := Score(c, valuation)
	if s1.Score != s2.Score || s1.Breakdown != s2.Breakdown {
		t.Errorf("expected deterministic scoring, got %v vs %v", s1, s2)
	}
}

func TestMeetsThreshold_GatesOnCompositeScoreNotRawEfficiency(t *testing.T) {
	// A length-5 cycle with no valuations: efficiency=0.2, fairness=1,
	// completeness=1 -> composite score 0.68. Gating on the raw
	// efficiency sub-score (0.2) against the default 0.3 minimum would
	// wrongly reject this cycle.
	c := models.CanonicalCycle{Steps: make([]models.CycleStep, 5)}
	for i := range c.Steps {
		c.Steps[i] = models.CycleStep{Account: string(rune('A' + i)), Item: "i" + string(rune('0'+i))}
	}

	s := Score(c, nil)
	if s.Breakdown.Efficiency != 0.2 {
		t.Fatalf("expected raw efficiency 0.2 for a length-5 cycle, got %v", s.Breakdown.Efficiency)
	}
	if !MeetsThreshold(s, 0.3) {
		t.Errorf("expected a length-5 no-valuation cycle (composite score %v) to clear the default 0.3 minimum", s.Score)
	}
	if MeetsThreshold(s, 0.7) {
		t.Errorf("expected MeetsThreshold to reject when minScore exceeds the composite score")
	}
}

func TestLess_TieBreakOrdering(t *testing.T) {
	a := models.ScoredCycle{Score: 0.9, Length: 2, Canonical: models.CanonicalCycle{Key: "B"}}
	b := models.ScoredCycle{Score: 0.9, Length: 3, Canonical: models.CanonicalCycle{Key: "A"}}
	c := models.ScoredCycle{Score: 0.95, Length: 5, Canonical: models.CanonicalCycle{Key: "Z"}}

	if !Less(c, a) {
		t.Errorf("higher score should sort first")
	}
	if !Less(a, b) {
		t.Errorf("equal score, shorter length should sort first")
	}
}
