// Package scorer computes the deterministic quality metric for a cycle:
// efficiency, fairness, and completeness combined with fixed weights
// (spec §4.6).
package scorer

import (
	"math"

	"github.com/rawblock/barter-engine/pkg/models"
)

// Weights are the fixed spec §4.6 coefficients; w1+w2+w3 = 1.
const (
	WeightEfficiency   = 0.4
	WeightFairness     = 0.4
	WeightCompleteness = 0.2
)

// Score computes a ScoredCycle from a canonical cycle and an optional
// per-item valuation lookup (nil if valuations are not tracked for this
// tenant).
func Score(c models.CanonicalCycle, valuation func(item string) (float64, bool)) models.ScoredCycle {
	k := len(c.Steps)
	efficiency := 0.0
	if k > 0 {
		efficiency = 1.0 / float64(k)
	}

	fairness := 1.0
	if valuation != nil {
		values := make([]float64, 0, k)
		for _, step := range c.Steps {
			if v, ok := valuation(step.Item); ok {
				values = append(values, v)
			}
		}
		if len(values) == k && k > 0 {
			fairness = fairnessFromValues(values)
		}
	}

	completeness := 1.0 // always true for a well-formed cycle by construction

	breakdown := models.ScoreBreakdown{
		Efficiency:   efficiency,
		Fairness:     fairness,
		Completeness: completeness,
	}

	score := WeightEfficiency*efficiency + WeightFairness*fairness + WeightCompleteness*completeness

	return models.ScoredCycle{
		Canonical: c,
		Score:     score,
		Breakdown: breakdown,
		Length:    k,
	}
}

// fairnessFromValues computes 1 - (stdev/mean), clamped to [0,1].
func fairnessFromValues(values []float64) float64 {
	n := float64(len(values))
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	if mean == 0 {
		return 1.0
	}

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n
	stdev := math.Sqrt(variance)

	fairness := 1 - stdev/mean
	if fairness < 0 {
		return 0
	}
	if fairness > 1 {
		return 1
	}
	return fairness
}

// MeetsThreshold reports whether a scored cycle clears the tenant's
// minimum score bar (spec §4.6, tenant config knob minEfficiency).
// Gating on the raw efficiency sub-score (1/k) would discard every
// cycle of length >= 4 under the default 0.3 threshold regardless of
// fairness or completeness, making maxDepth beyond 3 meaningless — so
// this compares against the composite weighted score instead, same as
// the tie-break ordering in Less.
func MeetsThreshold(s models.ScoredCycle, minScore float64) bool {
	return s.Score >= minScore
}

// Less implements the deterministic tie-break ordering from spec §4.6:
// score desc, then length asc, then canonical key lexicographic asc.
func Less(a, b models.ScoredCycle) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Length != b.Length {
		return a.Length < b.Length
	}
	return a.Canonical.Key < b.Canonical.Key
}
