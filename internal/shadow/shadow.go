// Package shadow runs a candidate scorer weighting against the
// production weights over the same batch of discovered cycles, without
// affecting which cycles a tenant actually sees. Grounded on the
// teacher's ShadowRunner (internal/shadow/shadow_runner.go, since
// deleted): "run experimental heuristics in parallel against production
// data, log divergence, persist to a dedicated table" — generalized
// here from transaction-level heuristic flags to cycle-level scorer
// weights, since a weight change is this engine's equivalent of a new
// classifier that shouldn't roll out tenant-wide until observed.
package shadow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/barter-engine/pkg/models"
)

// Weights is a candidate (efficiency, fairness, completeness) weighting
// to compare against scorer's fixed production weights.
type Weights struct {
	Efficiency   float64
	Fairness     float64
	Completeness float64
}

// ScoreWithWeights recombines an already-computed sub-score breakdown
// using an arbitrary weight triple instead of scorer's fixed production
// weights. Reusing the production breakdown (rather than recomputing
// efficiency/fairness/completeness from scratch) guarantees the two
// scorings can only diverge in the weighting, never in how the
// sub-scores themselves are derived.
func ScoreWithWeights(breakdown models.ScoreBreakdown, w Weights) float64 {
	return w.Efficiency*breakdown.Efficiency + w.Fairness*breakdown.Fairness + w.Completeness*breakdown.Completeness
}

// divergenceThreshold is how far apart two normalized scores must land
// before a comparison is logged as a notable divergence rather than
// ordinary reweighting noise.
const divergenceThreshold = 0.15

// Divergence captures one cycle's production-vs-candidate comparison.
type Divergence struct {
	Key             string    `json:"key"`
	ProductionScore float64   `json:"productionScore"`
	ShadowScore     float64   `json:"shadowScore"`
	Notable         bool      `json:"notable"`
	ObservedAt      time.Time `json:"observedAt"`
}

// Runner compares a candidate weighting against production over
// batches of cycles, optionally persisting every comparison for later
// drift analysis.
type Runner struct {
	pool      *pgxpool.Pool
	candidate Weights
}

// NewRunner builds a shadow runner. pool may be nil — divergences are
// still logged, just never persisted (same optional-persistence
// posture as internal/persistence.Store elsewhere in this engine).
func NewRunner(pool *pgxpool.Pool, candidate Weights) *Runner {
	return &Runner{pool: pool, candidate: candidate}
}

// CompareBatch scores every cycle's existing breakdown under the
// candidate weighting and returns the full comparison set, logging (and
// persisting, if a pool is attached) any cycle whose score moves by
// more than divergenceThreshold.
func (r *Runner) CompareBatch(ctx context.Context, cycles []models.ScoredCycle) []Divergence {
	out := make([]Divergence, 0, len(cycles))
	for _, prod := range cycles {
		shadowScore := ScoreWithWeights(prod.Breakdown, r.candidate)
		d := Divergence{
			Key:             prod.Canonical.Key,
			ProductionScore: prod.Score,
			ShadowScore:     shadowScore,
			Notable:         absFloat(shadowScore-prod.Score) > divergenceThreshold,
			ObservedAt:      time.Now(),
		}
		out = append(out, d)

		if d.Notable {
			log.Printf("[shadow] DIVERGENCE cycle=%s prod_score=%.3f shadow_score=%.3f", d.Key, d.ProductionScore, d.ShadowScore)
		}

		if r.pool != nil {
			if err := r.persist(ctx, d); err != nil {
				log.Printf("[shadow] failed to persist divergence for cycle %s: %v", d.Key, err)
			}
		}
	}
	return out
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func (r *Runner) persist(ctx context.Context, d Divergence) error {
	const sql = `INSERT INTO shadow_scoring_results
		(cycle_key, production_score, shadow_score, notable, observed_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, sql, d.Key, d.ProductionScore, d.ShadowScore, d.Notable, d.ObservedAt)
	return err
}

// InitSchema creates the shadow_scoring_results table if absent.
func (r *Runner) InitSchema(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	const ddl = `
		CREATE TABLE IF NOT EXISTS shadow_scoring_results (
			id BIGSERIAL PRIMARY KEY,
			cycle_key TEXT NOT NULL,
			production_score DOUBLE PRECISION NOT NULL,
			shadow_score DOUBLE PRECISION NOT NULL,
			notable BOOLEAN NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL
		);
	`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("shadow: failed to initialize schema: %v", err)
	}
	return nil
}

// DriftReport summarizes how often the candidate weighting diverged
// notably from production over all persisted comparisons.
type DriftReport struct {
	TotalComparisons int
	Divergences      int
	AvgScoreDelta    float64
}

// GenerateDriftReport aggregates persisted divergences. Requires a pool.
func (r *Runner) GenerateDriftReport(ctx context.Context) (DriftReport, error) {
	if r.pool == nil {
		return DriftReport{}, fmt.Errorf("shadow: no persistence pool attached")
	}
	const sql = `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE notable) AS divergences,
		COALESCE(AVG(ABS(shadow_score - production_score)), 0) AS avg_delta
		FROM shadow_scoring_results`

	var report DriftReport
	row := r.pool.QueryRow(ctx, sql)
	if err := row.Scan(&report.TotalComparisons, &report.Divergences, &report.AvgScoreDelta); err != nil {
		return DriftReport{}, fmt.Errorf("shadow: failed to generate drift report: %v", err)
	}
	return report, nil
}
