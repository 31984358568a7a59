// Package canon rotation-normalizes cycles to a canonical form and
// deduplicates them with a Bloom filter backed by an exact confirmation
// set (spec §4.5).
package canon

import (
	"strings"

	"github.com/rawblock/barter-engine/pkg/models"
)

// Canonicalize finds the rotation starting at the lexicographically
// smallest account id and builds the canonical key from it (spec §4.5).
// Idempotent: Canonicalize(Canonicalize(c)) == Canonicalize(c).
func Canonicalize(c models.Cycle) models.CanonicalCycle {
	k := len(c.Steps)
	if k == 0 {
		return models.CanonicalCycle{}
	}

	r := 0
	for i := 1; i < k; i++ {
		if c.Steps[i].Account < c.Steps[r].Account {
			r = i
		}
	}

	rotated := make([]models.CycleStep, k)
	for j := 0; j < k; j++ {
		rotated[j] = c.Steps[(r+j)%k]
	}

	var b strings.Builder
	for j, step := range rotated {
		if j > 0 {
			b.WriteByte(',')
		}
		b.WriteString(step.Account)
		b.WriteByte(':')
		b.WriteString(step.Item)
	}

	return models.CanonicalCycle{Steps: rotated, Key: b.String()}
}
