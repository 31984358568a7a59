package tenant

import (
	"github.com/rawblock/barter-engine/internal/graph"
	"github.com/rawblock/barter-engine/internal/persistence"
	"github.com/rawblock/barter-engine/pkg/models"
)

// ToSnapshot builds the versioned, self-describing persistence blob for
// this tenant (spec §9).
func (s *State) ToSnapshot() persistence.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	dumps := s.graph.DumpAccounts()
	accounts := make([]persistence.AccountRecord, 0, len(dumps))
	for _, d := range dumps {
		owned := make(map[string]bool, len(d.Owned))
		for _, item := range d.Owned {
			owned[item] = true
		}
		wanted := make(map[string]bool, len(d.Wanted))
		for _, item := range d.Wanted {
			wanted[item] = true
		}
		accounts = append(accounts, persistence.AccountRecord{
			ID:     d.ID,
			Owned:  persistence.NewSet(owned),
			Wanted: persistence.NewSet(wanted),
		})
	}

	cached := s.cache.List()
	records := make([]persistence.CycleRecord, 0, len(cached))
	for _, c := range cached {
		accts := make([]string, len(c.Canonical.Steps))
		items := make([]string, len(c.Canonical.Steps))
		for i, step := range c.Canonical.Steps {
			accts[i] = step.Account
			items[i] = step.Item
		}
		records = append(records, persistence.CycleRecord{
			Key:          c.Canonical.Key,
			Accounts:     accts,
			Items:        items,
			Score:        c.Score,
			Efficiency:   c.Breakdown.Efficiency,
			Fairness:     c.Breakdown.Fairness,
			Completeness: c.Breakdown.Completeness,
		})
	}

	return persistence.Snapshot{
		Version:        persistence.CurrentVersion,
		TenantID:       s.ID,
		Accounts:       accounts,
		ItemOwner:      s.graph.ItemOwners(),
		ItemValuation:  s.graph.ItemValuations(),
		CycleCache:     records,
		LastAppliedSeq: s.seq,
	}
}

// FromSnapshot rebuilds a tenant State from a persisted blob. Cached
// cycles are restored from their persisted scores directly — a cycle's
// score was correct for the graph state it was discovered under, and
// that fact doesn't change on reload; the cache entry is invalidated
// the moment a contradicting delta arrives, same as any other entry.
func FromSnapshot(snap persistence.Snapshot, config models.TenantConfig) *State {
	st := NewState(snap.TenantID, config)

	dumps := make([]graph.AccountDump, 0, len(snap.Accounts))
	for _, rec := range snap.Accounts {
		dumps = append(dumps, graph.AccountDump{
			ID:     rec.ID,
			Owned:  rec.Owned.Elements,
			Wanted: rec.Wanted.Elements,
		})
	}
	st.graph.Restore(dumps, snap.ItemValuation)
	st.seq = snap.LastAppliedSeq

	for _, rec := range snap.CycleCache {
		steps := make([]models.CycleStep, len(rec.Accounts))
		for i := range rec.Accounts {
			steps[i] = models.CycleStep{Account: rec.Accounts[i], Item: rec.Items[i]}
		}
		st.cache.Put(models.ScoredCycle{
			Canonical: models.CanonicalCycle{Steps: steps, Key: rec.Key},
			Score:     rec.Score,
			Breakdown: models.ScoreBreakdown{
				Efficiency:   rec.Efficiency,
				Fairness:     rec.Fairness,
				Completeness: rec.Completeness,
			},
			Length: len(steps),
		})
	}

	return st
}
