// Package tenant implements the per-tenant state manager: one wants
// graph, one cycle cache, and the discovery pipeline that wires
// internal/scc, internal/community, internal/cycles, internal/canon and
// internal/scorer together on every delta (spec §4.7).
package tenant

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rawblock/barter-engine/internal/canon"
	"github.com/rawblock/barter-engine/internal/community"
	"github.com/rawblock/barter-engine/internal/cycles"
	"github.com/rawblock/barter-engine/internal/graph"
	"github.com/rawblock/barter-engine/internal/scc"
	"github.com/rawblock/barter-engine/internal/scheduler"
	"github.com/rawblock/barter-engine/internal/scorer"
	"github.com/rawblock/barter-engine/pkg/models"
)

// State is one tenant's full in-memory footprint: its wants graph, its
// active-cycle cache, and its configuration. The discovery pipeline
// (recompute) runs inside ApplyDelta before it returns; when a pool is
// wired in, per-community enumerations run as pool jobs and ApplyDelta
// waits for them.
type State struct {
	ID     string
	mu     sync.Mutex // serializes delta application + recompute per tenant
	config models.TenantConfig
	graph  *graph.Store
	cache  *cycleCache
	seq    uint64

	lastDiscoveryDuration time.Duration
	lastTruncated         bool
	lastSCCCount          int

	// lastPartitionLabels tracks the most recent community assignment
	// per SCC representative, keyed by the SCC's smallest member id, so
	// consecutive recomputes over the same SCC can report partition
	// churn via community.Stability.
	lastPartitionLabels map[string][]int
	lastPartitionOrder  map[string][]string

	// pool is the process-wide work pool, shared across tenants, that
	// recomputeLocked dispatches per-community Johnson enumerations
	// through (spec §4.8, §5: "across jobs, execution is fully
	// parallel"). nil outside of engine wiring (e.g. in unit tests),
	// which falls recompute back to running communities sequentially on
	// the caller's goroutine.
	pool *scheduler.Pool
}

// SetPool wires the tenant into the engine's shared work pool so every
// SCC's communities dispatch as independent jobs during recompute,
// instead of running sequentially on the caller's goroutine. Called by
// tenant.Manager when a pool is configured.
func (s *State) SetPool(p *scheduler.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = p
}

// NewState returns an empty tenant state with the given configuration.
func NewState(id string, config models.TenantConfig) *State {
	return &State{
		ID:                  id,
		config:              config,
		graph:               graph.New(),
		cache:               newCycleCache(config.CycleCacheCapacity),
		lastPartitionLabels: make(map[string][]int),
		lastPartitionOrder:  make(map[string][]string),
	}
}

// Config returns the tenant's current configuration.
func (s *State) Config() models.TenantConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// UpdateConfig validates and replaces the tenant's configuration.
func (s *State) UpdateConfig(config models.TenantConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	return nil
}

// ApplyDelta applies one delta to the graph, runs a bounded synchronous
// recomputation over the affected region, and returns the accepted/
// rejected items plus any newly discovered cycles (spec §6).
func (s *State) ApplyDelta(d models.Delta) (models.DeltaResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rejected []models.RejectedItem

	switch d.Kind {
	case models.DeltaInventory:
		if d.Inventory == nil {
			return models.DeltaResult{}, models.NewInvalidArgument("inventory delta missing payload")
		}
		r, err := s.graph.ApplyInventoryDelta(d.Inventory.Account, d.Inventory.AddedItems, d.Inventory.RemovedItems)
		if err != nil {
			return models.DeltaResult{}, err
		}
		rejected = r

	case models.DeltaWant:
		if d.Want == nil {
			return models.DeltaResult{}, models.NewInvalidArgument("want delta missing payload")
		}
		if err := s.graph.ApplyWantDelta(d.Want.Account, d.Want.AddedItems, d.Want.RemovedItems); err != nil {
			return models.DeltaResult{}, err
		}

	case models.DeltaTransfer:
		if d.Transfer == nil {
			return models.DeltaResult{}, models.NewInvalidArgument("transfer delta missing payload")
		}
		if err := s.graph.TransferOwnership(d.Transfer.Item, d.Transfer.From, d.Transfer.To); err != nil {
			return models.DeltaResult{}, err
		}

	case models.DeltaRemove:
		s.graph.RemoveAccount(d.Account)

	default:
		return models.DeltaResult{}, models.NewInvalidArgument("unknown delta kind")
	}

	s.seq++
	seq := s.seq

	dirty := s.graph.DrainDirty()
	dirtySet := make(map[string]bool, len(dirty))
	for _, id := range dirty {
		dirtySet[id] = true
	}
	s.cache.InvalidateByAccounts(dirtySet)

	deadline := time.Now().Add(s.config.DiscoveryTimeout)
	found := s.recomputeLocked(dirty, deadline)

	itemsAccepted := 0
	if d.Kind == models.DeltaInventory {
		itemsAccepted = len(d.Inventory.AddedItems) - len(rejected)
	}

	return models.DeltaResult{
		ItemsAccepted:       itemsAccepted,
		ItemsRejected:       rejected,
		NewCyclesDiscovered: len(found),
		Cycles:              found,
		Seq:                 seq,
	}, nil
}

// recomputeLocked runs SCC decomposition, optional community
// partitioning, and cycle enumeration over the reachability closure of
// dirty, caching every newly discovered cycle whose composite score
// clears the tenant's MinEfficiency bar. Caller must hold s.mu.
func (s *State) recomputeLocked(dirty []string, deadline time.Time) []models.ScoredCycle {
	if len(dirty) == 0 {
		return nil
	}

	start := time.Now()
	truncated := false
	defer func() {
		s.lastDiscoveryDuration = time.Since(start)
		s.lastTruncated = truncated
	}()

	closure := s.graph.ReachabilityClosure(dirty)
	snap := s.graph.Snapshot(closure)
	if len(snap.IDs) == 0 {
		s.lastSCCCount = 0
		return nil
	}

	var sccResult scc.Result
	if s.config.EnableParallelSCC && len(snap.IDs) > s.config.SCCParallelThreshold {
		workers := s.config.ParallelCommunityWorkers
		if workers < 1 {
			workers = 1
		}
		sccResult = scc.DecomposeParallel(snap, deadline, workers)
	} else {
		sccResult = scc.Decompose(snap, deadline, scc.DefaultBatchSize)
	}
	if sccResult.TimedOut {
		truncated = true
		log.Printf("[tenant %s] SCC decomposition timed out with %d/%d nodes processed", s.ID, sccResult.ProcessedNodes, len(snap.IDs))
	}
	s.lastSCCCount = len(sccResult.SCCs)

	dedupe := canon.NewDeduper()
	var (
		resultMu   sync.Mutex
		discovered []models.ScoredCycle
		stopAll    bool
	)

	// runGroup enumerates cycles within one SCC's one community, scoring
	// and caching every admissible one. It is the unit of fan-out:
	// recomputeLocked either runs it inline (no pool) or hands it to
	// s.pool as an independent job per community (spec §4.8).
	runGroup := func(members []string) {
		resultMu.Lock()
		if stopAll {
			resultMu.Unlock()
			return
		}
		resultMu.Unlock()

		groupSnap := s.graph.Snapshot(members)
		if len(groupSnap.IDs) == 0 {
			return
		}

		cancel := make(chan struct{})
		emit := func(c models.Cycle) bool {
			resultMu.Lock()
			defer resultMu.Unlock()
			if stopAll {
				return false
			}
			if time.Now().After(deadline) {
				truncated = true
				stopAll = true
				return false
			}
			can := canon.Canonicalize(c)
			if dedupe.SeenOrAdd(can.Key) {
				return true
			}
			scored := scorer.Score(can, s.valuationLookup())
			if !scorer.MeetsThreshold(scored, s.config.MinEfficiency) {
				return true
			}
			s.cache.Put(scored)
			discovered = append(discovered, scored)
			if s.config.MaxCyclesPerQuery > 0 && len(discovered) >= s.config.MaxCyclesPerQuery {
				stopAll = true
				return false
			}
			return true
		}

		enumResult := cycles.Enumerate(groupSnap, s.config.MaxDepth, s.config.MaxLabelFanout, deadline, cancel, emit)
		close(cancel)
		if enumResult.Truncated {
			resultMu.Lock()
			truncated = true
			resultMu.Unlock()
		}
	}

	var groups [][]string
	for _, members := range sccResult.SCCs {
		groups = append(groups, s.communitiesFor(members)...)
	}

	if s.pool != nil && len(groups) > 0 {
		var wg sync.WaitGroup
		for _, group := range groups {
			group := group
			wg.Add(1)
			s.pool.Submit(scheduler.Job{
				TenantID: s.ID,
				Deadline: deadline,
				Run: func(ctx context.Context) {
					defer wg.Done()
					runGroup(group)
				},
			})
		}
		wg.Wait()
	} else {
		for _, group := range groups {
			runGroup(group)
		}
	}

	sort.Slice(discovered, func(i, j int) bool { return scorer.Less(discovered[i], discovered[j]) })
	return discovered
}

// communitiesFor decides whether an SCC is partitioned into communities
// before enumeration (spec §4.3). When partitioning runs, it logs how
// much the assignment churned relative to the last partitioning of the
// same SCC (identified by its smallest member id), which helps an
// operator judge whether CommunityPartitionThreshold is tuned well.
func (s *State) communitiesFor(members []string) [][]string {
	if !community.ShouldPartition(len(members), s.config.CommunityPartitionThreshold, s.config.StrictMode) {
		return [][]string{members}
	}
	sub := s.graph.Snapshot(members)
	groups := community.Partition(sub)

	key := sccKey(members)
	curr := community.LabelPartition(sub.IDs, groups)
	if prev, ok := s.lastPartitionLabels[key]; ok && sameOrder(s.lastPartitionOrder[key], sub.IDs) {
		ari, vi := community.Stability(prev, curr)
		if ari < 0.8 {
			log.Printf("[tenant %s] community partition churn on SCC %s: ari=%.3f vi=%.3f (%d groups)", s.ID, key, ari, vi, len(groups))
		}
	}
	s.lastPartitionLabels[key] = curr
	s.lastPartitionOrder[key] = append([]string(nil), sub.IDs...)

	return groups
}

// sccKey identifies an SCC by its lexicographically smallest member id,
// stable across recomputes as long as the SCC's membership doesn't change.
func sccKey(members []string) string {
	if len(members) == 0 {
		return ""
	}
	min := members[0]
	for _, m := range members[1:] {
		if m < min {
			min = m
		}
	}
	return min
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *State) valuationLookup() func(item string) (float64, bool) {
	return func(item string) (float64, bool) {
		return s.graph.Valuation(item)
	}
}

// ActiveCycles returns up to limit cached cycles with score >= minScore,
// sorted by score desc, length asc, canonical key asc (spec §6).
func (s *State) ActiveCycles(limit int, minScore float64) []models.ScoredCycle {
	all := s.cache.List()
	out := make([]models.ScoredCycle, 0, len(all))
	for _, c := range all {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CyclesForAccount returns cached cycles that include the given account.
func (s *State) CyclesForAccount(account string) []models.ScoredCycle {
	all := s.cache.List()
	var out []models.ScoredCycle
	for _, c := range all {
		for _, step := range c.Canonical.Steps {
			if step.Account == account {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Stats exposes the underlying graph store's counts plus the current
// cycle cache occupancy and last-discovery bookkeeping, for the status
// query (spec §6: "current counts ..., health flags, last-discovery-duration,
// truncation indicators").
type Stats struct {
	graph.Stats
	CachedCycles          int
	LastSeq               uint64
	LastSCCCount          int
	LastDiscoveryDuration time.Duration
	LastDiscoveryTruncated bool
}

func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Stats:                  s.graph.Stats(),
		CachedCycles:           s.cache.Size(),
		LastSeq:                s.seq,
		LastSCCCount:           s.lastSCCCount,
		LastDiscoveryDuration:  s.lastDiscoveryDuration,
		LastDiscoveryTruncated: s.lastTruncated,
	}
}
