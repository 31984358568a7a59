package tenant

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/rawblock/barter-engine/pkg/models"
	"github.com/rawblock/barter-engine/internal/scorer"
)

// cycleCache is the bounded per-tenant active-cycle cache (spec §5:
// "bounded (default 10,000 cycles per tenant) with LRU eviction of
// lowest-scored cycles"). No example repo or ecosystem library grounds
// a score-ordered bounded cache, so this uses container/heap directly
// (see DESIGN.md's standard-library justification for this one piece).
type cycleCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*cacheItem
	h        scoreHeap

	// byAccount indexes cached cycle keys by the accounts they touch, so
	// InvalidateByAccounts only visits cycles that actually include an
	// invalidated account instead of scanning the whole cache (spec §4.7:
	// an account-tagged index bounds this to O(|cycles touching A|)).
	byAccount map[string]map[string]bool
}

type cacheItem struct {
	key   string
	cycle models.ScoredCycle
	index int
}

// scoreHeap is a min-heap on score so the lowest-scored cycle is always
// the one evicted when the cache is over capacity.
type scoreHeap []*cacheItem

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].cycle.Score < h[j].cycle.Score }
func (h scoreHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *scoreHeap) Push(x any) {
	item := x.(*cacheItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

func newCycleCache(capacity int) *cycleCache {
	if capacity < 1 {
		capacity = 1
	}
	return &cycleCache{
		capacity:  capacity,
		items:     make(map[string]*cacheItem),
		byAccount: make(map[string]map[string]bool),
	}
}

// accountsOf returns the distinct accounts a cycle's steps touch.
func accountsOf(c models.ScoredCycle) map[string]bool {
	accounts := make(map[string]bool, len(c.Canonical.Steps))
	for _, step := range c.Canonical.Steps {
		accounts[step.Account] = true
	}
	return accounts
}

func (c *cycleCache) indexAccounts(key string, sc models.ScoredCycle) {
	for account := range accountsOf(sc) {
		set, ok := c.byAccount[account]
		if !ok {
			set = make(map[string]bool)
			c.byAccount[account] = set
		}
		set[key] = true
	}
}

func (c *cycleCache) unindexAccounts(key string, sc models.ScoredCycle) {
	for account := range accountsOf(sc) {
		set, ok := c.byAccount[account]
		if !ok {
			continue
		}
		delete(set, key)
		if len(set) == 0 {
			delete(c.byAccount, account)
		}
	}
}

// Put inserts or updates a scored cycle, evicting the lowest-scored
// entries if the cache is now over capacity.
func (c *cycleCache) Put(sc models.ScoredCycle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := sc.Canonical.Key
	if existing, ok := c.items[key]; ok {
		c.unindexAccounts(key, existing.cycle)
		existing.cycle = sc
		c.indexAccounts(key, sc)
		heap.Fix(&c.h, existing.index)
		return
	}

	item := &cacheItem{key: key, cycle: sc}
	heap.Push(&c.h, item)
	c.items[key] = item
	c.indexAccounts(key, sc)

	for len(c.items) > c.capacity {
		evicted := heap.Pop(&c.h).(*cacheItem)
		delete(c.items, evicted.key)
		c.unindexAccounts(evicted.key, evicted.cycle)
	}
}

// Remove deletes a cached cycle by its canonical key, if present.
func (c *cycleCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

func (c *cycleCache) removeLocked(key string) {
	item, ok := c.items[key]
	if !ok {
		return
	}
	heap.Remove(&c.h, item.index)
	delete(c.items, key)
	c.unindexAccounts(key, item.cycle)
}

// InvalidateByAccounts drops every cached cycle touching any of the
// given accounts — used when a delta changes an account's edges so a
// stale cached cycle is never served (spec §4.7: "a delta invalidates
// it"). Bounded by the byAccount index to the cycles that actually
// touch an invalidated account, not the whole cache.
func (c *cycleCache) InvalidateByAccounts(accounts map[string]bool) {
	if len(accounts) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []string
	seen := make(map[string]bool)
	for account := range accounts {
		for key := range c.byAccount[account] {
			if !seen[key] {
				seen[key] = true
				toRemove = append(toRemove, key)
			}
		}
	}
	for _, key := range toRemove {
		c.removeLocked(key)
	}
}

// List returns every cached cycle, sorted per the spec §4.6 tie-break
// ordering (score desc, length asc, canonical key asc).
func (c *cycleCache) List() []models.ScoredCycle {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ScoredCycle, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.cycle)
	}
	sort.Slice(out, func(i, j int) bool { return scorer.Less(out[i], out[j]) })
	return out
}

// Size returns the number of cached cycles.
func (c *cycleCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
