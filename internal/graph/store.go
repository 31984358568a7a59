// Package graph maintains the per-tenant wants graph: a directed
// multigraph where nodes are accounts and an edge A->B labeled i means A
// owns item i and B wants it. See spec §3, §4.1.
package graph

import (
	"sync"

	"github.com/rawblock/barter-engine/pkg/models"
)

// node is one arena slot. Accounts are addressed by integer index
// throughout the store; the string id is only used at the boundary
// (delta application, query results). This is the "arena + integer
// indices" representation called for in the Design Notes, replacing the
// pointer-graph an OO source would use and making snapshotting cheap.
type node struct {
	id     string
	owned  map[string]bool // item id -> present
	wanted map[string]bool // item id -> present
	live   bool            // false once removed; slot may be reused by id only
}

// Edge is a materialized (src, dst, item) triple.
type Edge struct {
	From string
	To   string
	Item string
}

// Store is one tenant's wants graph plus its inverted indexes. All
// exported methods are safe for concurrent use; many readers or one
// writer per tenant (spec §5).
type Store struct {
	mu sync.RWMutex

	nodes   []node
	byID    map[string]int // account id -> arena index
	ownerOf map[string]string // item id -> owning account id
	wantedBy map[string]map[string]bool // item id -> set of wanting account ids

	itemValue map[string]float64 // item id -> valuation, only for items submitted with one

	dirty map[string]bool // accounts dirty for SCC recomputation

	generation uint64
}

// New returns an empty graph store.
func New() *Store {
	return &Store{
		byID:      make(map[string]int),
		ownerOf:   make(map[string]string),
		wantedBy:  make(map[string]map[string]bool),
		itemValue: make(map[string]float64),
		dirty:     make(map[string]bool),
	}
}

// indexOf returns the arena index for id, creating the account if it
// does not yet exist. Caller must hold the write lock.
func (s *Store) indexOf(id string) int {
	if idx, ok := s.byID[id]; ok {
		if !s.nodes[idx].live {
			s.nodes[idx].live = true
		}
		return idx
	}
	idx := len(s.nodes)
	s.nodes = append(s.nodes, node{
		id:     id,
		owned:  make(map[string]bool),
		wanted: make(map[string]bool),
		live:   true,
	})
	s.byID[id] = idx
	return idx
}

func (s *Store) markDirty(ids ...string) {
	for _, id := range ids {
		s.dirty[id] = true
	}
}

// ApplyInventoryDelta adds/removes items from account's owned set.
// Adding an item already owned by a *different* account is not applied:
// it is returned as a RejectedItem with a reason while the rest of the
// delta still applies, and the error stays nil — callers must use
// TransferOwnership explicitly (spec §4.1).
func (s *Store) ApplyInventoryDelta(account string, added []models.ItemRef, removed []string) ([]models.RejectedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(account)
	var rejected []models.RejectedItem

	for _, ref := range added {
		if owner, ok := s.ownerOf[ref.ID]; ok && owner != account {
			rejected = append(rejected, models.RejectedItem{
				ID:     ref.ID,
				Reason: "item already owned by a different account; use transfer",
			})
			continue
		}
		if s.nodes[idx].owned[ref.ID] {
			continue // no-op: already owned by this account
		}
		s.nodes[idx].owned[ref.ID] = true
		s.ownerOf[ref.ID] = account
		if ref.Valuation != nil {
			s.itemValue[ref.ID] = *ref.Valuation
		}
		s.markDirty(account)
		// the new owner now has an outgoing edge to every account that
		// already wants this item.
		for wanter := range s.wantedBy[ref.ID] {
			s.markDirty(wanter)
		}
	}

	for _, itemID := range removed {
		if !s.nodes[idx].owned[itemID] {
			continue // no-op
		}
		delete(s.nodes[idx].owned, itemID)
		delete(s.ownerOf, itemID)
		delete(s.itemValue, itemID)
		s.markDirty(account)
		for wanter := range s.wantedBy[itemID] {
			s.markDirty(wanter)
		}
	}

	s.generation++
	return rejected, nil
}

// ApplyWantDelta adds/removes items from account's wanted set. Wants may
// reference items not yet known to the system; they are retained and
// become active once the item appears (spec §3).
func (s *Store) ApplyWantDelta(account string, added []string, removed []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(account)

	for _, itemID := range added {
		if s.nodes[idx].wanted[itemID] {
			continue
		}
		s.nodes[idx].wanted[itemID] = true
		if s.wantedBy[itemID] == nil {
			s.wantedBy[itemID] = make(map[string]bool)
		}
		s.wantedBy[itemID][account] = true
		s.markDirty(account)
		if owner, ok := s.ownerOf[itemID]; ok && owner != account {
			s.markDirty(owner)
		}
	}

	for _, itemID := range removed {
		if !s.nodes[idx].wanted[itemID] {
			continue
		}
		delete(s.nodes[idx].wanted, itemID)
		if set := s.wantedBy[itemID]; set != nil {
			delete(set, account)
			if len(set) == 0 {
				delete(s.wantedBy, itemID)
			}
		}
		s.markDirty(account)
	}

	s.generation++
	return nil
}

// TransferOwnership atomically re-labels edges from one owner to another.
func (s *Store) TransferOwnership(item, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.ownerOf[item]
	if !ok || owner != from {
		return models.NewInvalidArgument("item is not owned by the stated account")
	}

	fromIdx := s.indexOf(from)
	toIdx := s.indexOf(to)

	delete(s.nodes[fromIdx].owned, item)
	s.nodes[toIdx].owned[item] = true
	s.ownerOf[item] = to

	s.markDirty(from, to)
	for wanter := range s.wantedBy[item] {
		s.markDirty(wanter)
	}

	s.generation++
	return nil
}

// RemoveAccount removes a node and all of its incident edges: its owned
// items become unowned, its wants are dropped, and it is removed from
// every item's wantedBy set.
func (s *Store) RemoveAccount(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[account]
	if !ok {
		return
	}

	for item := range s.nodes[idx].owned {
		delete(s.ownerOf, item)
		for wanter := range s.wantedBy[item] {
			s.markDirty(wanter)
		}
	}
	for item := range s.nodes[idx].wanted {
		if set := s.wantedBy[item]; set != nil {
			delete(set, account)
			if len(set) == 0 {
				delete(s.wantedBy, item)
			}
		}
	}

	s.nodes[idx].owned = make(map[string]bool)
	s.nodes[idx].wanted = make(map[string]bool)
	s.nodes[idx].live = false
	delete(s.dirty, account)

	s.generation++
}

// Neighbors returns the distinct accounts that `account` has an outgoing
// edge to (accounts that want something account owns).
func (s *Store) Neighbors(account string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.neighborsLocked(account)
}

func (s *Store) neighborsLocked(account string) []string {
	idx, ok := s.byID[account]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	for item := range s.nodes[idx].owned {
		for wanter := range s.wantedBy[item] {
			if wanter != account {
				seen[wanter] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	return out
}

// Incoming returns the distinct accounts with an edge pointing at account.
func (s *Store) Incoming(account string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[account]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	for item := range s.nodes[idx].wanted {
		if owner, ok := s.ownerOf[item]; ok && owner != account {
			seen[owner] = true
		}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	return out
}

// EdgesLabeled returns every (account, item) pair where account owns the
// item — i.e. the set of edges the item could label.
func (s *Store) EdgesLabeled(item string) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.ownerOf[item]
	if !ok {
		return nil
	}
	var out []Edge
	for wanter := range s.wantedBy[item] {
		if wanter != owner {
			out = append(out, Edge{From: owner, To: wanter, Item: item})
		}
	}
	return out
}

// OutEdges returns every labeled edge leaving account: one entry per
// (otherAccount, item) pair — parallel edges are preserved (spec §3).
func (s *Store) OutEdges(account string) []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[account]
	if !ok {
		return nil
	}
	var out []Edge
	for item := range s.nodes[idx].owned {
		for wanter := range s.wantedBy[item] {
			if wanter != account {
				out = append(out, Edge{From: account, To: wanter, Item: item})
			}
		}
	}
	return out
}

// DrainDirty returns the set of accounts marked dirty since the last
// drain and clears it (spec §4.1).
func (s *Store) DrainDirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		out = append(out, id)
	}
	s.dirty = make(map[string]bool)
	return out
}

// AccountIDs returns every live account id in the graph, unordered.
func (s *Store) AccountIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byID))
	for id, idx := range s.byID {
		if s.nodes[idx].live {
			out = append(out, id)
		}
	}
	return out
}

// OwnerOf returns the current owner of item, if known.
func (s *Store) OwnerOf(item string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.ownerOf[item]
	return owner, ok
}

// Valuation returns item's submitted valuation, if any was given (spec
// §4.6: fairness falls back to a neutral default when valuations are
// absent).
func (s *Store) Valuation(item string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.itemValue[item]
	return v, ok
}

// Stats is the plain counts used by the status query (spec §6).
type Stats struct {
	Accounts int
	Items    int
	Edges    int
}

// Stats returns current graph-store counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := 0
	for item, owner := range s.ownerOf {
		for wanter := range s.wantedBy[item] {
			if wanter != owner {
				edges++
			}
		}
	}
	accounts := 0
	for _, n := range s.nodes {
		if n.live {
			accounts++
		}
	}
	return Stats{Accounts: accounts, Items: len(s.ownerOf), Edges: edges}
}

// AccountDump is a snapshot-friendly view of one account's owned/wanted
// sets, used by internal/persistence to serialize a tenant (spec §9).
type AccountDump struct {
	ID     string
	Owned  []string
	Wanted []string
}

// DumpAccounts returns every live account's owned/wanted sets.
func (s *Store) DumpAccounts() []AccountDump {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AccountDump, 0, len(s.byID))
	for id, idx := range s.byID {
		if !s.nodes[idx].live {
			continue
		}
		d := AccountDump{ID: id}
		for item := range s.nodes[idx].owned {
			d.Owned = append(d.Owned, item)
		}
		for item := range s.nodes[idx].wanted {
			d.Wanted = append(d.Wanted, item)
		}
		out = append(out, d)
	}
	return out
}

// ItemOwners returns a copy of the item -> owning-account index.
func (s *Store) ItemOwners() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.ownerOf))
	for k, v := range s.ownerOf {
		out[k] = v
	}
	return out
}

// ItemValuations returns a copy of the item -> valuation index, for
// items that were submitted with one.
func (s *Store) ItemValuations() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]float64, len(s.itemValue))
	for k, v := range s.itemValue {
		out[k] = v
	}
	return out
}

// Restore rebuilds graph state from persisted account dumps and item
// valuations. Intended for use immediately after New(), when loading a
// tenant snapshot (spec §9); it does not clear any existing state first.
func (s *Store) Restore(accounts []AccountDump, valuations map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range accounts {
		idx := s.indexOf(a.ID)
		for _, item := range a.Owned {
			s.nodes[idx].owned[item] = true
			s.ownerOf[item] = a.ID
		}
		for _, item := range a.Wanted {
			s.nodes[idx].wanted[item] = true
			if s.wantedBy[item] == nil {
				s.wantedBy[item] = make(map[string]bool)
			}
			s.wantedBy[item][a.ID] = true
		}
	}
	for item, v := range valuations {
		s.itemValue[item] = v
	}
	s.generation++
}
