package graph

// Snapshot is an immutable adjacency view over a fixed set of accounts,
// suitable for SCC decomposition and cycle enumeration while further
// deltas proceed against the live Store (spec §4.1, §5). It is built by
// freezing the current adjacency structure for the requested accounts —
// memory discipline favors allocating only for the nodes actually
// touched, not a full copy of an unrelated tenant's graph.
type Snapshot struct {
	Generation uint64
	Index      map[string]int // account id -> dense index within this snapshot
	IDs        []string       // dense index -> account id
	Adjacency  [][]LabeledEdge
}

// LabeledEdge is an edge within a Snapshot, referencing the destination
// by dense snapshot index for fast traversal.
type LabeledEdge struct {
	To   int
	Item string
}

// Snapshot freezes the current adjacency structure. If accountSubset is
// non-nil, only those accounts (and edges between them) are included —
// used when re-running SCC/cycle work on just a dirty region plus its
// reachability closure. A nil subset snapshots the whole live graph.
func (s *Store) Snapshot(accountSubset []string) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	if accountSubset != nil {
		ids = make([]string, 0, len(accountSubset))
		for _, id := range accountSubset {
			if idx, ok := s.byID[id]; ok && s.nodes[idx].live {
				ids = append(ids, id)
			}
		}
	} else {
		ids = make([]string, 0, len(s.byID))
		for id, idx := range s.byID {
			if s.nodes[idx].live {
				ids = append(ids, id)
			}
		}
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	adjacency := make([][]LabeledEdge, len(ids))
	for i, id := range ids {
		idx := s.byID[id]
		var edges []LabeledEdge
		for item := range s.nodes[idx].owned {
			for wanter := range s.wantedBy[item] {
				if wanter == id {
					continue
				}
				toIdx, ok := index[wanter]
				if !ok {
					continue // outside the requested subset
				}
				edges = append(edges, LabeledEdge{To: toIdx, Item: item})
			}
		}
		adjacency[i] = edges
	}

	return &Snapshot{
		Generation: s.generation,
		Index:      index,
		IDs:        ids,
		Adjacency:  adjacency,
	}
}

// ReachabilityClosure extends a dirty set with every account reachable
// from it and every account that can reach it, within the live graph.
// This is used so SCC recomputation on a dirty region sees the full
// strongly-connected context around the changed nodes, not just the
// nodes touched by the delta.
func (s *Store) ReachabilityClosure(seed []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[string]bool, len(seed))
	var queue []string
	for _, id := range seed {
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range s.neighborsLocked(cur) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
		for _, next := range s.incomingLocked(cur) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	out := make([]string, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	return out
}

func (s *Store) incomingLocked(account string) []string {
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
