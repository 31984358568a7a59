package scc

import (
	"sync"
	"time"

	"github.com/rawblock/barter-engine/internal/graph"
)

// unionFind is a weighted union-find with path compression, grounded
// directly on the address-clustering engine's Find/Union shape — here
// generalized from address strings to dense snapshot indices so it can
// merge per-chunk SCC identifiers instead of addresses.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// DecomposeParallel partitions snap's nodes into K contiguous chunks,
// runs Tarjan on each induced subgraph concurrently, then merges
// per-chunk SCCs whose nodes are connected by a cross-chunk edge via a
// union-find pass (spec §4.2).
//
// This is the Open Question 1 variant: per DESIGN.md it is disabled by
// default and only used when a tenant's config explicitly opts in, since
// the spec's own text flags the merge's reachability-closure proof as
// unfinished. It is implemented and tested here as the documented
// approach (a), not as a guess: the union step joins the chunk-local ids
// at both ends of every edge, so each union-find group is a weakly
// connected set of nodes and may hold more than one full-graph SCC. Every
// full-graph SCC lies inside one such group, and a final sequential
// Tarjan run on each group's induced subgraph splits it into its exact
// SCCs, so the result matches Decompose on the whole snapshot.
func DecomposeParallel(snap *graph.Snapshot, deadline time.Time, workers int) Result {
	n := len(snap.IDs)
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers
	if chunkSize < 1 {
		chunkSize = 1
	}

	type chunkResult struct {
		sccs     [][]int // by dense snapshot index
		timedOut bool
		nodes    int
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	results := make([]chunkResult, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		lo := c * chunkSize
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(c, lo, hi int) {
			defer wg.Done()
			results[c] = runChunk(snap, lo, hi, deadline)
		}(c, lo, hi)
	}
	wg.Wait()

	// Assign each node to its chunk-local SCC (or to a singleton id of
	// its own if it wasn't part of a reported component).
	sccOf := make([]int, n)
	for i := range sccOf {
		sccOf[i] = -1
	}
	nextID := 0
	timedOut := false
	processed := 0
	for _, r := range results {
		if r.timedOut {
			timedOut = true
		}
		processed += r.nodes
		for _, comp := range r.sccs {
			id := nextID
			nextID++
			for _, idx := range comp {
				sccOf[idx] = id
			}
		}
	}
	for i := range sccOf {
		if sccOf[i] == -1 {
			sccOf[i] = nextID
			nextID++
		}
	}

	uf := newUnionFind(nextID)
	for from := 0; from < n; from++ {
		for _, e := range snap.Adjacency[from] {
			to := e.To
			// A cross-chunk (or cross-component) edge can only close a
			// cycle spanning two chunk-local SCCs if there is also a path
			// back; we union conservatively on every edge whose endpoints
			// carry different ids (singletons included) and let the exact
			// grouping fall out of connectivity. Nodes unioned this way
			// that don't actually cycle are split apart again by the
			// final re-validation pass below.
			if sccOf[from] != sccOf[to] {
				uf.union(sccOf[from], sccOf[to])
			}
		}
	}

	groups := make(map[int][]int) // union-find root -> node indices
	for i := 0; i < n; i++ {
		root := uf.find(sccOf[i])
		groups[root] = append(groups[root], i)
	}

	// Re-validate: a union-find group is only a genuine SCC if every pair
	// of its nodes is mutually reachable *within the group*. Run Tarjan
	// once more restricted to each candidate group to get the precise
	// partition and avoid over-merging chunks that share an edge but no
	// cycle.
	var final [][]string
	for _, members := range groups {
		if len(members) == 1 {
			v := members[0]
			hasSelfLoop := false
			for _, e := range snap.Adjacency[v] {
				if e.To == v {
					hasSelfLoop = true
					break
				}
			}
			if hasSelfLoop {
				final = append(final, []string{snap.IDs[v]})
			}
			continue
		}
		sub := inducedSnapshot(snap, members)
		subResult := Decompose(sub, time.Time{}, 0)
		final = append(final, subResult.SCCs...)
	}

	return Result{SCCs: final, TimedOut: timedOut, ProcessedNodes: processed}
}

func runChunk(snap *graph.Snapshot, lo, hi int, deadline time.Time) struct {
	sccs     [][]int
	timedOut bool
	nodes    int
} {
	members := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		members = append(members, i)
	}
	sub := inducedSnapshot(snap, members)
	r := Decompose(sub, deadline, 0)

	sccsByIndex := make([][]int, len(r.SCCs))
	for i, comp := range r.SCCs {
		ids := make([]int, len(comp))
		for j, id := range comp {
			ids[j] = members[sub.Index[id]]
		}
		sccsByIndex[i] = ids
	}

	return struct {
		sccs     [][]int
		timedOut bool
		nodes    int
	}{sccs: sccsByIndex, timedOut: r.TimedOut, nodes: r.ProcessedNodes}
}

// inducedSnapshot builds the subgraph induced by members, keeping only
// edges whose endpoints are both in members.
func inducedSnapshot(snap *graph.Snapshot, members []int) *graph.Snapshot {
	index := make(map[string]int, len(members))
	ids := make([]string, len(members))
	globalToLocal := make(map[int]int, len(members))
	for i, g := range members {
		ids[i] = snap.IDs[g]
		index[ids[i]] = i
		globalToLocal[g] = i
	}

	adjacency := make([][]graph.LabeledEdge, len(members))
	for i, g := range members {
		for _, e := range snap.Adjacency[g] {
			if local, ok := globalToLocal[e.To]; ok {
				adjacency[i] = append(adjacency[i], graph.LabeledEdge{To: local, Item: e.Item})
			}
		}
	}

	return &graph.Snapshot{
		Generation: snap.Generation,
		Index:      index,
		IDs:        ids,
		Adjacency:  adjacency,
	}
}
