// Package community partitions an oversized SCC into loosely coupled
// subgraphs so cycle enumeration can proceed per community in parallel
// (spec §4.3). The wants graph is directed, but community detection
// works over the symmetrized (undirected, weighted-by-edge-count) view,
// same as the teacher's clustering module treats evidence edges as
// undirected linkage signals for entity merging.
package community

import (
	"github.com/rawblock/barter-engine/internal/graph"
)

// Epsilon is the minimum modularity gain that justifies another Louvain
// pass (spec §4.3).
const Epsilon = 1e-4

// Partition splits snap's node set into communities. If the best
// modularity improvement found falls below Epsilon on the very first
// pass, the whole node set is returned as a single community (the
// documented fallback — spec §4.3).
func Partition(snap *graph.Snapshot) [][]string {
	n := len(snap.IDs)
	if n == 0 {
		return nil
	}

	weight, total := buildWeightedGraph(snap)
	if total == 0 {
		return [][]string{append([]string(nil), snap.IDs...)}
	}

	uf := newCommunityUnionFind(n)
	degree := make([]float64, n)
	for i := range degree {
		for _, w := range weight[i] {
			degree[i] += w
		}
	}

	// total counts every undirected edge from both endpoints (2m);
	// modularityGain takes the undirected edge weight m. degree[r] holds
	// the summed degree of the community rooted at r.
	m := total / 2

	improvedAny := false
	for pass := 0; pass < n; pass++ {
		improvedThisPass := false
		for i := 0; i < n; i++ {
			bestGain := 0.0
			bestTarget := -1
			ci := uf.find(i)
			for j, w := range weight[i] {
				if w <= 0 {
					continue
				}
				cj := uf.find(j)
				if cj == ci {
					continue
				}
				gain := modularityGain(w, degree[ci], degree[cj], m)
				if gain > bestGain {
					bestGain = gain
					bestTarget = cj
				}
			}
			if bestTarget != -1 && bestGain > Epsilon {
				merged := degree[ci] + degree[bestTarget]
				uf.union(ci, bestTarget)
				degree[uf.find(ci)] = merged
				improvedThisPass = true
				improvedAny = true
			}
		}
		if !improvedThisPass {
			break
		}
	}

	if !improvedAny {
		return [][]string{append([]string(nil), snap.IDs...)}
	}

	groups := make(map[int][]string)
	for i, id := range snap.IDs {
		root := uf.find(i)
		groups[root] = append(groups[root], id)
	}

	out := make([][]string, 0, len(groups))
	for _, members := range groups {
		out = append(out, members)
	}
	return out
}

// buildWeightedGraph symmetrizes the snapshot's adjacency into an
// undirected weight matrix (edge count per unordered pair) and returns
// the total edge weight (sum of all entries, each undirected edge
// counted from both endpoints as Louvain modularity expects).
func buildWeightedGraph(snap *graph.Snapshot) ([]map[int]float64, float64) {
	n := len(snap.IDs)
	weight := make([]map[int]float64, n)
	for i := range weight {
		weight[i] = make(map[int]float64)
	}
	total := 0.0
	for from, edges := range snap.Adjacency {
		for _, e := range edges {
			to := e.To
			if to == from {
				continue
			}
			weight[from][to]++
			weight[to][from]++
			total += 2
		}
	}
	return weight, total
}

// modularityGain is the standard Louvain local-move gain for merging a
// node currently in community ci (with weighted degree degI) into
// community cj (weighted degree degJ), given the edge weight w between
// them and the total edge weight m.
func modularityGain(w, degI, degJ, m float64) float64 {
	if m == 0 {
		return 0
	}
	return w/m - (degI*degJ)/(2*m*m)
}

type communityUnionFind struct {
	parent []int
	rank   []int
}

func newCommunityUnionFind(n int) *communityUnionFind {
	uf := &communityUnionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *communityUnionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *communityUnionFind) union(a, b int) {
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
