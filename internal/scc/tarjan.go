// Package scc decomposes a graph snapshot into strongly connected
// components using an iterative Tarjan's algorithm, with timeout/partial
// result semantics and an optional parallel chunk-and-merge variant for
// large snapshots (spec §4.2).
package scc

import (
	"time"

	"github.com/rawblock/barter-engine/internal/graph"
)

// DefaultBatchSize is how many nodes Tarjan processes before checking the
// deadline, matching spec §4.2's tunable default.
const DefaultBatchSize = 2000

// Result is the decomposer's output: trivial (singleton, no self-loop)
// SCCs are filtered out per spec §4.2.
type Result struct {
	SCCs           [][]string
	TimedOut       bool
	ProcessedNodes int
}

// frame is one explicit work-stack entry for the iterative Tarjan walk,
// replacing the call stack a recursive implementation would use so
// snapshots with millions of nodes cannot overflow it (spec §4.2).
type frame struct {
	node      int
	edgeIndex int
}

type tarjanState struct {
	snap *graph.Snapshot

	index   []int
	low     []int
	onStack []bool
	visited []bool

	stack     []int // Tarjan's component stack
	callStack []frame

	nextIndex int
	sccs      [][]string

	batchSize      int
	deadline       time.Time
	hasDeadline    bool
	processedSince int
	processedTotal int
	timedOut       bool
}

// Decompose runs iterative Tarjan over snap, optionally bounded by a
// deadline. batchSize <= 0 uses DefaultBatchSize.
func Decompose(snap *graph.Snapshot, deadline time.Time, batchSize int) Result {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	n := len(snap.IDs)
	st := &tarjanState{
		snap:        snap,
		index:       make([]int, n),
		low:         make([]int, n),
		onStack:     make([]bool, n),
		visited:     make([]bool, n),
		batchSize:   batchSize,
		deadline:    deadline,
		hasDeadline: !deadline.IsZero(),
	}
	for i := range st.index {
		st.index[i] = -1
	}

	for start := 0; start < n; start++ {
		if st.visited[start] {
			continue
		}
		if st.timedOut {
			break
		}
		st.strongConnect(start)
		if st.timedOut {
			break
		}
	}

	return Result{
		SCCs:           st.sccs,
		TimedOut:       st.timedOut,
		ProcessedNodes: st.processedTotal,
	}
}

func (st *tarjanState) strongConnect(root int) {
	st.callStack = append(st.callStack, frame{node: root, edgeIndex: 0})
	st.pushNew(root)

	for len(st.callStack) > 0 {
		if st.checkDeadline() {
			return
		}

		top := &st.callStack[len(st.callStack)-1]
		v := top.node

		edges := st.snap.Adjacency[v]
		if top.edgeIndex < len(edges) {
			w := edges[top.edgeIndex].To
			top.edgeIndex++

			if !st.visited[w] {
				st.pushNew(w)
				st.callStack = append(st.callStack, frame{node: w, edgeIndex: 0})
				continue
			} else if st.onStack[w] {
				if st.index[w] < st.low[v] {
					st.low[v] = st.index[w]
				}
			}
			continue
		}

		// all edges from v explored: pop the call frame
		st.callStack = st.callStack[:len(st.callStack)-1]
		if len(st.callStack) > 0 {
			parent := &st.callStack[len(st.callStack)-1]
			if st.low[v] < st.low[parent.node] {
				st.low[parent.node] = st.low[v]
			}
		}

		if st.low[v] == st.index[v] {
			var component []int
			for {
				w := st.stack[len(st.stack)-1]
				st.stack = st.stack[:len(st.stack)-1]
				st.onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			st.emit(component)
		}
	}
}

func (st *tarjanState) pushNew(v int) {
	st.index[v] = st.nextIndex
	st.low[v] = st.nextIndex
	st.nextIndex++
	st.visited[v] = true
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	st.processedTotal++
	st.processedSince++
}

// emit records a found component, filtering trivial ones: a single node
// with no self-loop is not an SCC worth reporting (spec §4.2).
func (st *tarjanState) emit(component []int) {
	if len(component) == 1 {
		v := component[0]
		hasSelfLoop := false
		for _, e := range st.snap.Adjacency[v] {
			if e.To == v {
				hasSelfLoop = true
				break
			}
		}
		if !hasSelfLoop {
			return
		}
	}
	ids := make([]string, len(component))
	for i, idx := range component {
		ids[i] = st.snap.IDs[idx]
	}
	st.sccs = append(st.sccs, ids)
}

// checkDeadline batches progress accounting per spec §4.2/§5: the
// deadline is only checked every batchSize processed nodes, not on every
// single step.
func (st *tarjanState) checkDeadline() bool {
	if !st.hasDeadline {
		return false
	}
	if st.processedSince < st.batchSize {
		return false
	}
	st.processedSince = 0
	if time.Now().After(st.deadline) {
		st.timedOut = true
		return true
	}
	return false
}
