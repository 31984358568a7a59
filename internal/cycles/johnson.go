// Package cycles enumerates elementary simple cycles of a directed graph
// using Johnson's algorithm, bounded by a maximum depth, with edge labels
// threaded through so every emitted cycle carries the specific item for
// each transfer (spec §4.4).
package cycles

import (
	"time"

	"github.com/rawblock/barter-engine/internal/graph"
	"github.com/rawblock/barter-engine/pkg/models"
)

// CancelCheckInterval is how many internal stack operations pass between
// cooperative-cancellation and deadline checks (spec §4.4, §5).
const CancelCheckInterval = 1024

// Result summarizes one enumeration run.
type Result struct {
	Truncated bool
	Reason    string // "deadline" | "cancelled" | ""
	Found     int
}

// Emit is called once per discovered cycle. Returning false stops
// enumeration early (the lazy-stream / early-stop contract from spec
// §4.4: "the consumer may stop early").
type Emit func(models.Cycle) bool

type enumerator struct {
	snap           *graph.Snapshot
	maxDepth       int
	maxLabelFanout int
	deadline       time.Time
	hasDeadline    bool
	cancel         <-chan struct{}
	emit           Emit

	blocked    []bool
	blockedMap []map[int]bool
	stack      []int
	leastIndex int

	ops       int
	truncated bool
	reason    string
	stop      bool
	found     int

	// neighbors[v] is the set of distinct successors of v within the
	// currently active subgraph (index >= leastIndex), precomputed once
	// per root so label expansion doesn't need to rescan.
	neighbors    [][]int
	labelsByPair map[[2]int][]string
}

// Enumerate runs Johnson's algorithm over snap. maxLabelFanout caps how
// many parallel-edge item labels are considered per account pair (spec
// §4.4, §9 open question — default 4, exposed by callers via
// models.TenantConfig.MaxLabelFanout).
func Enumerate(snap *graph.Snapshot, maxDepth, maxLabelFanout int, deadline time.Time, cancel <-chan struct{}, emit Emit) Result {
	n := len(snap.IDs)
	e := &enumerator{
		snap:           snap,
		maxDepth:       maxDepth,
		maxLabelFanout: maxLabelFanout,
		deadline:       deadline,
		hasDeadline:    !deadline.IsZero(),
		cancel:         cancel,
		emit:           emit,
	}

	for s := 0; s < n && !e.stop; s++ {
		e.leastIndex = s
		e.buildSubgraphFrom(s)

		e.blocked = make([]bool, n)
		e.blockedMap = make([]map[int]bool, n)
		for i := range e.blockedMap {
			e.blockedMap[i] = make(map[int]bool)
		}
		e.stack = e.stack[:0]

		e.circuit(s, s)
		if e.stop {
			break
		}
	}

	return Result{Truncated: e.truncated, Reason: e.reason, Found: e.found}
}

// buildSubgraphFrom restricts consideration to nodes with index >= s,
// the standard Johnson's-algorithm device for guaranteeing each
// elementary cycle is discovered exactly once (rooted at its smallest
// node), and caps parallel-edge labels per pair per spec §4.4.
func (e *enumerator) buildSubgraphFrom(s int) {
	n := len(e.snap.IDs)
	e.neighbors = make([][]int, n)
	e.labelsByPair = make(map[[2]int][]string)

	for v := s; v < n; v++ {
		seen := make(map[int]bool)
		for _, edge := range e.snap.Adjacency[v] {
			if edge.To < s {
				continue
			}
			key := [2]int{v, edge.To}
			labels := e.labelsByPair[key]
			if len(labels) < e.maxLabelFanout {
				e.labelsByPair[key] = append(labels, edge.Item)
			}
			if !seen[edge.To] {
				seen[edge.To] = true
				e.neighbors[v] = append(e.neighbors[v], edge.To)
			}
		}
	}
}

func (e *enumerator) checkCancel() bool {
	e.ops++
	if e.ops < CancelCheckInterval {
		return false
	}
	e.ops = 0

	if e.cancel != nil {
		select {
		case <-e.cancel:
			e.truncated = true
			e.reason = "cancelled"
			e.stop = true
			return true
		default:
		}
	}
	if e.hasDeadline && time.Now().After(e.deadline) {
		e.truncated = true
		e.reason = "deadline"
		e.stop = true
		return true
	}
	return false
}

// circuit is Johnson's recursive cycle search from the current vertex v
// back to root s, pruning once maxDepth is reached (spec §4.4: "the path
// is pruned without recursion").
func (e *enumerator) circuit(v, s int) bool {
	if e.stop || e.checkCancel() {
		return false
	}

	found := false
	e.stack = append(e.stack, v)
	e.blocked[v] = true

	if len(e.stack) > e.maxDepth {
		e.stack = e.stack[:len(e.stack)-1]
		e.unblock(v)
		return false
	}

	for _, w := range e.neighbors[v] {
		if e.stop {
			break
		}
		if w == s {
			e.emitCycle(append([]int(nil), e.stack...))
			found = true
			if e.stop {
				break
			}
		} else if w > s && !e.blocked[w] {
			if e.circuit(w, s) {
				found = true
			}
		}
	}

	if found {
		e.unblock(v)
	} else {
		for _, w := range e.neighbors[v] {
			if e.blockedMap[w] == nil {
				e.blockedMap[w] = make(map[int]bool)
			}
			e.blockedMap[w][v] = true
		}
	}

	e.stack = e.stack[:len(e.stack)-1]
	return found
}

func (e *enumerator) unblock(v int) {
	e.blocked[v] = false
	for w := range e.blockedMap[v] {
		delete(e.blockedMap[v], w)
		if e.blocked[w] {
			e.unblock(w)
		}
	}
}

// emitCycle expands the node-path in pathIdx into one models.Cycle per
// label combination across the capped parallel edges, skipping any
// combination that would repeat an item (cycles must have all-distinct
// item labels — spec §3 invariant 4).
func (e *enumerator) emitCycle(pathIdx []int) {
	k := len(pathIdx)
	labelSets := make([][]string, k)
	for i := 0; i < k; i++ {
		from := pathIdx[i]
		to := pathIdx[(i+1)%k]
		labelSets[i] = e.labelsByPair[[2]int{from, to}]
		if len(labelSets[i]) == 0 {
			return // shouldn't happen: edge came from neighbors, but guard anyway
		}
	}

	combo := make([]string, k)
	usedItems := make(map[string]bool, k)
	e.expandCombinations(pathIdx, labelSets, combo, usedItems, 0)
}

func (e *enumerator) expandCombinations(pathIdx []int, labelSets [][]string, combo []string, used map[string]bool, pos int) {
	if e.stop {
		return
	}
	if pos == len(labelSets) {
		steps := make([]models.CycleStep, len(pathIdx))
		for i, idx := range pathIdx {
			steps[i] = models.CycleStep{Account: e.snap.IDs[idx], Item: combo[i]}
		}
		e.found++
		if !e.emit(models.Cycle{Steps: steps}) {
			e.stop = true
		}
		return
	}
	for _, item := range labelSets[pos] {
		if used[item] {
			continue
		}
		used[item] = true
		combo[pos] = item
		e.expandCombinations(pathIdx, labelSets, combo, used, pos+1)
		delete(used, item)
		if e.stop {
			return
		}
	}
}
