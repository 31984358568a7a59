package scc

import (
	"testing"
	"time"

	"github.com/rawblock/barter-engine/internal/graph"
)

func buildSnapshot(ids []string, edges map[string][]string) *graph.Snapshot {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adjacency := make([][]graph.LabeledEdge, len(ids))
	for from, tos := range edges {
		fi := index[from]
		for _, to := range tos {
			adjacency[fi] = append(adjacency[fi], graph.LabeledEdge{To: index[to], Item: from + "->" + to})
		}
	}
	return &graph.Snapshot{Index: index, IDs: ids, Adjacency: adjacency}
}

func TestDecompose_TriangleIsOneSCC(t *testing.T) {
	snap := buildSnapshot([]string{"A", "B", "C"}, map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {"A"},
	})

	result := Decompose(snap, time.Time{}, 0)
	if len(result.SCCs) != 1 || len(result.SCCs[0]) != 3 {
		t.Fatalf("expected one SCC of size 3, got %v", result.SCCs)
	}
}

func TestDecompose_NoCycleYieldsNoSCCs(t *testing.T) {
	snap := buildSnapshot([]string{"A", "B", "C"}, map[string][]string{
		"A": {"B"},
		"B": {"C"},
	})

	result := Decompose(snap, time.Time{}, 0)
	if len(result.SCCs) != 0 {
		t.Fatalf("expected no SCCs in a DAG, got %v", result.SCCs)
	}
}

func TestDecompose_TwoDisjointCycles(t *testing.T) {
	snap := buildSnapshot([]string{"A", "B", "C", "D"}, map[string][]string{
		"A": {"B"},
		"B": {"A"},
		"C": {"D"},
		"D": {"C"},
	})

	result := Decompose(snap, time.Time{}, 0)
	if len(result.SCCs) != 2 {
		t.Fatalf("expected two SCCs, got %d: %v", len(result.SCCs), result.SCCs)
	}
}

func TestDecompose_DeadlineExpiryMarksTimedOut(t *testing.T) {
	ids := make([]string, 5000)
	edges := make(map[string][]string)
	for i := range ids {
		ids[i] = string(rune('a' + (i % 26)))
		ids[i] += itoa(i)
	}
	for i := 0; i < len(ids); i++ {
		edges[ids[i]] = []string{ids[(i+1)%len(ids)]}
	}
	snap := buildSnapshot(ids, edges)

	past := time.Now().Add(-time.Hour)
	result := Decompose(snap, past, 10)
	if !result.TimedOut {
		t.Errorf("expected TimedOut=true with an already-expired deadline")
	}
}

func TestDecomposeParallel_MatchesSequentialOnRing(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E", "F"}
	edges := map[string][]string{
		"A": {"B"}, "B": {"C"}, "C": {"D"}, "D": {"E"}, "E": {"F"}, "F": {"A"},
	}
	snap := buildSnapshot(ids, edges)

	seq := Decompose(snap, time.Time{}, 0)
	par := DecomposeParallel(snap, time.Time{}, 2)

	if len(seq.SCCs) != 1 || len(seq.SCCs[0]) != 6 {
		t.Fatalf("sequential result unexpected: %v", seq.SCCs)
	}
	if len(par.SCCs) != 1 || len(par.SCCs[0]) != 6 {
		t.Fatalf("parallel result unexpected: %v", par.SCCs)
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{byte('0' + i%10)}, buf...)
		i /= 10
	}
	return string(buf)
}
