package cycles

import (
	"testing"
	"time"

	"github.com/rawblock/barter-engine/internal/graph"
	"github.com/rawblock/barter-engine/pkg/models"
)

func buildSnapshot(ids []string, edges []graph.Edge) *graph.Snapshot {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adjacency := make([][]graph.LabeledEdge, len(ids))
	for _, e := range edges {
		fi, ti := index[e.From], index[e.To]
		adjacency[fi] = append(adjacency[fi], graph.LabeledEdge{To: ti, Item: e.Item})
	}
	return &graph.Snapshot{Index: index, IDs: ids, Adjacency: adjacency}
}

func TestEnumerate_BilateralSwap(t *testing.T) {
	snap := buildSnapshot([]string{"A", "B"}, []graph.Edge{
		{From: "A", To: "B", Item: "nft_1"},
		{From: "B", To: "A", Item: "nft_2"},
	})

	var found []models.Cycle
	result := Enumerate(snap, 10, 4, time.Time{}, nil, func(c models.Cycle) bool {
		found = append(found, c)
		return true
	})

	if result.Truncated {
		t.Fatalf("expected no truncation")
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one cycle, got %d: %+v", len(found), found)
	}
	if found[0].Length() != 2 {
		t.Errorf("expected length-2 cycle, got %d", found[0].Length())
	}
}

func TestEnumerate_TriangularCycle(t *testing.T) {
	// Spec scenario 2: A owns n1 wants n3; B owns n2 wants n1; C owns n3 wants n2.
	// Edge semantics: edge X->Y labeled i means X owns i and Y wants i.
	snap := buildSnapshot([]string{"A", "B", "C"}, []graph.Edge{
		{From: "A", To: "B", Item: "n1"}, // A owns n1, B wants n1
		{From: "B", To: "C", Item: "n2"}, // B owns n2, C wants n2
		{From: "C", To: "A", Item: "n3"}, // C owns n3, A wants n3
	})

	var found []models.Cycle
	Enumerate(snap, 10, 4, time.Time{}, nil, func(c models.Cycle) bool {
		found = append(found, c)
		return true
	})

	if len(found) != 1 || found[0].Length() != 3 {
		t.Fatalf("expected exactly one length-3 cycle, got %+v", found)
	}
}

func TestEnumerate_NoCycle(t *testing.T) {
	snap := buildSnapshot([]string{"A", "B", "C"}, []graph.Edge{
		{From: "A", To: "B", Item: "n1"},
		{From: "B", To: "C", Item: "n2"},
	})

	var found []models.Cycle
	Enumerate(snap, 10, 4, time.Time{}, nil, func(c models.Cycle) bool {
		found = append(found, c)
		return true
	})
	if len(found) != 0 {
		t.Fatalf("expected zero cycles, got %d", len(found))
	}
}

func TestEnumerate_MaxDepthPrunesLongerCycles(t *testing.T) {
	// 5-node ring; cap depth at 4 should prune the 5-cycle entirely.
	ids := []string{"A", "B", "C", "D", "E"}
	edges := []graph.Edge{
		{From: "A", To: "B", Item: "i1"},
		{From: "B", To: "C", Item: "i2"},
		{From: "C", To: "D", Item: "i3"},
		{From: "D", To: "E", Item: "i4"},
		{From: "E", To: "A", Item: "i5"},
	}
	snap := buildSnapshot(ids, edges)

	var found []models.Cycle
	Enumerate(snap, 4, 4, time.Time{}, nil, func(c models.Cycle) bool {
		found = append(found, c)
		return true
	})
	if len(found) != 0 {
		t.Fatalf("expected the length-5 cycle to be pruned at maxDepth=4, got %+v", found)
	}
}

func TestEnumerate_LabelFanoutCapAndDistinctness(t *testing.T) {
	// A->B has two parallel labeled edges; B->A has one. Exactly 2
	// distinct-item cycles should be emitted (one per A->B label).
	snap := buildSnapshot([]string{"A", "B"}, []graph.Edge{
		{From: "A", To: "B", Item: "n1"},
		{From: "A", To: "B", Item: "n2"},
		{From: "B", To: "A", Item: "n3"},
	})

	var found []models.Cycle
	Enumerate(snap, 10, 4, time.Time{}, nil, func(c models.Cycle) bool {
		found = append(found, c)
		return true
	})
	if len(found) != 2 {
		t.Fatalf("expected 2 cycles (one per parallel label), got %d: %+v", len(found), found)
	}
	for _, c := range found {
		items := c.Items()
		if items[0] == items[1] {
			t.Errorf("expected distinct items within cycle, got %v", items)
		}
	}
}

func TestEnumerate_EarlyStopViaEmitFalse(t *testing.T) {
	ids := []string{"A", "B", "C", "D"}
	edges := []graph.Edge{
		{From: "A", To: "B", Item: "i1"}, {From: "B", To: "A", Item: "i2"},
		{From: "C", To: "D", Item: "i3"}, {From: "D", To: "C", Item: "i4"},
	}
	snap := buildSnapshot(ids, edges)

	count := 0
	Enumerate(snap, 10, 4, time.Time{}, nil, func(c models.Cycle) bool {
		count++
		return false // stop after first
	})
	if count != 1 {
		t.Fatalf("expected enumeration to stop after first emitted cycle, got %d", count)
	}
}
