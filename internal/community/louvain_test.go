package community

import (
	"testing"

	"github.com/rawblock/barter-engine/internal/graph"
)

func buildSnapshot(ids []string, pairs [][2]string) *graph.Snapshot {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adjacency := make([][]graph.LabeledEdge, len(ids))
	for _, p := range pairs {
		fi, ti := index[p[0]], index[p[1]]
		adjacency[fi] = append(adjacency[fi], graph.LabeledEdge{To: ti, Item: "x"})
	}
	return &graph.Snapshot{Index: index, IDs: ids, Adjacency: adjacency}
}

func TestPartition_TwoDenseCliquesSplitApart(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E", "F"}
	pairs := [][2]string{
		{"A", "B"}, {"B", "C"}, {"C", "A"}, // tight triangle 1
		{"D", "E"}, {"E", "F"}, {"F", "D"}, // tight triangle 2
		{"C", "D"}, // single weak bridge
	}
	snap := buildSnapshot(ids, pairs)

	parts := Partition(snap)
	if len(parts) < 2 {
		t.Fatalf("expected at least 2 communities for two cliques joined by a single bridge, got %d: %v", len(parts), parts)
	}
}

func TestPartition_EmptyGraphFallsBackToWhole(t *testing.T) {
	snap := buildSnapshot([]string{"A", "B"}, nil)
	parts := Partition(snap)
	if len(parts) != 1 || len(parts[0]) != 2 {
		t.Fatalf("expected single whole-graph fallback community, got %v", parts)
	}
}

func TestShouldPartition_StrictModeDisables(t *testing.T) {
	if community := ShouldPartition(1000, 500, true); community {
		t.Errorf("strictMode should disable partitioning regardless of size")
	}
	if !ShouldPartition(1000, 500, false) {
		t.Errorf("expected partitioning above threshold")
	}
	if ShouldPartition(100, 500, false) {
		t.Errorf("expected no partitioning below threshold")
	}
}
