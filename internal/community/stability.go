package community

import "github.com/rawblock/barter-engine/internal/metrics"

// Stability reports how much a fresh partitioning pass diverged from a
// previous one over the same node ordering, via the Adjusted Rand Index
// (agreement, higher is more stable) and Variation of Information
// (information distance, lower is more stable). Not required by spec
// §4.3, but lets a tenant's recompute loop log partition churn — if
// CommunityPartitionThreshold is set too low, every delta reshuffles
// communities and needlessly invalidates cached cycles across
// unrelated accounts. Grounded on internal/metrics/clustering.go's ARI/VI
// pair, which the teacher built to compare production vs ground-truth
// entity clusters; here it compares two of our own partition snapshots
// instead of clusters against ground truth.
func Stability(prevLabels, currLabels []int) (ari, vi float64) {
	return metrics.AdjustedRandIndex(currLabels, prevLabels), metrics.VariationOfInformation(currLabels, prevLabels)
}

// LabelPartition assigns each node in order a small integer label
// identifying which group in groups it belongs to, for use with
// Stability. Nodes absent from groups (shouldn't happen for a
// partition produced by Partition) get label -1.
func LabelPartition(order []string, groups [][]string) []int {
	membership := make(map[string]int, len(order))
	for gi, g := range groups {
		for _, id := range g {
			membership[id] = gi
		}
	}
	labels := make([]int, len(order))
	for i, id := range order {
		if l, ok := membership[id]; ok {
			labels[i] = l
		} else {
			labels[i] = -1
		}
	}
	return labels
}
