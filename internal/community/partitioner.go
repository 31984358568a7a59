package community

// ShouldPartition decides whether an SCC of the given size should be
// split into communities before cycle enumeration (spec §4.3). strictMode
// disables partitioning entirely, trading throughput for exhaustiveness.
func ShouldPartition(sccSize, threshold int, strictMode bool) bool {
	if strictMode {
		return false
	}
	return sccSize > threshold
}
