package models

import "time"

// TenantConfig holds the per-tenant knobs from spec §6.
type TenantConfig struct {
	MaxDepth int `json:"maxDepth"`

	// MinEfficiency is the spec's wire name for this knob, but it gates
	// a cycle's composite weighted score (scorer.Score), not its raw
	// efficiency (1/k) sub-score — see scorer.MeetsThreshold.
	MinEfficiency                float64       `json:"minEfficiency"`
	MaxCyclesPerQuery            int           `json:"maxCyclesPerQuery"`
	DiscoveryTimeout             time.Duration `json:"discoveryTimeoutMs"`
	CommunityPartitionThreshold  int           `json:"communityPartitionThreshold"`
	ParallelCommunityWorkers     int           `json:"parallelCommunityWorkers"`
	StrictMode                   bool          `json:"strictMode"`

	// MaxLabelFanout bounds how many parallel-edge label combinations the
	// cycle enumerator emits for a single account pair (spec §4.4, §9 open
	// question — exposed rather than hardcoded).
	MaxLabelFanout int `json:"maxLabelFanout"`

	// EnableParallelSCC gates the chunk-and-merge Tarjan variant. Default
	// off; see DESIGN.md Open Question 1.
	EnableParallelSCC bool `json:"enableParallelSccDecomposition"`

	// SCCParallelThreshold is the node-count above which the parallel
	// variant is considered, when enabled.
	SCCParallelThreshold int `json:"sccParallelThreshold"`

	// CacheTTL is carried in the configuration only: nothing in the
	// engine reads it, queries never trigger a recomputation, and cached
	// cycles leave the cache only through delta invalidation or capacity
	// eviction.
	CacheTTL time.Duration `json:"cacheTtlMs"`

	// CycleCacheCapacity bounds the per-tenant cycle cache (spec §5).
	CycleCacheCapacity int `json:"cycleCacheCapacity"`
}

// DefaultTenantConfig returns the documented spec defaults.
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		MaxDepth:                    10,
		MinEfficiency:               0.3,
		MaxCyclesPerQuery:           100,
		DiscoveryTimeout:            30 * time.Second,
		CommunityPartitionThreshold: 500,
		ParallelCommunityWorkers:    8,
		StrictMode:                  false,
		MaxLabelFanout:              4,
		EnableParallelSCC:           false,
		SCCParallelThreshold:        1000,
		CacheTTL:                    500 * time.Millisecond,
		CycleCacheCapacity:          10000,
	}
}

// Validate enforces the documented bounds, returning an InvalidArgument
// error for the first violation found.
func (c TenantConfig) Validate() error {
	if c.MaxDepth < 2 || c.MaxDepth > 15 {
		return NewInvalidArgument("maxDepth must be in [2,15]")
	}
	if c.MinEfficiency < 0 || c.MinEfficiency > 1 {
		return NewInvalidArgument("minEfficiency must be in [0,1]")
	}
	if c.MaxCyclesPerQuery < 0 {
		return NewInvalidArgument("maxCyclesPerQuery must be non-negative")
	}
	if c.MaxLabelFanout < 1 {
		return NewInvalidArgument("maxLabelFanout must be >= 1")
	}
	return nil
}

// Tenant is the isolation boundary: an id plus its configuration. The
// graph, caches, and scheduler state for a tenant live in internal/tenant,
// not here — this is the portable configuration record.
type Tenant struct {
	ID     string       `json:"id"`
	Config TenantConfig `json:"config"`
}
