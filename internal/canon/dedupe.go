package canon

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomCapacityBits and BloomHashCount match spec §4.5's stated
// parameters (capacity 10^6, k=20 hashes).
const (
	BloomCapacityBits = 1_000_000
	BloomHashCount    = 20
)

// Deduper rejects cycles already seen in this discovery run. It is
// per-discovery-run, not shared across jobs (spec §5): a Bloom filter
// gives a fast probabilistic negative, backed by an exact set that
// absorbs the Bloom's false positives — false negatives are impossible,
// so nothing genuinely new is ever rejected.
type Deduper struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	exact  map[string]bool
}

// NewDeduper returns an empty per-run deduper.
func NewDeduper() *Deduper {
	return &Deduper{
		filter: bloom.New(BloomCapacityBits, BloomHashCount),
		exact:  make(map[string]bool),
	}
}

// SeenOrAdd reports whether key was already seen; if not, it is recorded
// and false is returned (the cycle should be emitted).
func (d *Deduper) SeenOrAdd(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := []byte(key)
	if !d.filter.Test(b) {
		d.filter.Add(b)
		d.exact[key] = true
		return false
	}

	// Bloom hit: could be a true positive or a false positive: the exact
	// set resolves it definitively.
	if d.exact[key] {
		return true
	}
	d.exact[key] = true
	return false
}

// Size returns the number of distinct keys recorded so far.
func (d *Deduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.exact)
}
