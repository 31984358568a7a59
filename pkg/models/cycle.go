package models

// CycleStep is one (account, outgoing-item) pair in a trade cycle: the
// account owns Item and is handing it to the next account in the cycle.
type CycleStep struct {
	Account string `json:"account"`
	Item    string `json:"item"`
}

// Cycle is an ordered sequence of steps; the last account's outgoing item
// satisfies the first account's want, closing the loop.
type Cycle struct {
	Steps []CycleStep `json:"steps"`
}

// Length returns the number of participants in the cycle.
func (c Cycle) Length() int {
	return len(c.Steps)
}

// CanonicalCycle is the rotation-normalized representation used for
// equality and deduplication (spec §4.5).
type CanonicalCycle struct {
	Steps []CycleStep `json:"steps"`
	Key   string      `json:"key"`
}

// ScoreBreakdown is the component sub-scores behind a cycle's overall
// score (spec §4.6).
type ScoreBreakdown struct {
	Efficiency   float64 `json:"efficiency"`
	Fairness     float64 `json:"fairness"`
	Completeness float64 `json:"completeness"`
}

// ScoredCycle is a canonical cycle plus its computed score.
type ScoredCycle struct {
	Canonical  CanonicalCycle `json:"canonical"`
	Score      float64        `json:"score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Length     int            `json:"length"`
}

// Accounts returns the participating account ids in cycle order.
func (c Cycle) Accounts() []string {
	out := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = s.Account
	}
	return out
}

// Items returns the labeled item ids in cycle order.
func (c Cycle) Items() []string {
	out := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = s.Item
	}
	return out
}
