package models

// DeltaKind identifies the shape of an applied delta; tenant.State's
// ApplyDelta dispatches on it.
type DeltaKind string

const (
	DeltaInventory DeltaKind = "inventory"
	DeltaWant      DeltaKind = "want"
	DeltaTransfer  DeltaKind = "transfer"
	DeltaRemove    DeltaKind = "removeAccount"
)

// InventoryDelta adds/removes items from an account's owned set.
type InventoryDelta struct {
	Account      string
	AddedItems   []ItemRef
	RemovedItems []string
}

// WantDelta adds/removes items from an account's wanted set.
type WantDelta struct {
	Account        string
	AddedItems     []string
	RemovedItems   []string
}

// TransferDelta reassigns ownership of a single item.
type TransferDelta struct {
	Item string
	From string
	To   string
}

// Delta is a tagged union over the three delta kinds plus account
// removal. Seq is neither set nor read by the engine; the sequence
// number a tenant assigns to an applied delta is returned in
// DeltaResult.Seq.
type Delta struct {
	Seq       uint64
	Kind      DeltaKind
	Inventory *InventoryDelta
	Want      *WantDelta
	Transfer  *TransferDelta
	Account   string // populated for DeltaRemove
}

// DeltaResult is the shape returned by submission operations (spec §6):
// accepted/rejected items plus any cycles newly surfaced as a result.
type DeltaResult struct {
	ItemsAccepted      int                `json:"itemsAccepted"`
	ItemsRejected      []RejectedItem     `json:"itemsRejected,omitempty"`
	NewCyclesDiscovered int               `json:"newCyclesDiscovered"`
	Cycles             []ScoredCycle      `json:"cycles,omitempty"`
	Seq                uint64             `json:"seq"`
}

// RejectedItem explains why a submitted item/action was not applied.
type RejectedItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}
