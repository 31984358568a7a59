package models

// Item is a uniquely identifiable tradeable asset. Items are immutable
// once created; ownership transfers are tracked by the graph store, not
// by mutating the Item itself.
type Item struct {
	ID                string  `json:"id"`
	DisplayName       string  `json:"displayName,omitempty"`
	CollectionRef     string  `json:"collectionRef,omitempty"`
	Valuation         float64 `json:"valuation,omitempty"` // opaque, abstract-currency number
	HasValuation      bool    `json:"hasValuation,omitempty"`
}

// ItemRef is the wire-level shape submitted with an inventory delta.
type ItemRef struct {
	ID          string   `json:"id"`
	Metadata    *ItemMeta `json:"metadata,omitempty"`
	Valuation   *float64  `json:"valuation,omitempty"`
}

// ItemMeta carries optional display metadata for a submitted item.
type ItemMeta struct {
	DisplayName   string `json:"displayName,omitempty"`
	CollectionRef string `json:"collectionRef,omitempty"`
}
