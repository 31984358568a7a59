// Package facade is the thin adapter between the tenant state manager
// and the external operations of spec §6. It contains no algorithmic
// logic (spec §4.9) — every method here is a translation from a
// request shape to a tenant.State call and back.
package facade

import (
	"context"

	"github.com/rawblock/barter-engine/internal/engine"
	"github.com/rawblock/barter-engine/internal/tenant"
	"github.com/rawblock/barter-engine/pkg/models"
)

// Facade wraps an *engine.Engine with the exact operation set spec §6
// names. Transport layers (internal/httpapi, or any future adapter)
// call through here instead of touching tenant.State directly.
type Facade struct {
	Engine *engine.Engine
}

// New returns a Facade over the given engine.
func New(e *engine.Engine) *Facade {
	return &Facade{Engine: e}
}

func (f *Facade) state(ctx context.Context, tenantID string) *tenant.State {
	return f.Engine.LoadTenant(ctx, tenantID)
}

// SubmitInventory implements `POST inventory` (spec §6).
func (f *Facade) SubmitInventory(ctx context.Context, tenantID, accountID string, items []models.ItemRef) (models.DeltaResult, error) {
	st := f.state(ctx, tenantID)
	return st.ApplyDelta(models.Delta{
		Kind:      models.DeltaInventory,
		Inventory: &models.InventoryDelta{Account: accountID, AddedItems: items},
	})
}

// RemoveInventoryItems implements `DELETE inventory-item` (spec §6).
func (f *Facade) RemoveInventoryItems(ctx context.Context, tenantID, accountID string, itemIDs []string) (models.DeltaResult, error) {
	st := f.state(ctx, tenantID)
	return st.ApplyDelta(models.Delta{
		Kind:      models.DeltaInventory,
		Inventory: &models.InventoryDelta{Account: accountID, RemovedItems: itemIDs},
	})
}

// SubmitWants implements `POST wants` (spec §6).
func (f *Facade) SubmitWants(ctx context.Context, tenantID, accountID string, wantedItemIDs []string) (models.DeltaResult, error) {
	st := f.state(ctx, tenantID)
	return st.ApplyDelta(models.Delta{
		Kind: models.DeltaWant,
		Want: &models.WantDelta{Account: accountID, AddedItems: wantedItemIDs},
	})
}

// RemoveWants implements `DELETE want` (spec §6).
func (f *Facade) RemoveWants(ctx context.Context, tenantID, accountID string, wantedItemIDs []string) (models.DeltaResult, error) {
	st := f.state(ctx, tenantID)
	return st.ApplyDelta(models.Delta{
		Kind: models.DeltaWant,
		Want: &models.WantDelta{Account: accountID, RemovedItems: wantedItemIDs},
	})
}

// Transfer implements `PUT transfer` (spec §6).
func (f *Facade) Transfer(ctx context.Context, tenantID, item, from, to string) (models.DeltaResult, error) {
	st := f.state(ctx, tenantID)
	return st.ApplyDelta(models.Delta{
		Kind:     models.DeltaTransfer,
		Transfer: &models.TransferDelta{Item: item, From: from, To: to},
	})
}

// RemoveAccount removes an account and all its incident edges.
func (f *Facade) RemoveAccount(ctx context.Context, tenantID, accountID string) (models.DeltaResult, error) {
	st := f.state(ctx, tenantID)
	return st.ApplyDelta(models.Delta{Kind: models.DeltaRemove, Account: accountID})
}

// ActiveCycles implements `GET active-cycles` (spec §6).
func (f *Facade) ActiveCycles(ctx context.Context, tenantID string, limit int, minScore float64) []models.ScoredCycle {
	return f.state(ctx, tenantID).ActiveCycles(limit, minScore)
}

// CyclesForAccount implements `GET cycles-for-account` (spec §6).
func (f *Facade) CyclesForAccount(ctx context.Context, tenantID, accountID string) []models.ScoredCycle {
	return f.state(ctx, tenantID).CyclesForAccount(accountID)
}

// Status is the response shape for `GET status` (spec §6).
type Status struct {
	Accounts               int     `json:"accounts"`
	Items                  int     `json:"items"`
	Edges                  int     `json:"edges"`
	SCCs                   int     `json:"sccs"`
	CachedCycles           int     `json:"cachedCycles"`
	LastAppliedSeq         uint64  `json:"lastAppliedSeq"`
	LastDiscoveryDurationMs float64 `json:"lastDiscoveryDurationMs"`
	Truncated              bool    `json:"truncated"`
	Healthy                bool    `json:"healthy"`
}

// Status implements `GET status` (spec §6).
func (f *Facade) Status(ctx context.Context, tenantID string) Status {
	stats := f.state(ctx, tenantID).Stats()
	return Status{
		Accounts:                stats.Accounts,
		Items:                   stats.Items,
		Edges:                   stats.Edges,
		SCCs:                    stats.LastSCCCount,
		CachedCycles:            stats.CachedCycles,
		LastAppliedSeq:          stats.LastSeq,
		LastDiscoveryDurationMs: float64(stats.LastDiscoveryDuration.Microseconds()) / 1000.0,
		Truncated:               stats.LastDiscoveryTruncated,
		Healthy:                 true,
	}
}

// ProvisionTenant implements tenant provisioning (spec §6 Process-wide
// state: "an admin key for tenant provisioning"). Callers in the
// transport layer are responsible for checking the admin key before
// reaching this method.
func (f *Facade) ProvisionTenant(tenantID string, config models.TenantConfig) error {
	_, err := f.Engine.ProvisionTenant(tenantID, config)
	return err
}
