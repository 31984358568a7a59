// Package engine is the process-wide root object: a tenant registry, an
// admin key for tenant provisioning, and the worker pool (spec §6
// "Process-wide state"). It replaces the teacher's package-level
// globals (heuristics.InitGlobalTaintMap / GetGlobalAddressWatchlist)
// with an explicit struct whose lifecycle cmd/engine controls directly.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/rawblock/barter-engine/internal/persistence"
	"github.com/rawblock/barter-engine/internal/retry"
	"github.com/rawblock/barter-engine/internal/scheduler"
	"github.com/rawblock/barter-engine/internal/tenant"
	"github.com/rawblock/barter-engine/pkg/models"
)

// Engine is the root object constructed once at startup and threaded
// through the façade and HTTP layer.
type Engine struct {
	Tenants *tenant.Manager
	Pool    *scheduler.Pool
	Store   persistence.Store // nil means "run without persistence" (spec §6: optional dependency)
	AdminKey string
}

// New builds an Engine. store may be nil — the engine runs fine without
// a persistence collaborator, it just never survives a restart (spec §6
// treats persistence as an external, optional collaborator).
func New(workers int, store persistence.Store, adminKey string) *Engine {
	pool := scheduler.New(workers)
	tenants := tenant.NewManager()
	tenants.SetPool(pool)
	return &Engine{
		Tenants:  tenants,
		Pool:     pool,
		Store:    store,
		AdminKey: adminKey,
	}
}

// Start spawns the worker pool (spec §6: "workers spawned at startup").
func (e *Engine) Start() {
	e.Pool.Start()
}

// Shutdown drains in-flight work and joins the worker pool (spec §6:
// "joined at shutdown after draining").
func (e *Engine) Shutdown() {
	e.Pool.Shutdown()
}

// ProvisionTenant creates a brand-new tenant, rejecting a duplicate id
// with a Conflict error (spec §6).
func (e *Engine) ProvisionTenant(id string, config models.TenantConfig) (*tenant.State, error) {
	return e.Tenants.CreateTenant(id, config)
}

// LoadTenant returns a tenant's state, lazily restoring it from the
// persistence collaborator on first reference if a snapshot exists,
// and falling back to an empty default-configured tenant otherwise
// (spec §6: "tenants loaded lazily on first reference"; spec §9: "an
// incompatible version on load causes the tenant to start fresh (warn,
// do not crash)").
func (e *Engine) LoadTenant(ctx context.Context, id string) *tenant.State {
	if st, ok := e.Tenants.Get(id); ok {
		return st
	}
	if e.Store != nil {
		snap, err := e.Store.Load(ctx, id)
		if err == nil {
			st := tenant.FromSnapshot(snap, models.DefaultTenantConfig())
			e.Tenants.Restore(st)
			return st
		}
		if err != persistence.ErrNotFound {
			log.Printf("[engine] warning: failed to load tenant %s snapshot, starting fresh: %v", id, err)
		}
	}
	return e.Tenants.GetOrCreate(id)
}

// persistRetry is spec §7's documented policy for the persistence
// boundary: "bounded backoff (default 3 attempts, exponential)".
var persistRetry = retry.DefaultConfig()

// PersistTenant offers a serialized snapshot of one tenant to the
// persistence collaborator (spec §4.7), retrying a failing Store.Save
// with bounded exponential backoff before giving up. A final failure is
// returned as a Transient EngineError (spec §7) rather than the Store's
// raw error, so callers can branch on models.IsKind instead of
// string-matching.
func (e *Engine) PersistTenant(ctx context.Context, id string) error {
	if e.Store == nil {
		return nil
	}
	st, ok := e.Tenants.Get(id)
	if !ok {
		return nil
	}

	snap := st.ToSnapshot()
	err := retry.Do(ctx, persistRetry, func() error {
		return e.Store.Save(ctx, id, snap)
	})
	if err != nil {
		return models.NewTransient("failed to persist tenant snapshot", err)
	}
	return nil
}

// PersistAll offers a snapshot for every known tenant, logging but not
// aborting on individual failures so one unreachable tenant's blob
// never blocks the rest (spec §4.7: "periodically offers a serialized
// snapshot").
func (e *Engine) PersistAll(ctx context.Context) {
	if e.Store == nil {
		return
	}
	for _, id := range e.Tenants.List() {
		if err := e.PersistTenant(ctx, id); err != nil {
			log.Printf("[engine] warning: failed to persist tenant %s: %v", id, err)
		}
	}
}

// RunPeriodicPersistence offers snapshots for all tenants on every tick
// until stop is closed, returning when it is. Intended to run in its
// own goroutine, started alongside the worker pool.
func (e *Engine) RunPeriodicPersistence(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.PersistAll(ctx)
		}
	}
}
