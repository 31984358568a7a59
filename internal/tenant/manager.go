package tenant

import (
	"sync"

	"github.com/rawblock/barter-engine/internal/scheduler"
	"github.com/rawblock/barter-engine/pkg/models"
)

// Manager handles CRUD for tenant state, analogous to the teacher's
// InvestigationManager: a RWMutex-guarded map plus Create/Get/List
// methods, generalized from incident-response cases to multi-tenant
// barter engines (spec §6: tenant provisioning, §4.7: per-tenant
// isolation).
type Manager struct {
	mu      sync.RWMutex
	tenants map[string]*State
	pool    *scheduler.Pool
}

// NewManager returns an empty tenant registry.
func NewManager() *Manager {
	return &Manager{tenants: make(map[string]*State)}
}

// SetPool wires every existing and future tenant into the given work
// pool (spec §4.8). Called once by the engine at startup; nil is a
// valid value and leaves tenants running recompute sequentially.
func (m *Manager) SetPool(p *scheduler.Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pool = p
	for _, st := range m.tenants {
		st.SetPool(p)
	}
}

// CreateTenant provisions a new tenant with the given configuration,
// rejecting duplicates with a Conflict error (spec §6).
func (m *Manager) CreateTenant(id string, config models.TenantConfig) (*State, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tenants[id]; exists {
		return nil, models.NewConflict("tenant already exists", map[string]any{"tenantId": id})
	}

	st := NewState(id, config)
	st.SetPool(m.pool)
	m.tenants[id] = st
	return st, nil
}

// GetOrCreate returns the tenant's state, lazily provisioning it with
// default configuration on first reference (spec §6: "tenants loaded
// lazily on first reference").
func (m *Manager) GetOrCreate(id string) *State {
	m.mu.RLock()
	st, ok := m.tenants[id]
	m.mu.RUnlock()
	if ok {
		return st
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.tenants[id]; ok {
		return st
	}
	st = NewState(id, models.DefaultTenantConfig())
	st.SetPool(m.pool)
	m.tenants[id] = st
	return st
}

// Get retrieves a tenant's state by id, without creating it.
func (m *Manager) Get(id string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.tenants[id]
	return st, ok
}

// List returns every known tenant id.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.tenants))
	for id := range m.tenants {
		out = append(out, id)
	}
	return out
}

// Delete removes a tenant entirely from the registry. The caller is
// responsible for telling the persistence layer to drop its snapshot.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, id)
}

// Restore installs a fully-built tenant State into the registry,
// overwriting any existing entry — used when loading a persisted
// snapshot at startup or on first reference (spec §9).
func (m *Manager) Restore(st *State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.SetPool(m.pool)
	m.tenants[st.ID] = st
}
