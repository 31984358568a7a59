package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/rawblock/barter-engine/internal/persistence"
	"github.com/rawblock/barter-engine/pkg/models"
)

// alwaysFailStore is a Store whose every Save attempt fails, used to
// exercise PersistTenant's bounded-retry-then-Transient path.
type alwaysFailStore struct {
	saveAttempts int
}

func (s *alwaysFailStore) Save(ctx context.Context, tenantID string, snap persistence.Snapshot) error {
	s.saveAttempts++
	return errors.New("connection refused")
}
func (s *alwaysFailStore) Load(ctx context.Context, tenantID string) (persistence.Snapshot, error) {
	return persistence.Snapshot{}, persistence.ErrNotFound
}
func (s *alwaysFailStore) Delete(ctx context.Context, tenantID string) error { return nil }
func (s *alwaysFailStore) List(ctx context.Context) ([]string, error)       { return nil, nil }

func TestProvisionTenant_RejectsDuplicate(t *testing.T) {
	e := New(2, nil, "admin-key")
	if _, err := e.ProvisionTenant("t1", models.DefaultTenantConfig()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ProvisionTenant("t1", models.DefaultTenantConfig()); err == nil {
		t.Fatal("expected Conflict error for duplicate tenant id")
	}
}

func TestLoadTenant_FallsBackToDefaultWhenNoStore(t *testing.T) {
	e := New(2, nil, "admin-key")
	st := e.LoadTenant(context.Background(), "t1")
	if st == nil || st.ID != "t1" {
		t.Fatalf("expected a default tenant state, got %+v", st)
	}
}

func TestLoadTenant_RestoresFromPersistence(t *testing.T) {
	store, err := persistence.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := New(2, store, "admin-key")

	st, err := e.ProvisionTenant("t1", models.DefaultTenantConfig())
	if err != nil {
		t.Fatal(err)
	}
	v := 5.0
	if _, err := st.ApplyDelta(models.Delta{
		Kind:      models.DeltaInventory,
		Inventory: &models.InventoryDelta{Account: "A", AddedItems: []models.ItemRef{{ID: "nft_1", Valuation: &v}}},
	}); err != nil {
		t.Fatal(err)
	}

	if err := e.PersistTenant(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}

	// Simulate a fresh process: new engine, same store, tenant not yet
	// in the in-memory registry.
	e2 := New(2, store, "admin-key")
	loaded := e2.LoadTenant(context.Background(), "t1")
	stats := loaded.Stats()
	if stats.Accounts != 1 {
		t.Errorf("expected restored tenant to have 1 account, got %+v", stats)
	}
}

func TestStartAndShutdown_DoesNotPanic(t *testing.T) {
	e := New(1, nil, "admin-key")
	e.Start()
	e.Shutdown()
}

func TestPersistTenant_RetriesThenReturnsTransientError(t *testing.T) {
	orig := persistRetry
	persistRetry.InitialDelay = 0
	persistRetry.MaxDelay = 0
	defer func() { persistRetry = orig }()

	store := &alwaysFailStore{}
	e := New(1, store, "admin-key")
	if _, err := e.ProvisionTenant("t1", models.DefaultTenantConfig()); err != nil {
		t.Fatal(err)
	}

	err := e.PersistTenant(context.Background(), "t1")
	if err == nil {
		t.Fatal("expected a Transient error after exhausting retries")
	}
	if !models.IsKind(err, models.KindTransient) {
		t.Errorf("expected a Transient EngineError, got %v", err)
	}
	if store.saveAttempts != persistRetry.MaxAttempts {
		t.Errorf("expected %d save attempts, got %d", persistRetry.MaxAttempts, store.saveAttempts)
	}
}

func TestPersistAll_ContinuesPastOneTenantsFailure(t *testing.T) {
	orig := persistRetry
	persistRetry.InitialDelay = 0
	persistRetry.MaxDelay = 0
	defer func() { persistRetry = orig }()

	store := &alwaysFailStore{}
	e := New(1, store, "admin-key")
	if _, err := e.ProvisionTenant("t1", models.DefaultTenantConfig()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ProvisionTenant("t2", models.DefaultTenantConfig()); err != nil {
		t.Fatal(err)
	}

	// PersistAll must not panic or abort early despite every Save failing.
	e.PersistAll(context.Background())
	if store.saveAttempts != 2*persistRetry.MaxAttempts {
		t.Errorf("expected both tenants retried independently, got %d attempts", store.saveAttempts)
	}
}
