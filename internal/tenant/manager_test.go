package tenant

import (
	"testing"

	"github.com/rawblock/barter-engine/pkg/models"
)

func TestManager_CreateTenantRejectsDuplicate(t *testing.T) {
	m := NewManager()
	if _, err := m.CreateTenant("t1", models.DefaultTenantConfig()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateTenant("t1", models.DefaultTenantConfig()); err == nil {
		t.Fatal("expected Conflict error for duplicate tenant id")
	}
}

func TestManager_GetOrCreateIsLazy(t *testing.T) {
	m := NewManager()
	if _, ok := m.Get("t1"); ok {
		t.Fatal("expected no tenant before first reference")
	}
	st := m.GetOrCreate("t1")
	if st == nil {
		t.Fatal("expected a tenant state")
	}
	st2 := m.GetOrCreate("t1")
	if st != st2 {
		t.Fatal("expected the same tenant state on repeated GetOrCreate")
	}
}

func TestManager_DeleteRemovesTenant(t *testing.T) {
	m := NewManager()
	m.GetOrCreate("t1")
	m.Delete("t1")
	if _, ok := m.Get("t1"); ok {
		t.Fatal("expected tenant gone after Delete")
	}
}

func TestManager_ListReturnsAllTenantIDs(t *testing.T) {
	m := NewManager()
	m.GetOrCreate("t1")
	m.GetOrCreate("t2")
	ids := m.List()
	if len(ids) != 2 {
		t.Fatalf("expected 2 tenants, got %v", ids)
	}
}

func TestManager_CreateTenantRejectsInvalidConfig(t *testing.T) {
	m := NewManager()
	bad := models.DefaultTenantConfig()
	bad.MinEfficiency = 2.0
	if _, err := m.CreateTenant("t1", bad); err == nil {
		t.Fatal("expected validation error")
	}
}
