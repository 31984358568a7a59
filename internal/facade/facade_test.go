package facade

import (
	"context"
	"testing"

	"github.com/rawblock/barter-engine/internal/engine"
	"github.com/rawblock/barter-engine/pkg/models"
)

func newTestFacade() *Facade {
	e := engine.New(2, nil, "admin-key")
	return New(e)
}

func TestSubmitInventoryThenWants_DiscoversCycle(t *testing.T) {
	f := newTestFacade()
	ctx := context.Background()

	if _, err := f.SubmitInventory(ctx, "t1", "A", []models.ItemRef{{ID: "item_1"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.SubmitInventory(ctx, "t1", "B", []models.ItemRef{{ID: "item_2"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.SubmitWants(ctx, "t1", "A", []string{"item_2"}); err != nil {
		t.Fatal(err)
	}
	result, err := f.SubmitWants(ctx, "t1", "B", []string{"item_1"})
	if err != nil {
		t.Fatal(err)
	}
	if result.NewCyclesDiscovered != 1 {
		t.Fatalf("expected 1 newly discovered cycle, got %d", result.NewCyclesDiscovered)
	}

	active := f.ActiveCycles(ctx, "t1", 10, 0)
	if len(active) != 1 {
		t.Fatalf("expected 1 active cycle, got %d", len(active))
	}

	forA := f.CyclesForAccount(ctx, "t1", "A")
	if len(forA) != 1 {
		t.Fatalf("expected account A to participate in 1 cycle, got %d", len(forA))
	}
}

func TestStatus_ReflectsGraphCounts(t *testing.T) {
	f := newTestFacade()
	ctx := context.Background()
	if _, err := f.SubmitInventory(ctx, "t1", "A", []models.ItemRef{{ID: "item_1"}}); err != nil {
		t.Fatal(err)
	}
	status := f.Status(ctx, "t1")
	if status.Accounts != 1 || status.Items != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestRemoveAccount_ClearsItsCycles(t *testing.T) {
	f := newTestFacade()
	ctx := context.Background()
	if _, err := f.SubmitInventory(ctx, "t1", "A", []models.ItemRef{{ID: "item_1"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.SubmitInventory(ctx, "t1", "B", []models.ItemRef{{ID: "item_2"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.SubmitWants(ctx, "t1", "A", []string{"item_2"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.SubmitWants(ctx, "t1", "B", []string{"item_1"}); err != nil {
		t.Fatal(err)
	}
	if len(f.ActiveCycles(ctx, "t1", 10, 0)) != 1 {
		t.Fatal("expected 1 active cycle before removal")
	}
	if _, err := f.RemoveAccount(ctx, "t1", "A"); err != nil {
		t.Fatal(err)
	}
	if len(f.ActiveCycles(ctx, "t1", 10, 0)) != 0 {
		t.Fatal("expected removal of a cycle participant to invalidate the cached cycle")
	}
}

func TestProvisionTenant_RejectsDuplicate(t *testing.T) {
	f := newTestFacade()
	if err := f.ProvisionTenant("t1", models.DefaultTenantConfig()); err != nil {
		t.Fatal(err)
	}
	if err := f.ProvisionTenant("t1", models.DefaultTenantConfig()); err == nil {
		t.Fatal("expected Conflict error for duplicate tenant id")
	}
}
