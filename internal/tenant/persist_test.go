package tenant

import (
	"testing"

	"github.com/rawblock/barter-engine/pkg/models"
)

func TestSnapshotRoundTrip_PreservesGraphAndCache(t *testing.T) {
	st := NewState("t1", models.DefaultTenantConfig())
	if _, err := st.ApplyDelta(invDelta("A", []string{"nft_1"})); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ApplyDelta(invDelta("B", []string{"nft_2"})); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ApplyDelta(wantDelta("A", []string{"nft_2"})); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ApplyDelta(wantDelta("B", []string{"nft_1"})); err != nil {
		t.Fatal(err)
	}

	snap := st.ToSnapshot()
	if len(snap.Accounts) != 2 {
		t.Fatalf("expected 2 accounts in snapshot, got %d", len(snap.Accounts))
	}
	if len(snap.CycleCache) != 1 {
		t.Fatalf("expected 1 cached cycle in snapshot, got %d", len(snap.CycleCache))
	}

	restored := FromSnapshot(snap, models.DefaultTenantConfig())
	if restored.ID != "t1" {
		t.Errorf("expected restored tenant id t1, got %q", restored.ID)
	}
	owner, ok := restored.graph.OwnerOf("nft_1")
	if !ok || owner != "A" {
		t.Errorf("expected restored ownership A->nft_1, got %q", owner)
	}
	if got := restored.ActiveCycles(10, 0); len(got) != 1 {
		t.Errorf("expected 1 restored cached cycle, got %d", len(got))
	}
	if restored.seq != snap.LastAppliedSeq {
		t.Errorf("expected restored seq %d, got %d", snap.LastAppliedSeq, restored.seq)
	}
}
