package canon

import (
	"testing"

	"github.com/rawblock/barter-engine/pkg/models"
)

func TestCanonicalize_RotatesToSmallestAccount(t *testing.T) {
	c := models.Cycle{Steps: []models.CycleStep{
		{Account: "C", Item: "i3"},
		{Account: "A", Item: "i1"},
		{Account: "B", Item: "i2"},
	}}

	canon := Canonicalize(c)
	if canon.Steps[0].Account != "A" {
		t.Fatalf("expected rotation to start at A, got %s", canon.Steps[0].Account)
	}
	if canon.Key != "A:i1,B:i2,C:i3" {
		t.Errorf("unexpected canonical key: %q", canon.Key)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	c := models.Cycle{Steps: []models.CycleStep{
		{Account: "C", Item: "i3"},
		{Account: "A", Item: "i1"},
		{Account: "B", Item: "i2"},
	}}

	once := Canonicalize(c)
	twice := Canonicalize(models.Cycle{Steps: once.Steps})
	if once.Key != twice.Key {
		t.Errorf("canonicalization not idempotent: %q != %q", once.Key, twice.Key)
	}
}

func TestCanonicalize_RotationEquivalenceSameKey(t *testing.T) {
	a := models.Cycle{Steps: []models.CycleStep{
		{Account: "A", Item: "i1"}, {Account: "B", Item: "i2"}, {Account: "C", Item: "i3"},
	}}
	b := models.Cycle{Steps: []models.CycleStep{
		{Account: "B", Item: "i2"}, {Account: "C", Item: "i3"}, {Account: "A", Item: "i1"},
	}}

	if Canonicalize(a).Key != Canonicalize(b).Key {
		t.Errorf("expected rotations of the same cycle to share a canonical key")
	}
}

func TestDeduper_RejectsDuplicateKey(t *testing.T) {
	d := NewDeduper()
	if d.SeenOrAdd("A:i1,B:i2") {
		t.Fatalf("first insertion should not be seen")
	}
	if !d.SeenOrAdd("A:i1,B:i2") {
		t.Fatalf("second insertion of same key should be seen")
	}
	if d.Size() != 1 {
		t.Errorf("expected 1 distinct key, got %d", d.Size())
	}
}

func TestDeduper_DistinctKeysBothAccepted(t *testing.T) {
	d := NewDeduper()
	if d.SeenOrAdd("k1") || d.SeenOrAdd("k2") {
		t.Fatalf("distinct keys should both be accepted")
	}
	if d.Size() != 2 {
		t.Errorf("expected 2 distinct keys, got %d", d.Size())
	}
}
