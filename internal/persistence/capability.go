package persistence

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot exists for a tenant,
// or when one exists but fails the version check.
var ErrNotFound = errors.New("persistence: snapshot not found")

// Store is the capability interface the engine holds one instance of
// per tenant (spec §9 Design Notes: "a capability interface {save,
// load, delete, list} with two variants (local filesystem, remote
// key-value)"). The engine treats it as an opaque oracle; it never
// inspects a variant's internals.
type Store interface {
	Save(ctx context.Context, tenantID string, snap Snapshot) error
	Load(ctx context.Context, tenantID string) (Snapshot, error)
	Delete(ctx context.Context, tenantID string) error
	List(ctx context.Context) ([]string, error)
}
