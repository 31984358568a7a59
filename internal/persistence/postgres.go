package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the remote key-value Store variant backed by a
// single table keyed by tenant id. Grounded on the teacher's
// internal/db.PostgresStore: same pgxpool.New/Ping connect sequence,
// same fmt.Errorf("...: %v", err) wrapping, same transaction-per-write
// shape, generalized from the teacher's heuristics-specific tables to
// one opaque snapshot blob per tenant.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres initializes the connection pool and verifies
// reachability, mirroring the teacher's db.Connect.
func ConnectPostgres(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("persistence: unable to connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("persistence: ping failed: %v", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the snapshot table if absent.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS tenant_snapshots (
			tenant_id TEXT PRIMARY KEY,
			version INT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("persistence: failed to initialize schema: %v", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, tenantID string, snap Snapshot) error {
	snap.Version = CurrentVersion
	snap.TenantID = tenantID

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: failed to marshal snapshot: %v", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("persistence: failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const upsert = `
		INSERT INTO tenant_snapshots (tenant_id, version, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id) DO UPDATE
		SET version = EXCLUDED.version, data = EXCLUDED.data, updated_at = NOW();
	`
	if _, err := tx.Exec(ctx, upsert, tenantID, CurrentVersion, data); err != nil {
		return fmt.Errorf("persistence: failed to upsert snapshot: %v", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Load(ctx context.Context, tenantID string) (Snapshot, error) {
	const q = `SELECT version, data FROM tenant_snapshots WHERE tenant_id = $1`

	var version int
	var raw []byte
	err := s.pool.QueryRow(ctx, q, tenantID).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("persistence: failed to load snapshot: %v", err)
	}
	if version != CurrentVersion {
		return Snapshot{}, ErrNotFound
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("persistence: failed to unmarshal snapshot: %v", err)
	}
	return snap, nil
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID string) error {
	const q = `DELETE FROM tenant_snapshots WHERE tenant_id = $1`
	_, err := s.pool.Exec(ctx, q, tenantID)
	if err != nil {
		return fmt.Errorf("persistence: failed to delete snapshot: %v", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	const q = `SELECT tenant_id FROM tenant_snapshots ORDER BY tenant_id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to list snapshots: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("persistence: failed to scan tenant id: %v", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
