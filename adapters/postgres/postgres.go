// Package postgres provides a pgx-backed storage adapter using the
// same kv shape as the other adapters. For deployments where the demo
// already has a Postgres around.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bodahq/boda/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS boda_kv (
	key   TEXT PRIMARY KEY,
	value BYTEA NOT NULL
);`

// Adapter is a Postgres-backed core.Storage. The Storage port is
// synchronous, so calls run against context.Background; the pool's own
// timeouts still apply.
type Adapter struct {
	pool *pgxpool.Pool
}

var _ core.Storage = (*Adapter)(nil)

// New wires the adapter and ensures the kv table exists.
func New(ctx context.Context, pool *pgxpool.Pool) (*Adapter, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

func (a *Adapter) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := a.pool.QueryRow(context.Background(),
		"SELECT value FROM boda_kv WHERE key = $1", key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (a *Adapter) Set(key string, value []byte) error {
	_, err := a.pool.Exec(context.Background(),
		"INSERT INTO boda_kv (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (a *Adapter) Delete(key string) error {
	_, err := a.pool.Exec(context.Background(),
		"DELETE FROM boda_kv WHERE key = $1", key)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
