package storage

import (
	"context"

	"fluxstate/apperrors"

	supabase "github.com/supabase-community/supabase-go"
)

// snapshotRow is the anti-corruption boundary between our Binder contract
// and the table a Supabase project happens to expose, grounded on
// infrastructure/acl/external_api_adapter.go's translate-at-the-boundary
// pattern: nothing outside this file knows the row shape.
type snapshotRow struct {
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
}

// SupabaseBinder stores each key as one row in a Postgres table reachable
// through Supabase's Postgrest client, the same client the teacher already
// uses for Auth (cmd/ws-connect/main.go) repointed at a plain data table.
type SupabaseBinder struct {
	client *supabase.Client
	table  string
}

// NewSupabaseBinder constructs a SupabaseBinder over an existing client and
// table name. The table is expected to have a unique "key" column and a
// "payload" bytea column.
func NewSupabaseBinder(client *supabase.Client, table string) *SupabaseBinder {
	return &SupabaseBinder{client: client, table: table}
}

// Get fetches the row stored under key, returning (nil, nil) if absent.
func (b *SupabaseBinder) Get(ctx context.Context, key string) ([]byte, error) {
	var rows []snapshotRow
	_, err := b.client.From(b.table).
		Select("key,payload", "", false).
		Eq("key", key).
		ExecuteTo(&rows)
	if err != nil {
		return nil, apperrors.PersistenceIO("select snapshot row", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].Payload, nil
}

// Set upserts the row stored under key with value.
func (b *SupabaseBinder) Set(ctx context.Context, key string, value []byte) error {
	row := snapshotRow{Key: key, Payload: value}
	_, _, err := b.client.From(b.table).
		Upsert(row, "key", "minimal", "").
		Execute()
	if err != nil {
		return apperrors.PersistenceIO("upsert snapshot row", err)
	}
	return nil
}

// Remove deletes the row stored under key.
func (b *SupabaseBinder) Remove(ctx context.Context, key string) error {
	_, _, err := b.client.From(b.table).
		Delete("minimal", "").
		Eq("key", key).
		Execute()
	if err != nil {
		return apperrors.PersistenceIO("delete snapshot row", err)
	}
	return nil
}
