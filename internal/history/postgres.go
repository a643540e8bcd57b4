package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/taixiu-ai/internal/database"
)

// DefaultPostgresKey is the row key used unless overridden.
const DefaultPostgresKey = "taixiu"

const (
	createStateTableSQL = `CREATE TABLE IF NOT EXISTS predictor_state (
	state_key  TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectStateSQL = `SELECT payload FROM predictor_state WHERE state_key = $1`
	upsertStateSQL = `INSERT INTO predictor_state (state_key, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (state_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
)

// PostgresBackend stores the history document as a JSONB row.
type PostgresBackend struct {
	db  *database.DB
	key string
}

// NewPostgresBackend creates a backend over db using key as the row id.
func NewPostgresBackend(db *database.DB, key string) *PostgresBackend {
	if key == "" {
		key = DefaultPostgresKey
	}
	return &PostgresBackend{db: db, key: key}
}

// EnsureSchema creates the state table if needed.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Pool().Exec(ctx, createStateTableSQL); err != nil {
		return fmt.Errorf("failed to create predictor_state: %w", err)
	}
	return nil
}

// Name implements Backend.
func (b *PostgresBackend) Name() string {
	return "postgres"
}

// Load implements Backend.
func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.db.Pool().QueryRow(ctx, selectStateSQL, b.key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to select state %s: %w", b.key, err)
	}
	return payload, nil
}

// Save implements Backend.
func (b *PostgresBackend) Save(ctx context.Context, data []byte) error {
	if _, err := b.db.Pool().Exec(ctx, upsertStateSQL, b.key, string(data)); err != nil {
		return fmt.Errorf("failed to upsert state %s: %w", b.key, err)
	}
	return nil
}

// Ping implements Pinger.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}
