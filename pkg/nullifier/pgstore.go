package nullifier

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shielded/poolcore/pkg/primitives"
)

// PgConfig holds the connection parameters for PostgresStore.
type PgConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultPgConfig returns sane local-development defaults.
func DefaultPgConfig() *PgConfig {
	return &PgConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "poolcore",
		Database: "poolcore",
		SSLMode:  "disable",
		MaxConns: 20,
	}
}

// PostgresStore implements Store over a Postgres table keyed on the
// 32-byte nullifier value, matching the schema's nullifier-registry
// role in the on-chain contract.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies it with a
// ping before returning.
func NewPostgresStore(ctx context.Context, cfg *PgConfig) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("nullifier: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("nullifier: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// HasNullifier reports whether n is already recorded in the spent_nullifiers table.
func (s *PostgresStore) HasNullifier(ctx context.Context, n primitives.Hash32) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM spent_nullifiers WHERE nullifier = $1)`,
		n[:],
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("nullifier: query: %w", err)
	}
	return exists, nil
}

// AddNullifier inserts n, failing with ErrAlreadySpent on conflict
// rather than silently overwriting.
func (s *PostgresStore) AddNullifier(ctx context.Context, n primitives.Hash32) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO spent_nullifiers (nullifier) VALUES ($1) ON CONFLICT (nullifier) DO NOTHING`,
		n[:],
	)
	if err != nil {
		return fmt.Errorf("nullifier: insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySpent
	}
	return nil
}
