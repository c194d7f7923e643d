package rootstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shielded/poolcore/pkg/nullifier"
	"github.com/shielded/poolcore/pkg/primitives"
)

// PostgresStore implements Store over two Postgres tables: one
// recording every inserted leaf by index, one recording the
// chronological root history. It shares its connection config shape
// with pkg/nullifier.PostgresStore since both sit behind the same
// prover service.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies it with a
// ping before returning.
func NewPostgresStore(ctx context.Context, cfg *nullifier.PgConfig) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("rootstore: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("rootstore: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// AppendLeaf inserts the leaf recorded at index, failing with
// ErrLeafExists on conflict rather than silently overwriting.
func (s *PostgresStore) AppendLeaf(ctx context.Context, index uint64, leaf primitives.Hash32) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO accumulator_leaves (leaf_index, leaf) VALUES ($1, $2) ON CONFLICT (leaf_index) DO NOTHING`,
		int64(index), leaf[:],
	)
	if err != nil {
		return fmt.Errorf("rootstore: insert leaf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeafExists
	}
	return nil
}

// Leaves returns every recorded leaf ordered by index.
func (s *PostgresStore) Leaves(ctx context.Context) ([]LeafRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT leaf_index, leaf FROM accumulator_leaves ORDER BY leaf_index ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("rootstore: query leaves: %w", err)
	}
	defer rows.Close()

	var out []LeafRecord
	for rows.Next() {
		var idx int64
		var leafBytes []byte
		if err := rows.Scan(&idx, &leafBytes); err != nil {
			return nil, fmt.Errorf("rootstore: scan leaf: %w", err)
		}
		leaf, err := primitives.HashFromBytes(leafBytes)
		if err != nil {
			return nil, fmt.Errorf("rootstore: decode leaf %d: %w", idx, err)
		}
		out = append(out, LeafRecord{Index: uint64(idx), Leaf: leaf})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rootstore: read leaves: %w", err)
	}
	return out, nil
}

// SaveRoot appends root to the chronological root history table.
func (s *PostgresStore) SaveRoot(ctx context.Context, root primitives.Hash32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accumulator_roots (root) VALUES ($1)`,
		root[:],
	)
	if err != nil {
		return fmt.Errorf("rootstore: insert root: %w", err)
	}
	return nil
}

// RecentRoots returns up to limit of the most recently saved roots,
// newest first.
func (s *PostgresStore) RecentRoots(ctx context.Context, limit int) ([]primitives.Hash32, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT root FROM accumulator_roots ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("rootstore: query roots: %w", err)
	}
	defer rows.Close()

	var out []primitives.Hash32
	for rows.Next() {
		var rootBytes []byte
		if err := rows.Scan(&rootBytes); err != nil {
			return nil, fmt.Errorf("rootstore: scan root: %w", err)
		}
		root, err := primitives.HashFromBytes(rootBytes)
		if err != nil {
			return nil, fmt.Errorf("rootstore: decode root: %w", err)
		}
		out = append(out, root)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rootstore: read roots: %w", err)
	}
	return out, nil
}
