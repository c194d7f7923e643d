// Package rootstore persists an accumulator's leaf log and rolling
// root window to Postgres, so a prover service can restart without
// losing its view of the on-chain tree. It follows the same
// cache-in-front-of-a-durable-Store split as pkg/nullifier: callers
// insert into an in-memory merkle.Accumulator for the hot path and
// mirror each insert here for durability and crash recovery.
package rootstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
)

// ErrLeafExists is returned by AppendLeaf when index has already been
// recorded, guarding against double-inserting the same leaf on replay.
var ErrLeafExists = errors.New("rootstore: leaf index already recorded")

// LeafRecord is one persisted accumulator leaf, in insertion order.
type LeafRecord struct {
	Index uint64
	Leaf  primitives.Hash32
}

// Store is the persistent backing for an accumulator's leaf log and
// root history.
type Store interface {
	// AppendLeaf durably records the leaf inserted at index. It must
	// fail with ErrLeafExists rather than overwrite an existing entry.
	AppendLeaf(ctx context.Context, index uint64, leaf primitives.Hash32) error
	// Leaves returns every recorded leaf ordered by index, suitable for
	// replaying into a fresh merkle.Accumulator.
	Leaves(ctx context.Context) ([]LeafRecord, error)
	// SaveRoot records a post-insert root in the durable history.
	SaveRoot(ctx context.Context, root primitives.Hash32) error
	// RecentRoots returns up to limit of the most recently saved roots,
	// newest first.
	RecentRoots(ctx context.Context, limit int) ([]primitives.Hash32, error)
}

// Rebuild replays every leaf recorded in store, in index order, into a
// fresh merkle.Accumulator of the given depth and window, the way a
// prover service reconstructs its in-memory tree on startup instead of
// re-scanning the chain from genesis.
func Rebuild(ctx context.Context, store Store, depth, window int) (*merkle.Accumulator, error) {
	records, err := store.Leaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("rootstore: load leaves: %w", err)
	}

	acc, err := merkle.NewAccumulatorWithWindow(depth, window)
	if err != nil {
		return nil, fmt.Errorf("rootstore: new accumulator: %w", err)
	}

	for _, rec := range records {
		idx, err := acc.Insert(rec.Leaf)
		if err != nil {
			return nil, fmt.Errorf("rootstore: replay leaf %d: %w", rec.Index, err)
		}
		if idx != rec.Index {
			return nil, fmt.Errorf("rootstore: replay leaf index mismatch: stored %d, replayed at %d", rec.Index, idx)
		}
	}

	return acc, nil
}
