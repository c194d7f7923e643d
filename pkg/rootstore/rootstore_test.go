package rootstore_test

import (
	"context"
	"testing"

	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/rootstore"
)

func repeatHash(b byte) primitives.Hash32 {
	var h primitives.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

func TestAppendLeafRejectsDuplicateIndex(t *testing.T) {
	ctx := context.Background()
	store := rootstore.NewInMemoryStore()

	if err := store.AppendLeaf(ctx, 0, repeatHash(0x01)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.AppendLeaf(ctx, 0, repeatHash(0x02)); err != rootstore.ErrLeafExists {
		t.Fatalf("expected ErrLeafExists, got %v", err)
	}
}

func TestRecentRootsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := rootstore.NewInMemoryStore()

	roots := []primitives.Hash32{repeatHash(0x01), repeatHash(0x02), repeatHash(0x03)}
	for _, r := range roots {
		if err := store.SaveRoot(ctx, r); err != nil {
			t.Fatalf("save root: %v", err)
		}
	}

	got, err := store.RecentRoots(ctx, 2)
	if err != nil {
		t.Fatalf("recent roots: %v", err)
	}
	if len(got) != 2 || got[0] != roots[2] || got[1] != roots[1] {
		t.Fatalf("expected newest-first [%x %x], got %x", roots[2], roots[1], got)
	}
}

func TestRebuildReplaysLeavesInOrder(t *testing.T) {
	ctx := context.Background()
	store := rootstore.NewInMemoryStore()

	leaves := []primitives.Hash32{repeatHash(0x01), repeatHash(0x02), repeatHash(0x03)}
	for i, leaf := range leaves {
		if err := store.AppendLeaf(ctx, uint64(i), leaf); err != nil {
			t.Fatalf("append leaf %d: %v", i, err)
		}
	}

	acc, err := rootstore.Rebuild(ctx, store, 4, 8)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if acc.NumLeaves() != uint64(len(leaves)) {
		t.Fatalf("expected %d leaves, got %d", len(leaves), acc.NumLeaves())
	}

	proof, err := acc.GetProof(1)
	if err != nil {
		t.Fatalf("get proof: %v", err)
	}
	if !merkle.VerifyProof(leaves[1], proof, acc.CurrentRoot()) {
		t.Fatal("replayed tree does not produce a valid inclusion proof for leaf 1")
	}
}
