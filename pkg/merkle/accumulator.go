package merkle

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/shielded/poolcore/pkg/primitives"
)

// DefaultRootWindow is the number of recently-seen roots the accumulator
// keeps on hand, R in the rolling root window. A client assembling a
// proof against a slightly stale root stays valid as long as the root
// hasn't aged out of this window.
const DefaultRootWindow = 30

var (
	// ErrTreeFull is returned by Insert once next_index reaches 2^depth.
	ErrTreeFull = errors.New("merkle: tree is full")
	// ErrLeafOutOfRange is returned by GetProof for an index that was
	// never inserted.
	ErrLeafOutOfRange = errors.New("merkle: leaf index out of range")
	// ErrInvalidDepth is returned by NewAccumulator for depth <= 0.
	ErrInvalidDepth = errors.New("merkle: depth must be positive")
)

// Step is one level of a Merkle inclusion proof: the sibling hash at
// that level and whether the current node is the left child.
type Step struct {
	Sibling primitives.Hash32
	IsLeft  bool
}

// Proof is an ordered sequence of Steps from a leaf up to the root,
// exactly Depth() steps long.
type Proof struct {
	LeafIndex uint64
	Steps     []Step
}

// Accumulator is a fixed-depth, append-only, binary Merkle tree whose
// empty-slot nodes are precomputed so that insertion and proof
// extraction never need to touch an explicit "empty" representation.
//
// It is not safe for concurrent mutation; callers needing concurrent
// readers and a single writer must add their own locking.
type Accumulator struct {
	depth int

	// zeros[i] is the hash of an all-zero subtree of depth i.
	// zeros[0] = H(0^32); zeros[i] = hash_pair(zeros[i-1], zeros[i-1]).
	zeros []primitives.Hash32

	// filled[i] is the latest completed left child at level i along the
	// frontier of inserted leaves.
	filled []primitives.Hash32

	// leaves is the append-only log of inserted leaves, in insertion
	// order. Proof extraction rebuilds the full tree from this log on
	// every call, trading space for simplicity exactly as the
	// straightforward reference construction does.
	leaves []primitives.Hash32

	nextIndex uint64

	// roots is the rolling window of the last len(roots) distinct
	// post-insert (and the initial empty-tree) roots, with cursor
	// pointing at the most recent entry.
	roots  []primitives.Hash32
	cursor int
}

// NewAccumulator creates an empty accumulator of the given depth with
// the default rolling root window size.
func NewAccumulator(depth int) (*Accumulator, error) {
	return NewAccumulatorWithWindow(depth, DefaultRootWindow)
}

// NewAccumulatorWithWindow creates an empty accumulator with an explicit
// rolling root window size R. R must stay fixed for the life of the
// accumulator.
func NewAccumulatorWithWindow(depth, window int) (*Accumulator, error) {
	if depth <= 0 {
		return nil, ErrInvalidDepth
	}
	if window <= 0 {
		window = DefaultRootWindow
	}

	zeros := make([]primitives.Hash32, depth)
	zeros[0] = primitives.H(make([]byte, 32))
	for i := 1; i < depth; i++ {
		zeros[i] = primitives.HashPair(zeros[i-1], zeros[i-1])
	}

	filled := make([]primitives.Hash32, depth)
	copy(filled, zeros)

	a := &Accumulator{
		depth:  depth,
		zeros:  zeros,
		filled: filled,
		roots:  make([]primitives.Hash32, window),
		cursor: 0,
	}
	a.roots[0] = a.emptyRoot()
	return a, nil
}

// emptyRoot is the root of a tree with no leaves inserted:
// hash_pair(zeros[depth-1], zeros[depth-1]).
func (a *Accumulator) emptyRoot() primitives.Hash32 {
	last := a.zeros[a.depth-1]
	return primitives.HashPair(last, last)
}

// Depth returns the fixed tree depth L.
func (a *Accumulator) Depth() int { return a.depth }

// NumLeaves returns the number of leaves inserted so far.
func (a *Accumulator) NumLeaves() uint64 { return a.nextIndex }

// CurrentRoot returns the most recently produced root (the empty-tree
// root if nothing has been inserted yet).
func (a *Accumulator) CurrentRoot() primitives.Hash32 {
	return a.roots[a.cursor]
}

// Insert appends a leaf to the tree, returning its index. Fails once
// the tree is full.
func (a *Accumulator) Insert(leaf primitives.Hash32) (uint64, error) {
	if a.nextIndex >= uint64(1)<<uint(a.depth) {
		return 0, ErrTreeFull
	}

	index := a.nextIndex
	currentHash := leaf
	currentIndex := index

	for i := 0; i < a.depth; i++ {
		if currentIndex&1 == 0 {
			// Left child: this subtree's frontier node at level i
			// becomes currentHash; combine with the empty right sibling.
			a.filled[i] = currentHash
			currentHash = primitives.HashPair(currentHash, a.zeros[i])
		} else {
			// Right child: combine the cached left sibling with current.
			currentHash = primitives.HashPair(a.filled[i], currentHash)
		}
		currentIndex >>= 1
	}

	a.leaves = append(a.leaves, leaf)
	a.nextIndex++

	a.cursor = (a.cursor + 1) % len(a.roots)
	a.roots[a.cursor] = currentHash

	return index, nil
}

// IsKnownRoot reports whether r is a nonzero root present in any
// slot of the rolling root window. The zero root is always treated as
// unknown, even if it happens to occupy an unused ring slot.
func (a *Accumulator) IsKnownRoot(r primitives.Hash32) bool {
	if r.Zero() {
		return false
	}
	i := a.cursor
	for n := 0; n < len(a.roots); n++ {
		if a.roots[i] == r {
			return true
		}
		i--
		if i < 0 {
			i = len(a.roots) - 1
		}
	}
	return false
}

// GetProof extracts an inclusion proof for the leaf at index j. It
// materializes the full 2^depth leaf row, padded with zeros[0] past
// the inserted frontier, then condenses pair-by-pair up to the root,
// recording the sibling at each level. This is the straightforward
// O(2^depth) construction; GetProofs runs one such extraction per
// index in parallel goroutines, each doing its own full condensing.
func (a *Accumulator) GetProof(j uint64) (Proof, error) {
	if j >= uint64(len(a.leaves)) {
		return Proof{}, ErrLeafOutOfRange
	}

	levelSize := uint64(1) << uint(a.depth)
	level := make([]primitives.Hash32, levelSize)
	for i := range level {
		level[i] = a.zeros[0]
	}
	for i, leaf := range a.leaves {
		level[i] = leaf
	}

	steps := make([]Step, a.depth)
	idx := j
	for i := 0; i < a.depth; i++ {
		siblingIdx := idx ^ 1
		steps[i] = Step{
			Sibling: level[siblingIdx],
			IsLeft:  idx%2 == 0,
		}

		next := make([]primitives.Hash32, len(level)/2)
		for k := range next {
			next[k] = primitives.HashPair(level[2*k], level[2*k+1])
		}
		level = next
		idx /= 2
	}

	return Proof{LeafIndex: j, Steps: steps}, nil
}

// GetProofs extracts proofs for multiple leaf indices concurrently, one
// goroutine per index. The accumulator's leaf log is only read during
// this call, so no mutation may happen concurrently with it.
func (a *Accumulator) GetProofs(indices []uint64) ([]Proof, error) {
	proofs := make([]Proof, len(indices))
	var g errgroup.Group
	for i, idx := range indices {
		i, idx := i, idx
		g.Go(func() error {
			p, err := a.GetProof(idx)
			if err != nil {
				return err
			}
			proofs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return proofs, nil
}

// VerifyProof walks a proof from leaf to root and reports whether the
// result equals the supplied root. There is no early termination: every
// step is applied regardless of intermediate mismatches.
func VerifyProof(leaf primitives.Hash32, proof Proof, root primitives.Hash32) bool {
	current := leaf
	for _, step := range proof.Steps {
		if step.IsLeft {
			current = primitives.HashPair(current, step.Sibling)
		} else {
			current = primitives.HashPair(step.Sibling, current)
		}
	}
	return current == root
}
