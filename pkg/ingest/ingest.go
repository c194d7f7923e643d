// Package ingest replays already-fetched, ABI-decoded on-chain pool
// events into a local merkle.Accumulator, the way a client rebuilds
// its view of a deployed pool without holding a live RPC connection.
// It never performs the fetch itself: callers hand it a batch of
// decoded events, modeled on the original IShieldedPool interface
// (deposit, privateTransfer, withdraw, getLastRoot, getLeafCount,
// isKnownRoot, isSpent, and the Deposit event).
package ingest

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/pubvalues"
)

// ErrStateMismatch is returned by Replay when the locally-replayed
// root doesn't match the on-chain root and the caller didn't opt into
// best-effort mode.
var ErrStateMismatch = errors.New("ingest: replayed root does not match on-chain root")

// Kind identifies which pool event an Event record came from.
type Kind int

const (
	DepositEvent Kind = iota
	PrivateTransferEvent
	WithdrawalEvent
)

// Event is one decoded pool event ready for replay. BlockNumber and
// LogIndex fix the total order events must be replayed in; Commitments
// holds, in declared order, the leaf(s) the event contributes: one for
// a deposit, two for a private transfer, and zero or one for a
// withdrawal depending on whether WithdrawCalldata's public_values blob
// carries a nonzero change_commitment.
type Event struct {
	Kind        Kind
	BlockNumber uint64
	LogIndex    uint32

	// Commitments is set directly for DepositEvent and
	// PrivateTransferEvent. It is not read for WithdrawalEvent, whose
	// commitment is decoded from WithdrawCalldata during replay and is
	// not stored back into this field.
	Commitments []primitives.Hash32

	// WithdrawCalldata is the withdrawal transaction's ABI-encoded
	// (proof, publicValues, encryptedChange) tuple, set only for
	// WithdrawalEvent. Only WithdrawCalldata is ever read for a
	// withdrawal.
	WithdrawCalldata []byte

	// TxHash identifies the originating transaction, carried through
	// purely for diagnostics.
	TxHash common.Hash
}

// sortKey orders events by (block_number, log_index), the replay order
// the accumulator's insertion-order guarantee depends on.
func sortKey(e Event) (uint64, uint32) { return e.BlockNumber, e.LogIndex }

// SortEvents orders events in place by (block_number, log_index).
func SortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		bi, li := sortKey(events[i])
		bj, lj := sortKey(events[j])
		if bi != bj {
			return bi < bj
		}
		return li < lj
	})
}

// Chain is the subset of the on-chain pool contract's view functions
// ingestion needs to cross-check a replay against, mirroring
// IShieldedPool's getLastRoot/getLeafCount/isKnownRoot/isSpent.
type Chain interface {
	GetLastRoot() (primitives.Hash32, error)
	GetLeafCount() (uint32, error)
	IsKnownRoot(root primitives.Hash32) (bool, error)
	IsSpent(nullifier primitives.Hash32) (bool, error)
}

// Result is the outcome of a replay: the rebuilt accumulator and
// whether its root matched the on-chain root exactly.
type Result struct {
	Accumulator *merkle.Accumulator
	ExactMatch  bool
}

// Replay inserts every commitment contributed by events, in
// (block_number, log_index) order, into a fresh accumulator of the
// given depth and window. If chain is non-nil, the replayed root is
// compared against chain.GetLastRoot(): an exact mismatch returns
// ErrStateMismatch unless bestEffort is true, in which case the
// mismatch is tolerated as long as the replayed root is still known to
// the chain's rolling root window (chain.IsKnownRoot).
func Replay(events []Event, depth, window int, chain Chain, bestEffort bool) (*Result, error) {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	SortEvents(ordered)

	acc, err := merkle.NewAccumulatorWithWindow(depth, window)
	if err != nil {
		return nil, fmt.Errorf("ingest: new accumulator: %w", err)
	}

	for _, e := range ordered {
		commitments, err := e.commitments()
		if err != nil {
			return nil, err
		}
		for _, c := range commitments {
			if _, err := acc.Insert(c); err != nil {
				return nil, fmt.Errorf("ingest: insert commitment from block %d log %d: %w", e.BlockNumber, e.LogIndex, err)
			}
		}
	}

	result := &Result{Accumulator: acc, ExactMatch: true}
	if chain == nil {
		return result, nil
	}

	onChainRoot, err := chain.GetLastRoot()
	if err != nil {
		return nil, fmt.Errorf("ingest: get last root: %w", err)
	}
	if acc.CurrentRoot() == onChainRoot {
		return result, nil
	}

	result.ExactMatch = false
	if !bestEffort {
		return nil, fmt.Errorf("%w: local %x, chain %x", ErrStateMismatch, acc.CurrentRoot(), onChainRoot)
	}

	known, err := chain.IsKnownRoot(acc.CurrentRoot())
	if err != nil {
		return nil, fmt.Errorf("ingest: is known root: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("%w: local root %x is not within the chain's root window", ErrStateMismatch, acc.CurrentRoot())
	}
	return result, nil
}

// commitments returns the leaves e contributes, decoding a
// withdrawal's change_commitment from its call-data on demand.
func (e Event) commitments() ([]primitives.Hash32, error) {
	switch e.Kind {
	case DepositEvent, PrivateTransferEvent:
		return e.Commitments, nil
	case WithdrawalEvent:
		changeCommitment, err := DecodeWithdrawalCommitment(e.WithdrawCalldata)
		if err != nil {
			return nil, fmt.Errorf("ingest: decode withdrawal calldata (block %d log %d): %w", e.BlockNumber, e.LogIndex, err)
		}
		if changeCommitment.Zero() {
			return nil, nil
		}
		return []primitives.Hash32{changeCommitment}, nil
	default:
		return nil, fmt.Errorf("ingest: unknown event kind %d", e.Kind)
	}
}

// DecodeWithdrawalCommitment extracts the change commitment from a
// withdrawal's (proof, publicValues, encryptedChange) call-data tuple,
// per §6's word-encoded three-blob contract: publicValues is the
// second blob, and change_commitment occupies its last 32 bytes.
func DecodeWithdrawalCommitment(calldata []byte) (primitives.Hash32, error) {
	publicValues, err := decodeSecondBytesArg(calldata)
	if err != nil {
		return primitives.Hash32{}, err
	}
	return pubvalues.ChangeCommitmentFromWithdrawCalldata(publicValues)
}
