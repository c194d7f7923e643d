package ingest_test

import (
	"errors"
	"testing"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/shielded/poolcore/pkg/ingest"
	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/pubvalues"
)

// fakeChain is a stand-in for the on-chain pool view functions, letting
// tests drive Replay's reconciliation branches without an RPC client.
type fakeChain struct {
	lastRoot  primitives.Hash32
	knownRoot primitives.Hash32
}

func (c fakeChain) GetLastRoot() (primitives.Hash32, error) { return c.lastRoot, nil }
func (c fakeChain) GetLeafCount() (uint32, error)           { return 0, nil }
func (c fakeChain) IsKnownRoot(root primitives.Hash32) (bool, error) {
	return root == c.knownRoot, nil
}
func (c fakeChain) IsSpent(primitives.Hash32) (bool, error) { return false, nil }

func repeatHash(b byte) primitives.Hash32 {
	var h primitives.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

func mustWithdrawCalldata(t *testing.T, publicValues []byte) []byte {
	t.Helper()
	bytesType, err := gethabi.NewType("bytes", "", nil)
	if err != nil {
		t.Fatalf("build bytes type: %v", err)
	}
	args := gethabi.Arguments{{Type: bytesType}, {Type: bytesType}, {Type: bytesType}}
	data, err := args.Pack([]byte("proof"), publicValues, []byte("encrypted-change"))
	if err != nil {
		t.Fatalf("pack withdraw calldata: %v", err)
	}
	return data
}

func TestDecodeWithdrawalCommitmentExtractsChangeCommitment(t *testing.T) {
	want := repeatHash(0xAB)
	pv := pubvalues.Withdraw{
		Root:             repeatHash(0x01),
		Nullifier:        repeatHash(0x02),
		WithdrawAmount:   100,
		ChangeCommitment: want,
	}.Encode()

	calldata := mustWithdrawCalldata(t, pv[:])
	got, err := ingest.DecodeWithdrawalCommitment(calldata)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("expected change commitment %x, got %x", want, got)
	}
}

func TestReplayOrdersEventsByBlockThenLogIndex(t *testing.T) {
	leafA := repeatHash(0x01)
	leafB := repeatHash(0x02)
	leafC := repeatHash(0x03)

	// Deliberately out of order: block 2 before block 1, and within
	// block 1 log index 1 before log index 0.
	events := []ingest.Event{
		{Kind: ingest.DepositEvent, BlockNumber: 2, LogIndex: 0, Commitments: []primitives.Hash32{leafC}},
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 1, Commitments: []primitives.Hash32{leafB}},
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 0, Commitments: []primitives.Hash32{leafA}},
	}

	result, err := ingest.Replay(events, 8, 32, nil, false)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Accumulator.NumLeaves() != 3 {
		t.Fatalf("expected 3 leaves, got %d", result.Accumulator.NumLeaves())
	}

	proofA, err := result.Accumulator.GetProof(0)
	if err != nil {
		t.Fatalf("proof for leaf 0: %v", err)
	}
	if !merkle.VerifyProof(leafA, proofA, result.Accumulator.CurrentRoot()) {
		t.Fatal("expected leafA at index 0 (block 1, log 0 replays first)")
	}
}

func TestReplaySkipsZeroChangeCommitmentForFullWithdrawal(t *testing.T) {
	pv := pubvalues.Withdraw{
		Root:           repeatHash(0x01),
		Nullifier:      repeatHash(0x02),
		WithdrawAmount: 100,
	}.Encode()
	calldata := mustWithdrawCalldata(t, pv[:])

	events := []ingest.Event{
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 0, Commitments: []primitives.Hash32{repeatHash(0x10)}},
		{Kind: ingest.WithdrawalEvent, BlockNumber: 2, LogIndex: 0, WithdrawCalldata: calldata},
	}

	result, err := ingest.Replay(events, 8, 32, nil, false)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Accumulator.NumLeaves() != 1 {
		t.Fatalf("expected full withdrawal to contribute no leaf, got %d leaves", result.Accumulator.NumLeaves())
	}
}

func TestReplayExactMatchAgainstChain(t *testing.T) {
	events := []ingest.Event{
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 0, Commitments: []primitives.Hash32{repeatHash(0x10)}},
	}

	acc, err := merkle.NewAccumulator(8)
	if err != nil {
		t.Fatalf("new accumulator: %v", err)
	}
	if _, err := acc.Insert(repeatHash(0x10)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	chain := fakeChain{lastRoot: acc.CurrentRoot()}
	result, err := ingest.Replay(events, 8, 32, chain, false)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !result.ExactMatch {
		t.Fatal("expected exact match against chain's last root")
	}
}

func TestReplayMismatchWithoutBestEffortFails(t *testing.T) {
	events := []ingest.Event{
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 0, Commitments: []primitives.Hash32{repeatHash(0x10)}},
	}

	chain := fakeChain{lastRoot: repeatHash(0xFF)}
	_, err := ingest.Replay(events, 8, 32, chain, false)
	if !errors.Is(err, ingest.ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch, got %v", err)
	}
}

func TestReplayBestEffortToleratesKnownRootMismatch(t *testing.T) {
	events := []ingest.Event{
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 0, Commitments: []primitives.Hash32{repeatHash(0x10)}},
	}

	acc, err := merkle.NewAccumulator(8)
	if err != nil {
		t.Fatalf("new accumulator: %v", err)
	}
	if _, err := acc.Insert(repeatHash(0x10)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Chain's last root is stale (doesn't match the replay), but the
	// replayed root is still within the chain's rolling root window.
	chain := fakeChain{lastRoot: repeatHash(0xFF), knownRoot: acc.CurrentRoot()}
	result, err := ingest.Replay(events, 8, 32, chain, true)
	if err != nil {
		t.Fatalf("replay with best-effort: %v", err)
	}
	if result.ExactMatch {
		t.Fatal("expected ExactMatch=false when local root only matched via IsKnownRoot")
	}
}

func TestReplayBestEffortStillFailsWhenRootUnknown(t *testing.T) {
	events := []ingest.Event{
		{Kind: ingest.DepositEvent, BlockNumber: 1, LogIndex: 0, Commitments: []primitives.Hash32{repeatHash(0x10)}},
	}

	chain := fakeChain{lastRoot: repeatHash(0xFF), knownRoot: repeatHash(0xEE)}
	_, err := ingest.Replay(events, 8, 32, chain, true)
	if !errors.Is(err, ingest.ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch when root is outside the known window, got %v", err)
	}
}
