// Package withdraw implements the shielded pool's one-in/optional-
// change withdraw circuit: it proves ownership and inclusion of a
// single spent note, reveals a recipient address and withdrawal
// amount in the clear, and optionally re-shields the remainder as a
// change note whose commitment is folded into the public values (or
// the all-zero sentinel when there is no change).
package withdraw

import (
	"github.com/consensys/gnark/frontend"

	"github.com/shielded/poolcore/pkg/circuitcommon"
)

// NoteWitness mirrors circuits/transfer.NoteWitness: the in-circuit
// representation of a note's amount, pubkey, and blinding.
type NoteWitness struct {
	Amount   frontend.Variable
	Pubkey   circuitcommon.Bytes32
	Blinding circuitcommon.Bytes32
}

// Commitment computes note_commitment(note) = H(amount_be8 || pubkey ||
// blinding), range-checking Amount to 64 bits first.
func (n NoteWitness) Commitment(api frontend.API) (circuitcommon.Bytes32, error) {
	circuitcommon.RangeCheckAmount(api, n.Amount)
	amountBE := circuitcommon.AmountToBE8(api, n.Amount)
	return circuitcommon.HashBytes(api, amountBE[:], n.Pubkey[:], n.Blinding[:])
}

// Circuit is the one-in/optional-change withdraw circuit. Public
// values are committed in the fixed order: root, nullifier, recipient,
// withdraw_amount, change_commitment — 160 bytes total, matching
// pkg/pubvalues.Withdraw exactly.
type Circuit struct {
	// Public values, in the field order of pkg/pubvalues.Withdraw. The
	// recipient (20 bytes) and amount (one field element) are padded to
	// 32-byte words only in the 160-byte encoding.
	Root             circuitcommon.Bytes32 `gnark:",public"`
	Nullifier        circuitcommon.Bytes32 `gnark:",public"`
	Recipient        circuitcommon.Bytes20 `gnark:",public"`
	WithdrawAmount   frontend.Variable     `gnark:",public"`
	ChangeCommitment circuitcommon.Bytes32 `gnark:",public"`

	// Private inputs.
	Note        NoteWitness
	SpendingKey circuitcommon.Bytes32
	Proof       circuitcommon.MerkleProof

	// ChangeNote is only meaningful when HasChange == 1; when
	// HasChange == 0 its fields are unconstrained by the caller but
	// forced to contribute a zero change amount and a zero change
	// commitment below.
	ChangeNote NoteWitness
	HasChange  frontend.Variable
}

// NewCircuit returns a template Circuit with its Merkle proof
// pre-sized to TreeDepth levels, ready to pass to frontend.Compile. A
// bare &Circuit{} compiles a zero-level (unsound) Merkle check because
// gnark infers shape from the template's slice lengths; this
// constructor is the only correct way to build one.
func NewCircuit() *Circuit {
	return &Circuit{
		Proof: circuitcommon.NewMerkleProof(TreeDepth),
	}
}

func (c *Circuit) Define(api frontend.API) error {
	api.AssertIsBoolean(c.HasChange)

	// 1. Ownership: derive_pubkey(sk) == note.pubkey.
	derivedPubkey, err := circuitcommon.HashBytes(api, c.SpendingKey[:])
	if err != nil {
		return err
	}
	c.Note.Pubkey.AssertEqual(api, derivedPubkey)

	// 2. Inclusion: verify_merkle_proof(note.commitment(), proof, root).
	commitment, err := c.Note.Commitment(api)
	if err != nil {
		return err
	}
	root, err := circuitcommon.ComputeRoot(api, commitment, c.Proof)
	if err != nil {
		return err
	}
	root.AssertEqual(api, c.Root)

	nullifier, err := circuitcommon.HashBytes(api, commitment[:], c.SpendingKey[:])
	if err != nil {
		return err
	}
	nullifier.AssertEqual(api, c.Nullifier)

	// 3. Conservation: note.amount == withdraw_amount + effective
	// change amount, where the effective change amount is forced to 0
	// when HasChange == 0. This single constraint covers both the
	// full-withdrawal and partial-withdrawal-with-change branches.
	circuitcommon.RangeCheckAmount(api, c.WithdrawAmount)
	changeCommitment, err := c.ChangeNote.Commitment(api)
	if err != nil {
		return err
	}
	effectiveChangeAmount := api.Select(c.HasChange, c.ChangeNote.Amount, 0)
	api.AssertIsEqual(c.Note.Amount, api.Add(c.WithdrawAmount, effectiveChangeAmount))

	// 4. change_commitment := change_note.commitment() if HasChange,
	// else the 32-byte zero sentinel.
	var selectedChangeCommitment circuitcommon.Bytes32
	for i := 0; i < 32; i++ {
		selectedChangeCommitment[i].Val = api.Select(c.HasChange, changeCommitment[i].Val, frontend.Variable(0))
	}
	selectedChangeCommitment.AssertEqual(api, c.ChangeCommitment)

	return nil
}
