package withdraw

import (
	"github.com/consensys/gnark/std/math/uints"

	"github.com/shielded/poolcore/pkg/circuitcommon"
	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
)

func bytes32Assignment(h primitives.Hash32) circuitcommon.Bytes32 {
	var out circuitcommon.Bytes32
	copy(out[:], uints.NewU8Array(h[:]))
	return out
}

func bytes20Assignment(a primitives.Address) circuitcommon.Bytes20 {
	var out circuitcommon.Bytes20
	copy(out[:], uints.NewU8Array(a[:]))
	return out
}

func proofAssignment(p merkle.Proof) circuitcommon.MerkleProof {
	// Must match TreeDepth exactly: the compiled circuit's Merkle-path
	// sub-circuit shape is fixed at compile time by NewCircuit, and a
	// mismatched step count would silently misalign siblings against
	// levels rather than fail loudly.
	if len(p.Steps) != TreeDepth {
		panic("proofAssignment: proof depth does not match withdraw.TreeDepth")
	}
	out := circuitcommon.NewMerkleProof(TreeDepth)
	for i, step := range p.Steps {
		out.Siblings[i] = bytes32Assignment(step.Sibling)
		if step.IsLeft {
			out.Directions[i] = 0
		} else {
			out.Directions[i] = 1
		}
	}
	return out
}

func noteAssignment(n primitives.Note) NoteWitness {
	return NoteWitness{
		Amount:   n.Amount,
		Pubkey:   bytes32Assignment(n.Pubkey),
		Blinding: bytes32Assignment(n.Blinding),
	}
}

// PrivateInput groups everything a prover needs to build a withdraw
// witness: the spent note and its spending key and inclusion proof
// against a root, the public recipient and withdrawal amount, and an
// optional change note kept by the sender.
type PrivateInput struct {
	Note        primitives.Note
	SpendingKey primitives.SpendingKey
	Proof       merkle.Proof
	Root        primitives.Hash32

	Recipient      primitives.Address
	WithdrawAmount uint64

	// ChangeNote is used only when HasChange is true; leave it zero
	// otherwise.
	HasChange  bool
	ChangeNote primitives.Note
}

// PublicValues computes the 160-byte public-value record this witness
// commits to, independent of circuit proving.
func (in PrivateInput) PublicValues() (root, nullifier primitives.Hash32, recipient primitives.Address, withdrawAmount uint64, changeCommitment primitives.Hash32) {
	commitment := in.Note.Commitment()
	nullifier = primitives.Nullifier(commitment, in.SpendingKey)
	if in.HasChange {
		changeCommitment = in.ChangeNote.Commitment()
	}
	return in.Root, nullifier, in.Recipient, in.WithdrawAmount, changeCommitment
}

// BuildAssignment converts a PrivateInput into a fully-populated
// Circuit ready to be passed to frontend.NewWitness.
func BuildAssignment(in PrivateInput) *Circuit {
	root, nullifier, recipient, withdrawAmount, changeCommitment := in.PublicValues()

	assignment := &Circuit{
		Root:             bytes32Assignment(root),
		Nullifier:        bytes32Assignment(nullifier),
		Recipient:        bytes20Assignment(recipient),
		WithdrawAmount:   withdrawAmount,
		ChangeCommitment: bytes32Assignment(changeCommitment),

		Note:        noteAssignment(in.Note),
		SpendingKey: bytes32Assignment(primitives.Hash32(in.SpendingKey)),
		Proof:       proofAssignment(in.Proof),
		ChangeNote:  noteAssignment(in.ChangeNote),
	}
	if in.HasChange {
		assignment.HasChange = 1
	} else {
		assignment.HasChange = 0
	}
	return assignment
}
