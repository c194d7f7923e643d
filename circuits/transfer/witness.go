package transfer

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

func proofAssignment(p merkle.Proof) circuitcommon.MerkleProof {
	// Must match TreeDepth exactly: the compiled circuit's Merkle-path
	// sub-circuit shape is fixed at compile time by NewCircuit, and a
	// mismatched step count would silently misalign siblings against
	// levels rather than fail loudly.
	if len(p.Steps) != TreeDepth {
		panic("proofAssignment: proof depth does not match transfer.TreeDepth")
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

// PrivateInput groups everything a prover needs to build a transfer
// witness: the two spent notes and their spending keys and inclusion
// proofs against a shared root, and the two freely-chosen output
// notes.
type PrivateInput struct {
	Notes        [2]primitives.Note
	SpendingKeys [2]primitives.SpendingKey
	Proofs       [2]merkle.Proof
	Outputs      [2]primitives.Note
	Root         primitives.Hash32
}

// PublicValues computes the 160-byte public-value record this witness
// commits to, independent of circuit proving — useful for tests and
// for callers that want to display the expected public values before
// invoking the proving backend.
func (in PrivateInput) PublicValues() (root, null0, null1, out0, out1 primitives.Hash32) {
	c0 := in.Notes[0].Commitment()
	c1 := in.Notes[1].Commitment()
	return in.Root,
		primitives.Nullifier(c0, in.SpendingKeys[0]),
		primitives.Nullifier(c1, in.SpendingKeys[1]),
		in.Outputs[0].Commitment(),
		in.Outputs[1].Commitment()
}

// BuildAssignment converts a PrivateInput into a fully-populated
// Circuit ready to be passed to frontend.NewWitness.
func BuildAssignment(in PrivateInput) *Circuit {
	root, null0, null1, out0, out1 := in.PublicValues()

	assignment := &Circuit{
		Root:           bytes32Assignment(root),
		Nullifier0:     bytes32Assignment(null0),
		Nullifier1:     bytes32Assignment(null1),
		OutCommitment0: bytes32Assignment(out0),
		OutCommitment1: bytes32Assignment(out1),
	}

	for i := 0; i < 2; i++ {
		assignment.Notes[i] = noteAssignment(in.Notes[i])
		assignment.SpendingKeys[i] = bytes32Assignment(primitives.Hash32(in.SpendingKeys[i]))
		assignment.Proofs[i] = proofAssignment(in.Proofs[i])
		assignment.Outputs[i] = noteAssignment(in.Outputs[i])
	}

	return assignment
}
