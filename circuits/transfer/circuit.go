// Package transfer implements the shielded pool's two-in/two-out
// transfer circuit: it proves ownership and inclusion of two spent
// notes, conserves value between the two inputs and two freely-chosen
// outputs, and commits the root, both nullifiers, and both output
// commitments as the circuit's public values.
package transfer

import (
	"github.com/consensys/gnark/frontend"

	"github.com/shielded/poolcore/pkg/circuitcommon"
)

// NoteWitness is the in-circuit representation of a note: amount plus
// the two 32-byte fields that make up its commitment preimage.
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

// Circuit is the two-in/two-out transfer circuit. Public values are
// committed in the fixed order: root, nullifier0, nullifier1,
// outCommitment0, outCommitment1 — 160 bytes total, matching
// pkg/pubvalues.Transfer exactly.
type Circuit struct {
	// Public values (5 words, 160 bytes).
	Root           circuitcommon.Bytes32 `gnark:",public"`
	Nullifier0     circuitcommon.Bytes32 `gnark:",public"`
	Nullifier1     circuitcommon.Bytes32 `gnark:",public"`
	OutCommitment0 circuitcommon.Bytes32 `gnark:",public"`
	OutCommitment1 circuitcommon.Bytes32 `gnark:",public"`

	// Private inputs.
	Notes        [2]NoteWitness
	SpendingKeys [2]circuitcommon.Bytes32
	Proofs       [2]circuitcommon.MerkleProof
	Outputs      [2]NoteWitness
}

// NewCircuit returns a template Circuit with both Merkle proofs
// pre-sized to TreeDepth levels, ready to pass to frontend.Compile. A
// bare &Circuit{} compiles a zero-level (unsound) Merkle check because
// gnark infers shape from the template's slice lengths; this
// constructor is the only correct way to build one.
func NewCircuit() *Circuit {
	return &Circuit{
		Proofs: [2]circuitcommon.MerkleProof{
			circuitcommon.NewMerkleProof(TreeDepth),
			circuitcommon.NewMerkleProof(TreeDepth),
		},
	}
}

func (c *Circuit) Define(api frontend.API) error {
	var nullifiers [2]circuitcommon.Bytes32

	for i := 0; i < 2; i++ {
		// 1. Ownership: derive_pubkey(sk_i) == note_i.pubkey.
		derivedPubkey, err := circuitcommon.HashBytes(api, c.SpendingKeys[i][:])
		if err != nil {
			return err
		}
		c.Notes[i].Pubkey.AssertEqual(api, derivedPubkey)

		// 2. Inclusion: verify_merkle_proof(note_i.commitment(), proof_i, root).
		commitment, err := c.Notes[i].Commitment(api)
		if err != nil {
			return err
		}
		root, err := circuitcommon.ComputeRoot(api, commitment, c.Proofs[i])
		if err != nil {
			return err
		}
		root.AssertEqual(api, c.Root)

		// nullifier_i = H(commitment_i || sk_i), reused below for the
		// public-value commitment and the distinctness check.
		nullifiers[i], err = circuitcommon.HashBytes(api, commitment[:], c.SpendingKeys[i][:])
		if err != nil {
			return err
		}
	}

	// 3. Conservation, widened to 65 bits to forbid wrap-around.
	circuitcommon.RangeCheckAmount(api, c.Outputs[0].Amount)
	circuitcommon.RangeCheckAmount(api, c.Outputs[1].Amount)
	sumIn := api.Add(c.Notes[0].Amount, c.Notes[1].Amount)
	sumOut := api.Add(c.Outputs[0].Amount, c.Outputs[1].Amount)
	api.ToBinary(sumIn, 65)
	api.ToBinary(sumOut, 65)
	api.AssertIsEqual(sumIn, sumOut)

	// Nullifier distinctness: rejects spending the same note twice
	// within a single transfer in-circuit, tightening the original
	// design which left this solely to the on-chain nullifier registry.
	nullifiers[0].AssertNotEqual(api, nullifiers[1])

	// 4. Commit the five public words.
	nullifiers[0].AssertEqual(api, c.Nullifier0)
	nullifiers[1].AssertEqual(api, c.Nullifier1)

	outCommitment0, err := c.Outputs[0].Commitment(api)
	if err != nil {
		return err
	}
	outCommitment0.AssertEqual(api, c.OutCommitment0)

	outCommitment1, err := c.Outputs[1].Commitment(api)
	if err != nil {
		return err
	}
	outCommitment1.AssertEqual(api, c.OutCommitment1)

	return nil
}
