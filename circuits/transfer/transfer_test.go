package transfer_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/shielded/poolcore/circuits/transfer"
	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
)

func mustAccumulator(t *testing.T, depth int) *merkle.Accumulator {
	t.Helper()
	a, err := merkle.NewAccumulator(depth)
	if err != nil {
		t.Fatalf("NewAccumulator: %v", err)
	}
	return a
}

func repeatKey(b byte) primitives.SpendingKey {
	var sk primitives.SpendingKey
	for i := range sk {
		sk[i] = b
	}
	return sk
}

func repeatHash(b byte) primitives.Hash32 {
	var h primitives.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

func compile(t *testing.T) constraint.ConstraintSystem {
	t.Helper()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, transfer.NewCircuit())
	if err != nil {
		t.Fatalf("compile circuit: %v", err)
	}
	return ccs
}

// buildConsolidationInput reproduces the consolidation scenario: sk =
// 0xAB*32, notes of 700000 and 300000 combining into two outputs of
// 500000 each, one to a recipient derived from sk 0xCD*32 and one back
// to the sender.
func buildConsolidationInput(t *testing.T, acc *merkle.Accumulator) transfer.PrivateInput {
	t.Helper()

	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	recipientSK := repeatKey(0xCD)
	recipientPubkey := primitives.DerivePubkey(recipientSK)

	note0 := primitives.Note{Amount: 700000, Pubkey: pubkey, Blinding: repeatHash(0x01)}
	note1 := primitives.Note{Amount: 300000, Pubkey: pubkey, Blinding: repeatHash(0x02)}

	idx0, err := acc.Insert(note0.Commitment())
	if err != nil {
		t.Fatalf("insert note0: %v", err)
	}
	idx1, err := acc.Insert(note1.Commitment())
	if err != nil {
		t.Fatalf("insert note1: %v", err)
	}

	proof0, err := acc.GetProof(idx0)
	if err != nil {
		t.Fatalf("proof0: %v", err)
	}
	proof1, err := acc.GetProof(idx1)
	if err != nil {
		t.Fatalf("proof1: %v", err)
	}

	out0 := primitives.Note{Amount: 500000, Pubkey: recipientPubkey, Blinding: repeatHash(0x03)}
	out1 := primitives.Note{Amount: 500000, Pubkey: pubkey, Blinding: repeatHash(0x04)}

	return transfer.PrivateInput{
		Notes:        [2]primitives.Note{note0, note1},
		SpendingKeys: [2]primitives.SpendingKey{sk, sk},
		Proofs:       [2]merkle.Proof{proof0, proof1},
		Outputs:      [2]primitives.Note{out0, out1},
		Root:         acc.CurrentRoot(),
	}
}

func TestConsolidationPublicValues(t *testing.T) {
	acc := mustAccumulator(t, transfer.TreeDepth)
	in := buildConsolidationInput(t, acc)

	root, null0, null1, out0, out1 := in.PublicValues()
	if root != acc.CurrentRoot() {
		t.Fatal("expected public root to equal tree root after two inserts")
	}
	if null0 == null1 {
		t.Fatal("expected distinct nullifiers")
	}
	if out0.Zero() || out1.Zero() {
		t.Fatal("expected nonzero output commitments")
	}
}

func TestConsolidationProvesAndVerifies(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full groth16 setup/prove/verify in short mode")
	}

	acc := mustAccumulator(t, transfer.TreeDepth)
	in := buildConsolidationInput(t, acc)
	assignment := transfer.BuildAssignment(in)

	ccs := compile(t)
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("new witness: %v", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		t.Fatalf("public witness: %v", err)
	}

	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

// TestSameNoteTwiceIsRejected exercises the in-circuit nullifier
// distinctness check added on top of the original design: spending the
// same note twice as both inputs of one transfer must fail to solve,
// even when value is otherwise conserved (2 x 1000 in, 2 x 1000 out).
func TestSameNoteTwiceIsRejected(t *testing.T) {
	acc := mustAccumulator(t, transfer.TreeDepth)

	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note := primitives.Note{Amount: 1000, Pubkey: pubkey, Blinding: repeatHash(0x01)}

	idx, err := acc.Insert(note.Commitment())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	proof, err := acc.GetProof(idx)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	in := transfer.PrivateInput{
		Notes:        [2]primitives.Note{note, note},
		SpendingKeys: [2]primitives.SpendingKey{sk, sk},
		Proofs:       [2]merkle.Proof{proof, proof},
		Outputs: [2]primitives.Note{
			{Amount: 1000, Pubkey: pubkey, Blinding: repeatHash(0x02)},
			{Amount: 1000, Pubkey: pubkey, Blinding: repeatHash(0x03)},
		},
		Root: acc.CurrentRoot(),
	}

	root, null0, null1, _, _ := in.PublicValues()
	_ = root
	if null0 != null1 {
		t.Fatal("expected identical nullifiers when the same note is used twice")
	}

	ccs := compile(t)
	w, err := frontend.NewWitness(transfer.BuildAssignment(in), ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("new witness: %v", err)
	}
	if err := ccs.IsSolved(w); err == nil {
		t.Fatal("expected the circuit to reject a transfer spending the same note twice")
	}
}
