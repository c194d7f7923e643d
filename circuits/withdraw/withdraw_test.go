package withdraw_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/shielded/poolcore/circuits/withdraw"
	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
)

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

func repeatAddress(b byte) primitives.Address {
	var a primitives.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func compile(t *testing.T) constraint.ConstraintSystem {
	t.Helper()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, withdraw.NewCircuit())
	if err != nil {
		t.Fatalf("compile circuit: %v", err)
	}
	return ccs
}

// buildFullWithdrawalInput reproduces a full withdrawal of a 1,000,000
// token note with no change, recipient 0xDE*20.
func buildFullWithdrawalInput(t *testing.T, acc *merkle.Accumulator) withdraw.PrivateInput {
	t.Helper()

	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note := primitives.Note{Amount: 1000000, Pubkey: pubkey, Blinding: repeatHash(0x01)}

	idx, err := acc.Insert(note.Commitment())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	proof, err := acc.GetProof(idx)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	return withdraw.PrivateInput{
		Note:           note,
		SpendingKey:    sk,
		Proof:          proof,
		Root:           acc.CurrentRoot(),
		Recipient:      repeatAddress(0xDE),
		WithdrawAmount: 1000000,
		HasChange:      false,
	}
}

// buildPartialWithdrawalInput reproduces a partial withdrawal of a
// 1,000,000 token note: 600,000 withdrawn, 400,000 kept as change.
func buildPartialWithdrawalInput(t *testing.T, acc *merkle.Accumulator) withdraw.PrivateInput {
	t.Helper()

	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note := primitives.Note{Amount: 1000000, Pubkey: pubkey, Blinding: repeatHash(0x01)}

	idx, err := acc.Insert(note.Commitment())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	proof, err := acc.GetProof(idx)
	if err != nil {
		t.Fatalf("proof: %v", err)
	}

	changeNote := primitives.Note{Amount: 400000, Pubkey: pubkey, Blinding: repeatHash(0x02)}

	return withdraw.PrivateInput{
		Note:           note,
		SpendingKey:    sk,
		Proof:          proof,
		Root:           acc.CurrentRoot(),
		Recipient:      repeatAddress(0xDE),
		WithdrawAmount: 600000,
		HasChange:      true,
		ChangeNote:     changeNote,
	}
}

func TestFullWithdrawalHasZeroChangeCommitment(t *testing.T) {
	acc := mustAccumulator(t, withdraw.TreeDepth)
	in := buildFullWithdrawalInput(t, acc)

	_, _, _, _, changeCommitment := in.PublicValues()
	if !changeCommitment.Zero() {
		t.Fatal("expected zero change commitment sentinel for a full withdrawal")
	}
}

func TestPartialWithdrawalHasNonzeroChangeCommitment(t *testing.T) {
	acc := mustAccumulator(t, withdraw.TreeDepth)
	in := buildPartialWithdrawalInput(t, acc)

	_, _, _, withdrawAmount, changeCommitment := in.PublicValues()
	if withdrawAmount != 600000 {
		t.Fatalf("expected withdraw amount 600000, got %d", withdrawAmount)
	}
	if changeCommitment.Zero() {
		t.Fatal("expected nonzero change commitment for a partial withdrawal")
	}
	want := in.ChangeNote.Commitment()
	if changeCommitment != want {
		t.Fatal("change commitment does not match change note's own commitment")
	}
}

func TestFullWithdrawalProvesAndVerifies(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full groth16 setup/prove/verify in short mode")
	}

	acc := mustAccumulator(t, withdraw.TreeDepth)
	in := buildFullWithdrawalInput(t, acc)
	assignment := withdraw.BuildAssignment(in)

	ccs := compile(t)
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("new witness: %v", err)
	}
	publicWitness, err := w.Public()
	if err != nil {
		t.Fatalf("public witness: %v", err)
	}

	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestPartialWithdrawalProvesAndVerifies(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full groth16 setup/prove/verify in short mode")
	}

	acc := mustAccumulator(t, withdraw.TreeDepth)
	in := buildPartialWithdrawalInput(t, acc)
	assignment := withdraw.BuildAssignment(in)

	ccs := compile(t)
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		t.Fatalf("groth16 setup: %v", err)
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("new witness: %v", err)
	}
	publicWitness, err := w.Public()
	if err != nil {
		t.Fatalf("public witness: %v", err)
	}

	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func mustAccumulator(t *testing.T, depth int) *merkle.Accumulator {
	t.Helper()
	a, err := merkle.NewAccumulator(depth)
	if err != nil {
		t.Fatalf("NewAccumulator: %v", err)
	}
	return a
}
