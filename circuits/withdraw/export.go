package withdraw

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"

	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/setup"
)

// ProofFixture holds all values needed for Solidity tests against the
// on-chain withdraw verifier.
type ProofFixture struct {
	SolidityProof    [8]string `json:"solidity_proof"`
	Root             string    `json:"root"`
	Nullifier        string    `json:"nullifier"`
	Recipient        string    `json:"recipient"`
	WithdrawAmount   string    `json:"withdraw_amount"`
	ChangeCommitment string    `json:"change_commitment"`
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

func repeatAddress(b byte) primitives.Address {
	var a primitives.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// ExportProofFixture generates a deterministic proof fixture for
// Solidity tests: a partial withdrawal of a 1,000,000 token note, with
// 600,000 withdrawn and 400,000 kept as change, against a
// depth-TreeDepth accumulator. keysDir is the directory containing the
// proving and verifying keys.
func ExportProofFixture(keysDir string) ([]byte, error) {
	fmt.Println("Compiling circuit...")
	ccs, err := setup.CompileCircuit(NewCircuit())
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}

	fmt.Println("Loading keys...")
	pk, vk, err := setup.LoadKeys(keysDir, "withdraw")
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	acc, err := merkle.NewAccumulator(TreeDepth)
	if err != nil {
		return nil, fmt.Errorf("new accumulator: %w", err)
	}

	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note := primitives.Note{Amount: 1000000, Pubkey: pubkey, Blinding: repeatHash(0x01)}

	idx, err := acc.Insert(note.Commitment())
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	proof, err := acc.GetProof(idx)
	if err != nil {
		return nil, fmt.Errorf("proof: %w", err)
	}

	in := PrivateInput{
		Note:           note,
		SpendingKey:    sk,
		Proof:          proof,
		Root:           acc.CurrentRoot(),
		Recipient:      repeatAddress(0xDE),
		WithdrawAmount: 600000,
		HasChange:      true,
		ChangeNote:     primitives.Note{Amount: 400000, Pubkey: pubkey, Blinding: repeatHash(0x02)},
	}
	assignment := BuildAssignment(in)

	fmt.Println("Creating witness...")
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("create witness: %w", err)
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("extract public witness: %w", err)
	}

	fmt.Println("Generating proof...")
	proof2, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}

	if err := groth16.Verify(proof2, vk, publicWitness); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	fmt.Println("Proof verified successfully in Go!")

	bn254Proof := proof2.(*groth16bn254.Proof)

	aX, aY := new(big.Int), new(big.Int)
	bn254Proof.Ar.X.BigInt(aX)
	bn254Proof.Ar.Y.BigInt(aY)

	bX0, bX1, bY0, bY1 := new(big.Int), new(big.Int), new(big.Int), new(big.Int)
	bn254Proof.Bs.X.A0.BigInt(bX0)
	bn254Proof.Bs.X.A1.BigInt(bX1)
	bn254Proof.Bs.Y.A0.BigInt(bY0)
	bn254Proof.Bs.Y.A1.BigInt(bY1)

	cX, cY := new(big.Int), new(big.Int)
	bn254Proof.Krs.X.BigInt(cX)
	bn254Proof.Krs.Y.BigInt(cY)

	solidityProof := [8]*big.Int{aX, aY, bX1, bX0, bY1, bY0, cX, cY}

	root, nullifier, recipient, withdrawAmount, changeCommitment := in.PublicValues()
	fixture := ProofFixture{
		Root:             fmt.Sprintf("0x%064x", new(big.Int).SetBytes(root[:])),
		Nullifier:        fmt.Sprintf("0x%064x", new(big.Int).SetBytes(nullifier[:])),
		Recipient:        fmt.Sprintf("0x%040x", new(big.Int).SetBytes(recipient[:])),
		WithdrawAmount:   fmt.Sprintf("%d", withdrawAmount),
		ChangeCommitment: fmt.Sprintf("0x%064x", new(big.Int).SetBytes(changeCommitment[:])),
	}
	for i := 0; i < 8; i++ {
		fixture.SolidityProof[i] = fmt.Sprintf("0x%064x", solidityProof[i])
	}

	jsonOut, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal fixture: %w", err)
	}

	fmt.Println("\n=== PROOF FIXTURE (JSON) ===")
	fmt.Println(string(jsonOut))

	return jsonOut, nil
}
