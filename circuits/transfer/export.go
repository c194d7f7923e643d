package transfer

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
// on-chain transfer verifier.
type ProofFixture struct {
	SolidityProof  [8]string `json:"solidity_proof"`
	Root           string    `json:"root"`
	Nullifier0     string    `json:"nullifier_0"`
	Nullifier1     string    `json:"nullifier_1"`
	OutCommitment0 string    `json:"out_commitment_0"`
	OutCommitment1 string    `json:"out_commitment_1"`
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

// ExportProofFixture generates a deterministic proof fixture for
// Solidity tests: a self-consolidation of two deterministic notes into
// two deterministic outputs, against a depth-TreeDepth accumulator.
// keysDir is the directory containing the proving and verifying keys.
func ExportProofFixture(keysDir string) ([]byte, error) {
	fmt.Println("Compiling circuit...")
	ccs, err := setup.CompileCircuit(NewCircuit())
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}

	fmt.Println("Loading keys...")
	pk, vk, err := setup.LoadKeys(keysDir, "transfer")
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	acc, err := merkle.NewAccumulator(TreeDepth)
	if err != nil {
		return nil, fmt.Errorf("new accumulator: %w", err)
	}

	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note0 := primitives.Note{Amount: 700000, Pubkey: pubkey, Blinding: repeatHash(0x01)}
	note1 := primitives.Note{Amount: 300000, Pubkey: pubkey, Blinding: repeatHash(0x02)}

	idx0, err := acc.Insert(note0.Commitment())
	if err != nil {
		return nil, fmt.Errorf("insert note0: %w", err)
	}
	idx1, err := acc.Insert(note1.Commitment())
	if err != nil {
		return nil, fmt.Errorf("insert note1: %w", err)
	}
	proof0, err := acc.GetProof(idx0)
	if err != nil {
		return nil, fmt.Errorf("proof0: %w", err)
	}
	proof1, err := acc.GetProof(idx1)
	if err != nil {
		return nil, fmt.Errorf("proof1: %w", err)
	}

	in := PrivateInput{
		Notes:        [2]primitives.Note{note0, note1},
		SpendingKeys: [2]primitives.SpendingKey{sk, sk},
		Proofs:       [2]merkle.Proof{proof0, proof1},
		Outputs: [2]primitives.Note{
			{Amount: 500000, Pubkey: pubkey, Blinding: repeatHash(0x03)},
			{Amount: 500000, Pubkey: pubkey, Blinding: repeatHash(0x04)},
		},
		Root: acc.CurrentRoot(),
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
	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return nil, fmt.Errorf("prove: %w", err)
	}

	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	fmt.Println("Proof verified successfully in Go!")

	bn254Proof := proof.(*groth16bn254.Proof)

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

	root, null0, null1, out0, out1 := in.PublicValues()
	fixture := ProofFixture{
		Root:           fmt.Sprintf("0x%064x", new(big.Int).SetBytes(root[:])),
		Nullifier0:     fmt.Sprintf("0x%064x", new(big.Int).SetBytes(null0[:])),
		Nullifier1:     fmt.Sprintf("0x%064x", new(big.Int).SetBytes(null1[:])),
		OutCommitment0: fmt.Sprintf("0x%064x", new(big.Int).SetBytes(out0[:])),
		OutCommitment1: fmt.Sprintf("0x%064x", new(big.Int).SetBytes(out1[:])),
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
