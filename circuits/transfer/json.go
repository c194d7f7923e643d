package transfer

import (
	"fmt"

	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
)

// JSONNote is the hex-string wire format for a note, matching the
// layout the original CLI's JSON input files used.
type JSONNote struct {
	Amount   uint64 `json:"amount"`
	Pubkey   string `json:"pubkey"`
	Blinding string `json:"blinding"`
}

func (n JSONNote) decode(field string) (primitives.Note, error) {
	pubkey, err := primitives.Hash32FromHex(n.Pubkey)
	if err != nil {
		return primitives.Note{}, fmt.Errorf("%s.pubkey: %w", field, err)
	}
	blinding, err := primitives.Hash32FromHex(n.Blinding)
	if err != nil {
		return primitives.Note{}, fmt.Errorf("%s.blinding: %w", field, err)
	}
	return primitives.Note{Amount: n.Amount, Pubkey: pubkey, Blinding: blinding}, nil
}

// JSONProofStep is the hex-string wire format for one Merkle inclusion
// proof step.
type JSONProofStep struct {
	Sibling string `json:"sibling"`
	IsLeft  bool   `json:"is_left"`
}

func decodeSteps(steps []JSONProofStep, field string) (merkle.Proof, error) {
	out := merkle.Proof{Steps: make([]merkle.Step, len(steps))}
	for i, s := range steps {
		sibling, err := primitives.Hash32FromHex(s.Sibling)
		if err != nil {
			return merkle.Proof{}, fmt.Errorf("%s[%d].sibling: %w", field, i, err)
		}
		out.Steps[i] = merkle.Step{Sibling: sibling, IsLeft: s.IsLeft}
	}
	return out, nil
}

// JSONPrivateInput is the on-disk JSON shape for a transfer proof
// request: two spent notes with their spending keys and inclusion
// proofs against a shared root, and two freely-chosen outputs. This
// mirrors the original Rust CLI's TransferPrivateInputs file layout.
type JSONPrivateInput struct {
	Notes        [2]JSONNote        `json:"notes"`
	SpendingKeys [2]string          `json:"spending_keys"`
	Proofs       [2][]JSONProofStep `json:"proofs"`
	Outputs      [2]JSONNote        `json:"outputs"`
	Root         string             `json:"root"`
}

// Decode converts the hex-string JSON record into a PrivateInput ready
// for BuildAssignment or CBOR encoding.
func (j JSONPrivateInput) Decode() (PrivateInput, error) {
	var in PrivateInput

	root, err := primitives.Hash32FromHex(j.Root)
	if err != nil {
		return in, fmt.Errorf("root: %w", err)
	}
	in.Root = root

	for i := 0; i < 2; i++ {
		note, err := j.Notes[i].decode(fmt.Sprintf("notes[%d]", i))
		if err != nil {
			return in, err
		}
		in.Notes[i] = note

		sk, err := primitives.SpendingKeyFromHex(j.SpendingKeys[i])
		if err != nil {
			return in, fmt.Errorf("spending_keys[%d]: %w", i, err)
		}
		in.SpendingKeys[i] = sk

		proof, err := decodeSteps(j.Proofs[i], fmt.Sprintf("proofs[%d]", i))
		if err != nil {
			return in, err
		}
		in.Proofs[i] = proof

		out, err := j.Outputs[i].decode(fmt.Sprintf("outputs[%d]", i))
		if err != nil {
			return in, err
		}
		in.Outputs[i] = out
	}

	return in, nil
}

// ProofOutput is the hex-encoded JSON shape written after a successful
// prove, matching the original CLI's output file contract.
type ProofOutput struct {
	Proof        string `json:"proof"`
	PublicValues string `json:"public_values"`
	VerifyingKey string `json:"vkey"`
}
