package withdraw

import (
	"fmt"

	"github.com/shielded/poolcore/pkg/merkle"
	"github.com/shielded/poolcore/pkg/primitives"
)

// JSONNote is the hex-string wire format for a note.
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

// JSONPrivateInput is the on-disk JSON shape for a withdraw proof
// request, mirroring the original Rust CLI's WithdrawPrivateInputs
// file layout: the spent note with its spending key and inclusion
// proof, the public recipient and withdrawal amount, and an optional
// change note.
type JSONPrivateInput struct {
	Note        JSONNote        `json:"note"`
	SpendingKey string          `json:"spending_key"`
	Proof       []JSONProofStep `json:"proof"`
	Root        string          `json:"root"`

	Recipient      string `json:"recipient"`
	WithdrawAmount uint64 `json:"withdraw_amount"`

	HasChange  bool     `json:"has_change"`
	ChangeNote JSONNote `json:"change_note"`
}

// Decode converts the hex-string JSON record into a PrivateInput ready
// for BuildAssignment or CBOR encoding.
func (j JSONPrivateInput) Decode() (PrivateInput, error) {
	var in PrivateInput

	note, err := j.Note.decode("note")
	if err != nil {
		return in, err
	}
	in.Note = note

	sk, err := primitives.SpendingKeyFromHex(j.SpendingKey)
	if err != nil {
		return in, fmt.Errorf("spending_key: %w", err)
	}
	in.SpendingKey = sk

	proof, err := decodeSteps(j.Proof, "proof")
	if err != nil {
		return in, err
	}
	in.Proof = proof

	root, err := primitives.Hash32FromHex(j.Root)
	if err != nil {
		return in, fmt.Errorf("root: %w", err)
	}
	in.Root = root

	recipient, err := primitives.AddressFromHex(j.Recipient)
	if err != nil {
		return in, fmt.Errorf("recipient: %w", err)
	}
	in.Recipient = recipient
	in.WithdrawAmount = j.WithdrawAmount
	in.HasChange = j.HasChange

	if j.HasChange {
		changeNote, err := j.ChangeNote.decode("change_note")
		if err != nil {
			return in, err
		}
		in.ChangeNote = changeNote
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
