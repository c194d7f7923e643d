// Package wallet persists spending keys and notes to a flat JSON file,
// the way a local client tool tracks what it owns in the pool without
// a database. Every loaded note's stored commitment is recomputed and
// checked against the note's own fields — a mismatch is a hard error,
// never silently repaired.
package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shielded/poolcore/pkg/primitives"
)

// ErrCommitmentMismatch is returned when a stored note's commitment
// field doesn't recompute from its own amount, pubkey, and blinding.
var ErrCommitmentMismatch = errors.New("wallet: stored commitment does not match recomputed commitment")

// SpendingKeyRecord is a labeled spending key, as persisted in the
// wallet file.
type SpendingKeyRecord struct {
	Label       string `json:"label"`
	SpendingKey string `json:"spending_key"`
	Pubkey      string `json:"pubkey"`
}

// NoteRecord is a labeled note, as persisted in the wallet file,
// including the leaf index it was inserted at so a client can rebuild
// inclusion proofs without rescanning the whole chain.
type NoteRecord struct {
	Label      string `json:"label"`
	Amount     uint64 `json:"amount"`
	Pubkey     string `json:"pubkey"`
	Blinding   string `json:"blinding"`
	Commitment string `json:"commitment"`
	LeafIndex  uint32 `json:"leaf_index"`
}

// File is the flat wallet persistence format.
type File struct {
	SpendingKeys []SpendingKeyRecord `json:"spending_keys"`
	Notes        []NoteRecord        `json:"notes"`
}

func hex32(h primitives.Hash32) string {
	return hex.EncodeToString(h[:])
}

func parseHex32(s, field string) (primitives.Hash32, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return primitives.Hash32{}, fmt.Errorf("wallet: decode %s: %w", field, err)
	}
	h, err := primitives.HashFromBytes(b)
	if err != nil {
		return primitives.Hash32{}, fmt.Errorf("wallet: %s: %w", field, err)
	}
	return h, nil
}

// Load reads and validates a wallet file from path. Every note's
// stored commitment must recompute exactly from (amount, pubkey,
// blinding); any mismatch aborts the load with ErrCommitmentMismatch.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("wallet: parse %s: %w", path, err)
	}

	for i, n := range f.Notes {
		pubkey, err := parseHex32(n.Pubkey, "notes["+n.Label+"].pubkey")
		if err != nil {
			return nil, err
		}
		blinding, err := parseHex32(n.Blinding, "notes["+n.Label+"].blinding")
		if err != nil {
			return nil, err
		}
		stored, err := parseHex32(n.Commitment, "notes["+n.Label+"].commitment")
		if err != nil {
			return nil, err
		}

		note := primitives.Note{Amount: n.Amount, Pubkey: pubkey, Blinding: blinding}
		recomputed := note.Commitment()
		if recomputed != stored {
			return nil, fmt.Errorf("%w: note %q (index %d)", ErrCommitmentMismatch, n.Label, i)
		}
	}

	return &f, nil
}

// Save writes f to path as indented JSON.
func Save(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("wallet: write %s: %w", path, err)
	}
	return nil
}

// AddNote appends a new note record to f, computing and storing its
// commitment.
func (f *File) AddNote(label string, note primitives.Note, leafIndex uint32) {
	f.Notes = append(f.Notes, NoteRecord{
		Label:      label,
		Amount:     note.Amount,
		Pubkey:     hex32(note.Pubkey),
		Blinding:   hex32(note.Blinding),
		Commitment: hex32(note.Commitment()),
		LeafIndex:  leafIndex,
	})
}

// AddSpendingKey appends a new spending-key record to f, deriving and
// storing its pubkey.
func (f *File) AddSpendingKey(label string, sk primitives.SpendingKey) {
	f.SpendingKeys = append(f.SpendingKeys, SpendingKeyRecord{
		Label:       label,
		SpendingKey: hex32(primitives.Hash32(sk)),
		Pubkey:      hex32(primitives.DerivePubkey(sk)),
	})
}

// Note decodes the NoteRecord's fields into a primitives.Note, without
// re-validating the commitment (Load already did that).
func (n NoteRecord) Note() (primitives.Note, error) {
	pubkey, err := parseHex32(n.Pubkey, "pubkey")
	if err != nil {
		return primitives.Note{}, err
	}
	blinding, err := parseHex32(n.Blinding, "blinding")
	if err != nil {
		return primitives.Note{}, err
	}
	return primitives.Note{Amount: n.Amount, Pubkey: pubkey, Blinding: blinding}, nil
}

// SpendingKey decodes the record's hex spending key.
func (r SpendingKeyRecord) SpendingKey() (primitives.SpendingKey, error) {
	h, err := parseHex32(r.SpendingKey, "spending_key")
	if err != nil {
		return primitives.SpendingKey{}, err
	}
	return primitives.SpendingKey(h), nil
}

// Wipe zeroes a decoded spending key in place (the hex string it was
// parsed from is left as it is), following the pool's single-writer secret
// discipline for any caller that copies a key out of the wallet file
// into its own scope.
func Wipe(sk *primitives.SpendingKey) {
	sk.Wipe()
}
