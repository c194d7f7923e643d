package wallet_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/wallet"
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

func TestSaveThenLoadRoundTrips(t *testing.T) {
	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note := primitives.Note{Amount: 1234, Pubkey: pubkey, Blinding: repeatHash(0x01)}

	f := &wallet.File{}
	f.AddSpendingKey("main", sk)
	f.AddNote("first", note, 7)

	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := wallet.Save(path, f); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := wallet.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Notes) != 1 || loaded.Notes[0].Label != "first" {
		t.Fatalf("unexpected notes after round trip: %+v", loaded.Notes)
	}
	if len(loaded.SpendingKeys) != 1 || loaded.SpendingKeys[0].Label != "main" {
		t.Fatalf("unexpected spending keys after round trip: %+v", loaded.SpendingKeys)
	}

	gotNote, err := loaded.Notes[0].Note()
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if gotNote != note {
		t.Fatalf("decoded note %+v does not match original %+v", gotNote, note)
	}
}

func TestLoadRejectsTamperedCommitment(t *testing.T) {
	sk := repeatKey(0xAB)
	pubkey := primitives.DerivePubkey(sk)
	note := primitives.Note{Amount: 1234, Pubkey: pubkey, Blinding: repeatHash(0x01)}

	f := &wallet.File{}
	f.AddNote("tampered", note, 0)
	f.Notes[0].Amount = 9999 // invalidates the stored commitment

	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := wallet.Save(path, f); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err := wallet.Load(path)
	if !errors.Is(err, wallet.ErrCommitmentMismatch) {
		t.Fatalf("expected ErrCommitmentMismatch, got %v", err)
	}
}

func TestNotePubkeyFromHexAndRecipientSpendingKeyDiffer(t *testing.T) {
	sk := repeatKey(0xCD)
	recipientHex := "cdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd"

	honest, err := wallet.NotePubkeyFromHex(recipientHex)
	if err != nil {
		t.Fatalf("NotePubkeyFromHex: %v", err)
	}
	viaDefect, err := wallet.RecipientSpendingKeyAsPubkey(recipientHex)
	if err != nil {
		t.Fatalf("RecipientSpendingKeyAsPubkey: %v", err)
	}

	if honest == viaDefect {
		t.Fatal("expected the honest and defect-reproducing paths to diverge")
	}
	if viaDefect != primitives.DerivePubkey(sk) {
		t.Fatal("expected RecipientSpendingKeyAsPubkey to re-derive a pubkey from the hex as a spending key")
	}
}
