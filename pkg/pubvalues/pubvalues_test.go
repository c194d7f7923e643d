package pubvalues

import (
	"bytes"
	"testing"

	"github.com/shielded/poolcore/pkg/primitives"
)

func TestTransferRoundTrip(t *testing.T) {
	var v Transfer
	v.Root[0] = 1
	v.Nullifier0[0] = 2
	v.Nullifier1[0] = 3
	v.OutputCommitment0[0] = 4
	v.OutputCommitment1[0] = 5

	enc := v.Encode()
	if len(enc) != Size {
		t.Fatalf("encoded length = %d, want %d", len(enc), Size)
	}
	got, err := DecodeTransfer(enc[:])
	if err != nil {
		t.Fatalf("DecodeTransfer: %v", err)
	}
	if got != v {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
	}
}

func TestWithdrawRoundTrip(t *testing.T) {
	var v Withdraw
	v.Root[0] = 9
	v.Nullifier[0] = 8
	copy(v.Recipient[:], bytes.Repeat([]byte{0xDE}, primitives.AddressSize))
	v.WithdrawAmount = 600000
	v.ChangeCommitment[0] = 7

	enc := v.Encode()
	got, err := DecodeWithdraw(enc[:])
	if err != nil {
		t.Fatalf("DecodeWithdraw: %v", err)
	}
	if got != v {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, v)
	}
}

// TestFullWithdrawLayoutMatchesScenario2 pins the exact byte layout for
// a full withdraw of 1,000,000 with no change: bytes 96..120 zero,
// bytes 120..128 = 00 00 00 00 00 0F 42 40 (1,000,000 BE), bytes
// 128..160 all zero.
func TestFullWithdrawLayoutMatchesScenario2(t *testing.T) {
	v := Withdraw{WithdrawAmount: 1000000}
	enc := v.Encode()

	if !bytes.Equal(enc[96:120], make([]byte, 24)) {
		t.Fatalf("amount high bytes not zero: %x", enc[96:120])
	}
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x0F, 0x42, 0x40}
	if !bytes.Equal(enc[120:128], want) {
		t.Fatalf("amount low 8 bytes = %x, want %x", enc[120:128], want)
	}
	if !bytes.Equal(enc[128:160], make([]byte, 32)) {
		t.Fatalf("change commitment not zero for full withdraw")
	}
}

func TestRecipientIsLeftPadded(t *testing.T) {
	v := Withdraw{}
	for i := range v.Recipient {
		v.Recipient[i] = 0xDE
	}
	enc := v.Encode()
	if !bytes.Equal(enc[64:76], make([]byte, 12)) {
		t.Fatalf("recipient not left-padded with zeros: %x", enc[64:76])
	}
	if !bytes.Equal(enc[76:96], bytes.Repeat([]byte{0xDE}, 20)) {
		t.Fatalf("recipient bytes misplaced: %x", enc[76:96])
	}
}

func TestChangeCommitmentFromWithdrawCalldata(t *testing.T) {
	v := Withdraw{WithdrawAmount: 600000}
	v.ChangeCommitment[0] = 0xAA
	v.ChangeCommitment[31] = 0xBB
	enc := v.Encode()

	got, err := ChangeCommitmentFromWithdrawCalldata(enc[:])
	if err != nil {
		t.Fatalf("ChangeCommitmentFromWithdrawCalldata: %v", err)
	}
	if got != v.ChangeCommitment {
		t.Fatalf("extracted change commitment mismatch: got %x, want %x", got, v.ChangeCommitment)
	}
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	if _, err := DecodeTransfer(make([]byte, Size-1)); err != ErrWrongSize {
		t.Fatalf("expected ErrWrongSize, got %v", err)
	}
	if _, err := DecodeWithdraw(make([]byte, Size+1)); err != ErrWrongSize {
		t.Fatalf("expected ErrWrongSize, got %v", err)
	}
}
