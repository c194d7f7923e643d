// Package pubvalues implements the byte-exact 160-byte public-value
// layouts committed by the transfer and withdraw circuits and consumed
// by the on-chain verifier. Any deviation in endianness, padding
// position, or slot order here is a consensus-breaking bug, not a
// style choice.
package pubvalues

import (
	"encoding/binary"
	"errors"

	"github.com/shielded/poolcore/pkg/primitives"
)

// Size is the fixed byte length of either public-value record.
const Size = 160

// ErrWrongSize is returned when decoding a slice that isn't exactly
// Size bytes long.
var ErrWrongSize = errors.New("pubvalues: input is not 160 bytes")

// Transfer is the five-word public-value record committed by the
// transfer circuit: root, two nullifiers, two output commitments.
type Transfer struct {
	Root              primitives.Hash32
	Nullifier0        primitives.Hash32
	Nullifier1        primitives.Hash32
	OutputCommitment0 primitives.Hash32
	OutputCommitment1 primitives.Hash32
}

// Encode serializes t to the 160-byte layout:
// root || nullifier0 || nullifier1 || out0 || out1.
func (t Transfer) Encode() [Size]byte {
	var out [Size]byte
	copy(out[0:32], t.Root[:])
	copy(out[32:64], t.Nullifier0[:])
	copy(out[64:96], t.Nullifier1[:])
	copy(out[96:128], t.OutputCommitment0[:])
	copy(out[128:160], t.OutputCommitment1[:])
	return out
}

// DecodeTransfer parses a 160-byte slice into a Transfer record.
func DecodeTransfer(b []byte) (Transfer, error) {
	var t Transfer
	if len(b) != Size {
		return t, ErrWrongSize
	}
	copy(t.Root[:], b[0:32])
	copy(t.Nullifier0[:], b[32:64])
	copy(t.Nullifier1[:], b[64:96])
	copy(t.OutputCommitment0[:], b[96:128])
	copy(t.OutputCommitment1[:], b[128:160])
	return t, nil
}

// Withdraw is the public-value record committed by the withdraw
// circuit: root, nullifier, left-padded recipient, big-endian amount,
// and the change commitment (the zero sentinel when there is no
// change).
type Withdraw struct {
	Root             primitives.Hash32
	Nullifier        primitives.Hash32
	Recipient        primitives.Address
	WithdrawAmount   uint64
	ChangeCommitment primitives.Hash32
}

// Encode serializes w to the 160-byte layout:
//
//	offset 0:   root                                   (32 bytes)
//	offset 32:  nullifier                               (32 bytes)
//	offset 64:  12 zero bytes || 20-byte recipient       (32 bytes)
//	offset 96:  24 zero bytes || 8-byte BE amount        (32 bytes)
//	offset 128: change commitment                        (32 bytes)
func (w Withdraw) Encode() [Size]byte {
	var out [Size]byte
	copy(out[0:32], w.Root[:])
	copy(out[32:64], w.Nullifier[:])
	copy(out[64+12:64+32], w.Recipient[:])
	binary.BigEndian.PutUint64(out[96+24:96+32], w.WithdrawAmount)
	copy(out[128:160], w.ChangeCommitment[:])
	return out
}

// DecodeWithdraw parses a 160-byte slice into a Withdraw record.
func DecodeWithdraw(b []byte) (Withdraw, error) {
	var w Withdraw
	if len(b) != Size {
		return w, ErrWrongSize
	}
	copy(w.Root[:], b[0:32])
	copy(w.Nullifier[:], b[32:64])
	copy(w.Recipient[:], b[64+12:64+32])
	w.WithdrawAmount = binary.BigEndian.Uint64(b[96+24 : 96+32])
	copy(w.ChangeCommitment[:], b[128:160])
	return w, nil
}

// ChangeCommitmentFromWithdrawCalldata extracts bytes 128..160 of an
// already-located public_values blob within a withdrawal transaction's
// call-data, per the on-chain-event ingestion contract: public_values
// is the second element of a three-blob tuple, and change_commitment
// occupies the last 32 bytes of that 160-byte record.
func ChangeCommitmentFromWithdrawCalldata(publicValues []byte) (primitives.Hash32, error) {
	if len(publicValues) != Size {
		return primitives.Hash32{}, ErrWrongSize
	}
	return primitives.HashFromBytes(publicValues[128:160])
}
