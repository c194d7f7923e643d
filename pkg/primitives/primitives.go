// Package primitives implements the hash, commitment, nullifier, and
// key-derivation building blocks shared by the accumulator and both
// circuit programs. A single hash function underlies everything: legacy
// Keccak-256, the pre-standard variant also used by Ethereum's
// `keccak256` opcode, not FIPS 202 SHA3-256.
package primitives

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashSize is the fixed width, in bytes, of every hash, key, blinding,
// commitment, and nullifier in the system.
const HashSize = 32

// AddressSize is the fixed width, in bytes, of a withdrawal recipient.
const AddressSize = 20

var (
	// ErrWrongSize is returned when an input that must be exactly
	// HashSize (or AddressSize) bytes is not.
	ErrWrongSize = errors.New("primitives: wrong input size")
)

// Hash32 is a 32-byte hash, key, blinding, commitment, or nullifier.
type Hash32 [HashSize]byte

// Zero reports whether h is the all-zero sentinel value.
func (h Hash32) Zero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}

// H is the pool's single hash primitive: legacy Keccak-256 over an
// arbitrary-length byte string.
func H(data []byte) Hash32 {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	var out Hash32
	d.Sum(out[:0])
	return out
}

// HashPair combines two 32-byte nodes into their parent:
// hash_pair(L, R) = H(L || R), over a fixed 64-byte preimage. Every
// interior Merkle node is produced this way.
func HashPair(left, right Hash32) Hash32 {
	var buf [2 * HashSize]byte
	copy(buf[:HashSize], left[:])
	copy(buf[HashSize:], right[:])
	return H(buf[:])
}

// SpendingKey is the 32-byte secret that derives a note's owning pubkey.
type SpendingKey Hash32

// DerivePubkey computes pubkey = H(spending_key). The result is a
// commitment to the spending key, not a public-key-cryptography
// verification key: it carries no signature capability and must never
// be used as such outside a circuit.
func DerivePubkey(sk SpendingKey) Hash32 {
	return H(sk[:])
}

// Wipe zeroes the spending key in place. Callers that copy a spending
// key into a local variable they don't hand off elsewhere should call
// this on scope exit.
func (sk *SpendingKey) Wipe() {
	for i := range sk {
		sk[i] = 0
	}
}

// Note is a hiding commitment preimage owned off-chain by exactly one
// party. Notes are created once, never mutated, and are logically
// destroyed when their nullifier is revealed.
type Note struct {
	Amount   uint64
	Pubkey   Hash32
	Blinding Hash32
}

// Commitment computes c = H(amount_be8 || pubkey || blinding), the
// 72-byte preimage fixed by the note layout.
func (n Note) Commitment() Hash32 {
	var buf [8 + 2*HashSize]byte
	binary.BigEndian.PutUint64(buf[:8], n.Amount)
	copy(buf[8:8+HashSize], n.Pubkey[:])
	copy(buf[8+HashSize:], n.Blinding[:])
	return H(buf[:])
}

// Nullifier computes n = H(commitment || spending_key), the 64-byte
// preimage that makes a spend deterministic and hence double-spend
// detectable by repetition.
func Nullifier(commitment Hash32, sk SpendingKey) Hash32 {
	var buf [2 * HashSize]byte
	copy(buf[:HashSize], commitment[:])
	copy(buf[HashSize:], sk[:])
	return H(buf[:])
}

// NullifierFor is a convenience wrapper computing the nullifier for a
// note spent by sk: Nullifier(note.Commitment(), sk).
func NullifierFor(note Note, sk SpendingKey) Hash32 {
	return Nullifier(note.Commitment(), sk)
}

// Address is a 20-byte withdrawal recipient.
type Address [AddressSize]byte

// HashFromBytes validates and wraps a slice into a Hash32, rejecting
// anything that isn't exactly HashSize bytes.
func HashFromBytes(b []byte) (Hash32, error) {
	var h Hash32
	if len(b) != HashSize {
		return h, ErrWrongSize
	}
	copy(h[:], b)
	return h, nil
}

// AddressFromBytes validates and wraps a slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, ErrWrongSize
	}
	copy(a[:], b)
	return a, nil
}

// Hash32FromHex decodes a hex string (with or without "0x") into a Hash32.
func Hash32FromHex(s string) (Hash32, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash32{}, fmt.Errorf("primitives: decode hex: %w", err)
	}
	return HashFromBytes(b)
}

// AddressFromHex decodes a hex string (with or without "0x") into an Address.
func AddressFromHex(s string) (Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Address{}, fmt.Errorf("primitives: decode hex: %w", err)
	}
	return AddressFromBytes(b)
}

// SpendingKeyFromHex decodes a hex string into a SpendingKey.
func SpendingKeyFromHex(s string) (SpendingKey, error) {
	h, err := Hash32FromHex(s)
	if err != nil {
		return SpendingKey{}, err
	}
	return SpendingKey(h), nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	return hex.DecodeString(s)
}

// Hex encodes h as a "0x"-prefixed lowercase hex string.
func (h Hash32) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Hex encodes a as a "0x"-prefixed lowercase hex string.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}
