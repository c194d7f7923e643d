// Package circuitcommon holds the in-circuit building blocks shared by
// the transfer and withdraw circuits: byte-lane hash wrappers around
// gnark's legacy-Keccak gadget, the amount<->big-endian-bytes
// conversion, and the Merkle-path verification sub-circuit. Both
// circuit packages import this instead of duplicating the wiring,
// matching the teacher's own split between a circuit package and the
// shared proof-verification sub-circuit it calls into.
package circuitcommon

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha3"
	"github.com/consensys/gnark/std/math/uints"
)

// Bytes32 represents a 32-byte hash, key, blinding, commitment, or
// nullifier as circuit byte lanes, the native representation Keccak
// operates on.
type Bytes32 [32]uints.U8

// Bytes8 represents an 8-byte big-endian token amount.
type Bytes8 [8]uints.U8

// Bytes20 represents a 20-byte withdrawal recipient address.
type Bytes20 [20]uints.U8

// AssertEqual constrains every byte lane of a and b to match.
func (a Bytes32) AssertEqual(api frontend.API, b Bytes32) {
	for i := range a {
		api.AssertIsEqual(a[i].Val, b[i].Val)
	}
}

// AssertNotEqual constrains a and b to differ in at least one byte
// lane. Used for in-circuit nullifier distinctness.
func (a Bytes32) AssertNotEqual(api frontend.API, b Bytes32) {
	allEqual := frontend.Variable(1)
	for i := range a {
		eq := api.IsZero(api.Sub(a[i].Val, b[i].Val))
		allEqual = api.Mul(allEqual, eq)
	}
	api.AssertIsEqual(allEqual, 0)
}

// HashBytes computes H(concat(parts...)) over raw byte lanes and
// returns the 32-byte digest. It uses gnark's legacy-Keccak256 gadget:
// the legacy (pre-FIPS-202) padding is required because it is what
// Ethereum's keccak256 opcode uses, and the one the pool's single hash
// primitive H is defined against.
func HashBytes(api frontend.API, parts ...[]uints.U8) (Bytes32, error) {
	h, err := sha3.NewLegacyKeccak256(api)
	if err != nil {
		return Bytes32{}, err
	}
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum()

	var out Bytes32
	copy(out[:], sum)
	return out, nil
}

// HashPair computes hash_pair(left, right) = H(left || right), the
// node-combining step used at every interior Merkle level.
func HashPair(api frontend.API, left, right Bytes32) (Bytes32, error) {
	return HashBytes(api, left[:], right[:])
}

// AmountToBE8 decomposes a field-element amount (assumed to fit in 64
// bits — callers MUST range-check this, see RangeCheckAmount) into its
// 8-byte big-endian representation.
func AmountToBE8(api frontend.API, amount frontend.Variable) Bytes8 {
	// ToBinary returns bits least-significant-first.
	bits := api.ToBinary(amount, 64)

	var out Bytes8
	for i := 0; i < 8; i++ {
		// Byte i (0 = most significant) holds bits [ (7-i)*8, (7-i)*8+8 ).
		start := (7 - i) * 8
		byteVal := api.FromBinary(bits[start : start+8]...)
		out[i] = uints.U8{Val: byteVal}
	}
	return out
}

// RangeCheckAmount constrains amount to fit in 64 bits, forbidding the
// kind of silent truncation that would let a prover claim an
// out-of-range value hashes to a shorter byte string.
func RangeCheckAmount(api frontend.API, amount frontend.Variable) {
	api.ToBinary(amount, 64)
}

// PadLeft12 left-pads a 20-byte address with 12 zero bytes to produce
// the 32-byte recipient word of the withdraw public-value layout. The
// withdraw circuit itself exposes the recipient as 20 bytes and does
// not call this helper.
func PadLeft12(api frontend.API, addr Bytes20) Bytes32 {
	var out Bytes32
	zero := uints.U8{Val: 0}
	for i := 0; i < 12; i++ {
		out[i] = zero
	}
	copy(out[12:], addr[:])
	return out
}

// PadLeft24 left-pads a 64-bit amount with 24 zero bytes to produce the
// 32-byte uint256 big-endian amount word of the withdraw public-value
// layout. The withdraw circuit itself exposes the amount as a single
// field element and does not call this helper.
func PadLeft24(amount Bytes8) Bytes32 {
	var out Bytes32
	var zero uints.U8
	for i := 0; i < 24; i++ {
		out[i] = zero
	}
	copy(out[24:], amount[:])
	return out
}
