package ingest

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// withdrawArgs describes the (bytes proof, bytes publicValues, bytes
// encryptedChange) argument tuple IShieldedPool.withdraw takes,
// each a dynamically-sized, word-offset-encoded byte blob per
// Solidity ABI encoding.
var withdrawArgs = mustArguments(
	mustType("bytes"), mustType("bytes"), mustType("bytes"),
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("ingest: build abi type %q: %v", t, err))
	}
	return typ
}

func mustArguments(types ...abi.Type) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		args[i] = abi.Argument{Type: t}
	}
	return args
}

// decodeSecondBytesArg ABI-decodes calldata as a (bytes, bytes, bytes)
// tuple and returns the second element — publicValues, in
// IShieldedPool.withdraw's argument order. calldata must already have
// any 4-byte function selector stripped.
func decodeSecondBytesArg(calldata []byte) ([]byte, error) {
	values, err := withdrawArgs.Unpack(calldata)
	if err != nil {
		return nil, fmt.Errorf("ingest: abi-decode withdraw calldata: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("ingest: expected 3 decoded arguments, got %d", len(values))
	}
	publicValues, ok := values[1].([]byte)
	if !ok {
		return nil, fmt.Errorf("ingest: expected publicValues to decode as []byte, got %T", values[1])
	}
	return publicValues, nil
}
