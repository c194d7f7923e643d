package provebackend

import (
	"bytes"
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"
)

func marshalProof(proof groth16.Proof) ([]byte, error) {
	return writeToBytes(proof, "proof")
}

func marshalVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	return writeToBytes(vk, "verifying key")
}

func writeToBytes(w io.WriterTo, what string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize %s: %w", what, err)
	}
	return buf.Bytes(), nil
}
