package circuitcommon

import "github.com/consensys/gnark/frontend"

// MerkleProof is the in-circuit analogue of merkle.Proof: an ordered
// list of sibling/direction steps from a leaf to the root. Direction
// convention matches merkle.Step.IsLeft: Directions[i] == 0 means the
// current node is the left child (sibling combines on the right);
// Directions[i] == 1 means the current node is the right child.
//
// Siblings/Directions are slices rather than fixed-size arrays so a
// single circuit definition can target any deployment's tree depth,
// but that means every template circuit passed to frontend.Compile
// MUST have them pre-sized to exactly that depth first — gnark infers
// the circuit's shape from the template's slice lengths, and an
// unsized (nil) slice silently compiles a zero-level Merkle check.
// NewMerkleProof is the one place that sizing happens; never build a
// template circuit with a bare zero-value MerkleProof.
type MerkleProof struct {
	Siblings   []Bytes32
	Directions []frontend.Variable
}

// NewMerkleProof returns an empty MerkleProof pre-sized to depth
// levels, suitable for use in a template circuit passed to
// frontend.Compile.
func NewMerkleProof(depth int) MerkleProof {
	return MerkleProof{
		Siblings:   make([]Bytes32, depth),
		Directions: make([]frontend.Variable, depth),
	}
}

// ComputeRoot hashes the leaf through every level of the proof and
// returns the resulting root. There is no early termination: every
// level is processed regardless of any other constraint's outcome,
// matching the accumulator's own verification rule.
func ComputeRoot(api frontend.API, leaf Bytes32, proof MerkleProof) (Bytes32, error) {
	current := leaf
	for i := range proof.Siblings {
		sibling := proof.Siblings[i]
		direction := proof.Directions[i]

		var left, right Bytes32
		for b := 0; b < 32; b++ {
			left[b].Val = api.Select(direction, sibling[b].Val, current[b].Val)
			right[b].Val = api.Select(direction, current[b].Val, sibling[b].Val)
		}

		next, err := HashPair(api, left, right)
		if err != nil {
			return Bytes32{}, err
		}
		current = next
	}
	return current, nil
}
