package transfer

// TreeDepth is the fixed accumulator depth this circuit verifies
// inclusion proofs against. Must match the depth of the off-circuit
// merkle.Accumulator the prover builds proofs from.
const TreeDepth = 20
