package withdraw

// TreeDepth is the fixed accumulator depth this circuit verifies
// inclusion proofs against. Must match circuits/transfer.TreeDepth,
// since both circuits verify proofs against the same shared
// accumulator.
const TreeDepth = 20
