package wallet

import "github.com/shielded/poolcore/pkg/primitives"

// NotePubkeyFromHex treats an externally supplied recipient identifier
// as already being a note pubkey — the honest, default interpretation
// of "who can spend this output": the sender names the owning pubkey
// directly, the same value derive_pubkey would have produced for the
// recipient's own spending key.
func NotePubkeyFromHex(recipientHex string) (primitives.Hash32, error) {
	return parseHex32(recipientHex, "recipient")
}

// RecipientSpendingKeyAsPubkey re-derives a pubkey by treating the
// externally supplied recipient identifier as a spending key and
// hashing it, rather than as a pubkey directly.
//
// This reproduces a defect carried over from the original
// implementation: an environment-supplied "recipient" value is in fact
// the recipient's own spending key, not their pubkey, so this function
// leaks the ability to derive spending authority to whoever already
// held that identifier. It exists only so the defect's exact behavior
// can be exercised in parity tests; callers building new integrations
// should use NotePubkeyFromHex instead.
func RecipientSpendingKeyAsPubkey(recipientHex string) (primitives.Hash32, error) {
	h, err := parseHex32(recipientHex, "recipient")
	if err != nil {
		return primitives.Hash32{}, err
	}
	return primitives.DerivePubkey(primitives.SpendingKey(h)), nil
}
