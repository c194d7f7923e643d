// Command wallet manages a local wallet.json file of spending keys and
// notes: generating new keys, recording notes a scanner has found on
// chain, and listing what's stored. It never builds proofs itself —
// that's cmd/transfer/cmd/withdraw's job, fed by this file's contents.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/wallet"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		runKeygen(os.Args[2:])
	case "addnote":
		runAddNote(os.Args[2:])
	case "show":
		runShow(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func loadOrNew(path string) *wallet.File {
	f, err := wallet.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &wallet.File{}
		}
		fmt.Fprintf(os.Stderr, "load wallet: %v\n", err)
		os.Exit(1)
	}
	return f
}

func runKeygen(args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	walletPath := fs.String("wallet", "wallet.json", "path to the wallet file")
	label := fs.String("label", "", "label for the new spending key")
	fs.Parse(args)

	if *label == "" {
		fmt.Fprintln(os.Stderr, "keygen: --label is required")
		os.Exit(1)
	}

	var sk primitives.SpendingKey
	if _, err := rand.Read(sk[:]); err != nil {
		fmt.Fprintf(os.Stderr, "generate spending key: %v\n", err)
		os.Exit(1)
	}
	defer sk.Wipe()

	f := loadOrNew(*walletPath)
	f.AddSpendingKey(*label, sk)
	if err := wallet.Save(*walletPath, f); err != nil {
		fmt.Fprintf(os.Stderr, "save wallet: %v\n", err)
		os.Exit(1)
	}

	pubkey := primitives.DerivePubkey(sk)
	fmt.Printf("added spending key %q\n  pubkey: 0x%s\n", *label, hex.EncodeToString(pubkey[:]))
}

func runAddNote(args []string) {
	fs := flag.NewFlagSet("addnote", flag.ExitOnError)
	walletPath := fs.String("wallet", "wallet.json", "path to the wallet file")
	label := fs.String("label", "", "label for the note")
	amount := fs.Uint64("amount", 0, "note amount")
	recipientHex := fs.String("recipient", "", "recipient identifier, interpreted as a note pubkey")
	blindingHex := fs.String("blinding", "", "note blinding, hex-encoded")
	leafIndex := fs.Uint("leaf-index", 0, "leaf index this note was inserted at")
	fs.Parse(args)

	if *label == "" || *recipientHex == "" || *blindingHex == "" {
		fmt.Fprintln(os.Stderr, "addnote: --label, --recipient, and --blinding are required")
		os.Exit(1)
	}

	pubkey, err := wallet.NotePubkeyFromHex(*recipientHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse recipient: %v\n", err)
		os.Exit(1)
	}
	blinding, err := primitives.Hash32FromHex(*blindingHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse blinding: %v\n", err)
		os.Exit(1)
	}

	note := primitives.Note{Amount: *amount, Pubkey: pubkey, Blinding: blinding}

	f := loadOrNew(*walletPath)
	f.AddNote(*label, note, uint32(*leafIndex))
	if err := wallet.Save(*walletPath, f); err != nil {
		fmt.Fprintf(os.Stderr, "save wallet: %v\n", err)
		os.Exit(1)
	}

	commitment := note.Commitment()
	fmt.Printf("added note %q\n  commitment: 0x%s\n", *label, hex.EncodeToString(commitment[:]))
}

func runShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	walletPath := fs.String("wallet", "wallet.json", "path to the wallet file")
	fs.Parse(args)

	f, err := wallet.Load(*walletPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load wallet: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("spending keys:")
	for _, sk := range f.SpendingKeys {
		fmt.Printf("  %-16s pubkey=%s\n", sk.Label, sk.Pubkey)
	}
	fmt.Println("notes:")
	for _, n := range f.Notes {
		fmt.Printf("  %-16s amount=%d leaf=%d commitment=%s\n", n.Label, n.Amount, n.LeafIndex, n.Commitment)
	}
}

func printUsage() {
	fmt.Println(`Usage:
  go run ./cmd/wallet keygen  --label L [--wallet FILE]
  go run ./cmd/wallet addnote --label L --amount N --recipient HEX --blinding HEX [--leaf-index N] [--wallet FILE]
  go run ./cmd/wallet show    [--wallet FILE]`)
}
