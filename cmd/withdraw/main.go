// Command withdraw generates a Groth16 proof for a withdrawal,
// replacing the original Rust CLI's `withdraw` subcommand: read a JSON
// private-input file, either sanity-check it against the compiled
// circuit (--execute-only) or run the full setup-load/prove/verify
// pipeline and write the hex-encoded proof, public values, and
// verifying key to an output JSON file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/shielded/poolcore/circuits/withdraw"
	"github.com/shielded/poolcore/pkg/provebackend"
	"github.com/shielded/poolcore/pkg/setup"
)

func main() {
	inputPath := flag.String("input", "", "path to the JSON private-input file")
	outputPath := flag.String("output", "", "path to write the JSON proof output")
	keysDir := flag.String("keys", ".", "directory holding withdraw_prover.key and withdraw_verifier.key")
	executeOnlyFlag := flag.Bool("execute-only", false, "check the witness solves without generating a real proof")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: withdraw --input IN.json [--output OUT.json] [--execute-only] [--keys DIR]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	var jin withdraw.JSONPrivateInput
	if err := json.Unmarshal(data, &jin); err != nil {
		fmt.Fprintf(os.Stderr, "parse input: %v\n", err)
		os.Exit(1)
	}
	in, err := jin.Decode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode input: %v\n", err)
		os.Exit(1)
	}

	if *executeOnlyFlag {
		if err := runExecuteOnly(in); err != nil {
			fmt.Fprintf(os.Stderr, "execute-only check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("witness solves: OK")
		return
	}

	privateInput, err := cbor.Marshal(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode private input: %v\n", err)
		os.Exit(1)
	}

	backend := provebackend.NewBackend(*keysDir, zerolog.New(os.Stderr).With().Timestamp().Logger())
	_, result, err := backend.Prove(provebackend.Withdraw, privateInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prove: %v\n", err)
		os.Exit(1)
	}

	out := withdraw.ProofOutput{
		Proof:        result.ProofHex,
		PublicValues: result.PublicValuesHex,
		VerifyingKey: result.VerifyingKeyHex,
	}
	outBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal output: %v\n", err)
		os.Exit(1)
	}

	if *outputPath == "" {
		fmt.Println(string(outBytes))
		return
	}
	if err := os.WriteFile(*outputPath, outBytes, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
}

// runExecuteOnly checks that the assignment solves the compiled
// circuit without running Groth16 setup or proving, mirroring the
// original CLI's fast sanity-check path.
func runExecuteOnly(in withdraw.PrivateInput) error {
	ccs, err := setup.CompileCircuit(withdraw.NewCircuit())
	if err != nil {
		return fmt.Errorf("compile circuit: %w", err)
	}

	assignment := withdraw.BuildAssignment(in)
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("build witness: %w", err)
	}

	if err := ccs.IsSolved(w); err != nil {
		return fmt.Errorf("witness does not solve circuit: %w", err)
	}
	fmt.Printf("constraints: %d\n", ccs.GetNbConstraints())
	return nil
}
