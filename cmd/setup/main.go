// Command setup drives dev setup and the Groth16 MPC ceremony for the
// pool's two circuits, replacing the teacher's cmd/compile registry of
// proof-of-storage circuits with the shielded pool's transfer and
// withdraw circuits. Both circuits use Groth16 exclusively, per §4.3/
// §4.4, so the PLONK dev-setup path the teacher supported for its
// universal-SRS circuit is not wired here.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/consensys/gnark/frontend"
	"github.com/rs/zerolog"

	"github.com/shielded/poolcore/circuits/transfer"
	"github.com/shielded/poolcore/circuits/withdraw"
	"github.com/shielded/poolcore/pkg/setup"
)

// circuitRegistry maps circuit names to their template constructors.
// Both circuits are fixed-shape per the configured TreeDepth; NewCircuit
// is the only correct way to build a template for compilation.
var circuitRegistry = map[string]func() frontend.Circuit{
	"transfer": func() frontend.Circuit { return transfer.NewCircuit() },
	"withdraw": func() frontend.Circuit { return withdraw.NewCircuit() },
}

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	circuitName := os.Args[1]
	newCircuit, ok := circuitRegistry[circuitName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown circuit: %s\n", circuitName)
		fmt.Fprintf(os.Stderr, "Available circuits: transfer withdraw\n")
		os.Exit(1)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	switch os.Args[2] {
	case "dev":
		if err := setup.DevSetup(newCircuit(), ".", circuitName, logger); err != nil {
			log.Fatal(err)
		}
	case "ceremony":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		handleCeremony(circuitName, newCircuit, logger)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleCeremony(circuitName string, newCircuit func() frontend.Circuit, logger zerolog.Logger) {
	switch os.Args[3] {
	case "p1-init":
		if err := setup.CeremonyP1Init(newCircuit(), circuitName, logger); err != nil {
			log.Fatal(err)
		}
	case "p1-contribute":
		if err := setup.CeremonyP1Contribute(circuitName, logger); err != nil {
			log.Fatal(err)
		}
	case "p1-verify":
		if len(os.Args) < 5 {
			log.Fatalf("usage: go run ./cmd/setup %s ceremony p1-verify BEACON_HEX", circuitName)
		}
		if err := setup.CeremonyP1Verify(newCircuit(), circuitName, os.Args[4], logger); err != nil {
			log.Fatal(err)
		}
	case "p2-init":
		if err := setup.CeremonyP2Init(newCircuit(), circuitName, logger); err != nil {
			log.Fatal(err)
		}
	case "p2-contribute":
		if err := setup.CeremonyP2Contribute(circuitName, logger); err != nil {
			log.Fatal(err)
		}
	case "p2-verify":
		if len(os.Args) < 5 {
			log.Fatalf("usage: go run ./cmd/setup %s ceremony p2-verify BEACON_HEX", circuitName)
		}
		if err := setup.CeremonyP2Verify(newCircuit(), circuitName, os.Args[4], ".", logger); err != nil {
			log.Fatal(err)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage:
  go run ./cmd/setup <circuit> dev                         Dev mode (single-party/unsafe setup, NOT for production)

  go run ./cmd/setup <circuit> ceremony p1-init            Initialize Phase 1 (Powers of Tau)
  go run ./cmd/setup <circuit> ceremony p1-contribute      Add a Phase 1 contribution
  go run ./cmd/setup <circuit> ceremony p1-verify HEX      Verify Phase 1 & seal with random beacon

  go run ./cmd/setup <circuit> ceremony p2-init            Initialize Phase 2 (circuit-specific)
  go run ./cmd/setup <circuit> ceremony p2-contribute      Add a Phase 2 contribution
  go run ./cmd/setup <circuit> ceremony p2-verify HEX      Verify Phase 2, seal & export keys

Available circuits: transfer, withdraw (both Groth16)

Ceremony workflow:
  1. p1-init          Coordinator creates the initial Phase 1 state
  2. p1-contribute    Each participant contributes (repeat N times)
  3. p1-verify        Coordinator verifies all & seals with a public beacon
  4. p2-init          Coordinator initializes Phase 2 with the circuit
  5. p2-contribute    Each participant contributes (repeat M times)
  6. p2-verify        Coordinator verifies all, seals, and exports final keys

Security: 1-of-N honest - if any single contributor is honest, the setup is secure.
Beacon: use a public randomness source (e.g. League of Entropy) evaluated AFTER the last contribution.`)
}
