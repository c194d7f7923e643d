// Package setup drives Groth16 key generation for the pool's two
// circuits: a single-party dev setup for local testing, and a
// multi-party Phase 1/Phase 2 ceremony for production keys. Only
// Groth16 is wired — transfer and withdraw are fixed, non-universal
// circuits, so there is no PLONK universal-SRS path to support here.
//
// Because both circuits run their own ceremonies against the same
// on-disk layout, every ceremony file lives under a per-circuit
// subdirectory of CeremonyDir rather than a single shared one, so a
// transfer ceremony in progress can never collide with a withdraw one.
package setup

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/groth16/bn254/mpcsetup"
	"github.com/consensys/gnark/constraint"
	cs_bn254 "github.com/consensys/gnark/constraint/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/rs/zerolog"
)

// CompileCircuit compiles a gnark circuit into an R1CS constraint
// system over BN254, the only scalar field and constraint-system
// shape either circuit in this pool uses.
func CompileCircuit(circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	return ccs, nil
}

// DevSetup performs a single-party trusted setup (NOT for production)
// for one of the pool's circuits. It writes the proving key, verifying
// key, and Solidity verifier to outputDir.
func DevSetup(circuit frontend.Circuit, outputDir, circuitName string, log zerolog.Logger) error {
	log.Warn().Str("circuit", circuitName).
		Msg("single-party dev setup (1-of-1 trust assumption) — do not use these keys in production")
	log.Warn().Str("circuit", circuitName).
		Msgf("for production, run: go run ./cmd/setup %s ceremony --help", circuitName)

	ccs, err := CompileCircuit(circuit)
	if err != nil {
		return err
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}

	return ExportKeys(pk, vk, outputDir, circuitName, log)
}

// ExportKeys writes the proving key, verifying key, and Solidity
// verifier to outputDir. Files are named
// <circuitName>_prover.key, <circuitName>_verifier.key,
// <circuitName>_verifier.sol — the same layout for both transfer and
// withdraw, distinguished only by circuitName, so pkg/provebackend can
// load either circuit's keys from a single keys directory.
func ExportKeys(pk groth16.ProvingKey, vk groth16.VerifyingKey, outputDir, circuitName string, log zerolog.Logger) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	solPath := filepath.Join(outputDir, circuitName+"_verifier.sol")
	f, err := os.Create(solPath)
	if err != nil {
		return fmt.Errorf("create solidity verifier: %w", err)
	}
	if err := vk.ExportSolidity(f); err != nil {
		f.Close()
		return fmt.Errorf("export solidity verifier: %w", err)
	}
	f.Close()

	vkPath := filepath.Join(outputDir, circuitName+"_verifier.key")
	if err := saveObject(vkPath, vk); err != nil {
		return err
	}

	pkPath := filepath.Join(outputDir, circuitName+"_prover.key")
	if err := saveObject(pkPath, pk); err != nil {
		return err
	}

	log.Info().Str("circuit", circuitName).
		Str("proving_key", pkPath).Str("verifying_key", vkPath).Str("solidity_verifier", solPath).
		Msg("exported keys")
	return nil
}

// LoadKeys loads the proving and verifying keys for circuitName from
// dir, the layout ExportKeys writes and pkg/provebackend.Backend reads
// from at proving time.
func LoadKeys(dir, circuitName string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pk := groth16.NewProvingKey(ecc.BN254)
	pkPath := filepath.Join(dir, circuitName+"_prover.key")
	f, err := os.Open(pkPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open proving key: %w", err)
	}
	if _, err := pk.ReadFrom(f); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("read proving key: %w", err)
	}
	f.Close()

	vk := groth16.NewVerifyingKey(ecc.BN254)
	vkPath := filepath.Join(dir, circuitName+"_verifier.key")
	f, err = os.Open(vkPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open verifying key: %w", err)
	}
	if _, err := vk.ReadFrom(f); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("read verifying key: %w", err)
	}
	f.Close()

	return pk, vk, nil
}

// ─── MPC Ceremony ───────────────────────────────────────────────────────────

// CeremonyDir is the parent directory for per-circuit ceremony files.
const CeremonyDir = "ceremony"

// ceremonyDir returns the per-circuit ceremony directory
// (ceremony/<circuitName>), keeping a transfer ceremony's phase files
// from ever colliding with a withdraw ceremony's.
func ceremonyDir(circuitName string) string {
	return filepath.Join(CeremonyDir, circuitName)
}

// CeremonyP1Init initializes Phase 1 (Powers of Tau) for circuitName.
func CeremonyP1Init(circuit frontend.Circuit, circuitName string, log zerolog.Logger) error {
	dir := ceremonyDir(circuitName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ceremony dir: %w", err)
	}
	ccs, err := CompileCircuit(circuit)
	if err != nil {
		return err
	}

	N := ecc.NextPowerOfTwo(uint64(ccs.GetNbConstraints()))
	log.Info().Str("circuit", circuitName).
		Uint64("domain_size", N).Int("log2_domain_size", bits.Len64(N)-1).
		Int("constraints", ccs.GetNbConstraints()).
		Msg("phase 1: domain size computed")

	p := mpcsetup.NewPhase1(N)
	path := nextContribPath(dir, "phase1")
	if err := saveObject(path, p); err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", path).Msg("wrote initial phase 1 state")
	return nil
}

// CeremonyP1Contribute adds a Phase 1 contribution for circuitName.
func CeremonyP1Contribute(circuitName string, log zerolog.Logger) error {
	dir := ceremonyDir(circuitName)
	latest, err := latestContrib(dir, "phase1")
	if err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", latest).Msg("loading phase 1 state")

	var p mpcsetup.Phase1
	if err := loadObject(latest, &p); err != nil {
		return err
	}

	log.Info().Str("circuit", circuitName).Msg("contributing randomness to phase 1")
	p.Contribute()

	path := nextContribPath(dir, "phase1")
	if err := saveObject(path, &p); err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", path).Msg("wrote phase 1 contribution")
	return nil
}

// CeremonyP1Verify verifies Phase 1 contributions for circuitName and
// seals with a random beacon.
func CeremonyP1Verify(circuit frontend.Circuit, circuitName, beaconHex string, log zerolog.Logger) error {
	beacon, err := parseBeacon(beaconHex)
	if err != nil {
		return err
	}
	ccs, err := CompileCircuit(circuit)
	if err != nil {
		return err
	}
	N := ecc.NextPowerOfTwo(uint64(ccs.GetNbConstraints()))

	dir := ceremonyDir(circuitName)
	contribs, err := findContribs(dir, "phase1")
	if err != nil {
		return err
	}
	if len(contribs) < 2 {
		return fmt.Errorf("need at least the init file + one contribution to verify")
	}

	// Skip the init file (index 0); only contributed states are passed to verify.
	nContribs := len(contribs) - 1
	log.Info().Str("circuit", circuitName).Int("contributions", nContribs).
		Msg("verifying phase 1 contributions")

	phases := make([]*mpcsetup.Phase1, nContribs)
	for i, path := range contribs[1:] {
		phases[i] = new(mpcsetup.Phase1)
		if err := loadObject(path, phases[i]); err != nil {
			return err
		}
	}

	commons, err := mpcsetup.VerifyPhase1(N, beacon, phases...)
	if err != nil {
		return fmt.Errorf("phase 1 verification failed: %w", err)
	}

	srsPath := filepath.Join(dir, "srs_commons.bin")
	if err := saveObject(srsPath, &commons); err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", srsPath).
		Msg("phase 1 verified and sealed")
	return nil
}

// CeremonyP2Init initializes Phase 2 (circuit-specific) for circuitName.
func CeremonyP2Init(circuit frontend.Circuit, circuitName string, log zerolog.Logger) error {
	dir := ceremonyDir(circuitName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ceremony dir: %w", err)
	}
	ccs, err := CompileCircuit(circuit)
	if err != nil {
		return err
	}
	r1csConcrete, ok := ccs.(*cs_bn254.R1CS)
	if !ok {
		return fmt.Errorf("compiled constraint system is not a BN254 R1CS")
	}

	srsPath := filepath.Join(dir, "srs_commons.bin")
	var commons mpcsetup.SrsCommons
	if err := loadObject(srsPath, &commons); err != nil {
		return err
	}

	log.Info().Str("circuit", circuitName).Msg("initializing phase 2 with circuit and SRS commons")
	var p mpcsetup.Phase2
	p.Initialize(r1csConcrete, &commons)

	path := nextContribPath(dir, "phase2")
	if err := saveObject(path, &p); err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", path).Msg("wrote initial phase 2 state")
	return nil
}

// CeremonyP2Contribute adds a Phase 2 contribution for circuitName.
func CeremonyP2Contribute(circuitName string, log zerolog.Logger) error {
	dir := ceremonyDir(circuitName)
	latest, err := latestContrib(dir, "phase2")
	if err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", latest).Msg("loading phase 2 state")

	var p mpcsetup.Phase2
	if err := loadObject(latest, &p); err != nil {
		return err
	}

	log.Info().Str("circuit", circuitName).Msg("contributing randomness to phase 2")
	p.Contribute()

	path := nextContribPath(dir, "phase2")
	if err := saveObject(path, &p); err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Str("path", path).Msg("wrote phase 2 contribution")
	return nil
}

// CeremonyP2Verify verifies Phase 2 contributions for circuitName,
// seals, and exports the final production keys.
func CeremonyP2Verify(circuit frontend.Circuit, circuitName, beaconHex, outputDir string, log zerolog.Logger) error {
	beacon, err := parseBeacon(beaconHex)
	if err != nil {
		return err
	}
	ccs, err := CompileCircuit(circuit)
	if err != nil {
		return err
	}
	r1csConcrete, ok := ccs.(*cs_bn254.R1CS)
	if !ok {
		return fmt.Errorf("compiled constraint system is not a BN254 R1CS")
	}

	dir := ceremonyDir(circuitName)
	srsPath := filepath.Join(dir, "srs_commons.bin")
	var commons mpcsetup.SrsCommons
	if err := loadObject(srsPath, &commons); err != nil {
		return err
	}

	contribs, err := findContribs(dir, "phase2")
	if err != nil {
		return err
	}
	if len(contribs) < 2 {
		return fmt.Errorf("need at least the init file + one contribution to verify")
	}

	nContribs := len(contribs) - 1
	log.Info().Str("circuit", circuitName).Int("contributions", nContribs).
		Msg("verifying phase 2 contributions")

	phases := make([]*mpcsetup.Phase2, nContribs)
	for i, path := range contribs[1:] {
		phases[i] = new(mpcsetup.Phase2)
		if err := loadObject(path, phases[i]); err != nil {
			return err
		}
	}

	pk, vk, err := mpcsetup.VerifyPhase2(r1csConcrete, &commons, beacon, phases...)
	if err != nil {
		return fmt.Errorf("phase 2 verification failed: %w", err)
	}

	if err := ExportKeys(pk, vk, outputDir, circuitName, log); err != nil {
		return err
	}
	log.Info().Str("circuit", circuitName).Msg("ceremony complete — keys are production-ready")
	return nil
}

// ─── Internal helpers ───────────────────────────────────────────────────────

func saveObject(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadObject(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func parseBeacon(hexStr string) ([]byte, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("invalid beacon hex: %w", err)
	}
	if len(b) < 16 {
		return nil, fmt.Errorf("beacon must be at least 16 bytes for sufficient entropy")
	}
	return b, nil
}

// findContribs returns sorted paths matching <dir>/<prefix>_NNNN.bin.
func findContribs(dir, prefix string) ([]string, error) {
	pattern := filepath.Join(dir, prefix+"_????.bin")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func latestContrib(dir, prefix string) (string, error) {
	contribs, err := findContribs(dir, prefix)
	if err != nil {
		return "", err
	}
	if len(contribs) == 0 {
		return "", fmt.Errorf("no %s contributions found in %s/", prefix, dir)
	}
	return contribs[len(contribs)-1], nil
}

func nextContribPath(dir, prefix string) string {
	contribs, _ := findContribs(dir, prefix)
	return filepath.Join(dir, fmt.Sprintf("%s_%04d.bin", prefix, len(contribs)))
}
