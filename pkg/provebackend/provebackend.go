// Package provebackend adapts the pool's two circuits to a single
// opaque proving oracle: given a circuit name and a CBOR-encoded
// private-input record, it runs circuit compilation and key loading
// (keys come from pkg/setup; no setup runs here), witness generation, and
// Groth16 proving behind one call, and reports progress through an
// explicit state machine rather than leaving callers to poll
// goroutine-local state. It plays the role the original Rust CLI's
// `generate_proof` function played, generalized to more than one
// circuit and instrumented for observability.
package provebackend

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/shielded/poolcore/circuits/transfer"
	"github.com/shielded/poolcore/circuits/withdraw"
	"github.com/shielded/poolcore/pkg/primitives"
	"github.com/shielded/poolcore/pkg/pubvalues"
	"github.com/shielded/poolcore/pkg/setup"
)

// State is a job's position in the proving lifecycle.
type State int

const (
	Idle State = iota
	SettingUp
	Proving
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SettingUp:
		return "setting_up"
	case Proving:
		return "proving"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// CircuitName identifies which circuit a job targets.
type CircuitName string

const (
	Transfer CircuitName = "transfer"
	Withdraw CircuitName = "withdraw"
)

// Result is the output of a completed proving job: a Groth16 proof
// plus the public values it attests to, both hex-encoded the way the
// original CLI wrote its proof output JSON.
type Result struct {
	ProofHex        string
	PublicValuesHex string
	VerifyingKeyHex string
}

// Job tracks one proof request end to end. Prove runs synchronously and
// returns the Job only once the run has ended, so callers read State
// (Done or Failed) and Err afterwards; no updates are pushed while it
// runs, which keeps the oracle opaque about its internal scheduling.
type Job struct {
	mu    sync.Mutex
	state State
	err   error
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

func (j *Job) fail(err error) error {
	j.mu.Lock()
	j.state = Failed
	j.err = err
	j.mu.Unlock()
	return err
}

// Backend runs proving jobs against on-disk Groth16 keys for both
// circuits, mirroring pkg/setup's key layout (<keysDir>/<name>_prover.key,
// <name>_verifier.key).
type Backend struct {
	keysDir string
	log     zerolog.Logger
}

// NewBackend constructs a Backend reading keys from keysDir.
func NewBackend(keysDir string, log zerolog.Logger) *Backend {
	return &Backend{keysDir: keysDir, log: log}
}

// circuitFor returns a fresh, empty circuit struct for compilation —
// frontend.Compile only inspects the struct's shape, never its values.
func circuitFor(name CircuitName) (frontend.Circuit, error) {
	switch name {
	case Transfer:
		return transfer.NewCircuit(), nil
	case Withdraw:
		return withdraw.NewCircuit(), nil
	default:
		return nil, fmt.Errorf("provebackend: unknown circuit %q", name)
	}
}

// assignmentFor decodes a CBOR-encoded private-input record into a
// fully-populated circuit assignment ready for frontend.NewWitness.
func assignmentFor(name CircuitName, privateInput []byte) (frontend.Circuit, error) {
	switch name {
	case Transfer:
		var in transfer.PrivateInput
		if err := cbor.Unmarshal(privateInput, &in); err != nil {
			return nil, fmt.Errorf("decode transfer private input: %w", err)
		}
		return transfer.BuildAssignment(in), nil
	case Withdraw:
		var in withdraw.PrivateInput
		if err := cbor.Unmarshal(privateInput, &in); err != nil {
			return nil, fmt.Errorf("decode withdraw private input: %w", err)
		}
		return withdraw.BuildAssignment(in), nil
	default:
		return nil, fmt.Errorf("provebackend: unknown circuit %q", name)
	}
}

// abiPublicValuesFor recomputes the exact 160-byte public-value layout
// (pkg/pubvalues) straight from the private input, independent of the
// circuit's own gnark witness encoding. The groth16 public witness
// carries one field element per byte lane and is what gets verified
// on-chain against the verifying key, but it is not itself the tight
// 160-byte record the on-chain contract's ABI expects — that record is
// this function's output, matching §4.5 byte-for-byte.
func abiPublicValuesFor(name CircuitName, privateInput []byte) ([]byte, error) {
	switch name {
	case Transfer:
		var in transfer.PrivateInput
		if err := cbor.Unmarshal(privateInput, &in); err != nil {
			return nil, fmt.Errorf("decode transfer private input: %w", err)
		}
		root, null0, null1, out0, out1 := in.PublicValues()
		enc := pubvalues.Transfer{
			Root:              primitives.Hash32(root),
			Nullifier0:        primitives.Hash32(null0),
			Nullifier1:        primitives.Hash32(null1),
			OutputCommitment0: primitives.Hash32(out0),
			OutputCommitment1: primitives.Hash32(out1),
		}.Encode()
		return enc[:], nil
	case Withdraw:
		var in withdraw.PrivateInput
		if err := cbor.Unmarshal(privateInput, &in); err != nil {
			return nil, fmt.Errorf("decode withdraw private input: %w", err)
		}
		root, nullifier, recipient, withdrawAmount, changeCommitment := in.PublicValues()
		enc := pubvalues.Withdraw{
			Root:             primitives.Hash32(root),
			Nullifier:        primitives.Hash32(nullifier),
			Recipient:        primitives.Address(recipient),
			WithdrawAmount:   withdrawAmount,
			ChangeCommitment: primitives.Hash32(changeCommitment),
		}.Encode()
		return enc[:], nil
	default:
		return nil, fmt.Errorf("provebackend: unknown circuit %q", name)
	}
}

// Prove runs one proving job to completion: compile, load keys,
// witness, prove, verify locally. It never returns a Result without
// having verified the proof against the loaded verifying key first,
// matching the original CLI's "verify locally" step before writing
// output.
func (b *Backend) Prove(name CircuitName, privateInput []byte) (*Job, *Result, error) {
	job := &Job{state: Idle}

	circuit, err := circuitFor(name)
	if err != nil {
		return job, nil, job.fail(err)
	}

	job.setState(SettingUp)
	b.log.Info().Str("circuit", string(name)).Msg("compiling circuit")
	ccs, err := setup.CompileCircuit(circuit)
	if err != nil {
		return job, nil, job.fail(fmt.Errorf("compile circuit: %w", err))
	}

	pk, vk, err := setup.LoadKeys(b.keysDir, string(name))
	if err != nil {
		return job, nil, job.fail(fmt.Errorf("load keys: %w", err))
	}

	assignment, err := assignmentFor(name, privateInput)
	if err != nil {
		return job, nil, job.fail(err)
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return job, nil, job.fail(fmt.Errorf("build witness: %w", err))
	}
	publicWitness, err := witness.Public()
	if err != nil {
		return job, nil, job.fail(fmt.Errorf("extract public witness: %w", err))
	}

	job.setState(Proving)
	b.log.Info().Str("circuit", string(name)).Msg("generating groth16 proof")
	proof, err := groth16.Prove(ccs, pk, witness)
	if err != nil {
		return job, nil, job.fail(fmt.Errorf("prove: %w", err))
	}

	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return job, nil, job.fail(fmt.Errorf("local verify: %w", err))
	}

	proofBytes, err := marshalProof(proof)
	if err != nil {
		return job, nil, job.fail(err)
	}
	publicBytes, err := abiPublicValuesFor(name, privateInput)
	if err != nil {
		return job, nil, job.fail(fmt.Errorf("recompute public-value ABI record: %w", err))
	}
	vkBytes, err := marshalVerifyingKey(vk)
	if err != nil {
		return job, nil, job.fail(err)
	}

	job.setState(Done)
	b.log.Info().Str("circuit", string(name)).Msg("proof verified locally")

	return job, &Result{
		ProofHex:        hex.EncodeToString(proofBytes),
		PublicValuesHex: hex.EncodeToString(publicBytes),
		VerifyingKeyHex: hex.EncodeToString(vkBytes),
	}, nil
}
