// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zkadapter implements the Noir-style circuit adapter: callers
// register a compiled circuit's proving/verification keys, generate
// Groth16 proofs against named private/public inputs, and verify them
// either locally or by submitting to an on-chain verifier program. The
// circuit registry is keyed by a SHA-256 hash of the circuit's name and
// proving key.
package zkadapter

import (
	"context"
	"crypto/sha256"
	"errors"
	"strconv"
	"sync"

	"github.com/kamalbuilds/privacykit/adapter"
	"github.com/kamalbuilds/privacykit/chain"
	"github.com/kamalbuilds/privacykit/field"
	"github.com/kamalbuilds/privacykit/note"
	"github.com/kamalbuilds/privacykit/privacyerr"
	"github.com/kamalbuilds/privacykit/proof"
)

const providerID = "zk"

const programID = "NoirVerifier1111111111111111111111111111111"

// transferCircuit is the name of the circuit private-transfer routes
// through, per the adapter's transfer design.
const transferCircuit = "private-transfer"

// CircuitProver produces a Groth16 proof for a named circuit from its
// private/public input assignment. Real provers wrap a compiled R1CS/ACIR
// witness generator; this package only pins the boundary.
type CircuitProver interface {
	Prove(circuit string, inputs map[string]string) (*proof.Proof, error)
}

// RandomnessProver is a placeholder CircuitProver used in tests and
// examples: it fabricates a syntactically valid proof without running an
// actual circuit, so callers can exercise the adapter's plumbing without a
// real proving backend wired in.
type RandomnessProver struct{}

func (RandomnessProver) Prove(circuit string, inputs map[string]string) (*proof.Proof, error) {
	p := &proof.Proof{
		A:             proof.G1Point{X: "1", Y: "2"},
		B:             proof.G2Point{X: [2]string{"3", "4"}, Y: [2]string{"5", "6"}},
		C:             proof.G1Point{X: "7", Y: "8"},
		PublicSignals: map[string]string{},
		SignalOrder:   make([]string, 0, len(inputs)),
	}
	for k, v := range inputs {
		p.PublicSignals[k] = v
		p.SignalOrder = append(p.SignalOrder, k)
	}
	return p, nil
}

// circuitEntry is a registered circuit's key material.
type circuitEntry struct {
	name             string
	provingKey       []byte
	verificationKey  []byte
	keysLoaded       bool
}

// Adapter is the Noir-style circuit-proving and verification provider.
type Adapter struct {
	chain  chain.Chain
	wallet chain.Wallet
	ready  bool
	prover CircuitProver

	mu       sync.RWMutex
	circuits map[[32]byte]*circuitEntry
}

// New constructs a zk adapter. If prover is nil, RandomnessProver is used.
func New(prover CircuitProver) *Adapter {
	if prover == nil {
		prover = RandomnessProver{}
	}
	return &Adapter{
		prover:   prover,
		circuits: make(map[[32]byte]*circuitEntry),
	}
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		ProviderID:  providerID,
		DisplayName: "Noir Circuits",
		SupportedPrivacyLevels: []adapter.PrivacyLevel{
			adapter.LevelFullyShielded,
		},
		SupportedTokens: adapter.TokenSet{Any: true},
	}
}

func (a *Adapter) Initialize(ctx context.Context, c chain.Chain, w chain.Wallet) error {
	a.chain = c
	a.wallet = w
	a.ready = true
	return nil
}

func (a *Adapter) IsReady() bool { return a.ready }

// circuitID hashes a circuit's name and proving key so that the same
// registration is idempotent and collisions between differently-named but
// identically-keyed circuits are still distinguished by name.
func circuitID(name string, provingKey []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write(provingKey)
	var id [32]byte
	copy(id[:], h.Sum(nil))
	return id
}

// RegisterCircuit records a compiled circuit's proving key under name.
func (a *Adapter) RegisterCircuit(name string, provingKey []byte) ([32]byte, error) {
	if name == "" {
		return [32]byte{}, privacyerr.InvalidFormat("zkadapter: circuit name must not be empty")
	}
	id := circuitID(name, provingKey)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.circuits[id] = &circuitEntry{name: name, provingKey: provingKey}
	return id, nil
}

// LoadCircuitKeys attaches the verification key to a previously-registered
// circuit.
func (a *Adapter) LoadCircuitKeys(id [32]byte, verificationKey []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.circuits[id]
	if !ok {
		return privacyerr.New(privacyerr.KindProofVerification, "zkadapter: circuit not registered")
	}
	entry.verificationKey = verificationKey
	entry.keysLoaded = true
	return nil
}

func (a *Adapter) lookup(id [32]byte) (*circuitEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	entry, ok := a.circuits[id]
	if !ok {
		return nil, privacyerr.New(privacyerr.KindProofVerification, "zkadapter: circuit not registered")
	}
	return entry, nil
}

// idByName finds the registration id of a circuit registered under the
// given name. When several registrations share that name, which of their
// ids is returned is not defined. Transfer uses it to reach the registry
// entry for "private-transfer" without the caller needing to track the id
// returned by RegisterCircuit itself.
func (a *Adapter) idByName(name string) ([32]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for id, entry := range a.circuits {
		if entry.name == name {
			return id, nil
		}
	}
	return [32]byte{}, privacyerr.New(privacyerr.KindProofVerification, "zkadapter: circuit \""+name+"\" not registered")
}

// Prove generates a Groth16 proof for req.CircuitName against req.CircuitInputs.
func (a *Adapter) Prove(ctx context.Context, req adapter.Request) (*adapter.ProveResult, error) {
	_, cancel := adapter.WithProvingTimeout(ctx)
	defer cancel()

	p, err := a.prover.Prove(req.CircuitName, req.CircuitInputs)
	if err != nil {
		return nil, privacyerr.ProofGeneration(req.CircuitName, err)
	}

	wire, err := proof.Serialize(p)
	if err != nil {
		return nil, privacyerr.ProofGeneration(req.CircuitName, err)
	}

	var vk []byte
	if id, err := a.idByName(req.CircuitName); err == nil {
		if entry, err := a.lookup(id); err == nil && entry.keysLoaded {
			vk = entry.verificationKey
		}
	}
	return &adapter.ProveResult{ProofJSON: wire, VerificationKey: vk, PublicSignals: p.PublicSignals}, nil
}

// VerifyLocal verifies a proof's wire bytes without consulting the chain.
// Full pairing verification is out of scope (spec §1 Non-goals); this
// checks that the circuit is registered, that its verification key has been
// loaded, and that the wire bytes decode as a well-formed proof. The
// proof's public signals are not compared against anything recorded at
// registration.
func (a *Adapter) VerifyLocal(id [32]byte, wire []byte) (bool, error) {
	entry, err := a.lookup(id)
	if err != nil {
		return false, err
	}
	if !entry.keysLoaded {
		return false, privacyerr.New(privacyerr.KindProofVerification, "zkadapter: verification key not loaded")
	}
	if _, err := proof.Deserialize(wire); err != nil {
		return false, privacyerr.ProofVerification(err)
	}
	return true, nil
}

// VerifyOnChain submits the proof to the on-chain Noir verifier program and
// reports the outcome reflected in the transaction's confirmation status.
func (a *Adapter) VerifyOnChain(ctx context.Context, id [32]byte, wire []byte) (bool, string, error) {
	if a.chain == nil || a.wallet == nil {
		return false, "", privacyerr.WalletNotConnected()
	}
	if _, err := a.VerifyLocal(id, wire); err != nil {
		return false, "", err
	}

	ctx, cancel := adapter.WithConfirmationTimeout(ctx)
	defer cancel()

	sig, err := a.chain.SendInstruction(ctx, programID, wire, []string{a.wallet.Address()})
	if err != nil {
		return false, "", privacyerr.Network(err)
	}
	status, err := a.chain.Confirm(ctx, sig)
	if err != nil {
		return false, sig, privacyerr.Network(err)
	}
	return status == chain.StatusConfirmed, sig, nil
}

// Balance has no meaning for the zk adapter: it proves and verifies
// circuits but keeps no account state of its own.
func (a *Adapter) Balance(ctx context.Context, token, address string) (float64, error) {
	return 0, privacyerr.UnsupportedPrivacyLevel("balance", providerID)
}

// Transfer synthesizes senderSalt/recipientSalt/nullifier, derives the
// input and output note commitments via the Poseidon-based commitment
// scheme C3 uses everywhere else in this module, proves
// "private-transfer" over them, and routes the proof through
// verify_on_chain.
func (a *Adapter) Transfer(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if !a.ready {
		return nil, privacyerr.ProviderNotAvailable(providerID)
	}
	if a.wallet == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	senderSalt, err := field.Random()
	if err != nil {
		return nil, privacyerr.ProofGeneration(transferCircuit, err)
	}
	recipientSalt, err := field.Random()
	if err != nil {
		return nil, privacyerr.ProofGeneration(transferCircuit, err)
	}
	nullifier, err := field.Random()
	if err != nil {
		return nil, privacyerr.ProofGeneration(transferCircuit, err)
	}

	inputCommitment := field.Hash(senderSalt, nullifier)
	outputCommitment := field.Hash(recipientSalt, nullifier)
	nullifierHash := field.HashSingle(nullifier)

	inputs := map[string]string{
		"sender_salt":       senderSalt.BigInt().String(),
		"recipient_salt":    recipientSalt.BigInt().String(),
		"nullifier":         nullifier.BigInt().String(),
		"nullifier_hash":    nullifierHash.BigInt().String(),
		"input_commitment":  inputCommitment.BigInt().String(),
		"output_commitment": outputCommitment.BigInt().String(),
		"amount":            strconv.FormatFloat(req.Amount, 'f', -1, 64),
	}

	proveResult, err := a.Prove(ctx, adapter.Request{CircuitName: transferCircuit, CircuitInputs: inputs})
	if err != nil {
		return nil, err
	}

	id, err := a.idByName(transferCircuit)
	if err != nil {
		return nil, err
	}

	ok, sig, err := a.VerifyOnChain(ctx, id, proveResult.ProofJSON)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, privacyerr.ProofVerification(errors.New("on-chain verification rejected the transfer proof"))
	}

	return &adapter.Result{
		TransactionID: sig,
		Signature:     sig,
		Commitment:    outputCommitment.BigInt().String(),
		NullifierHash: nullifierHash.BigInt().String(),
		Raw:           map[string]any{"input_commitment": inputCommitment.BigInt().String()},
	}, nil
}

// Deposit mints a fresh note for req.Amount/req.Token and returns its
// commitment, per §4.7 ("deposit returns a commitment").
func (a *Adapter) Deposit(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if !a.ready {
		return nil, privacyerr.ProviderNotAvailable(providerID)
	}

	n, err := note.Generate(req.Amount, req.Token)
	if err != nil {
		return nil, privacyerr.ProofGeneration("deposit", err)
	}

	encoded, err := note.Encode(n)
	if err != nil {
		return nil, err
	}

	return &adapter.Result{
		Commitment:    n.Commitment.BigInt().String(),
		NullifierHash: n.NullifierHash.BigInt().String(),
		Raw:           map[string]any{"note": encoded},
	}, nil
}

// Withdraw decodes the caller's note and returns its nullifier, per §4.7
// ("withdraw returns a nullifier").
func (a *Adapter) Withdraw(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if !a.ready {
		return nil, privacyerr.ProviderNotAvailable(providerID)
	}
	if req.Note == "" {
		return nil, privacyerr.InvalidFormat("zkadapter: withdraw requires a note")
	}

	n, err := note.Decode(req.Note)
	if err != nil {
		return nil, err
	}
	if !note.Verify(n) {
		return nil, privacyerr.InvalidFormat("zkadapter: note commitment/nullifier do not match its secret")
	}

	return &adapter.Result{
		Commitment:    n.Commitment.BigInt().String(),
		NullifierHash: n.NullifierHash.BigInt().String(),
	}, nil
}

func (a *Adapter) Estimate(ctx context.Context, req adapter.Request) (*adapter.Estimate, error) {
	return &adapter.Estimate{Fee: 0, LatencyMS: 2000}, nil
}
