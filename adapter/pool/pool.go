// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool implements the Privacy-Cash-style shielded-pool adapter: a
// deposit appends a note commitment to an incremental Merkle tree, a
// withdraw proves the note's membership and spends its nullifier, and a
// transfer is a deposit composed with a withdraw. Unspent notes and spent
// nullifiers are tracked client-side in maps — the pool never reconstructs
// a caller's holdings from chain state alone.
package pool

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/kamalbuilds/privacykit/adapter"
	"github.com/kamalbuilds/privacykit/chain"
	"github.com/kamalbuilds/privacykit/merkle"
	"github.com/kamalbuilds/privacykit/note"
	"github.com/kamalbuilds/privacykit/privacyerr"
	"github.com/kamalbuilds/privacykit/proof"
	"github.com/kamalbuilds/privacykit/token"
)

const providerID = "pool"

const programID = "PrivacyCashPool1111111111111111111111111111"

// On-chain instruction op codes (spec §6).
const (
	opDeposit  byte = 0x01
	opWithdraw byte = 0x02
)

// WithdrawState enumerates the withdraw state machine: Ready -> ProofFetched
// -> ProofGenerated -> Submitted -> Confirmed | Failed.
type WithdrawState int

const (
	WithdrawReady WithdrawState = iota
	WithdrawProofFetched
	WithdrawProofGenerated
	WithdrawSubmitted
	WithdrawConfirmed
	WithdrawFailed
)

func (s WithdrawState) String() string {
	switch s {
	case WithdrawReady:
		return "Ready"
	case WithdrawProofFetched:
		return "ProofFetched"
	case WithdrawProofGenerated:
		return "ProofGenerated"
	case WithdrawSubmitted:
		return "Submitted"
	case WithdrawConfirmed:
		return "Confirmed"
	case WithdrawFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Prover generates the zk-SNARK proof a withdraw submits: membership of the
// note's commitment in the tree at merkleProof.Root, and correct derivation
// of the published nullifier hash, without revealing secret or nullifier.
type Prover interface {
	ProveWithdraw(n *note.Note, merkleProof *merkle.Proof) (*proof.Proof, error)
}

// circuitStub is a placeholder Prover, used when no real circuit backend is
// wired in: it fabricates a structurally valid proof whose public signals
// name the root/nullifier/commitment the real circuit would constrain.
type circuitStub struct{}

func (circuitStub) ProveWithdraw(n *note.Note, mp *merkle.Proof) (*proof.Proof, error) {
	return &proof.Proof{
		A: proof.G1Point{X: "1", Y: "2"},
		B: proof.G2Point{X: [2]string{"3", "4"}, Y: [2]string{"5", "6"}},
		C: proof.G1Point{X: "7", Y: "8"},
		PublicSignals: map[string]string{
			"root":       mp.Root.BigInt().String(),
			"nullifier":  n.NullifierHash.BigInt().String(),
			"commitment": n.Commitment.BigInt().String(),
		},
		SignalOrder: []string{"root", "nullifier", "commitment"},
	}, nil
}

// withdrawal tracks a single in-flight withdraw through its state machine.
type withdrawal struct {
	state       WithdrawState
	note        *note.Note
	merkleProof *merkle.Proof
	proof       *proof.Proof
	signature   string
}

// Adapter is the shielded-pool provider.
type Adapter struct {
	chain  chain.Chain
	wallet chain.Wallet
	ready  bool
	prover Prover
	tokens *token.Registry

	mu     sync.Mutex
	tree   *merkle.Tree
	notes  map[string]*note.Note // commitment decimal string -> unspent note
	spent  map[string]bool       // nullifier hash decimal string -> spent
}

// New constructs a pool adapter over a fresh depth-20 Merkle tree.
func New(prover Prover) (*Adapter, error) {
	tree, err := merkle.New(merkle.DefaultDepth)
	if err != nil {
		return nil, err
	}
	if prover == nil {
		prover = circuitStub{}
	}
	return &Adapter{
		prover: prover,
		tokens: token.DefaultRegistry(),
		tree:   tree,
		notes:  make(map[string]*note.Note),
		spent:  make(map[string]bool),
	}, nil
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		ProviderID:  providerID,
		DisplayName: "Shielded Pool",
		SupportedPrivacyLevels: []adapter.PrivacyLevel{
			adapter.LevelFullyShielded,
		},
		SupportedTokens: adapter.TokenSet{Tokens: []string{"SOL", "USDC"}},
	}
}

func (a *Adapter) Initialize(ctx context.Context, c chain.Chain, w chain.Wallet) error {
	if w == nil {
		return privacyerr.WalletNotConnected()
	}
	a.chain = c
	a.wallet = w
	a.ready = true
	return nil
}

func (a *Adapter) IsReady() bool { return a.ready }

func (a *Adapter) Balance(ctx context.Context, tokenSymbol, address string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total float64
	for _, n := range a.notes {
		if n.Token == tokenSymbol {
			total += n.Amount
		}
	}
	return total, nil
}

func (a *Adapter) Estimate(ctx context.Context, req adapter.Request) (*adapter.Estimate, error) {
	fees, err := a.tokens.FeesFor(req.Token, providerID)
	if err != nil {
		return nil, err
	}
	size := a.tree.NextIndex()
	return &adapter.Estimate{
		Fee:          req.Amount * fees.FeeFraction,
		LatencyMS:    3000,
		AnonymitySet: &size,
	}, nil
}

// Deposit mints a new note for req.Amount/req.Token, inserts its commitment
// into the tree, and submits the deposit instruction.
func (a *Adapter) Deposit(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if a.wallet == nil || a.chain == nil {
		return nil, privacyerr.WalletNotConnected()
	}
	fees, err := a.tokens.FeesFor(req.Token, providerID)
	if err != nil {
		return nil, err
	}
	if req.Amount < fees.MinAmount {
		return nil, privacyerr.AmountBelowMinimum(req.Amount, fees.MinAmount, req.Token, providerID)
	}

	n, err := note.Generate(req.Amount, req.Token)
	if err != nil {
		return nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to generate deposit note", err)
	}

	a.mu.Lock()
	leafIndex, err := a.tree.Insert(n.Commitment)
	if err != nil {
		a.mu.Unlock()
		return nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to insert commitment", err)
	}
	n.LeafIndex = leafIndex
	a.notes[n.Commitment.BigInt().String()] = n
	a.mu.Unlock()

	baseUnits, err := a.tokens.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return nil, err
	}
	data := encodeDeposit(n.Commitment.Bytes(), baseUnits.Uint64())

	ctx, cancel := adapter.WithConfirmationTimeout(ctx)
	defer cancel()
	sig, err := a.chain.SendInstruction(ctx, programID, data, []string{a.wallet.Address()})
	if err != nil {
		return nil, privacyerr.Network(err)
	}
	if _, err := a.chain.Confirm(ctx, sig); err != nil {
		return nil, privacyerr.Network(err)
	}

	encoded, err := note.Encode(n)
	if err != nil {
		return nil, privacyerr.Wrap(privacyerr.KindInvalidFormat, "failed to encode note", err)
	}

	return &adapter.Result{
		TransactionID: sig,
		Fee:           req.Amount * fees.FeeFraction,
		Commitment:    n.Commitment.BigInt().String(),
		Raw:           map[string]any{"note": encoded},
	}, nil
}

// Withdraw spends req.Note through the Ready->ProofFetched->
// ProofGenerated->Submitted->Confirmed|Failed state machine.
func (a *Adapter) Withdraw(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if a.wallet == nil || a.chain == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	n, err := note.Decode(req.Note)
	if err != nil {
		return nil, err
	}
	if !note.Verify(n) {
		return nil, privacyerr.InvalidFormat("pool: note failed commitment/nullifier verification")
	}

	w := &withdrawal{state: WithdrawReady, note: n}

	a.mu.Lock()
	commitmentKey := n.Commitment.BigInt().String()
	nullifierKey := n.NullifierHash.BigInt().String()
	if a.spent[nullifierKey] {
		a.mu.Unlock()
		return nil, privacyerr.New(privacyerr.KindTransaction, "pool: note has already been spent")
	}
	if _, ok := a.notes[commitmentKey]; !ok {
		a.mu.Unlock()
		return nil, privacyerr.New(privacyerr.KindTransaction, "pool: note is not a tracked unspent note")
	}
	if n.LeafIndex < 0 {
		a.mu.Unlock()
		return nil, privacyerr.InvalidFormat("pool: note has no recorded leaf index")
	}
	merkleProof, err := a.tree.GenerateProof(n.LeafIndex)
	a.mu.Unlock()
	if err != nil {
		w.state = WithdrawFailed
		return nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to fetch merkle proof", err)
	}
	w.merkleProof = merkleProof
	w.state = WithdrawProofFetched

	p, err := a.prover.ProveWithdraw(n, merkleProof)
	if err != nil {
		w.state = WithdrawFailed
		return nil, privacyerr.ProofGeneration("withdraw", err)
	}
	w.proof = p
	w.state = WithdrawProofGenerated

	wire, err := proof.Serialize(p)
	if err != nil {
		w.state = WithdrawFailed
		return nil, privacyerr.ProofGeneration("withdraw", err)
	}

	baseUnits, err := a.tokens.ToBaseUnits(n.Amount, n.Token)
	if err != nil {
		w.state = WithdrawFailed
		return nil, err
	}
	fees, err := a.tokens.FeesFor(n.Token, providerID)
	if err != nil {
		w.state = WithdrawFailed
		return nil, err
	}
	data := encodeWithdraw(n.NullifierHash.Bytes(), merkleProof.Root.Bytes(), baseUnits.Uint64(), wire)

	ctx, cancel := adapter.WithConfirmationTimeout(ctx)
	defer cancel()
	sig, err := a.chain.SendInstruction(ctx, programID, data, []string{a.wallet.Address(), req.Recipient})
	w.state = WithdrawSubmitted
	w.signature = sig
	if err != nil {
		w.state = WithdrawFailed
		return nil, privacyerr.Network(err)
	}

	status, err := a.chain.Confirm(ctx, sig)
	if err != nil || status == chain.StatusFailed {
		w.state = WithdrawFailed
		if err != nil {
			return nil, privacyerr.Network(err)
		}
		return nil, privacyerr.Transaction(fmt.Errorf("withdraw instruction failed"), sig)
	}
	w.state = WithdrawConfirmed

	a.mu.Lock()
	delete(a.notes, commitmentKey)
	a.spent[nullifierKey] = true
	a.mu.Unlock()

	return &adapter.Result{
		TransactionID: sig,
		Fee:           n.Amount * fees.FeeFraction,
		NullifierHash: nullifierKey,
		Signature:     sig,
	}, nil
}

// Transfer is a deposit composed with a withdraw: the sender's note is
// spent and a fresh note is minted to the recipient's shielded balance. The
// combined fee is the sum of both legs' fees, matching how a relayed
// transfer actually costs two on-chain instructions.
func (a *Adapter) Transfer(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	withdrawResult, err := a.Withdraw(ctx, req)
	if err != nil {
		return nil, err
	}
	depositResult, err := a.Deposit(ctx, adapter.Request{Token: req.Token, Amount: req.Amount, Sender: req.Recipient})
	if err != nil {
		return nil, err
	}
	return &adapter.Result{
		TransactionID: depositResult.TransactionID,
		Fee:           withdrawResult.Fee + depositResult.Fee,
		Commitment:    depositResult.Commitment,
		NullifierHash: withdrawResult.NullifierHash,
		Raw:           depositResult.Raw,
	}, nil
}

// ExportNotes returns the encoded note strings for every currently unspent
// note, e.g. for client-side backup.
func (a *Adapter) ExportNotes() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.notes))
	for _, n := range a.notes {
		s, err := note.Encode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ImportNote decodes an externally-held note string, re-verifies it, and
// adds it to the unspent set. When the note's recorded leaf index lies
// inside this adapter's tree, the leaf stored there must equal the note's
// commitment; a note with no leaf index, or one past the tree's last
// inserted leaf, is added without any tree check.
func (a *Adapter) ImportNote(encoded string) error {
	n, err := note.Decode(encoded)
	if err != nil {
		return err
	}
	if !note.Verify(n) {
		return privacyerr.InvalidFormat("pool: imported note failed verification")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if n.LeafIndex >= 0 && n.LeafIndex < a.tree.NextIndex() {
		mp, err := a.tree.GenerateProof(n.LeafIndex)
		if err == nil && !mp.Leaf.Equal(n.Commitment) {
			return privacyerr.InvalidFormat("pool: imported note's commitment does not match the tree at its leaf index")
		}
	}

	a.notes[n.Commitment.BigInt().String()] = n
	return nil
}

func encodeDeposit(commitment [32]byte, amountBaseUnits uint64) []byte {
	buf := make([]byte, 0, 1+32+8)
	buf = append(buf, opDeposit)
	buf = append(buf, commitment[:]...)
	amt := make([]byte, 8)
	binary.LittleEndian.PutUint64(amt, amountBaseUnits)
	buf = append(buf, amt...)
	return buf
}

func encodeWithdraw(nullifierHash, root [32]byte, amountBaseUnits uint64, proofWire []byte) []byte {
	buf := make([]byte, 0, 1+32+32+8+len(proofWire))
	buf = append(buf, opWithdraw)
	buf = append(buf, nullifierHash[:]...)
	buf = append(buf, root[:]...)
	amt := make([]byte, 8)
	binary.LittleEndian.PutUint64(amt, amountBaseUnits)
	buf = append(buf, amt...)
	buf = append(buf, proofWire...)
	return buf
}
