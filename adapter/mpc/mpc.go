// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mpc implements the Arcium-style confidential-compute adapter:
// transfer amounts are ECDH-encrypted client-side and submitted as opaque
// ciphertext alongside a confidential-compute instruction, rather than
// being revealed on chain. No multi-party protocol is executed by this
// process — "MPC" here names the remote compute cluster the instruction
// targets. Per-session state is kept behind a mutex-guarded map and session
// activity goes to a structured logger; no threshold signing protocol is
// implemented here.
package mpc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"sync"

	log "github.com/luxfi/log"

	"github.com/kamalbuilds/privacykit/adapter"
	"github.com/kamalbuilds/privacykit/chain"
	"github.com/kamalbuilds/privacykit/ecdh"
	"github.com/kamalbuilds/privacykit/privacyerr"
	"github.com/kamalbuilds/privacykit/token"
)

const providerID = "mpc"

// Instruction op codes, per the on-chain instruction byte layout.
const (
	opTransfer  byte = 0x01
	opShield    byte = 0x02
	opUnshield  byte = 0x03
	opComputeID byte = 0x10 // confidential_compute template op
)

const programID = "ArciumConfidentialCompute11111111111111111"

// sessionID is an opaque 16-byte MPC session handle.
type sessionID [16]byte

func newSessionID() (sessionID, error) {
	var id sessionID
	if _, err := rand.Read(id[:]); err != nil {
		return sessionID{}, err
	}
	return id, nil
}

func (s sessionID) String() string { return hex.EncodeToString(s[:]) }

type session struct {
	id        sessionID
	clusterPK [32]byte
}

// Adapter is the Arcium-style confidential-compute provider.
type Adapter struct {
	clusterPubKey [32]byte
	chain         chain.Chain
	wallet        chain.Wallet
	ready         bool
	log           log.Logger
	tokens        *token.Registry

	mu       sync.RWMutex
	sessions map[sessionID]*session
}

// New constructs an MPC adapter targeting the confidential-compute cluster
// identified by its static X25519 public key.
func New(clusterPubKey [32]byte) *Adapter {
	return &Adapter{
		clusterPubKey: clusterPubKey,
		log:           log.NewTestLogger(log.InfoLevel),
		tokens:        token.DefaultRegistry(),
		sessions:      make(map[sessionID]*session),
	}
}

// WithRegistry overrides the token registry used for base-unit conversion.
func (a *Adapter) WithRegistry(r *token.Registry) *Adapter {
	a.tokens = r
	return a
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		ProviderID:  providerID,
		DisplayName: "Confidential Compute",
		SupportedPrivacyLevels: []adapter.PrivacyLevel{
			adapter.LevelAmountHidden,
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
	if a.chain == nil {
		return 0, privacyerr.ProviderNotAvailable(providerID)
	}
	data, err := a.chain.GetAccountData(ctx, address)
	if err != nil {
		return 0, privacyerr.Network(err)
	}
	if len(data) < 8 {
		return 0, privacyerr.InvalidFormat("mpc: account data too short for a balance")
	}
	raw := binary.LittleEndian.Uint64(data[:8])
	return float64(raw), nil
}

func (a *Adapter) Estimate(ctx context.Context, req adapter.Request) (*adapter.Estimate, error) {
	return &adapter.Estimate{Fee: req.Amount * 0.001, LatencyMS: 800}, nil
}

// openSession starts a new opaque MPC session against the configured
// cluster public key. The session id never reveals protocol state; it is
// only a correlation handle for the instructions that follow.
func (a *Adapter) openSession() (*session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to allocate mpc session", err)
	}
	s := &session{id: id, clusterPK: a.clusterPubKey}

	a.mu.Lock()
	a.sessions[id] = s
	a.mu.Unlock()

	a.log.Info("opened mpc session", "session", id.String())
	return s, nil
}

func (a *Adapter) closeSession(id sessionID) {
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()
}

// Transfer encrypts the amount under the session's shared secret and
// submits {op=0x01, sender(32), recipient(32), ciphertext(var)} — the
// amount never appears in the clear on chain.
func (a *Adapter) Transfer(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if a.wallet == nil || a.chain == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	sess, err := a.openSession()
	if err != nil {
		return nil, err
	}
	defer a.closeSession(sess.id)

	ephemeralPub, ct, err := a.encryptAmount(sess, req)
	if err != nil {
		return nil, err
	}

	data := encodeTransfer(addressToBytes32(a.wallet.Address()), addressToBytes32(req.Recipient), ephemeralPub, *ct)
	return a.send(ctx, data, req)
}

// Deposit ("shield") wraps a visible amount: the token program needs the
// plaintext u64 to move real balance into the confidential pool, so the
// amount is NOT encrypted here, per spec's MPC-shield wire layout.
func (a *Adapter) Deposit(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if a.wallet == nil || a.chain == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	baseUnits, err := a.tokens.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return nil, err
	}

	data := encodeShield(baseUnits.Uint64())
	return a.send(ctx, data, req)
}

// Withdraw ("unshield") releases a visible amount back to recipient;
// again the amount is plaintext per the MPC-unshield wire layout.
func (a *Adapter) Withdraw(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	if a.wallet == nil || a.chain == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	baseUnits, err := a.tokens.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return nil, err
	}

	data := encodeUnshield(addressToBytes32(req.Recipient), baseUnits.Uint64())
	return a.send(ctx, data, req)
}

// ConfidentialCompute is the confidential_compute template operation:
// encrypt an arbitrary set of named inputs under the session's shared
// secret and hand them to the cluster's opaque computation closure,
// identified by computationID. The result carries the submitted session
// id in Raw["session"] so a caller can correlate it with out-of-band
// compute results.
func (a *Adapter) ConfidentialCompute(ctx context.Context, computationID string, inputs map[string]*uint64) (*adapter.Result, error) {
	if a.wallet == nil || a.chain == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	sess, err := a.openSession()
	if err != nil {
		return nil, err
	}
	defer a.closeSession(sess.id)

	kp, err := ecdh.GenerateKeyPair()
	if err != nil {
		return nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to generate ephemeral key", err)
	}
	enc := ecdh.NewArciumEncryption(kp, sess.clusterPK)

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := make([]byte, 0, 1+16+32+len(computationID)+len(names)*64)
	buf = append(buf, opComputeID)
	buf = append(buf, sess.id[:]...)
	buf = append(buf, kp.Public[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(computationID)))
	buf = append(buf, []byte(computationID)...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(names)))
	for _, name := range names {
		ct, err := enc.EncryptForCSPL(new(big.Int).SetUint64(*inputs[name]))
		if err != nil {
			return nil, privacyerr.Wrap(privacyerr.KindTransaction, "encryption failed", err)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(name)))
		buf = append(buf, []byte(name)...)
		buf = append(buf, ct.Nonce[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ct.Ciphertext)))
		buf = append(buf, ct.Ciphertext...)
	}

	ctx, cancel := adapter.WithConfirmationTimeout(ctx)
	defer cancel()

	sig, err := a.chain.SendInstruction(ctx, programID, buf, []string{a.wallet.Address()})
	if err != nil {
		return nil, privacyerr.Network(err)
	}
	status, err := a.chain.Confirm(ctx, sig)
	if err != nil {
		return nil, privacyerr.Network(err)
	}
	if status == chain.StatusFailed {
		return nil, privacyerr.Transaction(fmt.Errorf("mpc confidential_compute failed"), sig)
	}

	return &adapter.Result{TransactionID: sig, Raw: map[string]any{"session": sess.id.String()}}, nil
}

// encryptAmount encrypts req's amount under sess's shared secret, returning
// the fresh ephemeral public key the recipient cluster needs to recover
// that secret alongside the sealed ciphertext.
func (a *Adapter) encryptAmount(sess *session, req adapter.Request) (ephemeralPub [32]byte, ct *ecdh.Ciphertext, err error) {
	kp, err := ecdh.GenerateKeyPair()
	if err != nil {
		return ephemeralPub, nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to generate ephemeral key", err)
	}
	enc := ecdh.NewArciumEncryption(kp, sess.clusterPK)

	baseUnits, err := a.tokens.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return ephemeralPub, nil, err
	}
	ct, err = enc.EncryptForCSPL(baseUnits.ToBig())
	if err != nil {
		return ephemeralPub, nil, privacyerr.Wrap(privacyerr.KindTransaction, "encryption failed", err)
	}
	return kp.Public, ct, nil
}

// send submits data to the confidential-compute program and waits for
// confirmation, converting chain failures into the pool-wide taxonomy.
func (a *Adapter) send(ctx context.Context, data []byte, req adapter.Request) (*adapter.Result, error) {
	ctx, cancel := adapter.WithConfirmationTimeout(ctx)
	defer cancel()

	accounts := []string{a.wallet.Address()}
	if req.Recipient != "" {
		accounts = append(accounts, req.Recipient)
	}
	sig, err := a.chain.SendInstruction(ctx, programID, data, accounts)
	if err != nil {
		return nil, privacyerr.Network(err)
	}
	status, err := a.chain.Confirm(ctx, sig)
	if err != nil {
		return nil, privacyerr.Network(err)
	}
	if status == chain.StatusFailed {
		return nil, privacyerr.Transaction(fmt.Errorf("mpc instruction failed"), sig)
	}

	return &adapter.Result{TransactionID: sig, Fee: req.Amount * 0.001}, nil
}

// encodeTransfer lays out {op=0x01, sender(32), recipient(32),
// ciphertext(var)}. The variable-length ciphertext field is itself
// ephemeral_pubkey(32) | nonce(16) | sealed_bytes, since the cluster needs
// the ephemeral public key to recover the ECDH shared secret and the spec
// gives ciphertext a single opaque variable slot rather than separate
// fixed ones for it.
func encodeTransfer(sender, recipient, ephemeralPub [32]byte, ct ecdh.Ciphertext) []byte {
	buf := make([]byte, 0, 1+32+32+32+16+len(ct.Ciphertext))
	buf = append(buf, opTransfer)
	buf = append(buf, sender[:]...)
	buf = append(buf, recipient[:]...)
	buf = append(buf, ephemeralPub[:]...)
	buf = append(buf, ct.Nonce[:]...)
	buf = append(buf, ct.Ciphertext...)
	return buf
}

// encodeShield lays out {op=0x02, amount_u64_le} — a visible amount.
func encodeShield(amountBaseUnits uint64) []byte {
	buf := make([]byte, 0, 1+8)
	buf = append(buf, opShield)
	buf = binary.LittleEndian.AppendUint64(buf, amountBaseUnits)
	return buf
}

// encodeUnshield lays out {op=0x03, recipient(32), amount_u64_le} — also
// a visible amount.
func encodeUnshield(recipient [32]byte, amountBaseUnits uint64) []byte {
	buf := make([]byte, 0, 1+32+8)
	buf = append(buf, opUnshield)
	buf = append(buf, recipient[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, amountBaseUnits)
	return buf
}

// addressToBytes32 folds a base58/hex wallet address string into the
// fixed 32-byte slot the on-chain instruction layouts reserve for it.
func addressToBytes32(addr string) [32]byte {
	return sha256.Sum256([]byte(addr))
}
