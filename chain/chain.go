// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain defines the thin collaborator interfaces every adapter is
// injected with: a Wallet capable of signing, and a Chain capable of
// submitting instructions and reading account state. Concrete blockchain
// RPC transport and key management are out of scope (spec §1); this
// package only pins the boundary shape the core talks to.
package chain

import "context"

// Wallet signs messages and transactions on behalf of the end user. Key
// management and storage are entirely the host application's concern.
type Wallet interface {
	// Address returns the wallet's base58/hex address string.
	Address() string
	// SignMessage signs an arbitrary byte string (used by the remote-API
	// adapter to authenticate its canonical JSON request bodies).
	SignMessage(ctx context.Context, message []byte) (signature []byte, err error)
}

// Status reports the confirmation state of a submitted instruction.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusConfirmed
	StatusFailed
)

// Chain submits program instructions and reads account state. Consensus,
// transaction construction, and fee payment are the host application's
// concern; the core only needs to send bytes to a program and read bytes
// back.
type Chain interface {
	// SendInstruction submits data to programID at the given account list
	// and returns a transaction signature/identifier.
	SendInstruction(ctx context.Context, programID string, data []byte, accounts []string) (signature string, err error)
	// GetAccountData reads the raw bytes stored at address (e.g. a PDA).
	GetAccountData(ctx context.Context, address string) ([]byte, error)
	// Confirm blocks (subject to ctx) until signature reaches a terminal
	// status.
	Confirm(ctx context.Context, signature string) (Status, error)
}

// DerivePoolPDASeeds mirrors the spec §6 seed scheme for the pool PDA:
// seed "pool" | mint_bytes. The actual PDA derivation algorithm (program
// address + bump search) is chain-specific and lives in the host
// application; this only pins the seed bytes the core contributes.
func DerivePoolPDASeeds(mint []byte) [][]byte {
	return [][]byte{[]byte("pool"), mint}
}

// DeriveNullifierPDASeeds mirrors the spec §6 seed scheme for the nullifier
// PDA: seed "nullifier" | nullifier_hash_bytes.
func DeriveNullifierPDASeeds(nullifierHash []byte) [][]byte {
	return [][]byte{[]byte("nullifier"), nullifierHash}
}
