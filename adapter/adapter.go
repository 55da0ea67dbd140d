// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adapter defines the common operation surface every privacy
// backend implements: balance, transfer, deposit, withdraw, estimate, and
// an optional prove. "Adapter" is a set of operations plus a capability
// matrix, not a class hierarchy — new providers are added by writing a new
// implementation of Adapter, not by subclassing one.
package adapter

import (
	"context"

	"github.com/kamalbuilds/privacykit/chain"
)

// PrivacyLevel is the declared privacy guarantee a request asks for.
type PrivacyLevel string

const (
	LevelNone          PrivacyLevel = "none"
	LevelAmountHidden  PrivacyLevel = "amount-hidden"
	LevelFullyShielded PrivacyLevel = "fully-shielded"
)

// TokenSet names the supported-tokens contract: either an explicit set, or
// Any for adapters (like the ZK adapter) that accept every symbol. With Any
// set, Supports returns true without consulting the token registry.
type TokenSet struct {
	Tokens []string
	Any    bool
}

// Supports reports whether symbol is in the set.
func (s TokenSet) Supports(symbol string) bool {
	if s.Any {
		return true
	}
	for _, t := range s.Tokens {
		if t == symbol {
			return true
		}
	}
	return false
}

// Capabilities is an adapter's immutable, introspectable feature matrix.
type Capabilities struct {
	ProviderID             string
	DisplayName            string
	SupportedPrivacyLevels []PrivacyLevel
	SupportedTokens        TokenSet
}

// SupportsPrivacyLevel reports whether level is in the capability matrix.
func (c Capabilities) SupportsPrivacyLevel(level PrivacyLevel) bool {
	for _, l := range c.SupportedPrivacyLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Request is the common shape of a balance/transfer/deposit/withdraw/
// estimate/prove call.
type Request struct {
	Token         string
	Amount        float64
	PrivacyLevel  PrivacyLevel
	Sender        string
	Recipient     string
	Note          string            // encoded note string, for withdraw
	CircuitName   string            // for prove
	CircuitInputs map[string]string // named private/public inputs, for prove
}

// Result is the common envelope every operation returns on success.
type Result struct {
	TransactionID string
	Fee           float64
	Commitment    string
	NullifierHash string
	Signature     string
	Raw           map[string]any
}

// Estimate is the cost estimate the router scores candidates against. The
// MPC, pool and ZK adapters compute it locally; the remote-API adapter's
// Estimate is an HTTP request to its relayer, bounded by TimeoutAPI.
type Estimate struct {
	Fee             float64
	LatencyMS       int64
	AnonymitySet    *int
	Warnings        []string
}

// Adapter is the normalized operation contract every privacy backend
// implements.
type Adapter interface {
	Capabilities() Capabilities

	// Initialize binds the adapter to its chain/wallet collaborators. It
	// is idempotent and may probe the network; a failed probe is a
	// warning, not a fatal error, unless the adapter genuinely needs the
	// wallet to perform any operation.
	Initialize(ctx context.Context, c chain.Chain, w chain.Wallet) error
	IsReady() bool

	Balance(ctx context.Context, token string, address string) (float64, error)
	Transfer(ctx context.Context, req Request) (*Result, error)
	Deposit(ctx context.Context, req Request) (*Result, error)
	Withdraw(ctx context.Context, req Request) (*Result, error)
	Estimate(ctx context.Context, req Request) (*Estimate, error)
}

// Prover is an optional capability: adapters that support zk proof
// generation implement it in addition to Adapter.
type Prover interface {
	Prove(ctx context.Context, req Request) (*ProveResult, error)
}

// ProveResult is what Prove returns: the proof bytes (wire-serialized) and,
// if loaded, the verification key.
type ProveResult struct {
	ProofJSON         []byte
	VerificationKey   []byte
	PublicSignals     map[string]string
}
