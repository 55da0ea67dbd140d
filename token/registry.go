// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token holds the static per-token metadata (decimals, minimums,
// provider-specific fee tables) that every adapter's pre-operation checks
// and fee estimates are computed against.
package token

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/kamalbuilds/privacykit/privacyerr"
)

// ProviderFees is the per-token, per-provider fee schedule.
type ProviderFees struct {
	FeeFraction       float64
	MinAmount         float64
	MaxAmount         *float64 // nil = unbounded
	AnonymitySetSize  *int     // nil = not applicable to this provider
}

// Metadata is a token's registry entry.
type Metadata struct {
	Decimals int
	Fees     map[string]ProviderFees // providerID -> fee schedule
}

// Registry is a static table keyed by symbol.
type Registry struct {
	tokens map[string]Metadata
}

// NewRegistry builds a registry from an explicit symbol table, the way a
// host application would load it from config at startup.
func NewRegistry(tokens map[string]Metadata) *Registry {
	return &Registry{tokens: tokens}
}

// DefaultRegistry is a small, documented starter set covering the symbols
// used throughout this module's tests and examples.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Metadata{
		"SOL": {
			Decimals: 9,
			Fees: map[string]ProviderFees{
				"remote-api": {FeeFraction: 0.003, MinAmount: 0.01},
				"mpc":        {FeeFraction: 0.001, MinAmount: 0.001},
				"pool":       {FeeFraction: 0.002, MinAmount: 0.01},
				"zk":         {FeeFraction: 0.0015, MinAmount: 0.001},
			},
		},
		"USDC": {
			Decimals: 6,
			Fees: map[string]ProviderFees{
				"remote-api": {FeeFraction: 0.0025, MinAmount: 1},
				"mpc":        {FeeFraction: 0.0008, MinAmount: 0.5},
				"pool":       {FeeFraction: 0.002, MinAmount: 1},
				"zk":         {FeeFraction: 0.0012, MinAmount: 0.5},
			},
		},
	})
}

// Lookup returns the metadata for symbol, or UnsupportedToken.
func (r *Registry) Lookup(symbol string) (Metadata, error) {
	m, ok := r.tokens[symbol]
	if !ok {
		return Metadata{}, privacyerr.UnsupportedToken(symbol, "")
	}
	return m, nil
}

// FeesFor returns the fee schedule for (symbol, providerID).
func (r *Registry) FeesFor(symbol, providerID string) (ProviderFees, error) {
	m, err := r.Lookup(symbol)
	if err != nil {
		return ProviderFees{}, err
	}
	fees, ok := m.Fees[providerID]
	if !ok {
		return ProviderFees{}, privacyerr.UnsupportedToken(symbol, providerID)
	}
	return fees, nil
}

// ToBaseUnits converts a human amount to base units: round(amount *
// 10^decimals), returned as a uint256 matching the on-chain u64 payloads'
// arithmetic domain.
func (r *Registry) ToBaseUnits(amount float64, symbol string) (*uint256.Int, error) {
	m, err := r.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, privacyerr.InvalidFormat("token: amount must be non-negative")
	}

	scaled := amount * math.Pow10(m.Decimals)
	rounded, _ := big.NewFloat(math.Round(scaled)).Int(nil)

	u, overflow := uint256.FromBig(rounded)
	if overflow {
		return nil, privacyerr.InvalidFormat("token: amount overflows base units")
	}
	return u, nil
}

// FromBaseUnits is ToBaseUnits's inverse.
func (r *Registry) FromBaseUnits(units *uint256.Int, symbol string) (float64, error) {
	m, err := r.Lookup(symbol)
	if err != nil {
		return 0, err
	}
	val := new(big.Float).SetInt(units.ToBig())
	divisor := new(big.Float).SetFloat64(math.Pow10(m.Decimals))
	result := new(big.Float).Quo(val, divisor)
	f, _ := result.Float64()
	return f, nil
}
