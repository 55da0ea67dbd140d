// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package note implements the deposit-note/commitment/nullifier scheme
// shared by the pool and ZK adapters: a note binds a secret and nullifier
// pair to a shielded amount, and publishes only their Poseidon images
// (commitment, nullifier hash) on-chain.
package note

import (
	"time"

	"github.com/kamalbuilds/privacykit/field"
)

// Note is a deposit note: the private half (Secret, Nullifier) plus the
// public commitments derived from it and the bookkeeping needed to spend
// it later.
type Note struct {
	Secret        field.Element
	Nullifier     field.Element
	Amount        float64
	Token         string
	Commitment    field.Element
	NullifierHash field.Element
	TimestampMS   int64
	// LeafIndex is set once the note's commitment has been inserted into a
	// Merkle tree; -1 means "not yet known".
	LeafIndex int
}

// noLeafIndex marks a note whose commitment has not been placed in a tree.
const noLeafIndex = -1

// Generate draws secret and nullifier uniformly at random from the field,
// derives commitment = Poseidon(secret, nullifier) and
// nullifier_hash = Poseidon(nullifier), and stamps the current time.
//
// The probability that two independently generated notes collide on either
// commitment or nullifier_hash across N draws is bounded by N^2/2P, which
// is negligible for any realistic N given the BN254 field size.
func Generate(amount float64, token string) (*Note, error) {
	secret, err := field.Random()
	if err != nil {
		return nil, err
	}
	nullifier, err := field.Random()
	if err != nil {
		return nil, err
	}
	return fromParts(secret, nullifier, amount, token, time.Now().UnixMilli())
}

func fromParts(secret, nullifier field.Element, amount float64, token string, timestampMS int64) (*Note, error) {
	return &Note{
		Secret:        secret,
		Nullifier:     nullifier,
		Amount:        amount,
		Token:         token,
		Commitment:    field.Hash(secret, nullifier),
		NullifierHash: field.HashSingle(nullifier),
		TimestampMS:   timestampMS,
		LeafIndex:     noLeafIndex,
	}, nil
}

// RegenerateCommitment deterministically recomputes Poseidon(secret,
// nullifier); used to prove a note's secret/nullifier pair was not
// tampered with since it was minted.
func RegenerateCommitment(secret, nullifier field.Element) field.Element {
	return field.Hash(secret, nullifier)
}

// Verify reports whether n's stored commitment and nullifier hash are
// exactly the Poseidon images of its secret and nullifier.
func Verify(n *Note) bool {
	return field.Hash(n.Secret, n.Nullifier).Equal(n.Commitment) &&
		field.HashSingle(n.Nullifier).Equal(n.NullifierHash)
}
