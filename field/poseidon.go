// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package field

import (
	"errors"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// ErrEmptyInput is returned by HashMany when given zero elements: there is
// no well-defined Poseidon output for an empty argument list.
var ErrEmptyInput = errors.New("field: poseidon_hash_many of empty input")

// hasherFactory is process-wide, read-only state: the same Merkle-Damgard
// Poseidon2 parameter set backs every hash in the system, so that roots and
// commitments produced by the Merkle tree, the note scheme, and every
// adapter always combine. init is idempotent and safe to call repeatedly.
var (
	hasherFactory = poseidon2.NewMerkleDamgardHasher
	initOnce      sync.Once
)

// Init initializes the process-wide Poseidon parameter set. It is safe to
// call multiple times (and from multiple goroutines in a future
// multi-threaded build); the parameter set is fixed at compile time, so this
// mainly documents the dependency rather than doing real lazy setup.
func Init() {
	initOnce.Do(func() {
		// The parameter set is a compile-time constant of gnark-crypto's
		// poseidon2 package; nothing to configure, but the hook exists so
		// callers never rely on implicit package-load ordering.
	})
}

// Hash is the arity-2 Poseidon permutation: PoseidonHash(a, b) -> Element.
// Deterministic: the same (a, b) always yields the same output, and the
// hash is order-sensitive (Hash(a, b) generally differs from Hash(b, a)).
func Hash(a, b Element) Element {
	Init()
	h := hasherFactory()
	ab := a.Bytes()
	bb := b.Bytes()
	h.Write(ab[:])
	h.Write(bb[:])
	return FromBytes(h.Sum(nil))
}

// HashSingle is the arity-1 Poseidon permutation: PoseidonHash(a) -> Element.
func HashSingle(a Element) Element {
	Init()
	h := hasherFactory()
	ab := a.Bytes()
	h.Write(ab[:])
	return FromBytes(h.Sum(nil))
}

// HashMany reduces an arbitrary-arity input to a single field element by
// repeated arity-2 folding: HashMany([x]) = HashSingle(x), HashMany([x,y]) = Hash(x,y),
// HashMany([x,y,z,...]) = Hash(Hash(x,y), z), ... . HashMany of zero
// elements fails — there is no meaningful Poseidon output for "nothing".
//
// HashMany([x, y]) is required to equal Hash(x, y) exactly, so callers that
// always pass two elements are oblivious to which entry point they use.
func HashMany(xs []Element) (Element, error) {
	if len(xs) == 0 {
		return Element{}, ErrEmptyInput
	}
	if len(xs) == 1 {
		return HashSingle(xs[0]), nil
	}
	acc := Hash(xs[0], xs[1])
	for _, x := range xs[2:] {
		acc = Hash(acc, x)
	}
	return acc, nil
}
