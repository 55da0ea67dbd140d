// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package field wraps the BN254 scalar field used by every hashing and
// commitment operation in privacykit. All note material, Merkle nodes, and
// Poseidon inputs/outputs live in this type so that the field's modulus is
// enforced in exactly one place.
package field

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

var (
	// ErrInvalidField is returned when a byte slice or hex string does not
	// decode to a canonical field element.
	ErrInvalidField = errors.New("field: value is not a valid field element")
)

// Modulus is the BN254 scalar field modulus P.
var Modulus = fr.Modulus()

// Element is an integer in [0, P). Every stored value is strictly less than
// the modulus; constructors reduce or reject out-of-range input.
type Element struct {
	v fr.Element
}

// Zero returns the additive identity.
func Zero() Element { return Element{} }

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.v.SetOne()
	return e
}

// FromUint64 builds an Element from a small integer, useful for test vectors
// and the zero-ladder seed.
func FromUint64(v uint64) Element {
	var e Element
	e.v.SetUint64(v)
	return e
}

// FromBigInt reduces a big.Int modulo P.
func FromBigInt(v *big.Int) Element {
	var e Element
	e.v.SetBigInt(v)
	return e
}

// BigInt returns the canonical big.Int representative.
func (e Element) BigInt() *big.Int {
	var out big.Int
	e.v.BigInt(&out)
	return &out
}

// Random draws a uniformly random field element in [0, P) by rejection
// sampling 32 random bytes against the modulus. This is the implementation's
// resolution of the §9 ambiguity around 31-byte secrets: privacykit always
// samples uniformly over the full field instead of truncating to 31 bytes.
func Random() (Element, error) {
	limit := new(big.Int).Set(Modulus)
	for {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return Element{}, err
		}
		n := new(big.Int).SetBytes(buf)
		if n.Cmp(limit) < 0 {
			return FromBigInt(n), nil
		}
	}
}

// IsValid reports whether b, interpreted as a big-endian integer, is
// strictly less than the field modulus.
func IsValid(b []byte) bool {
	if len(b) > 32 {
		return false
	}
	n := new(big.Int).SetBytes(b)
	return n.Cmp(Modulus) < 0
}

// FromBytes interprets b big-endian then reduces modulo P, matching
// bytes_to_field in the spec.
func FromBytes(b []byte) Element {
	n := new(big.Int).SetBytes(b)
	n.Mod(n, Modulus)
	return FromBigInt(n)
}

// Bytes emits the 32 big-endian bytes of the canonical representative.
func (e Element) Bytes() [32]byte {
	return e.v.Bytes()
}

// Hex returns the canonical representative as a "0x"-prefixed hex string.
func (e Element) Hex() string {
	b := e.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

// FromHex parses a "0x"-prefixed (or bare) hex string into a field element.
// It fails if the decoded value is not a canonical representative.
func FromHex(s string) (Element, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Element{}, ErrInvalidField
	}
	if !IsValid(b) {
		return Element{}, ErrInvalidField
	}
	return FromBytes(b), nil
}

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool {
	return e.v.Equal(&o.v)
}

// String implements fmt.Stringer for debugging/log output.
func (e Element) String() string {
	return e.v.String()
}
