// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ecdh implements the X25519 key agreement and the deterministic,
// nonce-randomized symmetric encryption of numeric values used by the MPC
// adapter to prepare confidential inputs for its backend.
package ecdh

import (
	"crypto/rand"

	"github.com/cloudflare/circl/dh/x25519"
)

// KeyPair is a clamped X25519 secret/public key pair.
type KeyPair struct {
	Secret [32]byte
	Public [32]byte
}

// clamp applies the RFC 7748 clamping rules in place: clear the three
// lowest bits of byte 0, clear the highest bit of byte 31, set the
// second-highest bit of byte 31.
func clamp(sk *[32]byte) {
	sk[0] &= 0xf8
	sk[31] &= 0x7f
	sk[31] |= 0x40
}

// GenerateSecretKey draws 32 random bytes and applies RFC 7748 clamping.
func GenerateSecretKey() ([32]byte, error) {
	var sk [32]byte
	if _, err := rand.Read(sk[:]); err != nil {
		return [32]byte{}, err
	}
	clamp(&sk)
	return sk, nil
}

// GetPublicKey performs X25519 scalar multiplication of secret against the
// standard base point.
func GetPublicKey(secret [32]byte) [32]byte {
	var sk x25519.Key = secret
	var pk x25519.Key
	x25519.KeyGen(&pk, &sk)
	return pk
}

// GenerateKeyPair is a convenience wrapper combining GenerateSecretKey and
// GetPublicKey.
func GenerateKeyPair() (KeyPair, error) {
	sk, err := GenerateSecretKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Secret: sk, Public: GetPublicKey(sk)}, nil
}

// GetSharedSecret performs X25519 scalar multiplication of mySecret against
// theirPublic. get_shared_secret(a.sk, b.pk) == get_shared_secret(b.sk,
// a.pk) for any two key pairs (ECDH symmetry).
func GetSharedSecret(mySecret, theirPublic [32]byte) ([32]byte, error) {
	var sk, pk, shared x25519.Key = mySecret, theirPublic, x25519.Key{}
	if ok := x25519.Shared(&shared, &sk, &pk); !ok {
		return [32]byte{}, errLowOrderPoint
	}
	return shared, nil
}

var errLowOrderPoint = &lowOrderPointError{}

type lowOrderPointError struct{}

func (*lowOrderPointError) Error() string {
	return "ecdh: peer public key is a low-order point"
}
