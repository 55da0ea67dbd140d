// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ecdh

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// nonceSize is the width specified by the spec: 16 random bytes accompany
// every ciphertext.
const nonceSize = 16

// cspLWidth is the token-program's fixed little-endian width for shielded
// amounts (a u64 in base units).
const cspLWidth = 8

// Ciphertext is the result of encrypting a single numeric value: the random
// nonce plus the AEAD-sealed, serialized value.
type Ciphertext struct {
	Nonce      [nonceSize]byte
	Ciphertext []byte
}

// ArciumEncryption holds the MPC peer's ("MXE") public key and the caller's
// own key pair, and produces authenticated, nondeterministic encryptions of
// numeric values for the MPC adapter's confidential instructions.
type ArciumEncryption struct {
	own     KeyPair
	peerPub [32]byte
}

// NewArciumEncryption binds a local key pair to the peer's MXE public key.
func NewArciumEncryption(own KeyPair, peerPublic [32]byte) *ArciumEncryption {
	return &ArciumEncryption{own: own, peerPub: peerPublic}
}

// deriveKey expands the ECDH shared secret and the per-message nonce into a
// 32-byte ChaCha20-Poly1305 key via HKDF-SHA256, so that every encryption of
// the same value under the same peer uses an independent key.
func deriveKey(shared [32]byte, nonce [nonceSize]byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, shared[:], nonce[:], []byte("privacykit-arcium-encryption"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// encryptSerialized seals serialized plaintext bytes under a fresh random
// nonce and an HKDF-derived key, returning both.
func (a *ArciumEncryption) encryptSerialized(plain []byte) (*Ciphertext, error) {
	shared, err := GetSharedSecret(a.own.Secret, a.peerPub)
	if err != nil {
		return nil, err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	key, err := deriveKey(shared, nonce)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	// ChaCha20-Poly1305 needs a 12-byte AEAD nonce; derive it from the
	// 16-byte message nonce so the wire format stays fixed-width.
	aeadNonce := nonce[:chacha20poly1305.NonceSize]
	sealed := aead.Seal(nil, aeadNonce, plain, nonce[:])

	return &Ciphertext{Nonce: nonce, Ciphertext: sealed}, nil
}

// Encrypt authenticates and encrypts value as a little-endian W-byte
// integer. Two calls encrypting the same value produce different
// ciphertexts with overwhelming probability because each draws a fresh
// random nonce.
func (a *ArciumEncryption) Encrypt(value *big.Int, width int) (*Ciphertext, error) {
	plain, err := SerializeLE(value, width)
	if err != nil {
		return nil, err
	}
	return a.encryptSerialized(plain)
}

// EncryptForCSPL encrypts value using the confidential-SPL token program's
// fixed 8-byte (u64) width and padding.
func (a *ArciumEncryption) EncryptForCSPL(value *big.Int) (*Ciphertext, error) {
	return a.Encrypt(value, cspLWidth)
}

// Decrypt is the inverse of encryptSerialized/Encrypt: it recomputes the
// shared secret and HKDF key from the supplied nonce and opens the sealed
// value, returning the width-byte plaintext as a big integer.
func (a *ArciumEncryption) Decrypt(ct *Ciphertext) (*big.Int, error) {
	shared, err := GetSharedSecret(a.own.Secret, a.peerPub)
	if err != nil {
		return nil, err
	}
	key, err := deriveKey(shared, ct.Nonce)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	aeadNonce := ct.Nonce[:chacha20poly1305.NonceSize]
	plain, err := aead.Open(nil, aeadNonce, ct.Ciphertext, ct.Nonce[:])
	if err != nil {
		return nil, err
	}
	return DeserializeLE(plain), nil
}
