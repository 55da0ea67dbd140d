// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ecdh

import (
	"math/big"
	"testing"
)

func TestEncryptionNondeterminism(t *testing.T) {
	mxe, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	client, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	enc := NewArciumEncryption(client, mxe.Public)
	value := big.NewInt(424242)

	ct1, err := enc.Encrypt(value, 16)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	ct2, err := enc.Encrypt(value, 16)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if ct1.Nonce == ct2.Nonce {
		t.Fatal("expected independently drawn nonces to differ")
	}
	if string(ct1.Ciphertext) == string(ct2.Ciphertext) {
		t.Fatal("expected two encryptions of the same value to produce distinct ciphertexts")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	mxe, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	client, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	clientSide := NewArciumEncryption(client, mxe.Public)
	mxeSide := NewArciumEncryption(mxe, client.Public)

	value := big.NewInt(9_999_999)
	ct, err := clientSide.EncryptForCSPL(value)
	if err != nil {
		t.Fatalf("EncryptForCSPL failed: %v", err)
	}

	got, err := mxeSide.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got.Cmp(value) != 0 {
		t.Fatalf("decrypted value mismatch: %s != %s", got, value)
	}
}
