// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ecdh

import (
	"math/big"
	"testing"
)

func TestClampLaw(t *testing.T) {
	for i := 0; i < 16; i++ {
		sk, err := GenerateSecretKey()
		if err != nil {
			t.Fatalf("GenerateSecretKey failed: %v", err)
		}
		if sk[0]&0x07 != 0 {
			t.Fatalf("expected sk[0] & 0x07 == 0, got %x", sk[0])
		}
		if sk[31]&0x80 != 0 {
			t.Fatalf("expected sk[31] & 0x80 == 0, got %x", sk[31])
		}
		if sk[31]&0x40 != 0x40 {
			t.Fatalf("expected sk[31] & 0x40 == 0x40, got %x", sk[31])
		}
	}
}

func TestECDHSymmetry(t *testing.T) {
	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	sharedA, err := GetSharedSecret(alice.Secret, bob.Public)
	if err != nil {
		t.Fatalf("GetSharedSecret failed: %v", err)
	}
	sharedB, err := GetSharedSecret(bob.Secret, alice.Public)
	if err != nil {
		t.Fatalf("GetSharedSecret failed: %v", err)
	}
	if sharedA != sharedB {
		t.Fatal("expected both sides to derive the same shared secret")
	}

	charlie, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	sharedC, err := GetSharedSecret(charlie.Secret, alice.Public)
	if err != nil {
		t.Fatalf("GetSharedSecret failed: %v", err)
	}
	if sharedC == sharedA {
		t.Fatal("expected a third party to derive a different shared secret")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	vals := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(255),
		new(big.Int).Lsh(big.NewInt(1), 200),
	}
	for _, v := range vals {
		b, err := SerializeLE(v, 32)
		if err != nil {
			t.Fatalf("SerializeLE(%s) failed: %v", v, err)
		}
		if len(b) != 32 {
			t.Fatalf("expected 32 bytes, got %d", len(b))
		}
		back := DeserializeLE(b)
		if back.Cmp(v) != 0 {
			t.Fatalf("round trip mismatch: %s != %s", back, v)
		}
	}
}

func TestSerializeLERejectsOutOfRange(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	if _, err := SerializeLE(tooBig, 8); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := SerializeLE(big.NewInt(-1), 8); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange for negative value, got %v", err)
	}
}
