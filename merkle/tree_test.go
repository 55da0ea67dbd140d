// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"testing"

	"github.com/kamalbuilds/privacykit/field"
)

func TestNewTreeRootIsZeroLadderTop(t *testing.T) {
	tr, err := New(10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tr.NextIndex() != 0 {
		t.Fatalf("expected nextIndex 0, got %d", tr.NextIndex())
	}
	if !tr.IsKnownRoot(tr.Root()) {
		t.Fatal("expected the initial root to be known")
	}
}

// TestMerkleExample reproduces spec §8 scenario 2: depth 10, insert
// [100, 200, 300]. The proof is against the current root, so the level-1
// sibling of leaf 1 is the node over leaves 2-3, Hash(300, 0), and only
// levels 2..9 fall back to the zero ladder.
func TestMerkleExample(t *testing.T) {
	tr, err := New(10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	l100 := field.FromUint64(100)
	l200 := field.FromUint64(200)
	l300 := field.FromUint64(300)

	for _, l := range []field.Element{l100, l200, l300} {
		if _, err := tr.Insert(l); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	proof, err := tr.GenerateProof(1)
	if err != nil {
		t.Fatalf("GenerateProof failed: %v", err)
	}

	wantIndices := []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	for i, want := range wantIndices {
		if proof.PathIndices[i] != want {
			t.Fatalf("path_indices[%d] = %d, want %d", i, proof.PathIndices[i], want)
		}
	}
	if !proof.PathElements[0].Equal(l100) {
		t.Fatalf("path_elements[0] = %s, want 100", proof.PathElements[0])
	}

	zeroLadder, err := New(10)
	if err != nil {
		t.Fatalf("New for zero ladder failed: %v", err)
	}
	if !proof.PathElements[1].Equal(field.Hash(l300, field.Zero())) {
		t.Fatalf("path_elements[1] = %s, want Hash(300, 0)", proof.PathElements[1])
	}
	for l := 2; l < 10; l++ {
		if !proof.PathElements[l].Equal(zeroLadder.zero[l]) {
			t.Fatalf("path_elements[%d] does not match the zero ladder", l)
		}
	}

	if !VerifyProof(l200, proof) {
		t.Fatal("expected verify_proof(200, proof) = true")
	}
	if VerifyProof(field.FromUint64(201), proof) {
		t.Fatal("expected verify_proof(201, proof) = false")
	}
}

func TestGenerateProofOnEmptyTreeFails(t *testing.T) {
	tr, err := New(5)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := tr.GenerateProof(0); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertAndVerifyEverySoFar(t *testing.T) {
	tr, err := New(8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var leaves []field.Element
	for i := uint64(0); i < 16; i++ {
		l := field.FromUint64(i * 3)
		leaves = append(leaves, l)
		if _, err := tr.Insert(l); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	for i, l := range leaves {
		proof, err := tr.GenerateProof(i)
		if err != nil {
			t.Fatalf("GenerateProof(%d) failed: %v", i, err)
		}
		if !VerifyProof(l, proof) {
			t.Fatalf("proof for index %d did not verify", i)
		}
		if VerifyProof(field.FromUint64(999999), proof) {
			t.Fatalf("proof for index %d verified a different leaf", i)
		}
	}
}

func TestTreeFull(t *testing.T) {
	tr, err := New(2) // capacity 4
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := tr.Insert(field.FromUint64(uint64(i))); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	if _, err := tr.Insert(field.FromUint64(99)); err != ErrTreeFull {
		t.Fatalf("expected ErrTreeFull, got %v", err)
	}
}

func TestHistoryMembershipDropsOldest(t *testing.T) {
	tr, err := NewWithHistory(8, 3)
	if err != nil {
		t.Fatalf("NewWithHistory failed: %v", err)
	}

	initial := tr.Root()
	var roots []field.Element
	for i := uint64(0); i < 3; i++ {
		tr.Insert(field.FromUint64(i))
		roots = append(roots, tr.Root())
	}

	// Capacity is 3 (history K=3); the initial root plus 3 inserted roots
	// is 4 entries, so the initial root must have been displaced.
	if tr.IsKnownRoot(initial) {
		t.Fatal("expected the initial root to have been evicted from history")
	}
	for _, r := range roots {
		if !tr.IsKnownRoot(r) {
			t.Fatalf("expected root %s to still be known", r)
		}
	}
}

func TestInsertZeroLeafIsLegal(t *testing.T) {
	tr, err := New(4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	idx, err := tr.Insert(field.Zero())
	if err != nil {
		t.Fatalf("inserting zero leaf failed: %v", err)
	}
	proof, err := tr.GenerateProof(idx)
	if err != nil {
		t.Fatalf("GenerateProof failed: %v", err)
	}
	if !VerifyProof(field.Zero(), proof) {
		t.Fatal("expected the zero leaf to verify")
	}
}
