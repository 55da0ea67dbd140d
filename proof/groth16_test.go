// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleProof() *Proof {
	return &Proof{
		A: G1Point{X: "1", Y: "2"},
		B: G2Point{X: [2]string{"3", "4"}, Y: [2]string{"5", "6"}},
		C: G1Point{X: "7", Y: "8"},
		PublicSignals: map[string]string{
			"root":       "111",
			"nullifier":  "222",
			"commitment": "333",
		},
		SignalOrder: []string{"root", "nullifier", "commitment"},
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := sampleProof()
	wire, err := Serialize(p)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	back, err := Deserialize(wire)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if back.A != p.A || back.B != p.B || back.C != p.C {
		t.Fatal("points did not round-trip")
	}
	for k, v := range p.PublicSignals {
		if back.PublicSignals[k] != v {
			t.Fatalf("public signal %q mismatch: %s != %s", k, back.PublicSignals[k], v)
		}
	}
	if len(back.SignalOrder) != len(p.SignalOrder) {
		t.Fatalf("signal order length mismatch: got %v want %v", back.SignalOrder, p.SignalOrder)
	}
	for i, k := range p.SignalOrder {
		if back.SignalOrder[i] != k {
			t.Fatalf("signal order mismatch at %d: got %s want %s", i, back.SignalOrder[i], k)
		}
	}
}

// TestSerializeRespectsSignalOrder asserts public_signals' wire byte order
// follows Proof.SignalOrder, not alphabetical or map-iteration order —
// "root" (alphabetically last of the three) must appear first on the wire
// since sampleProof pins it first.
func TestSerializeRespectsSignalOrder(t *testing.T) {
	wire, err := Serialize(sampleProof())
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	body := string(wire)
	rootIdx := strings.Index(body, `"root"`)
	nullifierIdx := strings.Index(body, `"nullifier"`)
	commitmentIdx := strings.Index(body, `"commitment"`)
	if rootIdx < 0 || nullifierIdx < 0 || commitmentIdx < 0 {
		t.Fatalf("expected all three signal keys present in wire bytes: %s", body)
	}
	if !(rootIdx < nullifierIdx && nullifierIdx < commitmentIdx) {
		t.Fatalf("expected wire order root < nullifier < commitment, got offsets %d, %d, %d",
			rootIdx, nullifierIdx, commitmentIdx)
	}
}

// TestDeserializeRecoversWireOrderNotAlphabetical feeds a hand-written
// public_signals object whose key order is NOT alphabetical and checks
// SignalOrder reflects the literal bytes, not a re-sorted or randomized
// order.
func TestDeserializeRecoversWireOrderNotAlphabetical(t *testing.T) {
	wire := []byte(`{"protocol":"groth16","curve":"bn128","pi_a":["1","2","1"],"pi_b":[["1","2"],["3","4"],["1","0"]],"pi_c":["5","6","1"],"public_signals":{"zeta":"9","alpha":"1","mu":"5"}}`)

	got, err := Deserialize(wire)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mu"}
	if len(got.SignalOrder) != len(want) {
		t.Fatalf("expected %d signals, got %v", len(want), got.SignalOrder)
	}
	for i, k := range want {
		if got.SignalOrder[i] != k {
			t.Fatalf("signal order mismatch at %d: got %s want %s", i, got.SignalOrder[i], k)
		}
	}
}

func TestSerializeEmitsExpectedTags(t *testing.T) {
	wire, err := Serialize(sampleProof())
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(wire, &generic); err != nil {
		t.Fatalf("failed to unmarshal wire bytes: %v", err)
	}
	if generic["protocol"] != "groth16" {
		t.Fatalf("expected protocol groth16, got %v", generic["protocol"])
	}
	if generic["curve"] != "bn128" {
		t.Fatalf("expected curve bn128, got %v", generic["curve"])
	}
	piA, ok := generic["pi_a"].([]any)
	if !ok || len(piA) != 3 {
		t.Fatalf("expected pi_a of length 3, got %v", generic["pi_a"])
	}
	piB, ok := generic["pi_b"].([]any)
	if !ok || len(piB) != 3 {
		t.Fatalf("expected pi_b of length 3, got %v", generic["pi_b"])
	}
}

func TestDeserializeRejectsWrongProtocol(t *testing.T) {
	bad := []byte(`{"protocol":"plonk","curve":"bn128","pi_a":["1","2","1"],"pi_b":[["1","2"],["3","4"],["1","0"]],"pi_c":["5","6","1"],"public_signals":{}}`)
	if _, err := Deserialize(bad); err == nil {
		t.Fatal("expected an error for a non-groth16 protocol tag")
	}
}

func TestDeserializeRejectsBadArity(t *testing.T) {
	bad := []byte(`{"protocol":"groth16","curve":"bn128","pi_a":["1","2"],"pi_b":[["1","2"],["3","4"],["1","0"]],"pi_c":["5","6","1"],"public_signals":{}}`)
	if _, err := Deserialize(bad); err == nil {
		t.Fatal("expected an error for a malformed pi_a arity")
	}
}
