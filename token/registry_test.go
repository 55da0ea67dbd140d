// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import "testing"

func TestToBaseUnitsAndBack(t *testing.T) {
	r := DefaultRegistry()

	units, err := r.ToBaseUnits(1.5, "SOL")
	if err != nil {
		t.Fatalf("ToBaseUnits failed: %v", err)
	}
	if units.Uint64() != 1_500_000_000 {
		t.Fatalf("expected 1_500_000_000 base units, got %d", units.Uint64())
	}

	back, err := r.FromBaseUnits(units, "SOL")
	if err != nil {
		t.Fatalf("FromBaseUnits failed: %v", err)
	}
	if back != 1.5 {
		t.Fatalf("expected 1.5 back, got %v", back)
	}
}

func TestUnsupportedToken(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.Lookup("DOGE"); err == nil {
		t.Fatal("expected an error for an unregistered symbol")
	}
}

func TestFeesFor(t *testing.T) {
	r := DefaultRegistry()
	fees, err := r.FeesFor("USDC", "mpc")
	if err != nil {
		t.Fatalf("FeesFor failed: %v", err)
	}
	if fees.FeeFraction <= 0 {
		t.Fatal("expected a positive fee fraction")
	}
}
