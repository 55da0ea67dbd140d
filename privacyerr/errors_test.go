// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package privacyerr

import (
	"errors"
	"testing"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	inner := Timeout("estimate")
	wrapped := errors.New("boom")
	outer := Wrap(KindNetwork, "transport failed", wrapped)

	if KindOf(outer) != KindNetwork {
		t.Fatalf("expected KindNetwork, got %s", KindOf(outer))
	}
	if KindOf(inner) != KindTimeout {
		t.Fatalf("expected KindTimeout, got %s", KindOf(inner))
	}
}

func TestIsRetryableOnlyNetwork(t *testing.T) {
	if !IsRetryable(Network(errors.New("conn reset"))) {
		t.Fatal("expected network errors to be retryable")
	}
	if IsRetryable(AmountBelowMinimum(1, 2, "SOL", "pool")) {
		t.Fatal("expected validation errors to not be retryable")
	}
}

func TestMapServerError(t *testing.T) {
	cases := map[string]Kind{
		"recipient not found":         KindRecipientNotFound,
		"Insufficient funds":          KindInsufficientBalance,
		"something else went wrong":   KindTransaction,
	}
	for msg, want := range cases {
		got := MapServerError(msg)
		if got.Kind != want {
			t.Fatalf("MapServerError(%q) = %s, want %s", msg, got.Kind, want)
		}
	}
}

func TestErrorIsMatchesOnKind(t *testing.T) {
	e1 := New(KindTimeout, "op a timed out")
	e2 := New(KindTimeout, "op b timed out")
	if !errors.Is(e1, e2) {
		t.Fatal("expected errors of the same kind to match via errors.Is")
	}
	if errors.Is(e1, New(KindNetwork, "x")) {
		t.Fatal("expected errors of different kinds to not match")
	}
}
