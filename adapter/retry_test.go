// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kamalbuilds/privacykit/privacyerr"
)

func TestRetryPolicySucceedsAfterTransientNetworkErrors(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, ShouldRetry: privacyerr.IsRetryable}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return privacyerr.Network(errors.New("connection reset"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryPolicyNeverRetriesNonNetworkErrors(t *testing.T) {
	p := DefaultRetryPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = time.Millisecond

	attempts := 0
	wantErr := privacyerr.InsufficientBalance(10, 5, "SOL")
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the business error back unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestRetryPolicyExhaustsMaxRetries(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ShouldRetry: privacyerr.IsRetryable}

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return privacyerr.Network(errors.New("still down"))
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if attempts != 3 { // initial attempt + 2 retries
		t.Fatalf("expected 3 total attempts, got %d", attempts)
	}
}

func TestRetryPolicyRespectsContextCancellation(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, ShouldRetry: privacyerr.IsRetryable}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context) error {
			attempts++
			return privacyerr.Network(errors.New("down"))
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return promptly after context cancellation")
	}
}
