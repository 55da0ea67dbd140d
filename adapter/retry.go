// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import (
	"context"
	"math/rand"
	"time"

	"github.com/kamalbuilds/privacykit/privacyerr"
)

// RetryPolicy implements exponential backoff with jitter. Only errors for
// which ShouldRetry returns true are retried; by default that is
// privacyerr.IsRetryable, which restricts retries to network errors —
// business and validation failures are never retried.
type RetryPolicy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy matches the spec's retry policy: 3 retries, 1s base
// delay, 10s cap, doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		ShouldRetry: privacyerr.IsRetryable,
	}
}

// Do runs fn, retrying on retryable failures per the policy. It respects ctx
// cancellation between attempts and returns the last error if every attempt
// is exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = privacyerr.IsRetryable
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) || attempt == p.MaxRetries {
			return lastErr
		}

		wait := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}
