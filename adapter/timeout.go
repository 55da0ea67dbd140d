// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import (
	"context"
	"time"
)

// Per-operation-class deadlines from the spec's timeout policy. A generic
// remote API/RPC call gets 30s, on-chain confirmation gets 60s, and zk
// proof generation — by far the most expensive step — gets 120s.
const (
	TimeoutAPI          = 30 * time.Second
	TimeoutConfirmation = 60 * time.Second
	TimeoutProving      = 120 * time.Second
)

// WithAPITimeout bounds an RPC/HTTP call.
func WithAPITimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, TimeoutAPI)
}

// WithConfirmationTimeout bounds waiting for on-chain confirmation.
func WithConfirmationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, TimeoutConfirmation)
}

// WithProvingTimeout bounds zk proof generation.
func WithProvingTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, TimeoutProving)
}
