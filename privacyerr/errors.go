// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package privacyerr implements the cross-adapter error taxonomy from the
// spec's error handling design: every adapter maps its own failures onto
// one of these kinds so that the router and the caller can reason about
// errors uniformly through a single shared taxonomy.
package privacyerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind enumerates the error taxonomy of spec §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindProviderNotAvailable
	KindUnsupportedToken
	KindUnsupportedPrivacyLevel
	KindInsufficientBalance
	KindAmountBelowMinimum
	KindAmountAboveMaximum
	KindRecipientNotFound
	KindWalletNotConnected
	KindProofGeneration
	KindProofVerification
	KindTransaction
	KindNetwork
	KindTimeout
	KindInvalidFormat
	KindNoSuitableProvider
)

func (k Kind) String() string {
	switch k {
	case KindProviderNotAvailable:
		return "ProviderNotAvailable"
	case KindUnsupportedToken:
		return "UnsupportedToken"
	case KindUnsupportedPrivacyLevel:
		return "UnsupportedPrivacyLevel"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	case KindAmountBelowMinimum:
		return "AmountBelowMinimum"
	case KindAmountAboveMaximum:
		return "AmountAboveMaximum"
	case KindRecipientNotFound:
		return "RecipientNotFound"
	case KindWalletNotConnected:
		return "WalletNotConnected"
	case KindProofGeneration:
		return "ProofGeneration"
	case KindProofVerification:
		return "ProofVerification"
	case KindTransaction:
		return "Transaction"
	case KindNetwork:
		return "Network"
	case KindTimeout:
		return "Timeout"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindNoSuitableProvider:
		return "NoSuitableProvider"
	default:
		return "Unknown"
	}
}

// Error is the structured error every adapter operation returns on failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Fields carry the taxonomy's structured payload (e.g. Required/
	// Available for InsufficientBalance). Keys match the spec's parameter
	// names verbatim so callers can extract them without re-parsing text.
	Fields map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, privacyerr.New(KindTimeout, "")) to match on Kind
// alone, ignoring Message/Cause/Fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a bare *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithFields attaches structured payload fields and returns e for chaining.
func (e *Error) WithFields(fields map[string]any) *Error {
	e.Fields = fields
	return e
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, else
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err should be retried under the §5 retry
// policy: only transport/5xx errors are retried; validation and business
// errors are not.
func IsRetryable(err error) bool {
	return KindOf(err) == KindNetwork
}

// Constructors for the common cases, named after the spec's taxonomy.

func ProviderNotAvailable(provider string) *Error {
	return New(KindProviderNotAvailable, fmt.Sprintf("provider %q is not available", provider)).
		WithFields(map[string]any{"provider": provider})
}

func UnsupportedToken(token, provider string) *Error {
	return New(KindUnsupportedToken, fmt.Sprintf("token %q is not supported", token)).
		WithFields(map[string]any{"token": token, "provider": provider})
}

func UnsupportedPrivacyLevel(level, provider string) *Error {
	return New(KindUnsupportedPrivacyLevel, fmt.Sprintf("privacy level %q is not supported", level)).
		WithFields(map[string]any{"level": level, "provider": provider})
}

func InsufficientBalance(required, available float64, token string) *Error {
	return New(KindInsufficientBalance, fmt.Sprintf("need %v %s, have %v", required, token, available)).
		WithFields(map[string]any{"required": required, "available": available, "token": token})
}

func AmountBelowMinimum(amount, minimum float64, token, provider string) *Error {
	return New(KindAmountBelowMinimum, fmt.Sprintf("amount %v %s is below the %v minimum", amount, token, minimum)).
		WithFields(map[string]any{"amount": amount, "minimum": minimum, "token": token, "provider": provider})
}

func AmountAboveMaximum(amount, maximum float64, token, provider string) *Error {
	return New(KindAmountAboveMaximum, fmt.Sprintf("amount %v %s is above the %v maximum", amount, token, maximum)).
		WithFields(map[string]any{"amount": amount, "maximum": maximum, "token": token, "provider": provider})
}

func RecipientNotFound(address string) *Error {
	return New(KindRecipientNotFound, fmt.Sprintf("recipient %q not found", address)).
		WithFields(map[string]any{"address": address})
}

func WalletNotConnected() *Error {
	return New(KindWalletNotConnected, "a wallet capability is required for this operation")
}

func ProofGeneration(circuit string, cause error) *Error {
	return Wrap(KindProofGeneration, fmt.Sprintf("proof generation failed for circuit %q", circuit), cause).
		WithFields(map[string]any{"circuit": circuit})
}

func ProofVerification(cause error) *Error {
	return Wrap(KindProofVerification, "proof verification failed", cause)
}

func Transaction(cause error, signature string) *Error {
	e := Wrap(KindTransaction, "transaction failed", cause)
	if signature != "" {
		e.Fields = map[string]any{"signature": signature}
	}
	return e
}

func Network(cause error) *Error {
	return Wrap(KindNetwork, "network error", cause)
}

func Timeout(op string) *Error {
	return New(KindTimeout, fmt.Sprintf("operation %q timed out", op)).
		WithFields(map[string]any{"op": op})
}

func InvalidFormat(detail string) *Error {
	return New(KindInvalidFormat, detail)
}

func NoSuitableProvider(reasons map[string]string) *Error {
	return New(KindNoSuitableProvider, "no registered adapter satisfies this request").
		WithFields(map[string]any{"reasons": reasons})
}

// MapServerError maps a server-reported business error message onto the
// taxonomy by keyword match, per spec §4.7/§7 ("not found" ->
// RecipientNotFound, "insufficient" -> InsufficientBalance, else ->
// Transaction). It never retries — server-reported business errors are
// terminal.
func MapServerError(message string) *Error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not found"):
		return New(KindRecipientNotFound, message)
	case strings.Contains(lower, "insufficient"):
		return New(KindInsufficientBalance, message)
	default:
		return New(KindTransaction, message)
	}
}
