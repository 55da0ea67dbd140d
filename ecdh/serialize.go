// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ecdh

import (
	"errors"
	"math/big"
)

// ErrOutOfRange is returned by SerializeLE when v does not fit in W bytes,
// or is negative.
var ErrOutOfRange = errors.New("ecdh: value out of range for the requested width")

// SerializeLE encodes v as W little-endian bytes. It fails if v is negative
// or v >= 2^(8*W).
func SerializeLE(v *big.Int, width int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, ErrOutOfRange
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(8*width))
	if v.Cmp(limit) >= 0 {
		return nil, ErrOutOfRange
	}

	be := v.Bytes()
	out := make([]byte, width)
	for i := 0; i < len(be); i++ {
		out[i] = be[len(be)-1-i]
	}
	return out, nil
}

// DeserializeLE is the exact inverse of SerializeLE.
func DeserializeLE(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	return new(big.Int).SetBytes(be)
}
