// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package note

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/kamalbuilds/privacykit/field"
	"github.com/kamalbuilds/privacykit/privacyerr"
)

// notePrefix is the fixed ASCII prefix of every encoded note string.
const notePrefix = "privacy-cash-note-v1-"

// wireNote is the external, public-contract JSON shape of an encoded note:
// decimal big-integer strings for the field elements, matching spec §6's
// {c,n,s,nu,a,t,ts,li?}.
type wireNote struct {
	Commitment    string  `json:"c"`
	Nullifier     string  `json:"n"`
	Secret        string  `json:"s"`
	NullifierHash string  `json:"nu"`
	Amount        float64 `json:"a"`
	Token         string  `json:"t"`
	TimestampMS   int64   `json:"ts"`
	LeafIndex     *int    `json:"li,omitempty"`
}

// Encode serializes n to its note-string form:
// "privacy-cash-note-v1-" + base64url(JSON{c,n,s,nu,a,t,ts,li?}).
func Encode(n *Note) (string, error) {
	w := wireNote{
		Commitment:    n.Commitment.BigInt().String(),
		Nullifier:     n.Nullifier.BigInt().String(),
		Secret:        n.Secret.BigInt().String(),
		NullifierHash: n.NullifierHash.BigInt().String(),
		Amount:        n.Amount,
		Token:         n.Token,
		TimestampMS:   n.TimestampMS,
	}
	if n.LeafIndex >= 0 {
		li := n.LeafIndex
		w.LeafIndex = &li
	}

	body, err := json.Marshal(w)
	if err != nil {
		return "", privacyerr.InvalidFormat("note: failed to marshal note JSON")
	}

	return notePrefix + base64.URLEncoding.EncodeToString(body), nil
}

// Decode reverses Encode. It fails with InvalidFormat on a bad prefix, bad
// base64, missing fields, or a non-decimal big-integer field.
func Decode(s string) (*Note, error) {
	if !strings.HasPrefix(s, notePrefix) {
		return nil, privacyerr.InvalidFormat("note: missing privacy-cash-note-v1- prefix")
	}
	body, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(s, notePrefix))
	if err != nil {
		return nil, privacyerr.InvalidFormat("note: invalid base64 body")
	}

	var w wireNote
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, privacyerr.InvalidFormat("note: invalid JSON body")
	}
	if w.Commitment == "" || w.Nullifier == "" || w.Secret == "" || w.NullifierHash == "" || w.Token == "" {
		return nil, privacyerr.InvalidFormat("note: missing required field")
	}

	commitment, err := parseDecimalField(w.Commitment)
	if err != nil {
		return nil, err
	}
	nullifier, err := parseDecimalField(w.Nullifier)
	if err != nil {
		return nil, err
	}
	secret, err := parseDecimalField(w.Secret)
	if err != nil {
		return nil, err
	}
	nullifierHash, err := parseDecimalField(w.NullifierHash)
	if err != nil {
		return nil, err
	}

	n := &Note{
		Secret:        secret,
		Nullifier:     nullifier,
		Amount:        w.Amount,
		Token:         w.Token,
		Commitment:    commitment,
		NullifierHash: nullifierHash,
		TimestampMS:   w.TimestampMS,
		LeafIndex:     noLeafIndex,
	}
	if w.LeafIndex != nil {
		if *w.LeafIndex < 0 {
			return nil, privacyerr.InvalidFormat("note: leaf_index must be non-negative")
		}
		n.LeafIndex = *w.LeafIndex
	}
	return n, nil
}

func parseDecimalField(s string) (field.Element, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return field.Element{}, privacyerr.InvalidFormat("note: field is not a decimal big integer: " + s)
	}
	if n.Sign() < 0 || n.Cmp(field.Modulus) >= 0 {
		return field.Element{}, privacyerr.InvalidFormat("note: field value out of range: " + s)
	}
	return field.FromBigInt(n), nil
}
