// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proof defines the Groth16 proof envelope and its wire
// (de)serialization. The verifier contract itself is out of scope — this
// package only constructs, ships, and parses proofs on behalf of the ZK
// adapter.
package proof

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kamalbuilds/privacykit/privacyerr"
)

const (
	protocolTag = "groth16"
	curveTag    = "bn128"

	// projectiveZ is the redundant homogeneous z-coordinate the wire form
	// carries alongside every affine (x, y) pair, per spec §6.
	projectiveZ = "1"
)

// AffinePoint is a decimal-string-encoded affine point (x, y) on G1.
type AffinePoint struct {
	X, Y string
}

// G2AffinePoint is a decimal-string-encoded affine point on G2, each
// coordinate itself an Fp2 pair (c0, c1).
type G2AffinePoint struct {
	X, Y [2]string
}

// Proof is a Groth16 proof: three affine-point fields plus fixed
// protocol/curve tags.
type Proof struct {
	A G1Point
	B G2Point
	C G1Point
	// PublicSignals is an ordered map whose key order is part of the
	// public contract for a given circuit name; Go's json.Marshal on a
	// map does not preserve insertion order, so SignalOrder records it
	// explicitly for wire round-tripping.
	PublicSignals map[string]string
	SignalOrder   []string
}

// G1Point is an affine (x, y) pair on G1.
type G1Point = AffinePoint

// G2Point is an affine (x, y) pair on G2, with Fp2 coordinates.
type G2Point = G2AffinePoint

// wirePointG1 is the length-3 projective [x, y, z] the wire form pins; z is
// always the redundant "1" for an affine point. It is a slice (not a fixed
// array) so that json.Unmarshal preserves the JSON array's true length
// instead of silently truncating or zero-padding a malformed proof.
type wirePointG1 []string

// wirePointG2 is the length-3 projective [[x0,x1], [y0,y1], [z0,z1]] the
// wire form pins.
type wirePointG2 [][2]string

func toWireG1(p G1Point) wirePointG1 {
	return wirePointG1{p.X, p.Y, projectiveZ}
}

func fromWireG1(w wirePointG1) (G1Point, error) {
	if len(w) != 3 {
		return G1Point{}, privacyerr.InvalidFormat("proof: malformed G1 point arity")
	}
	return G1Point{X: w[0], Y: w[1]}, nil
}

func toWireG2(p G2Point) wirePointG2 {
	return wirePointG2{p.X, p.Y, [2]string{projectiveZ, "0"}}
}

func fromWireG2(w wirePointG2) (G2Point, error) {
	if len(w) != 3 {
		return G2Point{}, privacyerr.InvalidFormat("proof: malformed G2 point arity")
	}
	return G2Point{X: w[0], Y: w[1]}, nil
}

// wireProof mirrors spec §6's exact JSON shape. PublicSignals is a
// json.RawMessage, not a Go map: the spec pins public_signals' key order
// as part of the per-circuit public contract, and encoding/json gives no
// ordering guarantee over map[string]string, so the ordered object is
// built and parsed by hand (see publicSignalsJSON/parsePublicSignals)
// rather than left to the struct tag.
type wireProof struct {
	Protocol      string          `json:"protocol"`
	Curve         string          `json:"curve"`
	PiA           wirePointG1     `json:"pi_a"`
	PiB           wirePointG2     `json:"pi_b"`
	PiC           wirePointG1     `json:"pi_c"`
	PublicSignals json.RawMessage `json:"public_signals"`
}

// publicSignalsJSON hand-builds the public_signals object in exactly
// order's sequence, mirroring adapter/remoteapi.canonicalBody's technique
// of writing JSON keys/values directly instead of trusting map iteration.
func publicSignalsJSON(order []string, signals map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range order {
		v, ok := signals[k]
		if !ok {
			return nil, privacyerr.InvalidFormat("proof: signal_order names an unknown public signal " + k)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parsePublicSignals walks raw's JSON tokens in wire order, so the
// returned order slice reflects the bytes actually on the wire rather
// than Go's randomized map iteration.
func parsePublicSignals(raw json.RawMessage) (map[string]string, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, privacyerr.InvalidFormat("proof: malformed public_signals")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, privacyerr.InvalidFormat("proof: public_signals must be a JSON object")
	}

	signals := make(map[string]string)
	order := make([]string, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, privacyerr.InvalidFormat("proof: malformed public_signals key")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, privacyerr.InvalidFormat("proof: public_signals keys must be strings")
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, privacyerr.InvalidFormat("proof: malformed public_signals value")
		}
		val, ok := valTok.(string)
		if !ok {
			return nil, nil, privacyerr.InvalidFormat(fmt.Sprintf("proof: public_signals[%q] must be a decimal string", key))
		}

		signals[key] = val
		order = append(order, key)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, privacyerr.InvalidFormat("proof: malformed public_signals")
	}

	return signals, order, nil
}

// Serialize emits the UTF-8 JSON wire form:
// {protocol:"groth16", curve:"bn128", pi_a:[3], pi_b:[3x2], pi_c:[3],
// public_signals:{...}}, with public_signals written in p.SignalOrder.
func Serialize(p *Proof) ([]byte, error) {
	order := p.SignalOrder
	if order == nil {
		order = make([]string, 0, len(p.PublicSignals))
		for k := range p.PublicSignals {
			order = append(order, k)
		}
	}
	signalsJSON, err := publicSignalsJSON(order, p.PublicSignals)
	if err != nil {
		return nil, err
	}

	w := wireProof{
		Protocol:      protocolTag,
		Curve:         curveTag,
		PiA:           toWireG1(p.A),
		PiB:           toWireG2(p.B),
		PiC:           toWireG1(p.C),
		PublicSignals: signalsJSON,
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, privacyerr.InvalidFormat("proof: failed to marshal proof JSON")
	}
	return b, nil
}

// Deserialize reverses Serialize and enforces the protocol/curve tags and
// the arity of pi_a/pi_b/pi_c. SignalOrder is recovered from the literal
// byte order of public_signals on the wire, not re-derived from the map.
func Deserialize(data []byte) (*Proof, error) {
	var w wireProof
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, privacyerr.InvalidFormat("proof: invalid JSON body")
	}
	if w.Protocol != protocolTag {
		return nil, privacyerr.InvalidFormat("proof: unexpected protocol tag " + w.Protocol)
	}
	if w.Curve != curveTag {
		return nil, privacyerr.InvalidFormat("proof: unexpected curve tag " + w.Curve)
	}

	a, err := fromWireG1(w.PiA)
	if err != nil {
		return nil, err
	}
	b, err := fromWireG2(w.PiB)
	if err != nil {
		return nil, err
	}
	c, err := fromWireG1(w.PiC)
	if err != nil {
		return nil, err
	}

	signals, order, err := parsePublicSignals(w.PublicSignals)
	if err != nil {
		return nil, err
	}

	return &Proof{
		A:             a,
		B:             b,
		C:             c,
		PublicSignals: signals,
		SignalOrder:   order,
	}, nil
}
