// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package remoteapi implements the ShadowWire-style adapter: a hosted
// relayer service that accepts canonically-signed JSON request bodies over
// HTTPS and performs shielded transfers on the caller's behalf.
package remoteapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/kamalbuilds/privacykit/adapter"
	"github.com/kamalbuilds/privacykit/chain"
	"github.com/kamalbuilds/privacykit/privacyerr"
)

const providerID = "remote-api"

// Config configures the relayer endpoint and HTTP transport.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Adapter talks to a ShadowWire-style hosted relayer: requests are signed
// with the wallet's canonical message signature and submitted as JSON over
// HTTPS; the transfer state lives on the relayer, not in this process.
type Adapter struct {
	cfg    Config
	chain  chain.Chain
	wallet chain.Wallet
	ready  bool
	retry  adapter.RetryPolicy
}

// New constructs a remote-API adapter against a relayer base URL.
func New(cfg Config) *Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: adapter.TimeoutAPI}
	}
	return &Adapter{cfg: cfg, retry: adapter.DefaultRetryPolicy()}
}

func (a *Adapter) Capabilities() adapter.Capabilities {
	return adapter.Capabilities{
		ProviderID:  providerID,
		DisplayName: "Shielded Relay",
		SupportedPrivacyLevels: []adapter.PrivacyLevel{
			adapter.LevelAmountHidden,
		},
		SupportedTokens: adapter.TokenSet{Tokens: []string{"SOL", "USDC"}},
	}
}

func (a *Adapter) Initialize(ctx context.Context, c chain.Chain, w chain.Wallet) error {
	if w == nil {
		return privacyerr.WalletNotConnected()
	}
	a.chain = c
	a.wallet = w
	a.ready = true
	return nil
}

func (a *Adapter) IsReady() bool { return a.ready }

func (a *Adapter) Balance(ctx context.Context, token, address string) (float64, error) {
	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := a.get(ctx, fmt.Sprintf("/v1/balance?token=%s&address=%s", token, address), &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (a *Adapter) Estimate(ctx context.Context, req adapter.Request) (*adapter.Estimate, error) {
	var out struct {
		Fee       float64 `json:"fee"`
		LatencyMS int64   `json:"latency_ms"`
	}
	if err := a.get(ctx, fmt.Sprintf("/v1/estimate?token=%s&amount=%v", req.Token, req.Amount), &out); err != nil {
		return nil, err
	}
	return &adapter.Estimate{Fee: out.Fee, LatencyMS: out.LatencyMS}, nil
}

func (a *Adapter) Transfer(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	return a.postSigned(ctx, "/v1/transfer", req)
}

func (a *Adapter) Deposit(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	return a.postSigned(ctx, "/v1/deposit", req)
}

func (a *Adapter) Withdraw(ctx context.Context, req adapter.Request) (*adapter.Result, error) {
	return a.postSigned(ctx, "/v1/withdraw", req)
}

// canonicalBody builds the deterministic JSON body the relayer expects to
// be signed: keys sorted lexically, no whitespace, so the same request
// always hashes and signs identically regardless of map iteration order.
func canonicalBody(req adapter.Request) ([]byte, error) {
	fields := map[string]any{
		"token":         req.Token,
		"amount":        req.Amount,
		"privacy_level": string(req.PrivacyLevel),
		"sender":        req.Sender,
		"recipient":     req.Recipient,
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(fields[k])
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

func (a *Adapter) postSigned(ctx context.Context, path string, req adapter.Request) (*adapter.Result, error) {
	if a.wallet == nil {
		return nil, privacyerr.WalletNotConnected()
	}

	body, err := canonicalBody(req)
	if err != nil {
		return nil, privacyerr.InvalidFormat(err.Error())
	}
	digest := sha256.Sum256(body)
	sig, err := a.wallet.SignMessage(ctx, digest[:])
	if err != nil {
		return nil, privacyerr.Wrap(privacyerr.KindTransaction, "failed to sign request", err)
	}

	envelope := struct {
		Body      json.RawMessage `json:"body"`
		Signature string          `json:"signature"`
		Signer    string          `json:"signer"`
	}{Body: body, Signature: fmt.Sprintf("%x", sig), Signer: a.wallet.Address()}

	var out struct {
		TransactionID string  `json:"transaction_id"`
		Fee           float64 `json:"fee"`
	}
	var lastErr error
	err = a.retry.Do(ctx, func(ctx context.Context) error {
		lastErr = a.post(ctx, path, envelope, &out)
		return lastErr
	})
	if err != nil {
		return nil, err
	}
	return &adapter.Result{TransactionID: out.TransactionID, Fee: out.Fee}, nil
}

func (a *Adapter) get(ctx context.Context, path string, out any) error {
	ctx, cancel := adapter.WithAPITimeout(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+path, nil)
	if err != nil {
		return privacyerr.Network(err)
	}
	return a.do(httpReq, out)
}

func (a *Adapter) post(ctx context.Context, path string, body any, out any) error {
	ctx, cancel := adapter.WithAPITimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return privacyerr.InvalidFormat(err.Error())
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return privacyerr.Network(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return a.do(httpReq, out)
}

func (a *Adapter) do(httpReq *http.Request, out any) error {
	resp, err := a.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return privacyerr.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return privacyerr.Network(err)
	}

	// 5xx responses are transport-layer retryable; 4xx responses are
	// business errors and terminal per the retry policy.
	if resp.StatusCode >= 500 {
		return privacyerr.Network(fmt.Errorf("relayer returned %d: %s", resp.StatusCode, raw))
	}
	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		if body.Error == "" {
			body.Error = fmt.Sprintf("relayer returned %d", resp.StatusCode)
		}
		return privacyerr.MapServerError(body.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return privacyerr.Wrap(privacyerr.KindInvalidFormat, "malformed relayer response", err)
	}
	return nil
}
