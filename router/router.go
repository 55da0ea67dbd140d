// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router scores the registered adapters against a declarative
// request and recommends one. It never performs an operation itself — it
// only filters, estimates, and ranks.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kamalbuilds/privacykit/adapter"
	"github.com/kamalbuilds/privacykit/privacyerr"
)

// Weights is the pinned, documented scoring coefficient set. Raising a
// weight makes that dimension matter more; all five terms are combined
// into a single score in scoreOf.
type Weights struct {
	Fee               float64
	Latency           float64
	AnonymitySet      float64
	ComplianceMatch   float64
	PreferredProvider float64
}

// DefaultWeights is this build's pinned scoring weight set. Fee and latency
// are normalized against the criteria's max_fee/max_latency (or a fixed
// reference when unset) before being weighted, so that the other additive
// terms stay on a comparable [0,1]-ish scale.
var DefaultWeights = Weights{
	Fee:               0.40,
	Latency:           0.25,
	AnonymitySet:      0.20,
	ComplianceMatch:   0.10,
	PreferredProvider: 0.05,
}

// referenceFee/referenceLatency normalize fee/latency to [0,1] when the
// caller does not supply max_fee/max_latency bounds.
const (
	referenceFee          = 1.0
	referenceLatencyMS    = 5000.0
	referenceAnonymitySet = 1000.0
)

// SelectionCriteria is the router's input: a declarative description of the
// operation the caller wants performed.
type SelectionCriteria struct {
	Token             string
	Amount            float64
	PrivacyLevel      adapter.PrivacyLevel
	MaxFee            *float64
	MaxLatencyMS      *int64
	RequireCompliance bool
	PreferredProvider string
}

// CandidateScore is one surviving candidate's score and the estimate it was
// computed from.
type CandidateScore struct {
	ProviderID string
	Score      float64
	Estimate   adapter.Estimate
}

// SelectionResult is what Select returns.
type SelectionResult struct {
	Recommended string
	Alternatives []CandidateScore
	Explanation []string
}

// Router holds the registered adapters and runs the selection procedure.
type Router struct {
	weights Weights

	mu       sync.RWMutex
	adapters map[string]adapter.Adapter
}

// New constructs a Router using DefaultWeights.
func New() *Router {
	return &Router{weights: DefaultWeights, adapters: make(map[string]adapter.Adapter)}
}

// NewWithWeights constructs a Router with an explicit weight set, for
// callers that need to override the pinned defaults (e.g. in tests).
func NewWithWeights(w Weights) *Router {
	return &Router{weights: w, adapters: make(map[string]adapter.Adapter)}
}

// Register adds or replaces the adapter under its capability's provider ID.
func (r *Router) Register(a adapter.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Capabilities().ProviderID] = a
}

// Select runs the five-step selection procedure from filtering through
// scoring and returns the recommendation, or NoSuitableProvider with a
// per-adapter diagnostic if nothing survives filtering.
func (r *Router) Select(ctx context.Context, req adapter.Request, criteria SelectionCriteria) (*SelectionResult, error) {
	r.mu.RLock()
	candidates := make(map[string]adapter.Adapter, len(r.adapters))
	for id, a := range r.adapters {
		candidates[id] = a
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, privacyerr.NoSuitableProvider(map[string]string{"*": "no adapters are registered"})
	}

	reasons := make(map[string]string)
	type survivor struct {
		id       string
		estimate adapter.Estimate
	}
	var survivors []survivor

	// Step 1: capability filtering.
	eligible := make(map[string]adapter.Adapter)
	for id, a := range candidates {
		caps := a.Capabilities()
		if !caps.SupportsPrivacyLevel(criteria.PrivacyLevel) {
			reasons[id] = fmt.Sprintf("does not support privacy level %q", criteria.PrivacyLevel)
			continue
		}
		if !caps.SupportedTokens.Supports(criteria.Token) {
			reasons[id] = fmt.Sprintf("does not support token %q", criteria.Token)
			continue
		}
		eligible[id] = a
	}

	// Step 2: estimate.
	for id, a := range eligible {
		est, err := a.Estimate(ctx, req)
		if err != nil {
			reasons[id] = fmt.Sprintf("estimate failed: %v", err)
			continue
		}

		// Step 3: hard constraints.
		if criteria.MaxFee != nil && est.Fee > *criteria.MaxFee {
			reasons[id] = fmt.Sprintf("fee %.6g exceeds max_fee %.6g", est.Fee, *criteria.MaxFee)
			continue
		}
		if criteria.MaxLatencyMS != nil && est.LatencyMS > *criteria.MaxLatencyMS {
			reasons[id] = fmt.Sprintf("latency %dms exceeds max_latency %dms", est.LatencyMS, *criteria.MaxLatencyMS)
			continue
		}
		if len(est.Warnings) > 0 {
			reasons[id] = fmt.Sprintf("blocking warning: %s", est.Warnings[0])
			continue
		}
		survivors = append(survivors, survivor{id: id, estimate: *est})
	}

	if len(survivors) == 0 {
		if len(reasons) == 0 {
			reasons["*"] = "no registered adapter is eligible for this request"
		}
		return nil, privacyerr.NoSuitableProvider(reasons)
	}

	// Step 4: score, ties broken by alphabetical provider_id.
	scored := make([]CandidateScore, len(survivors))
	for i, s := range survivors {
		scored[i] = CandidateScore{
			ProviderID: s.id,
			Score:      r.scoreOf(s.id, s.estimate, criteria),
			Estimate:   s.estimate,
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ProviderID < scored[j].ProviderID
	})

	best := scored[0]
	alternatives := scored[1:]

	explanation := []string{
		fmt.Sprintf("supports privacy level %q", criteria.PrivacyLevel),
		fmt.Sprintf("supports token %q", criteria.Token),
		fmt.Sprintf("fee=%.6g", best.Estimate.Fee),
		fmt.Sprintf("latency_ms=%d", best.Estimate.LatencyMS),
	}
	if best.Estimate.AnonymitySet != nil {
		explanation = append(explanation, fmt.Sprintf("anonymity_set=%d", *best.Estimate.AnonymitySet))
	}

	return &SelectionResult{
		Recommended:  best.ProviderID,
		Alternatives: alternatives,
		Explanation:  explanation,
	}, nil
}

// scoreOf computes the weighted sum used in step 4. Fee and latency are
// inverted (lower is better) and normalized against the criteria's bound or
// a fixed reference; anonymity set is normalized against a fixed
// reference and capped at 1.0.
func (r *Router) scoreOf(providerID string, est adapter.Estimate, criteria SelectionCriteria) float64 {
	feeRef := referenceFee
	if criteria.MaxFee != nil && *criteria.MaxFee > 0 {
		feeRef = *criteria.MaxFee
	}
	latRef := referenceLatencyMS
	if criteria.MaxLatencyMS != nil && *criteria.MaxLatencyMS > 0 {
		latRef = float64(*criteria.MaxLatencyMS)
	}

	feeScore := clamp01(1 - est.Fee/feeRef)
	latencyScore := clamp01(1 - float64(est.LatencyMS)/latRef)

	anonymityScore := 0.0
	if est.AnonymitySet != nil {
		anonymityScore = clamp01(float64(*est.AnonymitySet) / referenceAnonymitySet)
	}

	complianceScore := 0.0
	if !criteria.RequireCompliance {
		complianceScore = 1.0
	}

	preferredScore := 0.0
	if criteria.PreferredProvider != "" && criteria.PreferredProvider == providerID {
		preferredScore = 1.0
	}

	score := r.weights.Fee*feeScore +
		r.weights.Latency*latencyScore +
		r.weights.AnonymitySet*anonymityScore +
		r.weights.ComplianceMatch*complianceScore +
		r.weights.PreferredProvider*preferredScore

	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
