package pricing

import (
	"math"
	"sort"

	"github.com/BaSui01/genflow/catalog"
)

// Params carries the user-chosen generation parameters a pricing rule may
// read. Zero values mean "not set".
type Params struct {
	DurationSeconds float64
	Width           int
	Height          int
	FPS             int
	Resolution      string // e.g. "720p"; selects a per-second rate

	// Upscaling
	UpscaleFactor float64
	FrameCount    int
}

// Estimate computes the dollar estimate for one model under params.
// Unknown rules and incomplete params estimate to zero.
func Estimate(spec *catalog.ModelSpec, p Params) float64 {
	if spec == nil {
		return 0
	}
	switch spec.Pricing.Rule {
	case catalog.PricePerSecond:
		return perSecond(spec.Pricing, p)
	case catalog.PriceTokenBased:
		return tokenBased(spec.Pricing, p)
	case catalog.PriceTiered:
		return tiered(spec.Pricing, p)
	case catalog.PriceMegapixel:
		return megapixel(spec.Pricing, p)
	case catalog.PriceFactorTable:
		return factorTable(spec.Pricing, p)
	}
	return 0
}

// perSecond: ratePerSecond(resolution) × duration.
func perSecond(ps catalog.PricingSpec, p Params) float64 {
	if p.DurationSeconds <= 0 {
		return 0
	}
	rate, ok := ps.RatePerSecond[p.Resolution]
	if !ok {
		rate = ps.RatePerSecond[""]
	}
	return sanitize(rate * p.DurationSeconds)
}

// tokenBased: tokens = (height × width × fps × duration) / 1024,
// cost = tokens × pricePerMillionTokens / 1e6.
func tokenBased(ps catalog.PricingSpec, p Params) float64 {
	if p.Width <= 0 || p.Height <= 0 || p.FPS <= 0 || p.DurationSeconds <= 0 {
		return 0
	}
	tokens := float64(p.Height) * float64(p.Width) * float64(p.FPS) * p.DurationSeconds / 1024
	return sanitize(tokens * ps.PricePerMillionTokens / 1_000_000)
}

// tiered: discrete buckets by duration breakpoint, with linear per-second
// extrapolation past the last breakpoint.
func tiered(ps catalog.PricingSpec, p Params) float64 {
	if p.DurationSeconds <= 0 || len(ps.Tiers) == 0 {
		return 0
	}
	for _, tier := range ps.Tiers {
		if p.DurationSeconds <= tier.MaxDuration {
			return sanitize(tier.Price)
		}
	}
	last := ps.Tiers[len(ps.Tiers)-1]
	if last.MaxDuration <= 0 {
		return sanitize(last.Price)
	}
	perSec := last.Price / last.MaxDuration
	return sanitize(last.Price + (p.DurationSeconds-last.MaxDuration)*perSec)
}

// megapixel: (outW × outH × frames / 1e6) × pricePerMegapixel, where the
// output dimensions are the input dimensions scaled by the upscale factor.
func megapixel(ps catalog.PricingSpec, p Params) float64 {
	if p.Width <= 0 || p.Height <= 0 || p.FrameCount <= 0 || p.UpscaleFactor <= 0 {
		return 0
	}
	outW := float64(p.Width) * p.UpscaleFactor
	outH := float64(p.Height) * p.UpscaleFactor
	mp := outW * outH * float64(p.FrameCount) / 1_000_000
	return sanitize(mp * ps.PricePerMegapixel)
}

// factorTable: snap the continuous factor to the nearest supported one,
// then look up its price. Ties resolve to the lower factor.
func factorTable(ps catalog.PricingSpec, p Params) float64 {
	if p.UpscaleFactor <= 0 || len(ps.FactorPrices) == 0 {
		return 0
	}
	return sanitize(ps.FactorPrices[NearestFactor(ps.FactorPrices, p.UpscaleFactor)])
}

// NearestFactor returns the supported factor closest to want. A tie
// between two supported factors resolves to the lower one.
func NearestFactor(table map[int]float64, want float64) int {
	factors := make([]int, 0, len(table))
	for f := range table {
		factors = append(factors, f)
	}
	sort.Ints(factors)

	best := 0
	bestDist := math.Inf(1)
	for _, f := range factors {
		d := math.Abs(float64(f) - want)
		if d < bestDist {
			best = f
			bestDist = d
		}
	}
	return best
}

// sanitize guards the estimator contract: never NaN, never negative.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
