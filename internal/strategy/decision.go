package strategy

import (
	"errors"
	"fmt"
	"math"

	"funding-arb-bot/internal/venue"
)

// ErrThresholdNotMet is the normal no-trade outcome: the funding gap is too
// small or the venues' prices have drifted apart.
var ErrThresholdNotMet = errors.New("entry thresholds not met")

// Params are the entry gates. Thresholds are in percent units: a raw funding
// rate of 0.0001 is 0.01 here.
type Params struct {
	NotionalUSD          float64
	FundingDiffThreshold float64
	PriceSpreadThreshold float64
	PriceHaircut         float64
}

// Decision is an approved pair entry: short the venue paying the higher
// funding, long the other, same quantity on both.
type Decision struct {
	ShortA      bool
	Quantity    float64
	FundingDiff float64
	PriceSpread float64
}

// Evaluate gates one pair. Funding rates are scaled to percent before
// comparison; the price spread is the relative gap measured against the
// higher price. The quantity is sized so the notional is covered even if
// prices slip by the haircut before the fill.
func Evaluate(a, b venue.MarketSnapshot, balanceA, balanceB float64, p Params) (Decision, error) {
	priceA := a.ReferencePrice()
	priceB := b.ReferencePrice()
	if priceA <= 0 || priceB <= 0 {
		return Decision{}, fmt.Errorf("%w: degenerate prices %v/%v", venue.ErrDataUnavailable, priceA, priceB)
	}

	fundingA := a.FundingRate * 100
	fundingB := b.FundingRate * 100
	fundingDiff := math.Abs(fundingA - fundingB)

	spread := SpreadPct(priceA, priceB)

	if spread > p.PriceSpreadThreshold || fundingDiff < p.FundingDiffThreshold {
		return Decision{}, fmt.Errorf("%w: funding diff %.6f%%, price spread %.6f%%", ErrThresholdNotMet, fundingDiff, spread)
	}
	if balanceA < p.NotionalUSD || balanceB < p.NotionalUSD {
		return Decision{}, fmt.Errorf("%w: balances %.2f/%.2f below notional %.2f", venue.ErrInsufficientBalance, balanceA, balanceB, p.NotionalUSD)
	}

	minPrice := math.Min(priceA, priceB)
	quantity := p.NotionalUSD / (minPrice * p.PriceHaircut)

	return Decision{
		ShortA:      fundingA > fundingB,
		Quantity:    quantity,
		FundingDiff: fundingDiff,
		PriceSpread: spread,
	}, nil
}

// SpreadPct is the relative price gap in percent, measured against the higher
// of the two prices.
func SpreadPct(priceA, priceB float64) float64 {
	higher := math.Max(priceA, priceB)
	if higher <= 0 {
		return 0
	}
	return math.Abs(priceA-priceB) / higher * 100
}

// TargetShortOnA reports whether a carry pair should be short on venue A
// given the two raw funding rates: short where funding is higher.
func TargetShortOnA(fundingA, fundingB float64) bool {
	return fundingA > fundingB
}
