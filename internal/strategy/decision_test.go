package strategy

import (
	"errors"
	"math"
	"testing"

	"funding-arb-bot/internal/config"
	"funding-arb-bot/internal/venue"
)

func defaultParams() Params {
	return Params{
		NotionalUSD:          25,
		FundingDiffThreshold: 0.001,
		PriceSpreadThreshold: 0.02,
		PriceHaircut:         0.99,
	}
}

func snapshots(fundingA, fundingB, priceA, priceB float64) (venue.MarketSnapshot, venue.MarketSnapshot) {
	a := venue.MarketSnapshot{Venue: "extended", Symbol: "SOL-USD", BidPrice: priceA, FundingRate: fundingA}
	b := venue.MarketSnapshot{Venue: "pacifica", Symbol: "SOL", MidPrice: priceB, FundingRate: fundingB}
	return a, b
}

func TestEvaluateShortsHigherFundingVenue(t *testing.T) {
	a, b := snapshots(0.0005, -0.0001, 150, 150)
	decision, err := Evaluate(a, b, 100, 100, defaultParams())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !decision.ShortA {
		t.Error("venue A pays more funding, so A should be shorted")
	}
	// Raw diff 0.0006 is 0.06 in percent units.
	if math.Abs(decision.FundingDiff-0.06) > 1e-9 {
		t.Errorf("funding diff = %v", decision.FundingDiff)
	}

	a, b = snapshots(-0.0001, 0.0005, 150, 150)
	decision, err = Evaluate(a, b, 100, 100, defaultParams())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.ShortA {
		t.Error("venue B pays more funding, so A should be long")
	}
}

func TestEvaluateRejectsNarrowFundingDiff(t *testing.T) {
	// Raw diff 0.000005 is 0.0005% — below the 0.001% gate.
	a, b := snapshots(0.000010, 0.000005, 150, 150)
	_, err := Evaluate(a, b, 100, 100, defaultParams())
	if !errors.Is(err, ErrThresholdNotMet) {
		t.Fatalf("want ErrThresholdNotMet, got %v", err)
	}
}

func TestEvaluateRejectsWidePriceSpread(t *testing.T) {
	// 150 vs 150.1 is a 0.0666% spread — above the 0.02% gate.
	a, b := snapshots(0.0005, -0.0005, 150, 150.1)
	_, err := Evaluate(a, b, 100, 100, defaultParams())
	if !errors.Is(err, ErrThresholdNotMet) {
		t.Fatalf("want ErrThresholdNotMet, got %v", err)
	}
}

func TestEvaluateSpreadUsesHigherPriceAsBase(t *testing.T) {
	a, b := snapshots(0.0005, -0.0005, 100, 99.99)
	decision, err := Evaluate(a, b, 100, 100, defaultParams())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// (100 - 99.99) / 100 * 100 = 0.01%.
	if math.Abs(decision.PriceSpread-0.01) > 1e-9 {
		t.Errorf("spread = %v", decision.PriceSpread)
	}
}

func TestEvaluateSizesAgainstHaircutMinPrice(t *testing.T) {
	a, b := snapshots(0.0005, -0.0005, 100, 100)
	decision, err := Evaluate(a, b, 100, 100, defaultParams())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	want := 25.0 / (100 * 0.99)
	if math.Abs(decision.Quantity-want) > 1e-12 {
		t.Errorf("quantity = %v, want %v", decision.Quantity, want)
	}
}

func TestEvaluateRejectsLowBalance(t *testing.T) {
	a, b := snapshots(0.0005, -0.0005, 150, 150)
	if _, err := Evaluate(a, b, 10, 100, defaultParams()); !errors.Is(err, venue.ErrInsufficientBalance) {
		t.Errorf("low balance on A: got %v", err)
	}
	if _, err := Evaluate(a, b, 100, 10, defaultParams()); !errors.Is(err, venue.ErrInsufficientBalance) {
		t.Errorf("low balance on B: got %v", err)
	}
}

func TestEvaluateRejectsDegeneratePrices(t *testing.T) {
	a, b := snapshots(0.0005, -0.0005, 0, 150)
	if _, err := Evaluate(a, b, 100, 100, defaultParams()); !errors.Is(err, venue.ErrDataUnavailable) {
		t.Errorf("zero price: got %v", err)
	}
}

func TestTargetShortOnA(t *testing.T) {
	if !TargetShortOnA(0.0002, 0.0001) {
		t.Error("higher funding on A means short A")
	}
	if TargetShortOnA(0.0001, 0.0002) {
		t.Error("higher funding on B means long A")
	}
}

func TestCheckRisk(t *testing.T) {
	a, b := snapshots(0.0005, -0.0005, 100, 100)
	if err := CheckRisk(config.RiskConfig{MaxNotionalUSD: 50}, Decision{Quantity: 0.4}, a, b); err != nil {
		t.Errorf("within limits: %v", err)
	}
	if err := CheckRisk(config.RiskConfig{MaxNotionalUSD: 50}, Decision{Quantity: 0.5}, a, b); err != nil {
		t.Errorf("at limit boundary: %v", err)
	}
	if err := CheckRisk(config.RiskConfig{MaxNotionalUSD: 50}, Decision{Quantity: 0.6}, a, b); err == nil {
		t.Error("60 notional against a 50 cap should fail")
	}

	capped := a
	capped.MaxPositionValue = 80
	if err := CheckRisk(config.RiskConfig{}, Decision{Quantity: 1}, capped, b); err == nil {
		t.Error("venue position limit should apply")
	}
}
