package strategy

import (
	"fmt"

	"funding-arb-bot/internal/config"
	"funding-arb-bot/internal/venue"
)

// CheckRisk vetoes an approved entry that would breach configured or
// venue-imposed position limits. It runs after Evaluate so rejections here
// indicate misconfiguration rather than a quiet market.
func CheckRisk(cfg config.RiskConfig, decision Decision, a, b venue.MarketSnapshot) error {
	notionalA := decision.Quantity * a.ReferencePrice()
	notionalB := decision.Quantity * b.ReferencePrice()
	if cfg.MaxNotionalUSD > 0 {
		if notionalA > cfg.MaxNotionalUSD || notionalB > cfg.MaxNotionalUSD {
			return fmt.Errorf("entry notional %.2f/%.2f exceeds configured maximum %.2f", notionalA, notionalB, cfg.MaxNotionalUSD)
		}
	}
	if a.MaxPositionValue > 0 && notionalA > a.MaxPositionValue {
		return fmt.Errorf("entry notional %.2f exceeds %s position limit %.2f", notionalA, a.Venue, a.MaxPositionValue)
	}
	if b.MaxPositionValue > 0 && notionalB > b.MaxPositionValue {
		return fmt.Errorf("entry notional %.2f exceeds %s position limit %.2f", notionalB, b.Venue, b.MaxPositionValue)
	}
	return nil
}
