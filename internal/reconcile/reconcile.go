package reconcile

import (
	"context"
	"fmt"

	"funding-arb-bot/internal/metrics"
	"funding-arb-bot/internal/strategy"
	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// Reconciler closes positions sitting on the wrong side of the current
// funding relationship before a new entry is attempted. Positions already on
// the target side are left alone; they keep earning the carry.
type Reconciler struct {
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(m *metrics.Metrics, log *zap.Logger) *Reconciler {
	return &Reconciler{metrics: m, log: log}
}

// Result reports what one pair's reconciliation did. The two closes are
// independent: a failure on one venue never blocks the other, so both a
// close and an error can appear for the same pass.
type Result struct {
	ClosedA bool
	ClosedB bool
	Errors  []error
}

// Held wraps a possibly-absent position.
type Held struct {
	Position venue.Position
	Ok       bool
}

// ReconcilePair compares each held leg against the side the funding
// relationship currently wants and closes mismatches with plain market
// orders. Each close is best effort.
func (r *Reconciler) ReconcilePair(ctx context.Context, venueA, venueB venue.Venue, a, b venue.MarketSnapshot, heldA, heldB Held) Result {
	shortA := strategy.TargetShortOnA(a.FundingRate, b.FundingRate)

	var result Result
	if heldA.Ok {
		if closed, err := r.closeIfWrongSide(ctx, venueA, a, heldA.Position, wrongSide(shortA)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("close %s %s: %w", venueA.Name(), heldA.Position.Symbol, err))
		} else if closed {
			result.ClosedA = true
		}
	}
	if heldB.Ok {
		if closed, err := r.closeIfWrongSide(ctx, venueB, b, heldB.Position, wrongSide(!shortA)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("close %s %s: %w", venueB.Name(), heldB.Position.Symbol, err))
		} else if closed {
			result.ClosedB = true
		}
	}
	return result
}

// wrongSide maps the target direction to the held side that must go: a venue
// that should be short must not hold a long, and vice versa.
func wrongSide(targetShort bool) venue.PositionSide {
	if targetShort {
		return venue.Long
	}
	return venue.Short
}

func (r *Reconciler) closeIfWrongSide(ctx context.Context, v venue.Venue, m venue.MarketSnapshot, position venue.Position, wrong venue.PositionSide) (bool, error) {
	if position.Side != wrong {
		return false, nil
	}
	side := venue.Sell
	if position.Side == venue.Short {
		side = venue.Buy
	}
	err := v.PlaceOrder(ctx, venue.OrderIntent{
		Symbol:   position.Symbol,
		Side:     side,
		Quantity: position.Size,
		Market:   m,
	})
	if err != nil {
		r.metrics.CloseFailed.Inc()
		return false, err
	}
	r.metrics.PositionsClosed.Inc()
	r.log.Info("closed wrong-side position",
		zap.String("venue", v.Name()),
		zap.String("symbol", position.Symbol),
		zap.String("held", string(position.Side)),
		zap.Float64("size", position.Size),
	)
	return true, nil
}
