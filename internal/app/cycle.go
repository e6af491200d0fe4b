package app

import (
	"context"
	"errors"
	"math"
	"time"

	"funding-arb-bot/internal/config"
	"funding-arb-bot/internal/exec"
	"funding-arb-bot/internal/reconcile"
	"funding-arb-bot/internal/strategy"
	"funding-arb-bot/internal/timescale"
	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// priceStaleAfter bounds how old a streamed quote may be before the cycle
// flags it. Advisory only: entries trade off fresh REST snapshots.
const priceStaleAfter = 30 * time.Second

// RunCycle processes every configured pair once: reconcile what is held,
// then attempt an entry where nothing is.
func (a *App) RunCycle(ctx context.Context) {
	extPositions, errExt := a.extended.FetchPositions(ctx)
	if errExt != nil {
		a.log.Warn("extended positions unavailable", zap.Error(errExt))
	}
	pacPositions, errPac := a.pacifica.FetchPositions(ctx)
	if errPac != nil {
		a.log.Warn("pacifica positions unavailable", zap.Error(errPac))
	}
	positionsKnown := errExt == nil && errPac == nil

	for _, pair := range a.cfg.Pairs {
		if a.halted[pair.String()] {
			a.log.Warn("pair halted, skipping", zap.String("pair", pair.String()))
			continue
		}
		a.runPair(ctx, pair, extPositions, pacPositions, positionsKnown)
	}
}

func (a *App) runPair(ctx context.Context, pair config.PairConfig, extPositions, pacPositions []venue.Position, positionsKnown bool) {
	extSnap, err := a.extended.FetchMarket(ctx, pair.Extended)
	if err != nil {
		a.log.Warn("extended market unavailable", zap.String("pair", pair.String()), zap.Error(err))
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}
	pacSnap, err := a.pacifica.FetchMarket(ctx, pair.Pacifica)
	if err != nil {
		a.log.Warn("pacifica market unavailable", zap.String("pair", pair.String()), zap.Error(err))
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}

	a.observe(pair.String(), extSnap, pacSnap)
	if a.prices != nil && !a.prices.Fresh(pair.Pacifica, priceStaleAfter) {
		a.log.Debug("pacifica price stream stale", zap.String("symbol", pair.Pacifica))
	}

	if !positionsKnown {
		// Entering blind risks doubling up on a leg the fetch missed.
		a.log.Warn("positions unknown, skipping entry", zap.String("pair", pair.String()))
		a.recordAttempt(pair.String(), "entry", false, "positions unavailable")
		return
	}

	heldExt := found(venue.FindPosition(extPositions, pair.Extended))
	heldPac := found(venue.FindPosition(pacPositions, pair.Pacifica))
	result := a.reconciler.ReconcilePair(ctx, a.extended, a.pacifica, extSnap, pacSnap, heldExt, heldPac)
	for _, recErr := range result.Errors {
		a.log.Warn("reconcile close failed", zap.String("pair", pair.String()), zap.Error(recErr))
		a.recordAttempt(pair.String(), "reconcile", false, recErr.Error())
	}
	if result.ClosedA || result.ClosedB {
		a.recordAttempt(pair.String(), "reconcile", true, "")
	}

	if (heldExt.Ok && !result.ClosedA) || (heldPac.Ok && !result.ClosedB) {
		// A correctly-sided leg is still earning the carry.
		a.log.Info("pair already positioned", zap.String("pair", pair.String()))
		a.recordAttempt(pair.String(), "hold", true, "")
		return
	}

	a.attemptEntry(ctx, pair, extSnap, pacSnap)
}

func (a *App) attemptEntry(ctx context.Context, pair config.PairConfig, extSnap, pacSnap venue.MarketSnapshot) {
	balExt, err := a.extended.FetchBalance(ctx)
	if err != nil {
		a.log.Warn("extended balance unavailable", zap.String("pair", pair.String()), zap.Error(err))
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}
	balPac, err := a.pacifica.FetchBalance(ctx)
	if err != nil {
		a.log.Warn("pacifica balance unavailable", zap.String("pair", pair.String()), zap.Error(err))
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}

	decision, err := strategy.Evaluate(extSnap, pacSnap, balExt, balPac, strategy.Params{
		NotionalUSD:          a.cfg.Strategy.NotionalUSD,
		FundingDiffThreshold: a.cfg.Strategy.FundingDiffThreshold,
		PriceSpreadThreshold: a.cfg.Strategy.PriceSpreadThreshold,
		PriceHaircut:         a.cfg.Strategy.PriceHaircut,
	})
	if err != nil {
		if errors.Is(err, strategy.ErrThresholdNotMet) {
			a.metrics.OpportunitiesRejected.Inc()
			a.log.Info("no entry", zap.String("pair", pair.String()), zap.Error(err))
		} else {
			a.log.Warn("entry evaluation failed", zap.String("pair", pair.String()), zap.Error(err))
		}
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}
	if err := strategy.CheckRisk(a.cfg.Risk, decision, extSnap, pacSnap); err != nil {
		a.metrics.OpportunitiesRejected.Inc()
		a.log.Warn("entry vetoed by risk limits", zap.String("pair", pair.String()), zap.Error(err))
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}

	sideExt := venue.Buy
	if decision.ShortA {
		sideExt = venue.Sell
	}
	leg1 := exec.Leg{Venue: a.extended, Intent: venue.OrderIntent{
		Symbol:       pair.Extended,
		Side:         sideExt,
		Quantity:     decision.Quantity,
		WithBrackets: true,
		Market:       extSnap,
	}}
	leg2 := exec.Leg{Venue: a.pacifica, Intent: venue.OrderIntent{
		Symbol:       pair.Pacifica,
		Side:         sideExt.Opposite(),
		Quantity:     decision.Quantity,
		WithBrackets: true,
		Market:       pacSnap,
	}}

	err = a.saga.Execute(ctx, leg1, leg2)
	if errors.Is(err, venue.ErrUnrecoverable) {
		a.halted[pair.String()] = true
		a.log.Error("pair halted after failed unwind", zap.String("pair", pair.String()), zap.Error(err))
		if a.telegram != nil {
			a.telegram.NotifyUnrecoverable(ctx, pair.String(), err)
		}
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}
	if err != nil {
		a.log.Warn("entry failed", zap.String("pair", pair.String()), zap.Error(err))
		a.recordAttempt(pair.String(), "entry", false, err.Error())
		return
	}

	a.log.Info("pair entered",
		zap.String("pair", pair.String()),
		zap.Bool("short_extended", decision.ShortA),
		zap.Float64("quantity", decision.Quantity),
		zap.Float64("funding_diff_pct", decision.FundingDiff),
		zap.Float64("price_spread_pct", decision.PriceSpread),
	)
	a.recordAttempt(pair.String(), "entry", true, "")
}

func (a *App) observe(pair string, extSnap, pacSnap venue.MarketSnapshot) {
	a.writer.EnqueueObservation(timescale.FundingObservation{
		Time:            a.now(),
		Pair:            pair,
		FundingExtended: extSnap.FundingRate,
		FundingPacifica: pacSnap.FundingRate,
		FundingDiffPct:  math.Abs(extSnap.FundingRate-pacSnap.FundingRate) * 100,
		PriceSpreadPct:  strategy.SpreadPct(extSnap.ReferencePrice(), pacSnap.ReferencePrice()),
	})
}

func (a *App) recordAttempt(pair, action string, success bool, reason string) {
	a.writer.EnqueueAttempt(timescale.AttemptOutcome{
		Time:    a.now(),
		Pair:    pair,
		Action:  action,
		Success: success,
		Reason:  reason,
	})
}

func found(p venue.Position, ok bool) reconcile.Held {
	return reconcile.Held{Position: p, Ok: ok}
}
