package exec

import (
	"context"
	"fmt"

	"funding-arb-bot/internal/metrics"
	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// Leg is one side of a pair entry: an order intent bound to the venue that
// executes it.
type Leg struct {
	Venue  venue.Venue
	Intent venue.OrderIntent
}

// Saga opens the two legs of a pair entry in order. The first leg is the
// protected one (it carries brackets); the second leg either completes the
// pair or triggers an unwind of the first.
type Saga struct {
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(m *metrics.Metrics, log *zap.Logger) *Saga {
	return &Saga{metrics: m, log: log}
}

// Execute places leg1 then leg2. If leg1 fails nothing has been committed and
// the saga aborts. If leg2 fails, leg1 is unwound with an opposite-side
// market order without brackets; if that unwind also fails the account holds
// naked exposure and the returned error wraps venue.ErrUnrecoverable so the
// caller can halt the pair and page.
func (s *Saga) Execute(ctx context.Context, leg1, leg2 Leg) error {
	if err := leg1.Venue.PlaceOrder(ctx, leg1.Intent); err != nil {
		s.metrics.OrdersFailed.Inc()
		return fmt.Errorf("first leg %s %s: %w", leg1.Venue.Name(), leg1.Intent.Symbol, err)
	}
	s.metrics.OrdersPlaced.Inc()

	err := leg2.Venue.PlaceOrder(ctx, leg2.Intent)
	if err == nil {
		s.metrics.OrdersPlaced.Inc()
		return nil
	}
	s.metrics.OrdersFailed.Inc()
	s.log.Warn("second leg failed, unwinding first",
		zap.String("first_venue", leg1.Venue.Name()),
		zap.String("second_venue", leg2.Venue.Name()),
		zap.String("symbol", leg2.Intent.Symbol),
		zap.Error(err),
	)

	unwind := leg1.Intent
	unwind.Side = unwind.Side.Opposite()
	unwind.WithBrackets = false
	if unwindErr := leg1.Venue.PlaceOrder(ctx, unwind); unwindErr != nil {
		s.metrics.CompensationsFailed.Inc()
		return fmt.Errorf("%w: unwind on %s failed after second leg %s failed: %v (second leg: %v)",
			venue.ErrUnrecoverable, leg1.Venue.Name(), leg2.Venue.Name(), unwindErr, err)
	}
	s.metrics.Compensations.Inc()
	return fmt.Errorf("second leg %s %s failed, first leg unwound: %w", leg2.Venue.Name(), leg2.Intent.Symbol, err)
}
