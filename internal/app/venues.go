package app

import (
	"context"

	extexchange "funding-arb-bot/internal/extended/exchange"
	extrest "funding-arb-bot/internal/extended/rest"
	pacexchange "funding-arb-bot/internal/pacifica/exchange"
	pacrest "funding-arb-bot/internal/pacifica/rest"
	"funding-arb-bot/internal/venue"
)

// extendedVenue binds the Extended read API and its signed order flow into
// the capability set the core trades against.
type extendedVenue struct {
	rest     *extrest.Client
	exchange *extexchange.Client
}

var _ venue.Venue = (*extendedVenue)(nil)

func (v *extendedVenue) Name() string { return extrest.VenueName }

func (v *extendedVenue) FetchMarket(ctx context.Context, symbol string) (venue.MarketSnapshot, error) {
	return v.rest.FetchMarket(ctx, symbol)
}

func (v *extendedVenue) FetchBalance(ctx context.Context) (float64, error) {
	return v.rest.FetchBalance(ctx)
}

func (v *extendedVenue) FetchPositions(ctx context.Context) ([]venue.Position, error) {
	return v.rest.FetchPositions(ctx)
}

func (v *extendedVenue) PlaceOrder(ctx context.Context, intent venue.OrderIntent) error {
	return v.exchange.PlaceMarketOrder(ctx, intent)
}

type pacificaVenue struct {
	rest     *pacrest.Client
	exchange *pacexchange.Client
}

var _ venue.Venue = (*pacificaVenue)(nil)

func (v *pacificaVenue) Name() string { return pacrest.VenueName }

func (v *pacificaVenue) FetchMarket(ctx context.Context, symbol string) (venue.MarketSnapshot, error) {
	return v.rest.FetchMarket(ctx, symbol)
}

func (v *pacificaVenue) FetchBalance(ctx context.Context) (float64, error) {
	return v.rest.FetchBalance(ctx)
}

func (v *pacificaVenue) FetchPositions(ctx context.Context) ([]venue.Position, error) {
	return v.rest.FetchPositions(ctx)
}

func (v *pacificaVenue) PlaceOrder(ctx context.Context, intent venue.OrderIntent) error {
	return v.exchange.PlaceMarketOrder(ctx, intent)
}
