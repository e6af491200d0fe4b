package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"funding-arb-bot/internal/extended/rest"
	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// Client assembles, signs, and submits orders. Fee rate and signing domain
// are fetched per order so rate changes and domain rotations are picked up
// without a restart.
type Client struct {
	rest    *rest.Client
	builder *OrderBuilder
	log     *zap.Logger
}

func NewClient(restClient *rest.Client, builder *OrderBuilder, log *zap.Logger) *Client {
	return &Client{rest: restClient, builder: builder, log: log}
}

func (c *Client) PlaceMarketOrder(ctx context.Context, intent venue.OrderIntent) error {
	feeRate, err := c.rest.TakerFeeRate(ctx, intent.Symbol)
	if err != nil {
		return err
	}
	domain, err := c.rest.StarknetDomain(ctx)
	if err != nil {
		return err
	}
	order, err := c.builder.Build(ctx, intent, feeRate, domain)
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if err := c.rest.Post(ctx, "/api/v1/user/order", order, &raw); err != nil {
		return fmt.Errorf("%w: extended %s %s: %v", venue.ErrOrderRejected, intent.Side, intent.Symbol, err)
	}
	// The venue answers 200 with an ERROR status body on rejection.
	if bytes.Contains(raw, []byte("ERROR")) {
		return fmt.Errorf("%w: extended %s %s: %s", venue.ErrOrderRejected, intent.Side, intent.Symbol, raw)
	}
	c.log.Info("extended order placed",
		zap.String("market", intent.Symbol),
		zap.String("side", string(intent.Side)),
		zap.String("qty", order.Qty),
		zap.String("price", order.Price),
		zap.String("nonce", order.Nonce),
		zap.Bool("brackets", intent.WithBrackets),
	)
	return nil
}
