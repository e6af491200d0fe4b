package exchange

import (
	"context"
	"fmt"

	"funding-arb-bot/internal/pacifica/rest"
	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

type createOrderResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Client signs and submits orders through the REST transport.
type Client struct {
	rest    *rest.Client
	builder *OrderBuilder
	log     *zap.Logger
}

func NewClient(restClient *rest.Client, builder *OrderBuilder, log *zap.Logger) *Client {
	return &Client{rest: restClient, builder: builder, log: log}
}

func (c *Client) PlaceMarketOrder(ctx context.Context, intent venue.OrderIntent) error {
	order, err := c.builder.Build(intent)
	if err != nil {
		return err
	}
	var resp createOrderResponse
	if err := c.rest.Post(ctx, "/api/v1/orders/create_market", order, &resp); err != nil {
		return fmt.Errorf("%w: pacifica %s %s: %v", venue.ErrOrderRejected, intent.Side, intent.Symbol, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: pacifica %s %s: %s", venue.ErrOrderRejected, intent.Side, intent.Symbol, resp.Error)
	}
	c.log.Info("pacifica order placed",
		zap.String("symbol", intent.Symbol),
		zap.String("side", order.Side),
		zap.String("amount", order.Amount),
		zap.String("client_order_id", order.ClientOrderID),
		zap.Bool("brackets", intent.WithBrackets),
	)
	return nil
}
