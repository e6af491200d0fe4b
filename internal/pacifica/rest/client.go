package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

const VenueName = "pacifica"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client reads market and account state from the Pacifica REST API. Reads are
// unauthenticated; the account is addressed by its wallet public key.
type Client struct {
	baseURL string
	http    *http.Client
	account string
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, account string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
		account: account,
		log:     log,
	}
}

func (c *Client) Account() string { return c.account }

type pricesResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Symbol      string `json:"symbol"`
		Mid         string `json:"mid"`
		Mark        string `json:"mark"`
		NextFunding string `json:"next_funding"`
	} `json:"data"`
}

type infoResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Symbol       string      `json:"symbol"`
		TickSize     json.Number `json:"tick_size"`
		MinTick      json.Number `json:"min_tick"`
		MaxTick      json.Number `json:"max_tick"`
		LotSize      json.Number `json:"lot_size"`
		MinOrderSize json.Number `json:"min_order_size"`
		MaxOrderSize json.Number `json:"max_order_size"`
	} `json:"data"`
}

// FetchMarket merges the price feed with the static trading config; both
// endpoints return the whole market list, so the symbol is filtered here.
func (c *Client) FetchMarket(ctx context.Context, symbol string) (venue.MarketSnapshot, error) {
	var prices pricesResponse
	if err := c.get(ctx, "/api/v1/info/prices", &prices); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica prices: %v", venue.ErrDataUnavailable, err)
	}
	if !prices.Success || len(prices.Data) == 0 {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica prices: empty response", venue.ErrDataUnavailable)
	}
	var info infoResponse
	if err := c.get(ctx, "/api/v1/info", &info); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica info: %v", venue.ErrDataUnavailable, err)
	}
	if !info.Success || len(info.Data) == 0 {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica info: empty response", venue.ErrDataUnavailable)
	}

	snap := venue.MarketSnapshot{Venue: VenueName, Symbol: symbol}
	found := false
	for _, data := range prices.Data {
		if data.Symbol != symbol {
			continue
		}
		mid, err := venue.Decimal("mid", data.Mid)
		if err != nil {
			return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		mark, err := venue.OptionalDecimal("mark", data.Mark)
		if err != nil {
			return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		funding, err := venue.Decimal("next_funding", data.NextFunding)
		if err != nil {
			return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		snap.MidPrice = mid
		snap.MarkPrice = mark
		snap.FundingRate = funding
		found = true
		break
	}
	if !found {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica market %s not listed", venue.ErrDataUnavailable, symbol)
	}

	found = false
	for _, data := range info.Data {
		if data.Symbol != symbol {
			continue
		}
		tick, err := data.TickSize.Float64()
		if err != nil {
			return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica tick_size: %v", venue.ErrDataUnavailable, err)
		}
		lot, err := data.LotSize.Float64()
		if err != nil {
			return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica lot_size: %v", venue.ErrDataUnavailable, err)
		}
		snap.PriceIncrement = tick
		snap.SizeIncrement = lot
		found = true
		break
	}
	if !found {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: pacifica trading config for %s not listed", venue.ErrDataUnavailable, symbol)
	}
	return snap, nil
}

type accountResponse struct {
	Success bool `json:"success"`
	Data    struct {
		AvailableToSpend string `json:"available_to_spend"`
	} `json:"data"`
}

func (c *Client) FetchBalance(ctx context.Context) (float64, error) {
	var resp accountResponse
	query := url.Values{"account": []string{c.account}}
	if err := c.get(ctx, "/api/v1/account?"+query.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("%w: pacifica account: %v", venue.ErrDataUnavailable, err)
	}
	if !resp.Success {
		return 0, fmt.Errorf("%w: pacifica account: unsuccessful response", venue.ErrDataUnavailable)
	}
	available, err := venue.Decimal("available_to_spend", resp.Data.AvailableToSpend)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	return available, nil
}

type positionsResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Symbol     string `json:"symbol"`
		Side       string `json:"side"`
		Amount     string `json:"amount"`
		EntryPrice string `json:"entry_price"`
	} `json:"data"`
}

func (c *Client) FetchPositions(ctx context.Context) ([]venue.Position, error) {
	var resp positionsResponse
	query := url.Values{"account": []string{c.account}}
	if err := c.get(ctx, "/api/v1/positions?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("%w: pacifica positions: %v", venue.ErrDataUnavailable, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: pacifica positions: unsuccessful response", venue.ErrDataUnavailable)
	}
	positions := make([]venue.Position, 0, len(resp.Data))
	for _, raw := range resp.Data {
		side, ok := venue.PositionSideFromString(raw.Side)
		if !ok {
			return nil, fmt.Errorf("%w: pacifica position %s: side %q", venue.ErrDataUnavailable, raw.Symbol, raw.Side)
		}
		amount, err := venue.Decimal("amount", raw.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		entry, err := venue.OptionalDecimal("entry_price", raw.EntryPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		positions = append(positions, venue.Position{
			Venue:      VenueName,
			Symbol:     raw.Symbol,
			Side:       side,
			Size:       amount,
			EntryPrice: entry,
		})
	}
	return positions, nil
}

// Post sends a JSON payload; order placement lives in the exchange package.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > 256 {
			body = body[:256]
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
