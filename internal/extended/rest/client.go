package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

// userAgent mirrors a desktop browser; the venue's edge rejects the default
// Go client string.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const VenueName = "extended"

// Client reads market and account state from the Extended REST API.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, apiKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
		apiKey: apiKey,
		log:    log,
	}
}

type marketResponse struct {
	Status string       `json:"status"`
	Data   []marketData `json:"data"`
}

type marketData struct {
	Name          string        `json:"name"`
	MarketStats   marketStats   `json:"marketStats"`
	TradingConfig tradingConfig `json:"tradingConfig"`
	L2Config      l2Config      `json:"l2Config"`
}

type marketStats struct {
	DailyVolume string `json:"dailyVolume"`
	BidPrice    string `json:"bidPrice"`
	AskPrice    string `json:"askPrice"`
	MarkPrice   string `json:"markPrice"`
	LastPrice   string `json:"lastPrice"`
	IndexPrice  string `json:"indexPrice"`
	FundingRate string `json:"fundingRate"`
}

type tradingConfig struct {
	MinOrderSizeChange string `json:"minOrderSizeChange"`
	MinPriceChange     string `json:"minPriceChange"`
	MaxPositionValue   string `json:"maxPositionValue"`
}

type l2Config struct {
	CollateralID         string  `json:"collateralId"`
	SyntheticID          string  `json:"syntheticId"`
	CollateralResolution float64 `json:"collateralResolution"`
	SyntheticResolution  float64 `json:"syntheticResolution"`
}

// FetchMarket loads one market's stats plus the trading and settlement
// configuration the signer needs. Error statuses and zero-volume markets are
// reported as unavailable data.
func (c *Client) FetchMarket(ctx context.Context, symbol string) (venue.MarketSnapshot, error) {
	var resp marketResponse
	query := url.Values{"market": []string{symbol}}
	if err := c.get(ctx, "/api/v1/info/markets?"+query.Encode(), &resp); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: extended market %s: %v", venue.ErrDataUnavailable, symbol, err)
	}
	if resp.Status == "ERROR" || len(resp.Data) == 0 {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: extended market %s: status %s", venue.ErrDataUnavailable, symbol, resp.Status)
	}
	data := resp.Data[0]
	if data.MarketStats.DailyVolume == "0" {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: extended market %s: no volume", venue.ErrDataUnavailable, symbol)
	}
	snap := venue.MarketSnapshot{
		Venue:                VenueName,
		Symbol:               symbol,
		CollateralAssetID:    data.L2Config.CollateralID,
		SyntheticAssetID:     data.L2Config.SyntheticID,
		CollateralResolution: data.L2Config.CollateralResolution,
		SyntheticResolution:  data.L2Config.SyntheticResolution,
	}
	var err error
	if snap.BidPrice, err = venue.Decimal("bidPrice", data.MarketStats.BidPrice); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.AskPrice, err = venue.OptionalDecimal("askPrice", data.MarketStats.AskPrice); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.MarkPrice, err = venue.OptionalDecimal("markPrice", data.MarketStats.MarkPrice); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.LastPrice, err = venue.OptionalDecimal("lastPrice", data.MarketStats.LastPrice); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.IndexPrice, err = venue.OptionalDecimal("indexPrice", data.MarketStats.IndexPrice); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.FundingRate, err = venue.Decimal("fundingRate", data.MarketStats.FundingRate); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.SizeIncrement, err = venue.Decimal("minOrderSizeChange", data.TradingConfig.MinOrderSizeChange); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.PriceIncrement, err = venue.Decimal("minPriceChange", data.TradingConfig.MinPriceChange); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if snap.MaxPositionValue, err = venue.Decimal("maxPositionValue", data.TradingConfig.MaxPositionValue); err != nil {
		return venue.MarketSnapshot{}, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	return snap, nil
}

type balanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		AvailableForTrade string `json:"availableForTrade"`
	} `json:"data"`
}

// FetchBalance returns the collateral available for new positions.
func (c *Client) FetchBalance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	if err := c.get(ctx, "/api/v1/user/balance", &resp); err != nil {
		return 0, fmt.Errorf("%w: extended balance: %v", venue.ErrDataUnavailable, err)
	}
	if resp.Status == "ERROR" {
		return 0, fmt.Errorf("%w: extended balance: status ERROR", venue.ErrDataUnavailable)
	}
	available, err := venue.Decimal("availableForTrade", resp.Data.AvailableForTrade)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	return available, nil
}

type positionsResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Market        string `json:"market"`
		Side          string `json:"side"`
		Size          string `json:"size"`
		OpenPrice     string `json:"openPrice"`
		MarkPrice     string `json:"markPrice"`
		UnrealisedPnl string `json:"unrealisedPnl"`
	} `json:"data"`
}

func (c *Client) FetchPositions(ctx context.Context) ([]venue.Position, error) {
	var resp positionsResponse
	if err := c.get(ctx, "/api/v1/user/positions", &resp); err != nil {
		return nil, fmt.Errorf("%w: extended positions: %v", venue.ErrDataUnavailable, err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("%w: extended positions: status ERROR", venue.ErrDataUnavailable)
	}
	positions := make([]venue.Position, 0, len(resp.Data))
	for _, raw := range resp.Data {
		side, ok := venue.PositionSideFromString(raw.Side)
		if !ok {
			return nil, fmt.Errorf("%w: extended position %s: side %q", venue.ErrDataUnavailable, raw.Market, raw.Side)
		}
		size, err := venue.Decimal("size", raw.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		entry, err := venue.OptionalDecimal("openPrice", raw.OpenPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		mark, err := venue.OptionalDecimal("markPrice", raw.MarkPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		pnl, err := venue.OptionalDecimal("unrealisedPnl", raw.UnrealisedPnl)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
		}
		positions = append(positions, venue.Position{
			Venue:         VenueName,
			Symbol:        raw.Market,
			Side:          side,
			Size:          size,
			EntryPrice:    entry,
			MarkPrice:     mark,
			UnrealizedPnL: pnl,
		})
	}
	return positions, nil
}

type feesResponse struct {
	Status string `json:"status"`
	Data   []struct {
		MakerFeeRate string `json:"makerFeeRate"`
		TakerFeeRate string `json:"takerFeeRate"`
	} `json:"data"`
}

// TakerFeeRate fetches the account's taker fee for a market. A zero or
// missing rate aborts order construction upstream.
func (c *Client) TakerFeeRate(ctx context.Context, symbol string) (float64, error) {
	var resp feesResponse
	query := url.Values{"market": []string{symbol}}
	if err := c.get(ctx, "/api/v1/user/fees?"+query.Encode(), &resp); err != nil {
		return 0, fmt.Errorf("%w: extended fees %s: %v", venue.ErrDataUnavailable, symbol, err)
	}
	if resp.Status == "ERROR" || len(resp.Data) == 0 {
		return 0, fmt.Errorf("%w: extended fees %s: status %s", venue.ErrDataUnavailable, symbol, resp.Status)
	}
	rate, err := venue.Decimal("takerFeeRate", resp.Data[0].TakerFeeRate)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", venue.ErrDataUnavailable, err)
	}
	if rate == 0 {
		return 0, fmt.Errorf("%w: extended fees %s: zero taker rate", venue.ErrDataUnavailable, symbol)
	}
	return rate, nil
}

// DomainData is the venue's Starknet signing domain descriptor.
type DomainData struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	ChainID  string `json:"chainId"`
	Revision string `json:"revision"`
}

type domainResponse struct {
	Status string     `json:"status"`
	Data   DomainData `json:"data"`
}

func (c *Client) StarknetDomain(ctx context.Context) (DomainData, error) {
	var resp domainResponse
	if err := c.get(ctx, "/api/v1/info/starknet", &resp); err != nil {
		return DomainData{}, fmt.Errorf("%w: extended starknet domain: %v", venue.ErrDataUnavailable, err)
	}
	if resp.Status == "ERROR" {
		return DomainData{}, fmt.Errorf("%w: extended starknet domain: status ERROR", venue.ErrDataUnavailable)
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	return doJSON(c.http, req, out)
}

// Post sends an authenticated JSON request. Order placement lives in the
// exchange package; it goes through here so every call carries the same
// headers.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	return doJSON(c.http, req, out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
