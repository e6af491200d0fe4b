package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"funding-arb-bot/internal/venue"

	"go.uber.org/zap"
)

const marketBody = `{
	"status": "OK",
	"data": [{
		"name": "BTC-USD",
		"marketStats": {
			"dailyVolume": "123456.78",
			"bidPrice": "50000.5",
			"askPrice": "50001.5",
			"markPrice": "50001.0",
			"lastPrice": "50000.9",
			"indexPrice": "50000.7",
			"fundingRate": "0.0001"
		},
		"tradingConfig": {
			"minOrderSizeChange": "0.001",
			"minPriceChange": "0.1",
			"maxPositionValue": "1000000"
		},
		"l2Config": {
			"collateralId": "0x2893294562a7d22abab1c3b14a054e2f380ea1d2bd4ddfbc9251e4da2e1c6cc",
			"syntheticId": "0x4254432d3600000000000000000000",
			"collateralResolution": 1000000,
			"syntheticResolution": 1000000000
		}
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, 5*time.Second, "test-key", zap.NewNop())
}

func TestFetchMarket(t *testing.T) {
	var gotPath, gotKey, gotUA string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(marketBody))
	})

	snap, err := client.FetchMarket(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("fetch market: %v", err)
	}
	if gotPath != "/api/v1/info/markets?market=BTC-USD" {
		t.Errorf("path = %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key = %q", gotKey)
	}
	if gotUA != userAgent {
		t.Errorf("user agent = %q", gotUA)
	}
	if snap.Venue != VenueName || snap.Symbol != "BTC-USD" {
		t.Errorf("identity = %s/%s", snap.Venue, snap.Symbol)
	}
	if snap.BidPrice != 50000.5 || snap.AskPrice != 50001.5 {
		t.Errorf("bid/ask = %v/%v", snap.BidPrice, snap.AskPrice)
	}
	if snap.FundingRate != 0.0001 {
		t.Errorf("funding = %v", snap.FundingRate)
	}
	if snap.SizeIncrement != 0.001 || snap.PriceIncrement != 0.1 {
		t.Errorf("increments = %v/%v", snap.SizeIncrement, snap.PriceIncrement)
	}
	if snap.MaxPositionValue != 1000000 {
		t.Errorf("max position value = %v", snap.MaxPositionValue)
	}
	if snap.SyntheticAssetID != "0x4254432d3600000000000000000000" {
		t.Errorf("synthetic id = %s", snap.SyntheticAssetID)
	}
	if snap.CollateralResolution != 1e6 || snap.SyntheticResolution != 1e9 {
		t.Errorf("resolutions = %v/%v", snap.CollateralResolution, snap.SyntheticResolution)
	}
	// Mid is never published here, so the reference falls back to the bid.
	if snap.ReferencePrice() != 50000.5 {
		t.Errorf("reference price = %v", snap.ReferencePrice())
	}
}

func TestFetchMarketUnavailable(t *testing.T) {
	cases := map[string]string{
		"error status": `{"status":"ERROR","data":[]}`,
		"empty data":   `{"status":"OK","data":[]}`,
		"zero volume": `{"status":"OK","data":[{"marketStats":{"dailyVolume":"0","bidPrice":"1","fundingRate":"0"},
			"tradingConfig":{"minOrderSizeChange":"1","minPriceChange":"1","maxPositionValue":"1"},
			"l2Config":{"collateralId":"0x1","syntheticId":"0x2","collateralResolution":1,"syntheticResolution":1}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := client.FetchMarket(context.Background(), "BTC-USD")
			if !errors.Is(err, venue.ErrDataUnavailable) {
				t.Fatalf("want ErrDataUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","data":{"availableForTrade":"1234.56"}}`))
	})
	balance, err := client.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("fetch balance: %v", err)
	}
	if balance != 1234.56 {
		t.Errorf("balance = %v", balance)
	}
}

func TestFetchPositions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","data":[
			{"market":"BTC-USD","side":"LONG","size":"0.5","openPrice":"48000","markPrice":"50000","unrealisedPnl":"1000"},
			{"market":"ETH-USD","side":"SHORT","size":"2","openPrice":"3000","markPrice":"2900","unrealisedPnl":"200"}
		]}`))
	})
	positions, err := client.FetchPositions(context.Background())
	if err != nil {
		t.Fatalf("fetch positions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions", len(positions))
	}
	if positions[0].Side != venue.Long || positions[0].Size != 0.5 {
		t.Errorf("first = %+v", positions[0])
	}
	if positions[1].Side != venue.Short || positions[1].Symbol != "ETH-USD" {
		t.Errorf("second = %+v", positions[1])
	}
}

func TestTakerFeeRate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","data":[{"makerFeeRate":"0.0002","takerFeeRate":"0.0005"}]}`))
	})
	rate, err := client.TakerFeeRate(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("taker fee: %v", err)
	}
	if rate != 0.0005 {
		t.Errorf("rate = %v", rate)
	}
}

func TestTakerFeeRateZeroRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","data":[{"makerFeeRate":"0","takerFeeRate":"0"}]}`))
	})
	_, err := client.TakerFeeRate(context.Background(), "BTC-USD")
	if !errors.Is(err, venue.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}

func TestStarknetDomain(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","data":{"name":"Perpetuals","version":"v0","chainId":"SN_MAIN","revision":"1"}}`))
	})
	domain, err := client.StarknetDomain(context.Background())
	if err != nil {
		t.Fatalf("starknet domain: %v", err)
	}
	if domain.Name != "Perpetuals" || domain.ChainID != "SN_MAIN" || domain.Revision != "1" {
		t.Errorf("domain = %+v", domain)
	}
}

func TestHTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	_, err := client.FetchBalance(context.Background())
	if !errors.Is(err, venue.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}
