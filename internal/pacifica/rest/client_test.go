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

const (
	pricesBody = `{"success":true,"data":[
		{"symbol":"SOL","mid":"150.25","mark":"150.3","next_funding":"0.0002"},
		{"symbol":"BTC","mid":"50000","mark":"50010","next_funding":"-0.0001"}
	]}`
	infoBody = `{"success":true,"data":[
		{"symbol":"SOL","tick_size":0.01,"min_tick":0.01,"max_tick":1000,"lot_size":0.1,"min_order_size":0.1,"max_order_size":10000},
		{"symbol":"BTC","tick_size":"1","min_tick":"1","max_tick":"100000","lot_size":"0.001","min_order_size":"0.001","max_order_size":"100"}
	]}`
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, 5*time.Second, "WaLLetPubKey111", zap.NewNop())
}

func marketHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/info/prices":
		w.Write([]byte(pricesBody))
	case "/api/v1/info":
		w.Write([]byte(infoBody))
	default:
		http.NotFound(w, r)
	}
}

func TestFetchMarketMergesPricesAndConfig(t *testing.T) {
	client := newTestClient(t, marketHandler)
	snap, err := client.FetchMarket(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("fetch market: %v", err)
	}
	if snap.Venue != VenueName || snap.Symbol != "SOL" {
		t.Errorf("identity = %s/%s", snap.Venue, snap.Symbol)
	}
	if snap.MidPrice != 150.25 || snap.FundingRate != 0.0002 {
		t.Errorf("mid/funding = %v/%v", snap.MidPrice, snap.FundingRate)
	}
	if snap.PriceIncrement != 0.01 || snap.SizeIncrement != 0.1 {
		t.Errorf("increments = %v/%v", snap.PriceIncrement, snap.SizeIncrement)
	}
	if snap.ReferencePrice() != 150.25 {
		t.Errorf("reference price = %v", snap.ReferencePrice())
	}
}

func TestFetchMarketNumericStringsAccepted(t *testing.T) {
	// The info endpoint has served both bare numbers and quoted numbers.
	client := newTestClient(t, marketHandler)
	snap, err := client.FetchMarket(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("fetch market: %v", err)
	}
	if snap.PriceIncrement != 1 || snap.SizeIncrement != 0.001 {
		t.Errorf("increments = %v/%v", snap.PriceIncrement, snap.SizeIncrement)
	}
}

func TestFetchMarketUnknownSymbol(t *testing.T) {
	client := newTestClient(t, marketHandler)
	_, err := client.FetchMarket(context.Background(), "DOGE")
	if !errors.Is(err, venue.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}

func TestFetchMarketUnsuccessful(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"data":[]}`))
	})
	_, err := client.FetchMarket(context.Background(), "SOL")
	if !errors.Is(err, venue.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}

func TestFetchBalance(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success":true,"data":{"available_to_spend":"512.75"}}`))
	})
	balance, err := client.FetchBalance(context.Background())
	if err != nil {
		t.Fatalf("fetch balance: %v", err)
	}
	if balance != 512.75 {
		t.Errorf("balance = %v", balance)
	}
	if gotQuery != "account=WaLLetPubKey111" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestFetchPositions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[
			{"symbol":"SOL","side":"bid","amount":"10.5","entry_price":"148.2"},
			{"symbol":"BTC","side":"ask","amount":"0.25","entry_price":"51000"}
		]}`))
	})
	positions, err := client.FetchPositions(context.Background())
	if err != nil {
		t.Fatalf("fetch positions: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions", len(positions))
	}
	if positions[0].Side != venue.Long || positions[0].Size != 10.5 {
		t.Errorf("first = %+v", positions[0])
	}
	if positions[1].Side != venue.Short || positions[1].Symbol != "BTC" {
		t.Errorf("second = %+v", positions[1])
	}
}
