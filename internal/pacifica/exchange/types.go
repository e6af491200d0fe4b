package exchange

// Wire types for POST /api/v1/orders/create_market. Field names are
// snake_case and every numeric value travels as a decimal string; the
// signature covers the exact strings sent.

// BracketPayload is an attached trigger leg, referenced by its own client
// order id so it can be tracked independently.
type BracketPayload struct {
	StopPrice     string `json:"stop_price"`
	ClientOrderID string `json:"client_order_id"`
}

// OrderPayload is the signed body of a market order.
type OrderPayload struct {
	Symbol          string          `json:"symbol"`
	Side            string          `json:"side"`
	ReduceOnly      bool            `json:"reduce_only"`
	Amount          string          `json:"amount"`
	SlippagePercent string          `json:"slippage_percent"`
	ClientOrderID   string          `json:"client_order_id"`
	TakeProfit      *BracketPayload `json:"take_profit,omitempty"`
	StopLoss        *BracketPayload `json:"stop_loss,omitempty"`
}

// SignedMessage is the envelope that gets canonicalized and signed. The
// timestamp plus expiry window bounds how long the signature is accepted.
type SignedMessage struct {
	Timestamp    uint64       `json:"timestamp"`
	ExpiryWindow uint64       `json:"expiry_window"`
	Type         string       `json:"type"`
	Data         OrderPayload `json:"data"`
}

// PlaceOrder is the request body; it repeats the signed payload fields at the
// top level next to the account and signature.
type PlaceOrder struct {
	Account         string          `json:"account"`
	Signature       string          `json:"signature"`
	Timestamp       uint64          `json:"timestamp"`
	ExpiryWindow    uint64          `json:"expiry_window"`
	Symbol          string          `json:"symbol"`
	Side            string          `json:"side"`
	ReduceOnly      bool            `json:"reduce_only"`
	Amount          string          `json:"amount"`
	SlippagePercent string          `json:"slippage_percent"`
	ClientOrderID   string          `json:"client_order_id"`
	TakeProfit      *BracketPayload `json:"take_profit,omitempty"`
	StopLoss        *BracketPayload `json:"stop_loss,omitempty"`
}
