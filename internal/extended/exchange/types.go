package exchange

// Wire types for POST /api/v1/user/order. Field names follow the venue's
// camelCase schema exactly.

type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
}

// Settlement carries the StarkEx signature material the venue forwards to the
// settlement layer.
type Settlement struct {
	Signature          Signature `json:"signature"`
	StarkKey           string    `json:"starkKey"`
	CollateralPosition string    `json:"collateralPosition"`
}

// DebuggingAmounts echoes the scaled settlement amounts so the venue can
// cross-check the signature inputs.
type DebuggingAmounts struct {
	CollateralAmount string `json:"collateralAmount"`
	FeeAmount        string `json:"feeAmount"`
	SyntheticAmount  string `json:"syntheticAmount"`
}

// Bracket is an attached take-profit or stop-loss leg. Each carries its own
// settlement signature because it settles as a separate StarkEx transfer.
type Bracket struct {
	TriggerPrice     string           `json:"triggerPrice"`
	TriggerPriceType string           `json:"triggerPriceType"`
	Price            string           `json:"price"`
	PriceType        string           `json:"priceType"`
	Settlement       Settlement       `json:"settlement"`
	DebuggingAmounts DebuggingAmounts `json:"debuggingAmounts"`
}

type Order struct {
	ID                string           `json:"id"`
	Market            string           `json:"market"`
	Type              string           `json:"type"`
	Side              string           `json:"side"`
	Qty               string           `json:"qty"`
	Price             string           `json:"price"`
	ReduceOnly        bool             `json:"reduceOnly"`
	PostOnly          bool             `json:"postOnly"`
	TimeInForce       string           `json:"timeInForce"`
	ExpiryEpochMillis uint64           `json:"expiryEpochMillis"`
	Fee               string           `json:"fee"`
	Nonce             string           `json:"nonce"`
	Settlement        Settlement       `json:"settlement"`
	DebuggingAmounts  DebuggingAmounts `json:"debuggingAmounts"`
	TpSlType          string           `json:"tpSlType,omitempty"`
	TakeProfit        *Bracket         `json:"takeProfit,omitempty"`
	StopLoss          *Bracket         `json:"stopLoss,omitempty"`
}
