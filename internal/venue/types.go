package venue

import "context"

// Side is an order side.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// PositionSide is the direction of a held position as reported by a venue.
type PositionSide string

const (
	Long  PositionSide = "LONG"
	Short PositionSide = "SHORT"
)

// MarketSnapshot is one venue's view of a perp market, fetched fresh each
// cycle and immutable afterwards. Wire-level decimal strings are parsed into
// float64 at the client boundary.
type MarketSnapshot struct {
	Venue  string
	Symbol string

	BidPrice   float64
	AskPrice   float64
	MidPrice   float64
	MarkPrice  float64
	LastPrice  float64
	IndexPrice float64

	// FundingRate is the venue's raw rate, e.g. 0.0001 for 1bp.
	FundingRate float64

	PriceIncrement   float64
	SizeIncrement    float64
	MaxPositionValue float64

	// StarkEx settlement parameters; zero-valued for venues without them.
	CollateralAssetID    string
	SyntheticAssetID     string
	CollateralResolution float64
	SyntheticResolution  float64
}

// ReferencePrice is the price the decision engine compares across venues:
// mid when the venue publishes one, otherwise the bid.
func (m MarketSnapshot) ReferencePrice() float64 {
	if m.MidPrice > 0 {
		return m.MidPrice
	}
	return m.BidPrice
}

// Position is a venue-owned open position; the core only reads it.
type Position struct {
	Venue         string
	Symbol        string
	Side          PositionSide
	Size          float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnL float64
}

// OrderIntent is a directional market order request against one venue. The
// quantity is rounded to the venue's lot by the venue implementation before
// signing.
type OrderIntent struct {
	Symbol       string
	Side         Side
	Quantity     float64
	WithBrackets bool
	Market       MarketSnapshot
}

// Venue is the capability set the core needs from each exchange.
type Venue interface {
	Name() string
	FetchMarket(ctx context.Context, symbol string) (MarketSnapshot, error)
	FetchBalance(ctx context.Context) (float64, error)
	FetchPositions(ctx context.Context) ([]Position, error)
	PlaceOrder(ctx context.Context, intent OrderIntent) error
}

// FindPosition returns the position for symbol, if held.
func FindPosition(positions []Position, symbol string) (Position, bool) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return Position{}, false
}
