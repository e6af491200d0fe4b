package exchange

import (
	"fmt"
	"strconv"
	"time"

	"funding-arb-bot/internal/precision"
	"funding-arb-bot/internal/venue"

	"github.com/google/uuid"
)

// expiryWindowMillis bounds how long the venue accepts the signature after
// its timestamp.
const expiryWindowMillis = 5000

const orderType = "create_market_order"

// Bracket price factors applied to the mid. Take-profit sits on the winning
// side of the position, stop-loss on the losing side, so a short inverts
// both.
const (
	profitFactor = 1.05
	lossFactor   = 0.95
)

// OrderBuilder assembles signed market orders. Prices derive from the mid;
// the venue itself caps execution by the slippage percent in the payload.
type OrderBuilder struct {
	signer   *Signer
	slippage float64
	now      func() time.Time
	newID    func() string
}

func NewOrderBuilder(signer *Signer, slippage float64) *OrderBuilder {
	return &OrderBuilder{
		signer:   signer,
		slippage: slippage,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Build floors the quantity to the lot, derives side-aware bracket prices
// from the mid, and signs the canonical envelope. Bracket triggers round away
// from the fill: the take-profit toward profit (Ceil for longs), the
// stop-loss toward the loss bound (Floor for longs); shorts invert both.
func (b *OrderBuilder) Build(intent venue.OrderIntent) (*PlaceOrder, error) {
	m := intent.Market
	qty := precision.Round(intent.Quantity, m.SizeIncrement, precision.Floor)
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity %v below one lot", venue.ErrSigningFailure, intent.Quantity)
	}
	if m.MidPrice <= 0 {
		return nil, fmt.Errorf("%w: no mid price for %s", venue.ErrSigningFailure, intent.Symbol)
	}

	payload := OrderPayload{
		Symbol:          intent.Symbol,
		Side:            wireSide(intent.Side),
		ReduceOnly:      false,
		Amount:          formatDecimal(qty),
		SlippagePercent: formatDecimal(b.slippage),
		ClientOrderID:   b.newID(),
	}
	if intent.WithBrackets {
		tpFactor, slFactor := profitFactor, lossFactor
		tpMode, slMode := precision.Ceil, precision.Floor
		if intent.Side == venue.Sell {
			tpFactor, slFactor = lossFactor, profitFactor
			tpMode, slMode = precision.Floor, precision.Ceil
		}
		payload.TakeProfit = &BracketPayload{
			StopPrice:     formatDecimal(precision.Round(m.MidPrice*tpFactor, m.PriceIncrement, tpMode)),
			ClientOrderID: b.newID(),
		}
		payload.StopLoss = &BracketPayload{
			StopPrice:     formatDecimal(precision.Round(m.MidPrice*slFactor, m.PriceIncrement, slMode)),
			ClientOrderID: b.newID(),
		}
	}

	msg := SignedMessage{
		Timestamp:    uint64(b.now().UnixMilli()),
		ExpiryWindow: expiryWindowMillis,
		Type:         orderType,
		Data:         payload,
	}
	signature, _, err := b.signer.SignMessage(msg)
	if err != nil {
		return nil, err
	}

	return &PlaceOrder{
		Account:         b.signer.Account(),
		Signature:       signature,
		Timestamp:       msg.Timestamp,
		ExpiryWindow:    msg.ExpiryWindow,
		Symbol:          payload.Symbol,
		Side:            payload.Side,
		ReduceOnly:      payload.ReduceOnly,
		Amount:          payload.Amount,
		SlippagePercent: payload.SlippagePercent,
		ClientOrderID:   payload.ClientOrderID,
		TakeProfit:      payload.TakeProfit,
		StopLoss:        payload.StopLoss,
	}, nil
}

func wireSide(side venue.Side) string {
	if side == venue.Buy {
		return "bid"
	}
	return "ask"
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
