package exchange

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"funding-arb-bot/internal/extended/rest"
	"funding-arb-bot/internal/precision"
	"funding-arb-bot/internal/venue"
)

const (
	// settlementBufferSeconds pads the StarkEx expiration past the order
	// expiry so settlement can lag execution.
	settlementBufferSeconds = 14 * 24 * 60 * 60

	orderExpiry = time.Hour
)

// Bracket price factors, applied to the raw slippage-adjusted price before
// rounding. The sell-side take-profit limit sits closer to the trigger than
// the buy-side one.
const (
	buyTPTrigger  = 1.05
	buyTPPrice    = 1.045
	buySLTrigger  = 0.95
	buySLPrice    = 0.945
	sellTPTrigger = 0.95
	sellTPPrice   = 0.965
	sellSLTrigger = 1.05
	sellSLPrice   = 1.055
)

// OrderBuilder turns an order intent into a fully signed wire order,
// including bracket legs when requested.
type OrderBuilder struct {
	signer   *Signer
	nonces   *NonceSource
	slippage float64
	now      func() time.Time
}

func NewOrderBuilder(signer *Signer, nonces *NonceSource, slippage float64) *OrderBuilder {
	return &OrderBuilder{
		signer:   signer,
		nonces:   nonces,
		slippage: slippage,
		now:      time.Now,
	}
}

// Build prices the order off the bid with slippage applied toward the taker,
// rounds quantity and price down to the venue's increments, and signs the
// settlement. Bracket legs share the nonce and expiry of the main order and
// settle on the opposite side.
func (b *OrderBuilder) Build(ctx context.Context, intent venue.OrderIntent, takerFeeRate float64, domain rest.DomainData) (*Order, error) {
	m := intent.Market
	if takerFeeRate <= 0 {
		return nil, fmt.Errorf("%w: taker fee rate %v", venue.ErrSigningFailure, takerFeeRate)
	}
	isBuying := intent.Side == venue.Buy

	rawPrice := m.BidPrice * (1 + b.slippage)
	if !isBuying {
		rawPrice = m.BidPrice * (1 - b.slippage)
	}
	qty := precision.Round(intent.Quantity, m.SizeIncrement, precision.Floor)
	price := precision.Round(rawPrice, m.PriceIncrement, precision.Floor)
	if qty <= 0 || price <= 0 {
		return nil, fmt.Errorf("%w: degenerate order qty=%v price=%v", venue.ErrSigningFailure, qty, price)
	}

	nonce, err := b.nonces.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", venue.ErrSigningFailure, err)
	}
	expiryMillis := uint64(b.now().UnixMilli()) + uint64(orderExpiry.Milliseconds())

	domainHash, err := DomainHash(domain)
	if err != nil {
		return nil, err
	}

	main, err := b.signLeg(qty, price, expiryMillis, nonce, takerFeeRate, m, isBuying, domainHash)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:                main.hash.String(),
		Market:            intent.Symbol,
		Type:              "MARKET",
		Side:              string(intent.Side),
		Qty:               formatDecimal(qty),
		Price:             formatDecimal(price),
		TimeInForce:       "IOC",
		ExpiryEpochMillis: expiryMillis,
		Fee:               formatDecimal(takerFeeRate),
		Nonce:             strconv.FormatUint(nonce, 10),
		Settlement:        main.settlement,
		DebuggingAmounts:  main.amounts,
	}

	if !intent.WithBrackets {
		return order, nil
	}

	// Brackets flatten the position, so their prices round away from the
	// entry side and they sign as the opposite direction.
	mode := precision.Floor
	if !isBuying {
		mode = precision.Ceil
	}
	tpTriggerFactor, tpPriceFactor := buyTPTrigger, buyTPPrice
	slTriggerFactor, slPriceFactor := buySLTrigger, buySLPrice
	if !isBuying {
		tpTriggerFactor, tpPriceFactor = sellTPTrigger, sellTPPrice
		slTriggerFactor, slPriceFactor = sellSLTrigger, sellSLPrice
	}
	tpTrigger := precision.Round(rawPrice*tpTriggerFactor, m.PriceIncrement, mode)
	tpPrice := precision.Round(rawPrice*tpPriceFactor, m.PriceIncrement, mode)
	slTrigger := precision.Round(rawPrice*slTriggerFactor, m.PriceIncrement, mode)
	slPrice := precision.Round(rawPrice*slPriceFactor, m.PriceIncrement, mode)

	tpQty := entirePositionSize(tpPrice, m)
	slQty := entirePositionSize(slPrice, m)

	tp, err := b.signLeg(tpQty, tpPrice, expiryMillis, nonce, takerFeeRate, m, !isBuying, domainHash)
	if err != nil {
		return nil, err
	}
	sl, err := b.signLeg(slQty, slPrice, expiryMillis, nonce, takerFeeRate, m, !isBuying, domainHash)
	if err != nil {
		return nil, err
	}

	order.TpSlType = "POSITION"
	order.TakeProfit = &Bracket{
		TriggerPrice:     formatDecimal(tpTrigger),
		TriggerPriceType: "LAST",
		Price:            formatDecimal(tpPrice),
		PriceType:        "MARKET",
		Settlement:       tp.settlement,
		DebuggingAmounts: tp.amounts,
	}
	order.StopLoss = &Bracket{
		TriggerPrice:     formatDecimal(slTrigger),
		TriggerPriceType: "LAST",
		Price:            formatDecimal(slPrice),
		PriceType:        "MARKET",
		Settlement:       sl.settlement,
		DebuggingAmounts: sl.amounts,
	}
	return order, nil
}

type signedLeg struct {
	hash       *big.Int
	settlement Settlement
	amounts    DebuggingAmounts
}

// signLeg scales one leg's amounts into settlement units and signs them.
// Collateral and synthetic round up on buys and down on sells; the fee
// always rounds up.
func (b *OrderBuilder) signLeg(qty, price float64, expiryMillis, nonce uint64, feeRate float64, m venue.MarketSnapshot, isBuying bool, domainHash *big.Int) (signedLeg, error) {
	collateral := qty * price
	fee := feeRate * collateral

	var collateralScaled, syntheticScaled float64
	if isBuying {
		collateralScaled = math.Ceil(collateral * m.CollateralResolution)
		syntheticScaled = math.Ceil(qty * m.SyntheticResolution)
	} else {
		collateralScaled = math.Floor(collateral * m.CollateralResolution)
		syntheticScaled = math.Floor(qty * m.SyntheticResolution)
	}
	feeScaled := math.Ceil(fee * m.CollateralResolution)

	collateralAmount := int64(collateralScaled)
	syntheticAmount := int64(syntheticScaled)
	if isBuying {
		collateralAmount = -collateralAmount
	} else {
		syntheticAmount = -syntheticAmount
	}

	expiration := (expiryMillis+999)/1000 + settlementBufferSeconds

	hash, err := b.signer.OrderHash(OrderHashParams{
		SyntheticAssetID:  m.SyntheticAssetID,
		CollateralAssetID: m.CollateralAssetID,
		SyntheticAmount:   syntheticAmount,
		CollateralAmount:  collateralAmount,
		FeeAmount:         int64(feeScaled),
		Expiration:        expiration,
		Nonce:             nonce,
	}, domainHash)
	if err != nil {
		return signedLeg{}, err
	}
	settlement, err := b.signer.Sign(hash)
	if err != nil {
		return signedLeg{}, err
	}
	return signedLeg{
		hash:       hash,
		settlement: settlement,
		amounts: DebuggingAmounts{
			CollateralAmount: strconv.FormatFloat(collateralScaled, 'f', -1, 64),
			FeeAmount:        strconv.FormatFloat(feeScaled, 'f', -1, 64),
			SyntheticAmount:  strconv.FormatFloat(syntheticScaled, 'f', -1, 64),
		},
	}, nil
}

// entirePositionSize is the largest lot-aligned quantity the venue allows at
// a price, used to size bracket legs so they can always flatten the position.
func entirePositionSize(price float64, m venue.MarketSnapshot) float64 {
	if price <= 0 {
		return 0
	}
	return precision.Round(m.MaxPositionValue/price, m.SizeIncrement, precision.Floor)
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
