// Package signing converts decimal order intents into venue-native integer
// amounts and produces EIP-712 signed orders ready for submission.
package signing

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/predictkit/predictkit/pkg/types"
)

// ScaleParams describes a venue's fixed-point representation. All values are
// expressed in the venue's base units: a PriceTick of 1000 with a PriceScale
// of 1e6 means a 0.001 minimum price increment.
type ScaleParams struct {
	SharesScale     int64
	PriceScale      int64
	CollateralScale int64
	PriceTick       int64
}

// DefaultScaleParams matches the common 6-decimal collateral venues.
func DefaultScaleParams() ScaleParams {
	return ScaleParams{
		SharesScale:     1_000_000,
		PriceScale:      1_000_000,
		CollateralScale: 1_000_000,
		PriceTick:       1_000,
	}
}

// ScaledAmounts is the integer order sizing produced by AmountScaler.
type ScaledAmounts struct {
	Shares      *big.Int
	PriceInt    *big.Int
	MakerAmount *big.Int
	TakerAmount *big.Int
}

// AmountScaler converts decimal price/size pairs into maker/taker amounts.
// It is stateless and safe for concurrent use.
type AmountScaler struct {
	params ScaleParams
}

// NewAmountScaler validates the scale parameters and returns a scaler.
func NewAmountScaler(params ScaleParams) (*AmountScaler, error) {
	if params.SharesScale <= 0 || params.PriceScale <= 0 || params.CollateralScale <= 0 {
		return nil, fmt.Errorf("%w: scale factors must be positive", types.ErrInvalidInput)
	}
	if params.PriceTick <= 0 || params.PriceScale%params.PriceTick != 0 {
		return nil, fmt.Errorf("%w: price tick %d must evenly divide price scale %d",
			types.ErrInvalidInput, params.PriceTick, params.PriceScale)
	}
	return &AmountScaler{params: params}, nil
}

// Scale converts price and size into maker/taker amounts for the given side.
//
// Shares are aligned down to the tick step so the order respects the venue's
// minimum price granularity. Rounding always favors the counterparty: a buyer
// pays the ceiling of the collateral value and a seller receives the floor.
func (s *AmountScaler) Scale(price, size decimal.Decimal, side types.Side) (*ScaledAmounts, error) {
	if price.LessThanOrEqual(decimal.Zero) || price.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: price %s must be in (0, 1)", types.ErrInvalidInput, price)
	}
	if size.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: size %s must be positive", types.ErrInvalidInput, size)
	}

	shares := size.Mul(decimal.NewFromInt(s.params.SharesScale)).Truncate(0).BigInt()
	priceInt := price.Mul(decimal.NewFromInt(s.params.PriceScale)).Truncate(0).BigInt()

	step := big.NewInt(s.params.PriceScale / s.params.PriceTick)
	shares.Quo(shares, step)
	shares.Mul(shares, step)

	if shares.Sign() <= 0 {
		return nil, fmt.Errorf("%w: size %s rounds to zero shares at tick step %s",
			types.ErrInvalidInput, size, step)
	}

	// collateral = shares * priceInt * collateralScale / (sharesScale * priceScale),
	// computed with arbitrary-width intermediates so the product cannot overflow.
	numerator := new(big.Int).Mul(shares, priceInt)
	numerator.Mul(numerator, big.NewInt(s.params.CollateralScale))
	denominator := new(big.Int).Mul(
		big.NewInt(s.params.SharesScale),
		big.NewInt(s.params.PriceScale),
	)

	amounts := &ScaledAmounts{Shares: shares, PriceInt: priceInt}
	switch side {
	case types.Buy:
		collateral := new(big.Int).Add(numerator, new(big.Int).Sub(denominator, big.NewInt(1)))
		collateral.Quo(collateral, denominator)
		amounts.MakerAmount = collateral
		amounts.TakerAmount = new(big.Int).Set(shares)
	case types.Sell:
		collateral := new(big.Int).Quo(numerator, denominator)
		amounts.MakerAmount = new(big.Int).Set(shares)
		amounts.TakerAmount = collateral
	default:
		return nil, fmt.Errorf("%w: unknown side %d", types.ErrInvalidInput, side)
	}

	return amounts, nil
}

// Params returns the scaler's venue parameters.
func (s *AmountScaler) Params() ScaleParams {
	return s.params
}
