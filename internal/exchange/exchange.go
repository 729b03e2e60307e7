// Package exchange defines the capability interface a trading venue must
// implement. Venue-specific REST shapes and JSON mapping live entirely
// behind this interface.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/predictkit/predictkit/pkg/types"
)

// OrderIntent is a venue-independent order request.
type OrderIntent struct {
	MarketID   string
	TokenID    string
	Side       types.Side
	Price      decimal.Decimal
	Size       decimal.Decimal
	FeeRateBps int64
	Expiration int64
	Nonce      int64
}

// Capabilities describes what a venue implementation supports, so callers
// can degrade gracefully instead of probing with failing requests.
type Capabilities struct {
	Streaming    bool `json:"streaming"`
	Positions    bool `json:"positions"`
	NegRisk      bool `json:"neg_risk"`
	YieldBearing bool `json:"yield_bearing"`
}

// Exchange is the capability surface of one venue.
type Exchange interface {
	// ID returns the short venue identifier, e.g. "polymarket".
	ID() string

	// Name returns the human-readable venue name.
	Name() string

	// Describe reports the venue's supported capabilities.
	Describe() Capabilities

	// FetchMarkets returns the venue's active markets in canonical form.
	FetchMarkets(ctx context.Context) ([]types.Market, error)

	// FetchMarket returns one market by id.
	FetchMarket(ctx context.Context, marketID string) (*types.Market, error)

	// FetchOrderBook returns a REST snapshot of an asset's book.
	FetchOrderBook(ctx context.Context, assetID string) (*types.OrderBook, error)

	// CreateOrder signs and submits a limit order. A venue rejection is
	// surfaced as ErrOrderRejected and is never retried.
	CreateOrder(ctx context.Context, intent OrderIntent) (*types.Order, error)

	// CancelOrder cancels an open order by id.
	CancelOrder(ctx context.Context, orderID string) error

	// FetchOrder returns one of the caller's orders by id.
	FetchOrder(ctx context.Context, orderID string) (*types.Order, error)

	// OpenOrders returns the caller's currently open orders.
	OpenOrders(ctx context.Context) ([]types.Order, error)

	// FetchPositions returns the caller's open positions.
	FetchPositions(ctx context.Context) ([]types.Position, error)

	// FetchBalance returns the caller's available collateral balance.
	FetchBalance(ctx context.Context) (*types.Balance, error)
}
