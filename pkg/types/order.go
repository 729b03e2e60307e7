package types

import (
	"math/big"
	"time"
)

// Side is the direction of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

// String returns the wire representation used by venue APIs.
func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderOpen            OrderStatus = "open"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderFilled          OrderStatus = "filled"
	OrderCancelled       OrderStatus = "cancelled"
	OrderRejected        OrderStatus = "rejected"
	OrderExpired         OrderStatus = "expired"
)

// Order is the canonical order record shared across venues.
type Order struct {
	ID        string      `json:"id"`
	MarketID  string      `json:"market_id"`
	Outcome   string      `json:"outcome"`
	Side      Side        `json:"side"`
	Price     float64     `json:"price"`
	Size      float64     `json:"size"`
	Filled    float64     `json:"filled"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at,omitempty"`
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() float64 {
	return o.Size - o.Filled
}

// IsActive reports whether the order can still trade.
func (o *Order) IsActive() bool {
	return o.Status == OrderOpen || o.Status == OrderPartiallyFilled
}

// IsFilled reports whether the order has fully executed.
func (o *Order) IsFilled() bool {
	return o.Status == OrderFilled || o.Filled >= o.Size
}

// FillPercentage returns filled size as a fraction of total size.
func (o *Order) FillPercentage() float64 {
	if o.Size == 0 {
		return 0
	}
	return o.Filled / o.Size
}

// SignatureType selects how the venue verifies an order signature.
type SignatureType uint8

const (
	SignatureEOA        SignatureType = 0
	SignaturePolyProxy  SignatureType = 1
	SignatureGnosisSafe SignatureType = 2
)

// SignedOrder is a fully authorized on-chain limit order. It is immutable
// once built; all integer fields are in the venue's on-chain decimal scale.
type SignedOrder struct {
	Salt          *big.Int      `json:"salt"`
	Maker         string        `json:"maker"`
	Signer        string        `json:"signer"`
	Taker         string        `json:"taker"`
	TokenID       string        `json:"tokenId"`
	MakerAmount   *big.Int      `json:"makerAmount"`
	TakerAmount   *big.Int      `json:"takerAmount"`
	Expiration    *big.Int      `json:"expiration"`
	Nonce         *big.Int      `json:"nonce"`
	FeeRateBps    *big.Int      `json:"feeRateBps"`
	Side          Side          `json:"side"`
	SignatureType SignatureType `json:"signatureType"`
	Signature     string        `json:"signature"`
}
