package types

import (
	"sort"
	"time"
)

// PriceLevel is a single price level in an orderbook. Price and size are
// decimals in venue units; a level with non-positive price or size is never
// stored in an OrderBook.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is the synchronized view of one asset's book. Bids are sorted by
// descending price, asks by ascending price. Instances handed to consumers
// are snapshots; mutating them has no effect on the synchronizer's copy.
type OrderBook struct {
	MarketID  string       `json:"market_id"`
	AssetID   string       `json:"asset_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// BestBid returns the highest bid price, or false if the bid side is empty.
func (b *OrderBook) BestBid() (float64, bool) {
	if len(b.Bids) == 0 {
		return 0, false
	}
	return b.Bids[0].Price, true
}

// BestAsk returns the lowest ask price, or false if the ask side is empty.
func (b *OrderBook) BestAsk() (float64, bool) {
	if len(b.Asks) == 0 {
		return 0, false
	}
	return b.Asks[0].Price, true
}

// MidPrice returns the midpoint of best bid and best ask.
func (b *OrderBook) MidPrice() (float64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// Spread returns best ask minus best bid.
func (b *OrderBook) Spread() (float64, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

// HasData reports whether both sides of the book are populated.
func (b *OrderBook) HasData() bool {
	return len(b.Bids) > 0 && len(b.Asks) > 0
}

// Clone returns a deep copy of the book.
func (b *OrderBook) Clone() OrderBook {
	cp := OrderBook{
		MarketID:  b.MarketID,
		AssetID:   b.AssetID,
		Bids:      make([]PriceLevel, len(b.Bids)),
		Asks:      make([]PriceLevel, len(b.Asks)),
		Timestamp: b.Timestamp,
	}
	copy(cp.Bids, b.Bids)
	copy(cp.Asks, b.Asks)
	return cp
}

// SortLevels sorts both sides in place: bids descending, asks ascending.
func (b *OrderBook) SortLevels() {
	sort.Slice(b.Bids, func(i, j int) bool { return b.Bids[i].Price > b.Bids[j].Price })
	sort.Slice(b.Asks, func(i, j int) bool { return b.Asks[i].Price < b.Asks[j].Price })
}
