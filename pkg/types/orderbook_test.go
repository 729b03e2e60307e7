package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsDeepValueCopy(t *testing.T) {
	book := OrderBook{
		MarketID: "m1",
		AssetID:  "a1",
		Bids: []PriceLevel{
			{Price: 0.65, Size: 100},
			{Price: 0.64, Size: 200},
		},
		Asks: []PriceLevel{
			{Price: 0.66, Size: 150},
		},
		Timestamp: time.Now(),
	}

	cp := book.Clone()
	require.Equal(t, book, cp)

	// Mutating the copy's levels must not reach back into the original.
	cp.Bids[0].Price = 0.99
	cp.Asks = append(cp.Asks, PriceLevel{Price: 0.70, Size: 1})

	assert.Equal(t, 0.65, book.Bids[0].Price)
	assert.Len(t, book.Asks, 1)

	// The copy is a plain value with working accessors.
	bid, ok := cp.BestBid()
	require.True(t, ok)
	assert.Equal(t, 0.99, bid)
}

func TestSortLevels(t *testing.T) {
	book := OrderBook{
		Bids: []PriceLevel{{Price: 0.60, Size: 1}, {Price: 0.65, Size: 1}},
		Asks: []PriceLevel{{Price: 0.70, Size: 1}, {Price: 0.66, Size: 1}},
	}
	book.SortLevels()

	assert.Equal(t, 0.65, book.Bids[0].Price)
	assert.Equal(t, 0.66, book.Asks[0].Price)
}
