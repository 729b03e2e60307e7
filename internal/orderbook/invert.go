package orderbook

import (
	"math"
	"time"

	"github.com/predictkit/predictkit/pkg/types"
)

// RegisterInverse derives a book for the complementary outcome token of a
// binary market from its canonical feed: every ask (p, s) on the canonical
// book becomes a bid (1-p, s) on the derived book and vice versa, with
// prices rounded to the market's tick. Venues publish only one side of most
// binary pairs, so the complement has no independent feed.
func (s *Synchronizer) RegisterInverse(canonicalAssetID, derivedAssetID string, tickSize float64) {
	if tickSize <= 0 {
		tickSize = 0.01
	}

	s.mu.Lock()
	s.inverse[canonicalAssetID] = inverseLink{
		derivedAssetID: derivedAssetID,
		tickSize:       tickSize,
	}
	derived := s.deriveInverseLocked(canonicalAssetID)
	s.mu.Unlock()

	if derived != nil {
		s.broadcast(derived)
	}
}

// UnregisterInverse stops deriving the complement book.
func (s *Synchronizer) UnregisterInverse(canonicalAssetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link, ok := s.inverse[canonicalAssetID]; ok {
		delete(s.inverse, canonicalAssetID)
		delete(s.books, link.derivedAssetID)
	}
}

// deriveInverseLocked rebuilds the derived book from the canonical one.
// Callers must hold the write lock; the returned book is a private copy safe
// to broadcast after unlocking.
func (s *Synchronizer) deriveInverseLocked(canonicalAssetID string) *types.OrderBook {
	link, ok := s.inverse[canonicalAssetID]
	if !ok {
		return nil
	}
	canonical, ok := s.books[canonicalAssetID]
	if !ok {
		return nil
	}

	derived := &types.OrderBook{
		MarketID:  canonical.MarketID,
		AssetID:   link.derivedAssetID,
		Bids:      invertLevels(canonical.Asks, link.tickSize),
		Asks:      invertLevels(canonical.Bids, link.tickSize),
		Timestamp: time.Now(),
	}
	derived.SortLevels()
	s.books[link.derivedAssetID] = derived

	snapshot := derived.Clone()
	return &snapshot
}

// invertLevels maps each level (p, s) to (1-p, s), dropping complements that
// fall outside (0, 1).
func invertLevels(levels []types.PriceLevel, tickSize float64) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(levels))
	for _, l := range levels {
		price := roundToTick(1.0-l.Price, tickSize)
		if price <= 0 || price >= 1 {
			continue
		}
		out = append(out, types.PriceLevel{Price: price, Size: l.Size})
	}
	return out
}

func roundToTick(price, tickSize float64) float64 {
	return math.Round(price/tickSize) * tickSize
}
