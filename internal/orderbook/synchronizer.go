// Package orderbook maintains live order books from venue stream messages
// and fans updates out to subscribers.
package orderbook

import (
	"context"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/pkg/types"
)

// streamMessage is the venue's market-channel event envelope.
type streamMessage struct {
	EventType    string          `json:"event_type"`
	AssetID      string          `json:"asset_id"`
	Market       string          `json:"market"`
	Bids         []wsPriceLevel  `json:"bids"`
	Asks         []wsPriceLevel  `json:"asks"`
	PriceChanges []wsPriceChange `json:"price_changes"`
}

type wsPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wsPriceChange struct {
	AssetID     string `json:"asset_id"`
	BestBid     string `json:"best_bid"`
	BestBidSize string `json:"best_bid_size"`
	BestAsk     string `json:"best_ask"`
	BestAskSize string `json:"best_ask_size"`
}

type inverseLink struct {
	derivedAssetID string
	tickSize       float64
}

// Synchronizer owns the per-asset order books. A single Run loop drains the
// stream and takes brief write locks per message; external callers take
// brief read locks to snapshot a book. Subscribers receive best-effort
// copies: a slow consumer misses updates without blocking the reader.
type Synchronizer struct {
	mu        sync.RWMutex
	books     map[string]*types.OrderBook
	subs      map[string]map[int]chan types.OrderBook
	nextSubID int
	inverse   map[string]inverseLink
	logger    *zap.Logger
}

// New creates an empty synchronizer.
func New(logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		books:   make(map[string]*types.OrderBook),
		subs:    make(map[string]map[int]chan types.OrderBook),
		inverse: make(map[string]inverseLink),
		logger:  logger,
	}
}

// Run consumes raw stream messages until the context is cancelled or the
// channel closes.
func (s *Synchronizer) Run(ctx context.Context, messages <-chan json.RawMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-messages:
			if !ok {
				return
			}
			s.Apply(raw)
		}
	}
}

// Apply processes one raw venue message. Malformed messages are counted and
// skipped.
func (s *Synchronizer) Apply(raw json.RawMessage) {
	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		ParseErrorsTotal.Inc()
		s.logger.Debug("unparseable-stream-message", zap.Error(err))
		return
	}

	switch msg.EventType {
	case "book":
		s.applySnapshot(&msg)
	case "price_change":
		s.applyPriceChanges(&msg)
	default:
		s.logger.Debug("ignored-stream-event", zap.String("event_type", msg.EventType))
	}
}

// applySnapshot replaces an asset's book wholesale. Levels with non-positive
// price or size are discarded and both sides are re-sorted.
func (s *Synchronizer) applySnapshot(msg *streamMessage) {
	if msg.AssetID == "" {
		return
	}

	book := &types.OrderBook{
		MarketID:  msg.Market,
		AssetID:   msg.AssetID,
		Bids:      parseLevels(msg.Bids),
		Asks:      parseLevels(msg.Asks),
		Timestamp: time.Now(),
	}
	book.SortLevels()

	s.mu.Lock()
	s.books[msg.AssetID] = book
	snapshot := book.Clone()
	derived := s.deriveInverseLocked(msg.AssetID)
	s.mu.Unlock()

	SnapshotsTotal.Inc()
	s.broadcast(&snapshot)
	if derived != nil {
		s.broadcast(derived)
	}
}

// applyPriceChanges updates only the top-of-book entry for each change. A
// change for an unknown asset is ignored; a change with no size preserves
// the existing size, and a previously empty side gets a single placeholder
// level of size 1.
func (s *Synchronizer) applyPriceChanges(msg *streamMessage) {
	for _, change := range msg.PriceChanges {
		s.mu.Lock()
		book, ok := s.books[change.AssetID]
		if !ok {
			s.mu.Unlock()
			continue
		}

		if price, pok := parsePositive(change.BestBid); pok {
			size, sok := parsePositive(change.BestBidSize)
			book.Bids = updateTop(book.Bids, price, size, sok)
		}
		if price, pok := parsePositive(change.BestAsk); pok {
			size, sok := parsePositive(change.BestAskSize)
			book.Asks = updateTop(book.Asks, price, size, sok)
		}
		book.Timestamp = time.Now()

		snapshot := book.Clone()
		derived := s.deriveInverseLocked(change.AssetID)
		s.mu.Unlock()

		PriceChangesTotal.Inc()
		s.broadcast(&snapshot)
		if derived != nil {
			s.broadcast(derived)
		}
	}
}

// updateTop replaces the index-0 level. Deeper levels are never touched.
func updateTop(levels []types.PriceLevel, price, size float64, haveSize bool) []types.PriceLevel {
	if len(levels) == 0 {
		if !haveSize {
			size = 1.0
		}
		return []types.PriceLevel{{Price: price, Size: size}}
	}
	levels[0].Price = price
	if haveSize {
		levels[0].Size = size
	}
	return levels
}

func parseLevels(raw []wsPriceLevel) []types.PriceLevel {
	levels := make([]types.PriceLevel, 0, len(raw))
	for _, l := range raw {
		price, err1 := strconv.ParseFloat(l.Price, 64)
		size, err2 := strconv.ParseFloat(l.Size, 64)
		if err1 != nil || err2 != nil || price <= 0 || size <= 0 {
			continue
		}
		levels = append(levels, types.PriceLevel{Price: price, Size: size})
	}
	return levels
}

func parsePositive(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Book returns a snapshot of an asset's current book.
func (s *Synchronizer) Book(assetID string) (types.OrderBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[assetID]
	if !ok {
		return types.OrderBook{}, false
	}
	return book.Clone(), true
}

// Books returns snapshots of all current books.
func (s *Synchronizer) Books() []types.OrderBook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.OrderBook, 0, len(s.books))
	for _, book := range s.books {
		out = append(out, book.Clone())
	}
	return out
}

// Subscribe returns a channel of book updates for one asset and a cancel
// function. Dropping a subscriber affects no one else and does not
// unsubscribe the asset from the venue.
func (s *Synchronizer) Subscribe(assetID string, buffer int) (<-chan types.OrderBook, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan types.OrderBook, buffer)
	if s.subs[assetID] == nil {
		s.subs[assetID] = make(map[int]chan types.OrderBook)
	}
	s.subs[assetID][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if chans, ok := s.subs[assetID]; ok {
			if existing, ok := chans[id]; ok {
				delete(chans, id)
				close(existing)
				if len(chans) == 0 {
					delete(s.subs, assetID)
				}
			}
		}
	}
	return ch, cancel
}

// broadcast delivers best-effort to each subscriber. Sends stay under the
// read lock: cancel closes channels under the write lock, so a channel seen
// here cannot be closed mid-send.
func (s *Synchronizer) broadcast(book *types.OrderBook) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subs[book.AssetID] {
		select {
		case ch <- *book:
		default:
			UpdatesDroppedTotal.Inc()
		}
	}
}
