// Package storage persists order fill events.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/predictkit/predictkit/internal/tracker"
)

// FillRecord is one persisted order lifecycle event.
type FillRecord struct {
	ID         string
	OrderID    string
	MarketID   string
	Outcome    string
	Side       string
	Event      string
	Price      float64
	FillSize   float64
	FilledSize float64
	OrderSize  float64
	RecordedAt time.Time
}

// Storage is the sink for fill records.
type Storage interface {
	// StoreFill persists one fill record.
	StoreFill(ctx context.Context, record *FillRecord) error

	// Close releases storage resources.
	Close() error
}

// RecordFromEvent converts a tracker event into a fill record with a fresh
// record id.
func RecordFromEvent(ev tracker.Event) *FillRecord {
	order := ev.Order
	return &FillRecord{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		MarketID:   order.MarketID,
		Outcome:    order.Outcome,
		Side:       order.Side.String(),
		Event:      string(ev.Type),
		Price:      order.Price,
		FillSize:   ev.FillSize,
		FilledSize: order.Filled,
		OrderSize:  order.Size,
		RecordedAt: time.Now().UTC(),
	}
}
