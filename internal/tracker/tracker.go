// Package tracker follows open orders through their fill lifecycle and fans
// out fill events to interested consumers.
package tracker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/pkg/types"
)

// EventType classifies an order lifecycle event.
type EventType string

const (
	EventPartialFill EventType = "partial_fill"
	EventFilled      EventType = "filled"
	EventCancelled   EventType = "cancelled"
	EventRejected    EventType = "rejected"
	EventExpired     EventType = "expired"
)

// Terminal reports whether the event removes the order from tracking.
func (e EventType) Terminal() bool {
	return e != EventPartialFill
}

// Event is a single order lifecycle notification. Order is a snapshot taken
// at emission time; consumers may retain it freely.
type Event struct {
	Type     EventType
	Order    types.Order
	FillSize float64
}

// Callback receives lifecycle events synchronously.
type Callback func(Event)

type trackedOrder struct {
	order       types.Order
	totalFilled float64
	createdAt   time.Time
}

// Tracker is a registry of open orders keyed by order id. Fill and cancel
// notifications advance each order's state machine; Filled and Cancelled
// (and Rejected/Expired) are terminal and remove the order.
//
// Callbacks run synchronously in registration order, always outside the
// registry lock. Channel subscribers receive best-effort non-blocking sends.
type Tracker struct {
	mu        sync.RWMutex
	orders    map[string]*trackedOrder
	callbacks []Callback
	subs      map[int]chan Event
	nextSubID int
	logger    *zap.Logger
}

// New creates an empty Tracker.
func New(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		orders: make(map[string]*trackedOrder),
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Track registers an order. Tracking an already-tracked id is a no-op.
func (t *Tracker) Track(order types.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.orders[order.ID]; ok {
		return
	}

	t.orders[order.ID] = &trackedOrder{
		order:     order,
		createdAt: time.Now(),
	}
	ordersTracked.Inc()
	t.logger.Debug("order-tracked",
		zap.String("order_id", order.ID),
		zap.String("market_id", order.MarketID),
		zap.Float64("size", order.Size))
}

// Untrack removes an order without emitting any event.
func (t *Tracker) Untrack(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.orders, orderID)
}

// OnFill registers a callback for all lifecycle events. Callbacks run in
// registration order; a panicking callback propagates to the notifier.
func (t *Tracker) OnFill(cb Callback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

// Subscribe returns a channel of lifecycle events and a cancel function.
// Delivery is best-effort: events are dropped rather than blocking the
// notifier when the buffer is full.
func (t *Tracker) Subscribe(buffer int) (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSubID
	t.nextSubID++
	ch := make(chan Event, buffer)
	t.subs[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if existing, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// HandleTrade applies a fill to a tracked order. The order's price field is
// overwritten with the most recent fill price, not averaged. Reaching or
// exceeding the order size emits Filled and removes the order; otherwise a
// PartialFill is emitted. Unknown ids are ignored.
func (t *Tracker) HandleTrade(orderID string, fillSize, fillPrice float64) {
	t.mu.Lock()
	tracked, ok := t.orders[orderID]
	if !ok {
		t.mu.Unlock()
		return
	}

	tracked.totalFilled += fillSize
	tracked.order.Filled = tracked.totalFilled
	tracked.order.Price = fillPrice
	tracked.order.UpdatedAt = time.Now()

	var event Event
	if tracked.totalFilled >= tracked.order.Size {
		tracked.order.Status = types.OrderFilled
		event = Event{Type: EventFilled, Order: tracked.order, FillSize: fillSize}
		delete(t.orders, orderID)
	} else {
		tracked.order.Status = types.OrderPartiallyFilled
		event = Event{Type: EventPartialFill, Order: tracked.order, FillSize: fillSize}
	}
	t.mu.Unlock()

	fillsTotal.WithLabelValues(string(event.Type)).Inc()
	t.logger.Info("order-fill",
		zap.String("order_id", orderID),
		zap.Float64("fill_size", fillSize),
		zap.Float64("fill_price", fillPrice),
		zap.String("event", string(event.Type)))

	t.notify(event)
}

// HandleCancel emits Cancelled and removes the order. A cancel for an
// untracked id is a no-op and emits nothing.
func (t *Tracker) HandleCancel(orderID string) {
	t.terminate(orderID, EventCancelled, types.OrderCancelled)
}

// HandleReject emits Rejected and removes the order.
func (t *Tracker) HandleReject(orderID string) {
	t.terminate(orderID, EventRejected, types.OrderRejected)
}

// HandleExpire emits Expired and removes the order.
func (t *Tracker) HandleExpire(orderID string) {
	t.terminate(orderID, EventExpired, types.OrderExpired)
}

func (t *Tracker) terminate(orderID string, eventType EventType, status types.OrderStatus) {
	t.mu.Lock()
	tracked, ok := t.orders[orderID]
	if !ok {
		t.mu.Unlock()
		return
	}

	tracked.order.Status = status
	tracked.order.UpdatedAt = time.Now()
	event := Event{Type: eventType, Order: tracked.order}
	delete(t.orders, orderID)
	t.mu.Unlock()

	terminationsTotal.WithLabelValues(string(eventType)).Inc()
	t.logger.Info("order-terminated",
		zap.String("order_id", orderID),
		zap.String("event", string(eventType)))

	t.notify(event)
}

// notify must be called without holding the lock so callbacks can re-enter
// the tracker safely. Channel sends happen under the read lock: cancel
// closes channels under the write lock, so a channel seen here cannot be
// closed mid-send.
func (t *Tracker) notify(event Event) {
	t.mu.RLock()
	callbacks := make([]Callback, len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
			eventsDropped.Inc()
		}
	}
}

// TrackedOrders returns snapshots of all currently tracked orders.
func (t *Tracker) TrackedOrders() []types.Order {
	t.mu.RLock()
	defer t.mu.RUnlock()

	orders := make([]types.Order, 0, len(t.orders))
	for _, tracked := range t.orders {
		orders = append(orders, tracked.order)
	}
	return orders
}

// Get returns a snapshot of a single tracked order.
func (t *Tracker) Get(orderID string) (types.Order, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tracked, ok := t.orders[orderID]
	if !ok {
		return types.Order{}, false
	}
	return tracked.order, true
}

// TrackedCount returns the number of orders currently tracked.
func (t *Tracker) TrackedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.orders)
}

// Clear removes all tracked orders without emitting events.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders = make(map[string]*trackedOrder)
}
