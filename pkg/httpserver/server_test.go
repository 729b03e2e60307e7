package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/orderbook"
	"github.com/predictkit/predictkit/internal/tracker"
	"github.com/predictkit/predictkit/pkg/healthprobe"
	"github.com/predictkit/predictkit/pkg/types"
)

func newTestServer(t *testing.T) (*Server, *orderbook.Synchronizer, *tracker.Tracker) {
	t.Helper()

	books := orderbook.New(zap.NewNop())
	tr := tracker.New(zap.NewNop())
	hc := healthprobe.New()
	hc.SetReady(true)

	srv := New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: hc,
		Books:         books,
		Tracker:       tr,
	})
	return srv, books, tr
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv, "/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected metrics output")
	}
}

func TestOrderbookEndpointRequiresAssetID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv, "/api/orderbook")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestOrderbookEndpointNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv, "/api/orderbook?asset_id=unknown")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestOrderbookEndpointReturnsBook(t *testing.T) {
	srv, books, _ := newTestServer(t)

	books.Apply(json.RawMessage(`{
		"event_type": "book",
		"asset_id": "123",
		"market": "0xmarket",
		"bids": [{"price": "0.45", "size": "100"}],
		"asks": [{"price": "0.55", "size": "80"}]
	}`))

	rec := get(t, srv, "/api/orderbook?asset_id=123")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var book types.OrderBook
	if err := json.Unmarshal(rec.Body.Bytes(), &book); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if book.AssetID != "123" {
		t.Errorf("expected asset 123, got %s", book.AssetID)
	}
	if len(book.Bids) != 1 || book.Bids[0].Price != 0.45 {
		t.Errorf("unexpected bids: %+v", book.Bids)
	}
}

func TestOrderbooksEndpoint(t *testing.T) {
	srv, books, _ := newTestServer(t)

	books.Apply(json.RawMessage(`{"event_type": "book", "asset_id": "1", "market": "m", "bids": [], "asks": []}`))
	books.Apply(json.RawMessage(`{"event_type": "book", "asset_id": "2", "market": "m", "bids": [], "asks": []}`))

	rec := get(t, srv, "/api/orderbooks")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var all []types.OrderBook
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 books, got %d", len(all))
	}
}

func TestOrdersEndpoint(t *testing.T) {
	srv, _, tr := newTestServer(t)

	tr.Track(types.Order{ID: "order-1", MarketID: "mkt-1", Size: 10, Status: types.OrderOpen})

	rec := get(t, srv, "/api/orders")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var orders []types.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "order-1" {
		t.Errorf("unexpected orders: %+v", orders)
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
