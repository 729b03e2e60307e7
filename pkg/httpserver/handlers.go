package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/orderbook"
	"github.com/predictkit/predictkit/internal/tracker"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type orderbookHandler struct {
	books  *orderbook.Synchronizer
	logger *zap.Logger
}

func newOrderbookHandler(books *orderbook.Synchronizer, logger *zap.Logger) *orderbookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderbookHandler{books: books, logger: logger}
}

// handleOrderbook serves GET /api/orderbook?asset_id=<token>.
func (h *orderbookHandler) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset_id")
	if assetID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required query parameter: asset_id"})
		return
	}

	book, ok := h.books.Book(assetID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no book for asset"})
		return
	}

	h.logger.Debug("orderbook-request", zap.String("asset-id", assetID))
	writeJSON(w, http.StatusOK, book)
}

// handleOrderbooks serves GET /api/orderbooks with every synchronized book.
func (h *orderbookHandler) handleOrderbooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.books.Books())
}

type ordersHandler struct {
	tracker *tracker.Tracker
	logger  *zap.Logger
}

func newOrdersHandler(tr *tracker.Tracker, logger *zap.Logger) *ordersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ordersHandler{tracker: tr, logger: logger}
}

// handleOrders serves GET /api/orders with the currently tracked orders.
func (h *ordersHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.TrackedOrders())
}
