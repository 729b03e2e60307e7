package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/internal/signing"
	"github.com/predictkit/predictkit/pkg/ratelimit"
	"github.com/predictkit/predictkit/pkg/types"
)

// signedOrderJSON is the CLOB wire shape of a signed order. Salt is a bare
// integer; every other numeric field is a string.
type signedOrderJSON struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Side          string `json:"side"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

func toSignedOrderJSON(o *types.SignedOrder) signedOrderJSON {
	return signedOrderJSON{
		Salt:          o.Salt.Int64(),
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       o.TokenID,
		MakerAmount:   o.MakerAmount.String(),
		TakerAmount:   o.TakerAmount.String(),
		Side:          o.Side.String(),
		Expiration:    o.Expiration.String(),
		Nonce:         o.Nonce.String(),
		FeeRateBps:    o.FeeRateBps.String(),
		SignatureType: int(o.SignatureType),
		Signature:     o.Signature,
	}
}

type orderResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
}

// openOrderJSON is one order from the CLOB data API.
type openOrderJSON struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Outcome      string `json:"outcome"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	CreatedAt    int64  `json:"created_at"`
}

func (o *openOrderJSON) toOrder() types.Order {
	price, _ := strconv.ParseFloat(o.Price, 64)
	size, _ := strconv.ParseFloat(o.OriginalSize, 64)
	filled, _ := strconv.ParseFloat(o.SizeMatched, 64)

	side := types.Buy
	if o.Side == "SELL" {
		side = types.Sell
	}

	order := types.Order{
		ID:       o.ID,
		MarketID: o.Market,
		Outcome:  o.Outcome,
		Side:     side,
		Price:    price,
		Size:     size,
		Filled:   filled,
		Status:   mapOrderStatus(o.Status, filled, size),
	}
	if o.CreatedAt > 0 {
		order.CreatedAt = time.Unix(o.CreatedAt, 0).UTC()
	}
	return order
}

func mapOrderStatus(status string, filled, size float64) types.OrderStatus {
	switch status {
	case "live":
		if size > 0 && filled >= size {
			return types.OrderFilled
		}
		if filled > 0 {
			return types.OrderPartiallyFilled
		}
		return types.OrderOpen
	case "matched":
		return types.OrderFilled
	case "canceled", "cancelled":
		return types.OrderCancelled
	case "delayed", "unmatched":
		return types.OrderPending
	default:
		return types.OrderOpen
	}
}

// CreateOrder builds, signs and submits a GTC limit order. Transient
// failures (network, 5xx, 429) are retried; a venue rejection is returned
// as ErrOrderRejected without a retry.
func (c *Client) CreateOrder(ctx context.Context, intent exchange.OrderIntent) (*types.Order, error) {
	if c.cfg.Signer == nil {
		return nil, fmt.Errorf("%w: no signing key configured", types.ErrInvalidInput)
	}

	market, err := c.FetchMarket(ctx, intent.MarketID)
	if err != nil {
		return nil, err
	}
	if market.YieldBearing {
		return nil, fmt.Errorf("%w: yield-bearing markets are not supported on polymarket", types.ErrInvalidInput)
	}

	tokenID := intent.TokenID
	outcome := ""
	for i := range market.Tokens {
		if market.Tokens[i].TokenID == tokenID {
			outcome = market.Tokens[i].Outcome
			break
		}
	}
	if outcome == "" {
		return nil, fmt.Errorf("%w: token %s does not belong to market %s",
			types.ErrInvalidInput, tokenID, intent.MarketID)
	}

	feeRateBps := intent.FeeRateBps
	if feeRateBps == 0 {
		feeRateBps = c.cfg.FeeRateBps
	}

	req := signing.OrderRequest{
		TokenID:       tokenID,
		Price:         intent.Price,
		Size:          intent.Size,
		Side:          intent.Side,
		FeeRateBps:    feeRateBps,
		Expiration:    intent.Expiration,
		Nonce:         intent.Nonce,
		Maker:         c.makerAddress(),
		SignatureType: c.cfg.SignatureType,
	}

	signed, err := c.builder.BuildSignedOrder(req, c.domainParams(market.NegRisk), c.cfg.Signer)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]interface{}{
		"order":     toSignedOrderJSON(signed),
		"owner":     c.cfg.APIKey,
		"orderType": "GTC",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	// Surface credential problems before the retry loop; they never heal.
	if _, err := c.l2Headers(http.MethodPost, "/order", body); err != nil {
		return nil, err
	}

	var (
		result    orderResponse
		rejection error
	)
	err = ratelimit.Retry(ctx, c.cfg.RetryMaxAttempts, c.cfg.RetryInitialDelay, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		// Fresh timestamp per attempt.
		headers, err := c.l2Headers(http.MethodPost, "/order", body)
		if err != nil {
			return err
		}

		resp, err := c.clob.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeaders(headers).
			SetBody(body).
			Post("/order")
		if err != nil {
			requestsTotal.WithLabelValues("order", "error").Inc()
			return fmt.Errorf("%w: submit order: %v", types.ErrConnection, err)
		}
		requestsTotal.WithLabelValues("order", strconv.Itoa(resp.StatusCode())).Inc()

		switch {
		case resp.StatusCode() == http.StatusTooManyRequests:
			return fmt.Errorf("%w: submit order", types.ErrRateLimited)
		case resp.StatusCode() >= http.StatusInternalServerError:
			return fmt.Errorf("%w: submit order: status %d", types.ErrConnection, resp.StatusCode())
		case resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated:
			rejection = apiRejection(resp.StatusCode(), resp.String())
			return nil
		}

		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return fmt.Errorf("%w: parse order response: %v", types.ErrProtocol, err)
		}
		if !result.Success {
			rejection = apiRejection(resp.StatusCode(), result.ErrorMsg)
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		ordersRejectedTotal.Inc()
		return nil, rejection
	}

	ordersSubmittedTotal.Inc()

	price, _ := intent.Price.Float64()
	size, _ := intent.Size.Float64()

	c.logger.Info("order-submitted",
		zap.String("order-id", result.OrderID),
		zap.String("market-id", intent.MarketID),
		zap.String("side", intent.Side.String()),
		zap.Float64("price", price),
		zap.Float64("size", size))

	return &types.Order{
		ID:        result.OrderID,
		MarketID:  intent.MarketID,
		Outcome:   outcome,
		Side:      intent.Side,
		Price:     price,
		Size:      size,
		Status:    mapOrderStatus(result.Status, 0, size),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CancelOrder cancels an open order by id.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("%w: order id is empty", types.ErrInvalidInput)
	}

	body, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return fmt.Errorf("marshal cancel: %w", err)
	}

	headers, err := c.l2Headers(http.MethodDelete, "/order", body)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers).
		SetBody(body).
		Delete("/order")
	if err != nil {
		requestsTotal.WithLabelValues("cancel", "error").Inc()
		return fmt.Errorf("%w: cancel order: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("cancel", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: cancel order: status %d: %s",
			statusSentinel(resp.StatusCode()), resp.StatusCode(), resp.String())
	}

	var result struct {
		Canceled    []string          `json:"canceled"`
		NotCanceled map[string]string `json:"not_canceled"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("%w: parse cancel response: %v", types.ErrProtocol, err)
	}
	if reason, ok := result.NotCanceled[orderID]; ok {
		return fmt.Errorf("%w: cancel %s: %s", types.ErrOrderRejected, orderID, reason)
	}

	c.logger.Info("order-cancelled", zap.String("order-id", orderID))
	return nil
}

// FetchOrder returns one of the caller's orders by id.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*types.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", types.ErrInvalidInput)
	}

	path := "/data/order/" + orderID
	headers, err := c.l2Headers(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(path)
	if err != nil {
		requestsTotal.WithLabelValues("order-get", "error").Inc()
		return nil, fmt.Errorf("%w: fetch order: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("order-get", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: order %s not found", types.ErrInvalidInput, orderID)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch order: status %d", statusSentinel(resp.StatusCode()), resp.StatusCode())
	}

	var raw openOrderJSON
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse order: %v", types.ErrProtocol, err)
	}

	order := raw.toOrder()
	return &order, nil
}

// OpenOrders returns the caller's currently open orders.
func (c *Client) OpenOrders(ctx context.Context) ([]types.Order, error) {
	headers, err := c.l2Headers(http.MethodGet, "/data/orders", nil)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get("/data/orders")
	if err != nil {
		requestsTotal.WithLabelValues("orders", "error").Inc()
		return nil, fmt.Errorf("%w: fetch open orders: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("orders", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch open orders: status %d", statusSentinel(resp.StatusCode()), resp.StatusCode())
	}

	var raw []openOrderJSON
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse open orders: %v", types.ErrProtocol, err)
	}

	orders := make([]types.Order, 0, len(raw))
	for i := range raw {
		orders = append(orders, raw[i].toOrder())
	}
	return orders, nil
}

// bookLevelJSON is one price level from the /book endpoint.
type bookLevelJSON struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// FetchOrderBook returns a REST snapshot of an asset's book.
func (c *Client) FetchOrderBook(ctx context.Context, assetID string) (*types.OrderBook, error) {
	if assetID == "" {
		return nil, fmt.Errorf("%w: asset id is empty", types.ErrInvalidInput)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetQueryParam("token_id", assetID).
		Get("/book")
	if err != nil {
		requestsTotal.WithLabelValues("book", "error").Inc()
		return nil, fmt.Errorf("%w: fetch book: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("book", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch book: status %d", statusSentinel(resp.StatusCode()), resp.StatusCode())
	}

	var raw struct {
		Market  string          `json:"market"`
		AssetID string          `json:"asset_id"`
		Bids    []bookLevelJSON `json:"bids"`
		Asks    []bookLevelJSON `json:"asks"`
	}
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse book: %v", types.ErrProtocol, err)
	}

	book := &types.OrderBook{
		MarketID:  raw.Market,
		AssetID:   raw.AssetID,
		Bids:      parseBookLevels(raw.Bids),
		Asks:      parseBookLevels(raw.Asks),
		Timestamp: time.Now().UTC(),
	}
	book.SortLevels()
	return book, nil
}

func parseBookLevels(raw []bookLevelJSON) []types.PriceLevel {
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

// FetchPositions returns the maker address's open positions.
func (c *Client) FetchPositions(ctx context.Context) ([]types.Position, error) {
	if c.cfg.Signer == nil {
		return nil, fmt.Errorf("%w: no signing key configured", types.ErrInvalidInput)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw []struct {
		Market   string  `json:"market"`
		AssetID  string  `json:"asset"`
		Outcome  string  `json:"outcome"`
		Size     float64 `json:"size"`
		AvgPrice float64 `json:"avgPrice"`
		Value    float64 `json:"value"`
		CashPnL  float64 `json:"cashPnl"`
	}
	resp, err := c.clob.R().
		SetContext(ctx).
		SetQueryParam("user", c.makerAddress().Hex()).
		Get("/positions")
	if err != nil {
		requestsTotal.WithLabelValues("positions", "error").Inc()
		return nil, fmt.Errorf("%w: fetch positions: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("positions", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch positions: status %d", statusSentinel(resp.StatusCode()), resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse positions: %v", types.ErrProtocol, err)
	}

	positions := make([]types.Position, 0, len(raw))
	for _, p := range raw {
		if p.Size <= 0 {
			continue
		}
		positions = append(positions, types.Position{
			MarketID:     p.Market,
			TokenID:      p.AssetID,
			Outcome:      p.Outcome,
			Size:         p.Size,
			AvgPrice:     p.AvgPrice,
			CurrentValue: p.Value,
			CashPnL:      p.CashPnL,
		})
	}
	return positions, nil
}
