package polymarket

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/pkg/cache"
	"github.com/predictkit/predictkit/pkg/ratelimit"
	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/wallet"
)

const (
	testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testTokenID    = "71321045679252212594626385532706912750332728571942532289631379312455583992563"
	testAPIKey     = "test-api-key"
	testPassphrase = "test-passphrase"
)

var testSecret = base64.URLEncoding.EncodeToString([]byte("test-hmac-secret-material"))

func testMarketJSON(id string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"question": "Will it happen?",
		"slug": "will-it-happen",
		"active": true,
		"closed": false,
		"negRisk": false,
		"outcomes": "[\"Yes\", \"No\"]",
		"clobTokenIds": "[\"%s\", \"888\"]",
		"orderPriceMinTickSize": 0.01,
		"orderMinSize": 5
	}`, id, testTokenID)
}

func newTestClient(t *testing.T, clob, gamma http.Handler, opts ...func(*Config)) *Client {
	t.Helper()

	clobSrv := httptest.NewServer(clob)
	t.Cleanup(clobSrv.Close)
	gammaSrv := httptest.NewServer(gamma)
	t.Cleanup(gammaSrv.Close)

	signer, err := wallet.NewSignerFromHex(testPrivateKey)
	require.NoError(t, err)

	cfg := Config{
		ClobURL:           clobSrv.URL,
		GammaURL:          gammaSrv.URL,
		APIKey:            testAPIKey,
		Secret:            testSecret,
		Passphrase:        testPassphrase,
		Signer:            signer,
		Limiter:           ratelimit.NewLimiter(0),
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)
	return client
}

func TestWithoutSignerMarketDataStillWorks(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	c := newTestClient(t, http.NotFoundHandler(), gamma, func(cfg *Config) {
		cfg.Signer = nil
	})

	_, err := c.FetchMarket(context.Background(), "mkt-1")
	require.NoError(t, err)

	_, err = c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = c.DeriveAPIKey(context.Background())
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestNewRejectsBadProxyAddress(t *testing.T) {
	signer, err := wallet.NewSignerFromHex(testPrivateKey)
	require.NoError(t, err)

	_, err = New(Config{Signer: signer, ProxyAddress: "not-an-address"})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDescribe(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), http.NotFoundHandler())
	caps := c.Describe()
	assert.True(t, caps.Streaming)
	assert.True(t, caps.NegRisk)
	assert.False(t, caps.YieldBearing)
}

func TestFetchMarketsMapsGammaFields(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "false", r.URL.Query().Get("closed"))
		require.Equal(t, "true", r.URL.Query().Get("active"))
		fmt.Fprintf(w, "[%s]", testMarketJSON("mkt-1"))
	})

	c := newTestClient(t, http.NotFoundHandler(), gamma)

	markets, err := c.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, "mkt-1", m.ID)
	assert.Equal(t, "will-it-happen", m.Slug)
	assert.Equal(t, 0.01, m.TickSize)
	assert.Equal(t, 5.0, m.MinOrderSize)
	assert.False(t, m.NegRisk)
	require.Len(t, m.Tokens, 2)
	assert.Equal(t, testTokenID, m.Tokens[0].TokenID)
	assert.Equal(t, "Yes", m.Tokens[0].Outcome)
	assert.Equal(t, "No", m.Tokens[1].Outcome)
}

func TestFetchMarketsPaginates(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset == 0 {
			// Full first page forces a second request.
			fmt.Fprint(w, "[")
			for i := 0; i < maxBatchSize; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprint(w, testMarketJSON(fmt.Sprintf("mkt-%d", i)))
			}
			fmt.Fprint(w, "]")
			return
		}
		fmt.Fprintf(w, "[%s]", testMarketJSON("mkt-last"))
	})

	c := newTestClient(t, http.NotFoundHandler(), gamma)

	markets, err := c.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, maxBatchSize+1)
	assert.Equal(t, "mkt-last", markets[maxBatchSize].ID)
}

func TestFetchMarketCachesResult(t *testing.T) {
	var hits atomic.Int64
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	ristretto, err := cache.NewRistrettoCache(nil)
	require.NoError(t, err)
	t.Cleanup(ristretto.Close)

	c := newTestClient(t, http.NotFoundHandler(), gamma, func(cfg *Config) {
		cfg.Cache = ristretto
		cfg.MarketCacheTTL = time.Minute
	})

	first, err := c.FetchMarket(context.Background(), "mkt-1")
	require.NoError(t, err)
	ristretto.Wait()

	second, err := c.FetchMarket(context.Background(), "mkt-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFetchMarketNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), http.NotFoundHandler())

	_, err := c.FetchMarket(context.Background(), "missing")
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func verifyL2Signature(t *testing.T, r *http.Request, body []byte) {
	t.Helper()

	require.Equal(t, testAPIKey, r.Header.Get("POLY_API_KEY"))
	require.Equal(t, testPassphrase, r.Header.Get("POLY_PASSPHRASE"))
	require.Equal(t, testAddress, r.Header.Get("POLY_ADDRESS"))

	timestamp := r.Header.Get("POLY_TIMESTAMP")
	require.NotEmpty(t, timestamp)

	secretBytes, err := base64.URLEncoding.DecodeString(testSecret)
	require.NoError(t, err)
	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(timestamp + r.Method + r.URL.Path + string(body)))
	expected := base64.URLEncoding.EncodeToString(h.Sum(nil))

	require.Equal(t, expected, r.Header.Get("POLY_SIGNATURE"))
}

func TestCreateOrderSubmitsSignedOrder(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	var captured map[string]json.RawMessage
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/order", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		verifyL2Signature(t, r, body)
		require.NoError(t, json.Unmarshal(body, &captured))

		fmt.Fprint(w, `{"success": true, "orderID": "0xabc", "status": "live"}`)
	})

	c := newTestClient(t, clob, gamma)

	order, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.65"),
		Size:     decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, "0xabc", order.ID)
	assert.Equal(t, "Yes", order.Outcome)
	assert.Equal(t, types.OrderOpen, order.Status)
	assert.Equal(t, 0.65, order.Price)
	assert.Equal(t, 10.0, order.Size)

	require.JSONEq(t, `"`+testAPIKey+`"`, string(captured["owner"]))
	require.JSONEq(t, `"GTC"`, string(captured["orderType"]))

	var wire signedOrderJSON
	require.NoError(t, json.Unmarshal(captured["order"], &wire))
	assert.Equal(t, testAddress, wire.Maker)
	assert.Equal(t, testAddress, wire.Signer)
	assert.Equal(t, testTokenID, wire.TokenID)
	assert.Equal(t, "6500000", wire.MakerAmount)
	assert.Equal(t, "10000000", wire.TakerAmount)
	assert.Equal(t, "BUY", wire.Side)
	assert.Equal(t, 0, wire.SignatureType)
	assert.Positive(t, wire.Salt)
	assert.Len(t, wire.Signature, 2+65*2)
}

func TestCreateOrderUsesProxyMaker(t *testing.T) {
	proxy := "0x00000000000000000000000000000000DeaDBeef"

	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})
	var wire signedOrderJSON
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var wrapper struct {
			Order signedOrderJSON `json:"order"`
		}
		require.NoError(t, json.Unmarshal(body, &wrapper))
		wire = wrapper.Order
		fmt.Fprint(w, `{"success": true, "orderID": "0xabc", "status": "live"}`)
	})

	c := newTestClient(t, clob, gamma, func(cfg *Config) {
		cfg.ProxyAddress = proxy
		cfg.SignatureType = types.SignaturePolyProxy
	})

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.Equal(t, proxy, wire.Maker)
	assert.Equal(t, testAddress, wire.Signer)
	assert.Equal(t, 1, wire.SignatureType)
}

func TestCreateOrderRejectionNotRetried(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	var attempts atomic.Int64
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid order"}`)
	})

	c := newTestClient(t, clob, gamma)

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrOrderRejected)
	assert.Equal(t, int64(1), attempts.Load())
}

func TestCreateOrderVenueErrorMsgIsRejection(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false, "errorMsg": "not enough balance"}`)
	})

	c := newTestClient(t, clob, gamma)

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrOrderRejected)
	assert.Contains(t, err.Error(), "not enough balance")
}

func TestCreateOrderRetriesServerErrors(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	var attempts atomic.Int64
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"success": true, "orderID": "0xabc", "status": "live"}`)
	})

	c := newTestClient(t, clob, gamma)

	order, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", order.ID)
	assert.Equal(t, int64(3), attempts.Load())
}

func TestCreateOrderRateLimitedExhaustsRetries(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	var attempts atomic.Int64
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	c := newTestClient(t, clob, gamma)

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrRateLimited)
	assert.Equal(t, int64(3), attempts.Load())
}

func TestCreateOrderRequiresCredentials(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})
	var clobHits atomic.Int64
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clobHits.Add(1)
	})

	c := newTestClient(t, clob, gamma, func(cfg *Config) {
		cfg.APIKey = ""
		cfg.Secret = ""
		cfg.Passphrase = ""
	})

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Equal(t, int64(0), clobHits.Load())
}

func TestCreateOrderRejectsForeignToken(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})

	c := newTestClient(t, http.NotFoundHandler(), gamma)

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  "999999",
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestCancelOrder(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/order", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		verifyL2Signature(t, r, body)

		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "0xabc", req["orderID"])

		fmt.Fprint(w, `{"canceled": ["0xabc"], "not_canceled": {}}`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())
	require.NoError(t, c.CancelOrder(context.Background(), "0xabc"))
}

func TestCancelOrderNotCanceled(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"canceled": [], "not_canceled": {"0xabc": "order already filled"}}`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())
	err := c.CancelOrder(context.Background(), "0xabc")
	require.ErrorIs(t, err, types.ErrOrderRejected)
	assert.Contains(t, err.Error(), "already filled")
}

func TestFetchOrder(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/order/0xabc", r.URL.Path)
		verifyL2Signature(t, r, nil)
		fmt.Fprint(w, `{
			"id": "0xabc", "status": "live", "market": "mkt-1",
			"outcome": "Yes", "side": "BUY",
			"price": "0.65", "original_size": "10", "size_matched": "4"
		}`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())

	order, err := c.FetchOrder(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, types.OrderPartiallyFilled, order.Status)
	assert.Equal(t, 0.65, order.Price)
	assert.Equal(t, 4.0, order.Filled)
	assert.Equal(t, 6.0, order.Remaining())
}

func TestOpenOrders(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/orders", r.URL.Path)
		verifyL2Signature(t, r, nil)
		fmt.Fprint(w, `[
			{"id": "0x1", "status": "live", "market": "mkt-1", "side": "BUY",
			 "price": "0.3", "original_size": "10", "size_matched": "0"},
			{"id": "0x2", "status": "live", "market": "mkt-2", "side": "SELL",
			 "price": "0.8", "original_size": "5", "size_matched": "5"}
		]`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())

	orders, err := c.OpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, types.Buy, orders[0].Side)
	assert.Equal(t, types.OrderOpen, orders[0].Status)
	assert.Equal(t, types.Sell, orders[1].Side)
	assert.Equal(t, types.OrderFilled, orders[1].Status)
}

func TestFetchOrderBookSortsAndFilters(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, testTokenID, r.URL.Query().Get("token_id"))
		fmt.Fprint(w, `{
			"market": "0xmarket", "asset_id": "`+testTokenID+`",
			"bids": [{"price": "0.40", "size": "100"}, {"price": "0.45", "size": "50"}, {"price": "0", "size": "10"}],
			"asks": [{"price": "0.60", "size": "30"}, {"price": "0.55", "size": "20"}]
		}`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())

	book, err := c.FetchOrderBook(context.Background(), testTokenID)
	require.NoError(t, err)

	require.Len(t, book.Bids, 2)
	assert.Equal(t, 0.45, book.Bids[0].Price)
	assert.Equal(t, 0.55, book.Asks[0].Price)

	mid, ok := book.MidPrice()
	require.True(t, ok)
	assert.InDelta(t, 0.5, mid, 1e-9)
}

func TestFetchPositionsSkipsEmpty(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, testAddress, r.URL.Query().Get("user"))
		fmt.Fprint(w, `[
			{"market": "mkt-1", "asset": "123", "outcome": "Yes", "size": 25, "avgPrice": 0.4, "value": 11, "cashPnl": 1},
			{"market": "mkt-2", "asset": "456", "outcome": "No", "size": 0}
		]`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())

	positions, err := c.FetchPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "mkt-1", positions[0].MarketID)
	assert.Equal(t, 25.0, positions[0].Size)
}

func TestDeriveAPIKey(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/derive-api-key", r.URL.Path)
		require.Equal(t, testAddress, r.Header.Get("POLY_ADDRESS"))
		require.Equal(t, "0", r.Header.Get("POLY_NONCE"))
		require.NotEmpty(t, r.Header.Get("POLY_TIMESTAMP"))

		sig := r.Header.Get("POLY_SIGNATURE")
		require.True(t, len(sig) == 2+65*2 && sig[:2] == "0x")

		fmt.Fprint(w, `{"apiKey": "derived-key", "secret": "`+testSecret+`", "passphrase": "derived-pass"}`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler(), func(cfg *Config) {
		cfg.APIKey = ""
		cfg.Secret = ""
		cfg.Passphrase = ""
	})

	creds, err := c.DeriveAPIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "derived-key", creds.APIKey)

	// Derived credentials are installed for subsequent authenticated calls.
	_, err = c.l2Headers(http.MethodGet, "/data/orders", nil)
	require.NoError(t, err)
}

func TestDeriveAPIKeySignatureIsDeterministicPerTimestamp(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), http.NotFoundHandler())

	sig1, err := c.clobAuthSignature(1700000000, 0)
	require.NoError(t, err)
	sig2, err := c.clobAuthSignature(1700000000, 0)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)

	sig3, err := c.clobAuthSignature(1700000001, 0)
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig3)
}

func TestLimiterCancellationPropagates(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), http.NotFoundHandler(), func(cfg *Config) {
		cfg.Limiter = ratelimit.NewLimiter(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	// First call consumes the slot, second blocks on the limiter.
	_ = c.limiter.Wait(ctx)
	cancel()

	_, err := c.OpenOrders(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFetchBalanceScalesCollateral(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/balance-allowance", r.URL.Path)
		require.Equal(t, "COLLATERAL", r.URL.Query().Get("asset_type"))
		require.Equal(t, testAPIKey, r.Header.Get("POLY_API_KEY"))
		verifyL2Signature(t, r, nil)
		fmt.Fprint(w, `{"balance": "125500000", "allowance": "1000000000"}`)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())

	balance, err := c.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 125.5, balance.Available)
	assert.Equal(t, 1000.0, balance.Allowance)
}

func TestFetchBalanceRequiresCredentials(t *testing.T) {
	hits := 0
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ })

	c := newTestClient(t, clob, http.NotFoundHandler(), func(cfg *Config) {
		cfg.APIKey = ""
	})

	_, err := c.FetchBalance(context.Background())
	require.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Zero(t, hits)
}

func TestCreateOrderRejectionCarriesVenueCode(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false, "errorMsg": "order rejected: INVALID_ORDER_NOT_ENOUGH_BALANCE"}`)
	})

	c := newTestClient(t, clob, gamma)

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrOrderRejected)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "polymarket", apiErr.Venue)
	assert.Equal(t, types.CodeNotEnoughBalance, apiErr.Code)
	assert.Contains(t, apiErr.Message, "INVALID_ORDER_NOT_ENOUGH_BALANCE")
}

func TestCreateOrderHTTPRejectionIsStructured(t *testing.T) {
	gamma := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testMarketJSON("mkt-1"))
	})
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "INVALID_ORDER_MIN_TICK_SIZE"}`)
	})

	c := newTestClient(t, clob, gamma)

	_, err := c.CreateOrder(context.Background(), exchange.OrderIntent{
		MarketID: "mkt-1",
		TokenID:  testTokenID,
		Side:     types.Buy,
		Price:    decimal.RequireFromString("0.5"),
		Size:     decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, types.ErrOrderRejected)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, types.CodeInvalidMinTickSize, apiErr.Code)
}

func TestServerErrorsAreConnectionClass(t *testing.T) {
	clob := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	c := newTestClient(t, clob, http.NotFoundHandler())

	_, err := c.OpenOrders(context.Background())
	require.ErrorIs(t, err, types.ErrConnection)

	_, err = c.FetchOrderBook(context.Background(), testTokenID)
	require.ErrorIs(t, err, types.ErrConnection)
}
