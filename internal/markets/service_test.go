package markets

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/pkg/cache"
	"github.com/predictkit/predictkit/pkg/types"
)

type fakeExchange struct {
	exchange.Exchange
	fetchCount atomic.Int64
	market     *types.Market
	err        error
}

func (f *fakeExchange) ID() string { return "fake" }

func (f *fakeExchange) FetchMarket(ctx context.Context, marketID string) (*types.Market, error) {
	f.fetchCount.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.market, nil
}

func testMarket() *types.Market {
	return &types.Market{
		ID:           "mkt-1",
		TickSize:     0.001,
		MinOrderSize: 15,
		NegRisk:      true,
		Tokens: []types.Token{
			{TokenID: "111", Outcome: "Yes"},
			{TokenID: "222", Outcome: "No"},
		},
	}
}

func newTestService(t *testing.T, ex exchange.Exchange, withCache bool) *Service {
	t.Helper()

	cfg := Config{Exchange: ex, TTL: time.Minute}
	if withCache {
		ristretto, err := cache.NewRistrettoCache(nil)
		require.NoError(t, err)
		t.Cleanup(ristretto.Close)
		cfg.Cache = ristretto
	}

	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresExchange(t *testing.T) {
	_, err := NewService(Config{})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestMarketCachesLookups(t *testing.T) {
	ex := &fakeExchange{market: testMarket()}
	svc := newTestService(t, ex, true)

	m, err := svc.Market(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, "mkt-1", m.ID)

	svc.cache.(*cache.RistrettoCache).Wait()

	_, err = svc.Market(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ex.fetchCount.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	ex := &fakeExchange{market: testMarket()}
	svc := newTestService(t, ex, true)

	_, err := svc.Market(context.Background(), "mkt-1")
	require.NoError(t, err)
	svc.cache.(*cache.RistrettoCache).Wait()

	svc.Invalidate("mkt-1")

	_, err = svc.Market(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ex.fetchCount.Load())
}

func TestTickSizeDefaultsWhenUnreported(t *testing.T) {
	m := testMarket()
	m.TickSize = 0
	svc := newTestService(t, &fakeExchange{market: m}, false)

	tick, err := svc.TickSize(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, defaultTickSize, tick)
}

func TestTickSizeFromMarket(t *testing.T) {
	svc := newTestService(t, &fakeExchange{market: testMarket()}, false)

	tick, err := svc.TickSize(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, 0.001, tick)
}

func TestMinOrderSizeDefaultsWhenUnreported(t *testing.T) {
	m := testMarket()
	m.MinOrderSize = 0
	svc := newTestService(t, &fakeExchange{market: m}, false)

	size, err := svc.MinOrderSize(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, defaultMinOrderSize, size)
}

func TestIsNegRisk(t *testing.T) {
	svc := newTestService(t, &fakeExchange{market: testMarket()}, false)

	negRisk, err := svc.IsNegRisk(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.True(t, negRisk)
}

func TestTokenResolvesOutcome(t *testing.T) {
	svc := newTestService(t, &fakeExchange{market: testMarket()}, false)

	token, err := svc.Token(context.Background(), "mkt-1", "YES")
	require.NoError(t, err)
	assert.Equal(t, "111", token.TokenID)

	_, err = svc.Token(context.Background(), "mkt-1", "Maybe")
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestAssetIDs(t *testing.T) {
	svc := newTestService(t, &fakeExchange{market: testMarket()}, false)

	ids, err := svc.AssetIDs(context.Background(), "mkt-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, ids)
}

func TestMarketPropagatesVenueError(t *testing.T) {
	svc := newTestService(t, &fakeExchange{err: types.ErrConnection}, false)

	_, err := svc.Market(context.Background(), "mkt-1")
	require.ErrorIs(t, err, types.ErrConnection)
}
