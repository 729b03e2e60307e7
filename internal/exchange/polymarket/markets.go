package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/pkg/types"
)

// gammaMarket is the Gamma API market shape. Outcomes and token ids arrive
// as JSON-encoded string arrays inside string fields.
type gammaMarket struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Active       bool      `json:"active"`
	Closed       bool      `json:"closed"`
	NegRisk      bool      `json:"negRisk"`
	Outcomes     string    `json:"outcomes"`
	ClobTokenIDs string    `json:"clobTokenIds"`
	TickSize     float64   `json:"orderPriceMinTickSize"`
	MinOrderSize float64   `json:"orderMinSize"`
	EndDate      time.Time `json:"endDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (g *gammaMarket) toMarket() types.Market {
	m := types.Market{
		ID:           g.ID,
		Slug:         g.Slug,
		Question:     g.Question,
		Description:  g.Description,
		Active:       g.Active,
		Closed:       g.Closed,
		TickSize:     g.TickSize,
		MinOrderSize: g.MinOrderSize,
		NegRisk:      g.NegRisk,
		EndDate:      g.EndDate,
		CreatedAt:    g.CreatedAt,
	}

	var outcomes, tokenIDs []string
	if json.Unmarshal([]byte(g.Outcomes), &outcomes) == nil &&
		json.Unmarshal([]byte(g.ClobTokenIDs), &tokenIDs) == nil {
		for i, outcome := range outcomes {
			if i < len(tokenIDs) {
				m.Tokens = append(m.Tokens, types.Token{
					TokenID: tokenIDs[i],
					Outcome: outcome,
				})
			}
		}
	}
	return m
}

const (
	marketsCacheKey      = "polymarket:markets"
	marketCacheKeyPrefix = "polymarket:market:"
)

// FetchMarkets returns all active markets, paginating the Gamma API and
// caching the aggregated list.
func (c *Client) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(marketsCacheKey); ok {
			if markets, ok := v.([]types.Market); ok {
				return markets, nil
			}
		}
	}

	var markets []types.Market
	for offset := 0; ; offset += maxBatchSize {
		page, err := c.fetchMarketsPage(ctx, maxBatchSize, offset)
		if err != nil {
			return nil, err
		}
		markets = append(markets, page...)
		if len(page) < maxBatchSize {
			break
		}
	}

	c.logger.Debug("fetched-markets", zap.Int("count", len(markets)))

	if c.cache != nil {
		c.cache.Set(marketsCacheKey, markets, c.cfg.MarketCacheTTL)
	}
	return markets, nil
}

func (c *Client) fetchMarketsPage(ctx context.Context, limit, offset int) ([]types.Market, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.gamma.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"closed": "false",
			"active": "true",
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		Get("/markets")
	if err != nil {
		requestsTotal.WithLabelValues("markets", "error").Inc()
		return nil, fmt.Errorf("%w: fetch markets: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("markets", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch markets: status %d: %s",
			statusSentinel(resp.StatusCode()), resp.StatusCode(), resp.String())
	}

	var raw []gammaMarket
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse markets: %v", types.ErrProtocol, err)
	}

	markets := make([]types.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, raw[i].toMarket())
	}
	return markets, nil
}

// FetchMarket returns one market by Gamma id.
func (c *Client) FetchMarket(ctx context.Context, marketID string) (*types.Market, error) {
	if marketID == "" {
		return nil, fmt.Errorf("%w: market id is empty", types.ErrInvalidInput)
	}

	cacheKey := marketCacheKeyPrefix + marketID
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey); ok {
			if m, ok := v.(*types.Market); ok {
				return m, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.gamma.R().
		SetContext(ctx).
		Get("/markets/" + marketID)
	if err != nil {
		requestsTotal.WithLabelValues("market", "error").Inc()
		return nil, fmt.Errorf("%w: fetch market %s: %v", types.ErrConnection, marketID, err)
	}
	requestsTotal.WithLabelValues("market", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: market %s not found", types.ErrInvalidInput, marketID)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch market %s: status %d: %s",
			statusSentinel(resp.StatusCode()), marketID, resp.StatusCode(), resp.String())
	}

	var raw gammaMarket
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse market %s: %v", types.ErrProtocol, marketID, err)
	}

	market := raw.toMarket()
	if c.cache != nil {
		c.cache.Set(cacheKey, &market, c.cfg.MarketCacheTTL)
	}
	return &market, nil
}

// FetchTickSize returns the minimum tick size for a token from the CLOB API.
func (c *Client) FetchTickSize(ctx context.Context, tokenID string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		Get("/tick-size")
	if err != nil {
		requestsTotal.WithLabelValues("tick-size", "error").Inc()
		return 0, fmt.Errorf("%w: fetch tick size: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("tick-size", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("%w: fetch tick size: status %d", statusSentinel(resp.StatusCode()), resp.StatusCode())
	}

	var data struct {
		MinimumTickSize float64 `json:"minimum_tick_size"`
	}
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return 0, fmt.Errorf("%w: parse tick size: %v", types.ErrProtocol, err)
	}
	return data.MinimumTickSize, nil
}
