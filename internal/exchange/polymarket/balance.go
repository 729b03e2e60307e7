package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/predictkit/predictkit/pkg/types"
)

// Collateral amounts on the wire are fixed point with 6 decimals.
const collateralDecimals = 1e6

// FetchBalance returns the collateral available for trading and the amount
// approved for the exchange contract.
func (c *Client) FetchBalance(ctx context.Context) (*types.Balance, error) {
	headers, err := c.l2Headers(http.MethodGet, "/balance-allowance", nil)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParam("asset_type", "COLLATERAL").
		Get("/balance-allowance")
	if err != nil {
		requestsTotal.WithLabelValues("balance", "error").Inc()
		return nil, fmt.Errorf("%w: fetch balance: %v", types.ErrConnection, err)
	}
	requestsTotal.WithLabelValues("balance", strconv.Itoa(resp.StatusCode())).Inc()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch balance: status %d", statusSentinel(resp.StatusCode()), resp.StatusCode())
	}

	var raw struct {
		Balance   string `json:"balance"`
		Allowance string `json:"allowance"`
	}
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse balance: %v", types.ErrProtocol, err)
	}

	return &types.Balance{
		Available: parseCollateral(raw.Balance),
		Allowance: parseCollateral(raw.Allowance),
	}, nil
}

func parseCollateral(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v / collateralDecimals
}
