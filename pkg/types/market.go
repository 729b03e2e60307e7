package types

import "time"

// Token is a single outcome token of a market.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price,omitempty"`
}

// Market is the canonical market record shared across venues. Venue adapters
// map their native JSON into this shape; nothing downstream sees raw venue
// responses.
type Market struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Question     string    `json:"question"`
	Description  string    `json:"description,omitempty"`
	Active       bool      `json:"active"`
	Closed       bool      `json:"closed"`
	Tokens       []Token   `json:"tokens"`
	TickSize     float64   `json:"tick_size"`
	MinOrderSize float64   `json:"min_order_size"`
	NegRisk      bool      `json:"neg_risk"`
	YieldBearing bool      `json:"yield_bearing"`
	EndDate      time.Time `json:"end_date,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// TokenByOutcome returns the token for an outcome, case-insensitively
// matching YES/Yes and NO/No style labels.
func (m *Market) TokenByOutcome(outcome string) *Token {
	for i := range m.Tokens {
		got := m.Tokens[i].Outcome
		if got == outcome ||
			(outcome == "YES" && got == "Yes") ||
			(outcome == "NO" && got == "No") {
			return &m.Tokens[i]
		}
	}
	return nil
}

// Balance is the venue-side collateral balance available for trading.
// Amounts are decimals in collateral units, not on-chain fixed point.
type Balance struct {
	Available float64 `json:"available"`
	Allowance float64 `json:"allowance"`
}

// Position is an open position in an outcome token.
type Position struct {
	MarketID     string  `json:"market_id"`
	TokenID      string  `json:"token_id"`
	Outcome      string  `json:"outcome"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentValue float64 `json:"current_value"`
	CashPnL      float64 `json:"cash_pnl"`
}

// Trade is a single execution against one of our orders.
type Trade struct {
	OrderID   string    `json:"order_id"`
	MarketID  string    `json:"market_id"`
	TokenID   string    `json:"token_id"`
	Outcome   string    `json:"outcome"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}
