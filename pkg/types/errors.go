package types

import (
	"errors"
	"fmt"
)

// Error taxonomy. Components wrap these sentinels with %w so callers can
// branch with errors.Is regardless of how deep the failure originated.
var (
	// ErrInvalidInput marks caller errors (bad price, size, token id).
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSigningFailed marks key-material or signing backend failures.
	// Fatal, never retried.
	ErrSigningFailed = errors.New("signing failed")

	// ErrConnection marks transport-level failures. These feed the reconnect
	// loop when auto-reconnect is enabled.
	ErrConnection = errors.New("connection error")

	// ErrProtocol marks malformed inbound messages. Logged and skipped per
	// message; never tears down a connection.
	ErrProtocol = errors.New("protocol error")

	// ErrRateLimited marks a server-side throttle response so callers can
	// apply their own backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrOrderRejected marks a venue declining an order. Never auto-retried:
	// blind resubmission risks duplicate execution.
	ErrOrderRejected = errors.New("order rejected")
)

// APIError is a structured venue API failure, carrying the venue's error
// code alongside the taxonomy sentinel it wraps.
type APIError struct {
	Venue      string
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s api error (%s): %s", e.Venue, e.Code, e.Message)
	}
	return fmt.Sprintf("%s api error (status %d): %s", e.Venue, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Known venue error codes that map onto the taxonomy.
const (
	CodeInvalidMinTickSize = "INVALID_ORDER_MIN_TICK_SIZE"
	CodeNotEnoughBalance   = "INVALID_ORDER_NOT_ENOUGH_BALANCE"
	CodeFOKNotFilled       = "FOK_ORDER_NOT_FILLED_ERROR"
	CodeMarketNotReady     = "MARKET_NOT_READY"
)
