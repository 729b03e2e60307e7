package polymarket

import (
	"net/http"
	"strings"

	"github.com/predictkit/predictkit/pkg/types"
)

// statusSentinel classifies an unexpected HTTP status. 5xx is a venue-side
// failure on the connection class; anything else is a protocol surprise.
func statusSentinel(code int) error {
	if code >= http.StatusInternalServerError {
		return types.ErrConnection
	}
	return types.ErrProtocol
}

//nolint:gochecknoglobals // static venue error code table
var venueErrorCodes = []string{
	types.CodeInvalidMinTickSize,
	types.CodeNotEnoughBalance,
	types.CodeFOKNotFilled,
	types.CodeMarketNotReady,
}

// extractVenueCode pulls a known venue error code out of a rejection body.
func extractVenueCode(message string) string {
	for _, code := range venueErrorCodes {
		if strings.Contains(message, code) {
			return code
		}
	}
	return ""
}

// apiRejection wraps a venue decline in a structured APIError so callers can
// branch on the venue code while errors.Is(err, ErrOrderRejected) still
// holds.
func apiRejection(statusCode int, message string) error {
	return &types.APIError{
		Venue:      "polymarket",
		Code:       extractVenueCode(message),
		Message:    strings.TrimSpace(message),
		StatusCode: statusCode,
		Err:        types.ErrOrderRejected,
	}
}
