// Package markets provides cached market metadata lookups over any venue.
package markets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/pkg/cache"
	"github.com/predictkit/predictkit/pkg/types"
)

const (
	// defaultTickSize is used when a venue does not report one.
	defaultTickSize = 0.01
	// defaultMinOrderSize is used when a venue does not report one.
	defaultMinOrderSize = 5.0
)

// Config holds dependencies for the metadata service.
type Config struct {
	Exchange exchange.Exchange
	Cache    cache.Cache
	TTL      time.Duration
	Logger   *zap.Logger
}

// Service answers metadata questions about markets: tick size, minimum order
// size, neg-risk flag, token lookup. Results are cached per market id.
type Service struct {
	ex     exchange.Exchange
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a metadata service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Exchange == nil {
		return nil, fmt.Errorf("%w: exchange is required", types.ErrInvalidInput)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		ex:     cfg.Exchange,
		cache:  cfg.Cache,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}, nil
}

// Market returns a market, from cache when fresh.
func (s *Service) Market(ctx context.Context, marketID string) (*types.Market, error) {
	key := s.ex.ID() + ":meta:" + marketID
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if m, ok := v.(*types.Market); ok {
				cacheHits.Inc()
				return m, nil
			}
		}
		cacheMisses.Inc()
	}

	m, err := s.ex.FetchMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, m, s.ttl)
	}
	s.logger.Debug("market-metadata-fetched",
		zap.String("market-id", marketID),
		zap.Bool("neg-risk", m.NegRisk))
	return m, nil
}

// TickSize returns a market's price tick, falling back to the venue default
// when the market does not report one.
func (s *Service) TickSize(ctx context.Context, marketID string) (float64, error) {
	m, err := s.Market(ctx, marketID)
	if err != nil {
		return 0, err
	}
	if m.TickSize <= 0 {
		return defaultTickSize, nil
	}
	return m.TickSize, nil
}

// MinOrderSize returns a market's minimum order size, with a default when
// unreported.
func (s *Service) MinOrderSize(ctx context.Context, marketID string) (float64, error) {
	m, err := s.Market(ctx, marketID)
	if err != nil {
		return 0, err
	}
	if m.MinOrderSize <= 0 {
		return defaultMinOrderSize, nil
	}
	return m.MinOrderSize, nil
}

// IsNegRisk reports whether the market settles through the neg-risk adapter.
func (s *Service) IsNegRisk(ctx context.Context, marketID string) (bool, error) {
	m, err := s.Market(ctx, marketID)
	if err != nil {
		return false, err
	}
	return m.NegRisk, nil
}

// Token resolves an outcome label to its token.
func (s *Service) Token(ctx context.Context, marketID, outcome string) (*types.Token, error) {
	m, err := s.Market(ctx, marketID)
	if err != nil {
		return nil, err
	}
	token := m.TokenByOutcome(outcome)
	if token == nil {
		return nil, fmt.Errorf("%w: market %s has no outcome %q", types.ErrInvalidInput, marketID, outcome)
	}
	return token, nil
}

// AssetIDs returns all token ids of a market, for stream subscriptions.
func (s *Service) AssetIDs(ctx context.Context, marketID string) ([]string, error) {
	m, err := s.Market(ctx, marketID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.Tokens))
	for i := range m.Tokens {
		ids = append(ids, m.Tokens[i].TokenID)
	}
	return ids, nil
}

// Invalidate drops a market from the cache so the next lookup refetches.
func (s *Service) Invalidate(marketID string) {
	if s.cache != nil {
		s.cache.Delete(s.ex.ID() + ":meta:" + marketID)
	}
}
