package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/internal/exchange/polymarket"
	"github.com/predictkit/predictkit/internal/markets"
	"github.com/predictkit/predictkit/internal/orderbook"
	"github.com/predictkit/predictkit/internal/storage"
	"github.com/predictkit/predictkit/internal/tracker"
	"github.com/predictkit/predictkit/pkg/cache"
	"github.com/predictkit/predictkit/pkg/config"
	"github.com/predictkit/predictkit/pkg/healthprobe"
	"github.com/predictkit/predictkit/pkg/httpserver"
	"github.com/predictkit/predictkit/pkg/ratelimit"
	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/wallet"
	"github.com/predictkit/predictkit/pkg/websocket"
)

// New creates an application instance from configuration.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{Logger: logger})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	registry := exchange.NewRegistry()
	metadata, err := setupVenue(cfg, logger, marketCache, registry)
	if err != nil {
		cancel()
		return nil, err
	}

	wsPool := setupStreamPool(cfg, logger)
	books := orderbook.New(logger)
	orderTracker := tracker.New(logger)

	fillStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Books:         books,
		Tracker:       orderTracker,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		registry:      registry,
		metadata:      metadata,
		wsPool:        wsPool,
		books:         books,
		tracker:       orderTracker,
		storage:       fillStorage,
		opts:          opts,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// setupVenue builds the Polymarket client when signing material is present.
// Without a key the app still streams books; order operations are simply
// unavailable.
func setupVenue(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache, registry *exchange.Registry) (*markets.Service, error) {
	signer, err := setupSigner(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup signer: %w", err)
	}
	if signer == nil {
		logger.Info("venue-disabled", zap.String("reason", "no private key or mnemonic configured"))
		return nil, nil
	}

	venue, err := polymarket.New(polymarket.Config{
		ClobURL:           cfg.ClobURL,
		GammaURL:          cfg.GammaURL,
		APIKey:            cfg.APIKey,
		Secret:            cfg.Secret,
		Passphrase:        cfg.Passphrase,
		Signer:            signer,
		ProxyAddress:      cfg.ProxyAddress,
		SignatureType:     types.SignatureType(cfg.SignatureType),
		ChainID:           cfg.ChainID,
		FeeRateBps:        cfg.FeeRateBps,
		Limiter:           ratelimit.NewLimiter(cfg.RequestsPerSecond),
		RetryMaxAttempts:  cfg.RetryMaxAttempts,
		RetryInitialDelay: cfg.RetryInitialDelay,
		Cache:             marketCache,
		MarketCacheTTL:    cfg.MarketCacheTTL,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("setup venue: %w", err)
	}
	if err := registry.Register(venue); err != nil {
		return nil, err
	}

	return markets.NewService(markets.Config{
		Exchange: venue,
		Cache:    marketCache,
		TTL:      cfg.MarketCacheTTL,
		Logger:   logger,
	})
}

func setupSigner(cfg *config.Config) (wallet.Signer, error) {
	switch {
	case cfg.PrivateKey != "":
		return wallet.NewSignerFromHex(cfg.PrivateKey)
	case cfg.Mnemonic != "":
		return wallet.NewSignerFromMnemonic(cfg.Mnemonic, cfg.DerivationPath)
	default:
		return nil, nil
	}
}

func setupStreamPool(cfg *config.Config, logger *zap.Logger) *websocket.Pool {
	return websocket.NewPool(websocket.PoolConfig{
		Size:                  cfg.WSPoolSize,
		URL:                   cfg.WSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		ReconnectMaxAttempts:  cfg.WSReconnectMaxAttempts,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		return storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return storage.NewConsoleStorage(logger), nil
}

// resolveAssetIDs expands the run options into the token ids to stream.
func (a *App) resolveAssetIDs(ctx context.Context) ([]string, error) {
	ids := append([]string(nil), a.opts.AssetIDs...)

	if len(a.opts.MarketIDs) > 0 {
		if a.metadata == nil {
			return nil, fmt.Errorf("%w: market lookups require a configured venue", types.ErrInvalidInput)
		}
		for _, marketID := range a.opts.MarketIDs {
			marketAssets, err := a.metadata.AssetIDs(ctx, marketID)
			if err != nil {
				return nil, fmt.Errorf("resolve market %s: %w", marketID, err)
			}
			ids = append(ids, marketAssets...)
		}
	}

	seen := make(map[string]struct{}, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique, nil
}
