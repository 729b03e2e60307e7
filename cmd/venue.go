package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/exchange/polymarket"
	"github.com/predictkit/predictkit/pkg/config"
	"github.com/predictkit/predictkit/pkg/ratelimit"
	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/wallet"
)

// newVenueClient builds a Polymarket client from configuration. Commands
// that sign set requireSigner.
func newVenueClient(cfg *config.Config, logger *zap.Logger, requireSigner bool) (*polymarket.Client, error) {
	var signer wallet.Signer
	switch {
	case cfg.PrivateKey != "":
		s, err := wallet.NewSignerFromHex(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		signer = s
	case cfg.Mnemonic != "":
		s, err := wallet.NewSignerFromMnemonic(cfg.Mnemonic, cfg.DerivationPath)
		if err != nil {
			return nil, fmt.Errorf("derive key from mnemonic: %w", err)
		}
		signer = s
	case requireSigner:
		return nil, fmt.Errorf("%w: set PRIVATE_KEY or MNEMONIC", types.ErrInvalidInput)
	}

	return polymarket.New(polymarket.Config{
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
		MarketCacheTTL:    cfg.MarketCacheTTL,
		Logger:            logger,
	})
}
