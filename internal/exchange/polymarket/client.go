// Package polymarket implements the Exchange interface against the
// Polymarket CLOB and Gamma APIs. All venue JSON stays inside this package;
// callers only ever see canonical types.
package polymarket

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/internal/signing"
	"github.com/predictkit/predictkit/pkg/cache"
	"github.com/predictkit/predictkit/pkg/ratelimit"
	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/wallet"
)

const (
	// DefaultClobURL is the CLOB REST endpoint.
	DefaultClobURL = "https://clob.polymarket.com"
	// DefaultGammaURL is the market discovery endpoint.
	DefaultGammaURL = "https://gamma-api.polymarket.com"

	// DefaultChainID is Polygon mainnet.
	DefaultChainID = 137

	domainName    = "Polymarket CTF Exchange"
	domainVersion = "1"

	// Exchange contract addresses on Polygon mainnet.
	ctfExchangeAddress        = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	negRiskCTFExchangeAddress = "0xC5d563A36AE78145C45a50134d48A1215220f80a"

	// maxBatchSize is the largest page the Gamma API serves per request,
	// matching the official Python client.
	maxBatchSize = 100
)

// Config holds everything the client needs. Market data works without
// credentials; orders and positions need a Signer, and L2 API credentials
// may be derived later via DeriveAPIKey.
type Config struct {
	ClobURL  string
	GammaURL string

	APIKey     string
	Secret     string
	Passphrase string

	Signer        wallet.Signer
	ProxyAddress  string
	SignatureType types.SignatureType

	ChainID    int64
	FeeRateBps int64

	Limiter           *ratelimit.Limiter
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration

	Cache          cache.Cache
	MarketCacheTTL time.Duration

	Logger *zap.Logger
}

// Client is the Polymarket venue implementation.
type Client struct {
	cfg     Config
	clob    *resty.Client
	gamma   *resty.Client
	builder *signing.Builder
	limiter *ratelimit.Limiter
	cache   cache.Cache
	logger  *zap.Logger
}

var _ exchange.Exchange = (*Client)(nil)

// New creates a Polymarket client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.ProxyAddress != "" && !common.IsHexAddress(cfg.ProxyAddress) {
		return nil, fmt.Errorf("%w: proxy address %q is not a hex address", types.ErrInvalidInput, cfg.ProxyAddress)
	}
	if cfg.ClobURL == "" {
		cfg.ClobURL = DefaultClobURL
	}
	if cfg.GammaURL == "" {
		cfg.GammaURL = DefaultGammaURL
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = DefaultChainID
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 1
	}
	if cfg.RetryInitialDelay <= 0 {
		cfg.RetryInitialDelay = 250 * time.Millisecond
	}
	if cfg.MarketCacheTTL <= 0 {
		cfg.MarketCacheTTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter(0)
	}

	scaler, err := signing.NewAmountScaler(signing.DefaultScaleParams())
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		clob:    newRestyClient(cfg.ClobURL),
		gamma:   newRestyClient(cfg.GammaURL),
		builder: signing.NewBuilder(scaler),
		limiter: cfg.Limiter,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}, nil
}

func newRestyClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "predictkit/1.0")
}

// ID returns the venue identifier.
func (c *Client) ID() string { return "polymarket" }

// Name returns the venue display name.
func (c *Client) Name() string { return "Polymarket" }

// Describe reports supported capabilities.
func (c *Client) Describe() exchange.Capabilities {
	return exchange.Capabilities{
		Streaming: true,
		Positions: true,
		NegRisk:   true,
	}
}

// domainParams returns the signing domain for a market's contract flags.
// Polymarket has no yield-bearing contracts, so that slot stays zero and
// yield-bearing markets are rejected at signing time.
func (c *Client) domainParams(negRisk bool) signing.DomainParams {
	return signing.DomainParams{
		Name:    domainName,
		Version: domainVersion,
		ChainID: c.cfg.ChainID,
		Contracts: signing.ContractSet{
			Standard: common.HexToAddress(ctfExchangeAddress),
			NegRisk:  common.HexToAddress(negRiskCTFExchangeAddress),
		},
		NegRisk: negRisk,
	}
}

// makerAddress returns the funding address for orders: the proxy wallet when
// configured, otherwise the signing key's own address.
func (c *Client) makerAddress() common.Address {
	if c.cfg.ProxyAddress != "" {
		return common.HexToAddress(c.cfg.ProxyAddress)
	}
	return c.cfg.Signer.Address()
}
