package polymarket

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	json "github.com/goccy/go-json"

	"github.com/predictkit/predictkit/pkg/types"
)

const clobAuthMessage = "This message attests that I control the given wallet"

// APICredentials are the L2 credentials returned by the derive-api-key flow.
type APICredentials struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// l2Headers builds the HMAC auth headers for an authenticated CLOB request.
// The secret is URL-safe base64, matching the official Python client.
func (c *Client) l2Headers(method, requestPath string, body []byte) (map[string]string, error) {
	if c.cfg.Signer == nil {
		return nil, fmt.Errorf("%w: no signing key configured", types.ErrInvalidInput)
	}
	if c.cfg.APIKey == "" || c.cfg.Secret == "" || c.cfg.Passphrase == "" {
		return nil, fmt.Errorf("%w: api credentials not configured", types.ErrInvalidInput)
	}

	secretBytes, err := base64.URLEncoding.DecodeString(c.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode api secret: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(timestamp + method + requestPath + string(body)))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	return map[string]string{
		"POLY_API_KEY":    c.cfg.APIKey,
		"POLY_SIGNATURE":  signature,
		"POLY_TIMESTAMP":  timestamp,
		"POLY_PASSPHRASE": c.cfg.Passphrase,
		"POLY_ADDRESS":    c.cfg.Signer.Address().Hex(),
	}, nil
}

// clobAuthSignature signs the EIP-712 ClobAuth attestation used by the L1
// auth endpoints.
func (c *Client) clobAuthSignature(timestamp, nonce int64) (string, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": []apitypes.Type{
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    "ClobAuthDomain",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(c.cfg.ChainID),
		},
		Message: map[string]interface{}{
			"address":   c.cfg.Signer.Address().Hex(),
			"timestamp": strconv.FormatInt(timestamp, 10),
			"nonce":     strconv.FormatInt(nonce, 10),
			"message":   clobAuthMessage,
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("%w: hash auth domain: %v", types.ErrSigningFailed, err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return "", fmt.Errorf("%w: hash auth message: %v", types.ErrSigningFailed, err)
	}

	digest := crypto.Keccak256(append(append([]byte{0x19, 0x01}, domainSeparator...), messageHash...))
	sig, err := c.cfg.Signer.SignHash(digest)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

// DeriveAPIKey derives (or retrieves) L2 API credentials for the signing key
// and stores them on the client for subsequent authenticated calls.
func (c *Client) DeriveAPIKey(ctx context.Context) (*APICredentials, error) {
	if c.cfg.Signer == nil {
		return nil, fmt.Errorf("%w: no signing key configured", types.ErrInvalidInput)
	}

	timestamp := time.Now().Unix()
	const nonce int64 = 0

	signature, err := c.clobAuthSignature(timestamp, nonce)
	if err != nil {
		return nil, err
	}

	resp, err := c.clob.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"POLY_ADDRESS":   c.cfg.Signer.Address().Hex(),
			"POLY_SIGNATURE": signature,
			"POLY_TIMESTAMP": strconv.FormatInt(timestamp, 10),
			"POLY_NONCE":     strconv.FormatInt(nonce, 10),
		}).
		Get("/auth/derive-api-key")
	if err != nil {
		return nil, fmt.Errorf("%w: derive api key: %v", types.ErrConnection, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: derive api key: status %d: %s",
			statusSentinel(resp.StatusCode()), resp.StatusCode(), resp.String())
	}

	var creds APICredentials
	if err := json.Unmarshal(resp.Body(), &creds); err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", types.ErrProtocol, err)
	}
	if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: derive api key: empty credentials", types.ErrProtocol)
	}

	c.cfg.APIKey = creds.APIKey
	c.cfg.Secret = creds.Secret
	c.cfg.Passphrase = creds.Passphrase

	return &creds, nil
}
