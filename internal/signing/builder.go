package signing

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"math/rand/v2"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/wallet"
)

const orderTypeString = "Order(uint256 salt,address maker,address signer,address taker," +
	"uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration," +
	"uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"

var orderTypeHash = crypto.Keccak256([]byte(orderTypeString))

// OrderRequest is the caller's order intent before scaling and signing.
type OrderRequest struct {
	TokenID       string
	Price         decimal.Decimal
	Size          decimal.Decimal
	Side          types.Side
	FeeRateBps    int64
	Expiration    int64
	Nonce         int64
	// Maker is the funding address. Zero means the signing key's own
	// address; proxy and safe wallets set it to the proxy contract.
	Maker         common.Address
	Taker         common.Address
	SignatureType types.SignatureType
}

// Builder assembles and signs exchange orders. It is stateless apart from
// the salt source and safe for concurrent use.
type Builder struct {
	scaler *AmountScaler
	saltFn func() *big.Int
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithSaltFunc overrides the salt source, used by tests that need
// reproducible digests.
func WithSaltFunc(fn func() *big.Int) BuilderOption {
	return func(b *Builder) { b.saltFn = fn }
}

// NewBuilder creates a Builder over the given scaler.
func NewBuilder(scaler *AmountScaler, opts ...BuilderOption) *Builder {
	b := &Builder{
		scaler: scaler,
		saltFn: generateSalt,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// generateSalt derives a salt from the current time with sub-millisecond
// jitter so two orders built within the same millisecond never collide.
func generateSalt() *big.Int {
	base := time.Now().UnixMilli() * 1_000_000
	return big.NewInt(base + rand.Int64N(1_000_000))
}

// BuildSignedOrder scales the request, hashes it under the given domain and
// signs the digest with the signer's key. The result is ready for venue
// submission.
func (b *Builder) BuildSignedOrder(req OrderRequest, params DomainParams, signer wallet.Signer) (*types.SignedOrder, error) {
	tokenID, ok := new(big.Int).SetString(req.TokenID, 10)
	if !ok || tokenID.Sign() < 0 {
		return nil, fmt.Errorf("%w: token id %q is not a non-negative integer", types.ErrInvalidInput, req.TokenID)
	}
	if req.FeeRateBps < 0 {
		return nil, fmt.Errorf("%w: fee rate %d bps is negative", types.ErrInvalidInput, req.FeeRateBps)
	}

	amounts, err := b.scaler.Scale(req.Price, req.Size, req.Side)
	if err != nil {
		return nil, err
	}

	domain, err := params.Domain()
	if err != nil {
		return nil, err
	}

	signerAddr := signer.Address()
	maker := req.Maker
	if maker == (common.Address{}) {
		maker = signerAddr
	}
	order := &types.SignedOrder{
		Salt:          b.saltFn(),
		Maker:         maker.Hex(),
		Signer:        signerAddr.Hex(),
		Taker:         req.Taker.Hex(),
		TokenID:       req.TokenID,
		MakerAmount:   amounts.MakerAmount,
		TakerAmount:   amounts.TakerAmount,
		Expiration:    big.NewInt(req.Expiration),
		Nonce:         big.NewInt(req.Nonce),
		FeeRateBps:    big.NewInt(req.FeeRateBps),
		Side:          req.Side,
		SignatureType: req.SignatureType,
	}

	digest := orderDigest(domain, order, tokenID, maker, signerAddr, req.Taker)
	sig, err := signer.SignHash(digest[:])
	if err != nil {
		return nil, err
	}
	order.Signature = "0x" + hex.EncodeToString(sig)

	return order, nil
}

// Digest recomputes the signing digest for an already-built order, for
// independent verification.
func (b *Builder) Digest(params DomainParams, order *types.SignedOrder) ([32]byte, error) {
	tokenID, ok := new(big.Int).SetString(order.TokenID, 10)
	if !ok || tokenID.Sign() < 0 {
		return [32]byte{}, fmt.Errorf("%w: token id %q is not a non-negative integer", types.ErrInvalidInput, order.TokenID)
	}
	domain, err := params.Domain()
	if err != nil {
		return [32]byte{}, err
	}
	return orderDigest(domain, order, tokenID,
		common.HexToAddress(order.Maker), common.HexToAddress(order.Signer),
		common.HexToAddress(order.Taker)), nil
}

func orderDigest(domain Domain, order *types.SignedOrder, tokenID *big.Int, maker, signer, taker common.Address) [32]byte {
	structHash := orderStructHash(order, tokenID, maker, signer, taker)
	separator := domain.Separator()

	payload := make([]byte, 0, 2+2*32)
	payload = append(payload, 0x19, 0x01)
	payload = append(payload, separator[:]...)
	payload = append(payload, structHash[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(payload))
	return out
}

func orderStructHash(order *types.SignedOrder, tokenID *big.Int, maker, signer, taker common.Address) [32]byte {
	encoded := make([]byte, 0, 13*32)
	encoded = append(encoded, orderTypeHash...)
	encoded = append(encoded, uintWord(order.Salt)...)
	encoded = append(encoded, addressWord(maker)...)
	encoded = append(encoded, addressWord(signer)...)
	encoded = append(encoded, addressWord(taker)...)
	encoded = append(encoded, uintWord(tokenID)...)
	encoded = append(encoded, uintWord(order.MakerAmount)...)
	encoded = append(encoded, uintWord(order.TakerAmount)...)
	encoded = append(encoded, uintWord(order.Expiration)...)
	encoded = append(encoded, uintWord(order.Nonce)...)
	encoded = append(encoded, uintWord(order.FeeRateBps)...)
	encoded = append(encoded, uintWord(big.NewInt(int64(order.Side)))...)
	encoded = append(encoded, uintWord(big.NewInt(int64(order.SignatureType)))...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(encoded))
	return out
}

func uintWord(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func addressWord(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}
