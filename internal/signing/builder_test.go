package signing

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictkit/predictkit/pkg/types"
	"github.com/predictkit/predictkit/pkg/wallet"
)

const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func polygonDomainParams() DomainParams {
	return DomainParams{
		Name:    "Polymarket CTF Exchange",
		Version: "1",
		ChainID: 137,
		Contracts: ContractSet{
			Standard: common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
			NegRisk:  common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"),
		},
	}
}

func testBuilder(t *testing.T, opts ...BuilderOption) *Builder {
	t.Helper()
	scaler, err := NewAmountScaler(DefaultScaleParams())
	require.NoError(t, err)
	return NewBuilder(scaler, opts...)
}

func testSigner(t *testing.T) *wallet.PrivateKeySigner {
	t.Helper()
	signer, err := wallet.NewSignerFromHex(testPrivateKey)
	require.NoError(t, err)
	return signer
}

func TestBuildSignedOrder(t *testing.T) {
	b := testBuilder(t)
	signer := testSigner(t)

	order, err := b.BuildSignedOrder(OrderRequest{
		TokenID:    "123456789",
		Price:      decimal.NewFromFloat(0.65),
		Size:       decimal.NewFromInt(10),
		Side:       types.Buy,
		FeeRateBps: 0,
	}, polygonDomainParams(), signer)
	require.NoError(t, err)

	assert.Equal(t, signer.Address().Hex(), order.Maker)
	assert.Equal(t, signer.Address().Hex(), order.Signer)
	assert.Equal(t, common.Address{}.Hex(), order.Taker)
	assert.Equal(t, "6500000", order.MakerAmount.String())
	assert.Equal(t, "10000000", order.TakerAmount.String())
	assert.Equal(t, types.Buy, order.Side)
	assert.True(t, strings.HasPrefix(order.Signature, "0x"))
	assert.Len(t, order.Signature, 2+65*2)
	assert.True(t, order.Salt.Sign() > 0)
}

func TestBuildSignedOrderSignatureRecovers(t *testing.T) {
	b := testBuilder(t)
	signer := testSigner(t)
	params := polygonDomainParams()

	order, err := b.BuildSignedOrder(OrderRequest{
		TokenID:    "42",
		Price:      decimal.NewFromFloat(0.4),
		Size:       decimal.NewFromInt(25),
		Side:       types.Sell,
		FeeRateBps: 100,
	}, params, signer)
	require.NoError(t, err)

	digest, err := b.Digest(params, order)
	require.NoError(t, err)

	sig, err := hex.DecodeString(strings.TrimPrefix(order.Signature, "0x"))
	require.NoError(t, err)
	require.Len(t, sig, 65)
	sig[64] -= 27

	pub, err := crypto.SigToPub(digest[:], sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}

func TestBuildSignedOrderDeterministicDigest(t *testing.T) {
	salt := func() *big.Int { return big.NewInt(987654321) }
	b := testBuilder(t, WithSaltFunc(salt))
	signer := testSigner(t)
	params := polygonDomainParams()

	req := OrderRequest{
		TokenID:    "777",
		Price:      decimal.NewFromFloat(0.5),
		Size:       decimal.NewFromInt(100),
		Side:       types.Buy,
		FeeRateBps: 0,
	}

	first, err := b.BuildSignedOrder(req, params, signer)
	require.NoError(t, err)
	second, err := b.BuildSignedOrder(req, params, signer)
	require.NoError(t, err)

	// Fixed salt plus deterministic ECDSA means byte-identical signatures.
	assert.Equal(t, first.Signature, second.Signature)

	d1, err := b.Digest(params, first)
	require.NoError(t, err)
	d2, err := b.Digest(params, second)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestBuildSignedOrderInvalidTokenID(t *testing.T) {
	b := testBuilder(t)
	signer := testSigner(t)

	for _, tokenID := range []string{"", "abc", "-5", "0x1234"} {
		_, err := b.BuildSignedOrder(OrderRequest{
			TokenID: tokenID,
			Price:   decimal.NewFromFloat(0.5),
			Size:    decimal.NewFromInt(10),
			Side:    types.Buy,
		}, polygonDomainParams(), signer)
		require.Error(t, err, "token id %q", tokenID)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	}
}

func TestBuildSignedOrderNegRiskUsesDifferentDigest(t *testing.T) {
	salt := func() *big.Int { return big.NewInt(1) }
	b := testBuilder(t, WithSaltFunc(salt))
	signer := testSigner(t)

	req := OrderRequest{
		TokenID: "9",
		Price:   decimal.NewFromFloat(0.5),
		Size:    decimal.NewFromInt(10),
		Side:    types.Buy,
	}

	standard := polygonDomainParams()
	negRisk := polygonDomainParams()
	negRisk.NegRisk = true

	a, err := b.BuildSignedOrder(req, standard, signer)
	require.NoError(t, err)
	c, err := b.BuildSignedOrder(req, negRisk, signer)
	require.NoError(t, err)

	assert.NotEqual(t, a.Signature, c.Signature)
}

func TestSaltsAvoidSameMillisecondCollision(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		s := generateSalt().String()
		assert.False(t, seen[s], "duplicate salt %s", s)
		seen[s] = true
	}
}

// Cross-check against the reference Polymarket order builder: identical
// inputs must produce byte-identical signatures.
func TestBuildSignedOrderMatchesReferenceBuilder(t *testing.T) {
	const fixedSalt = int64(13371337)

	b := testBuilder(t, WithSaltFunc(func() *big.Int { return big.NewInt(fixedSalt) }))
	signer := testSigner(t)
	params := polygonDomainParams()

	ours, err := b.BuildSignedOrder(OrderRequest{
		TokenID:    "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		Price:      decimal.NewFromFloat(0.65),
		Size:       decimal.NewFromInt(10),
		Side:       types.Buy,
		FeeRateBps: 0,
	}, params, signer)
	require.NoError(t, err)

	ref := builder.NewExchangeOrderBuilderImpl(big.NewInt(137), func() int64 { return fixedSalt })
	theirs, err := ref.BuildSignedOrder(signer.PrivateKey(), &model.OrderData{
		Maker:         ours.Maker,
		Signer:        ours.Signer,
		Taker:         ours.Taker,
		TokenId:       ours.TokenID,
		MakerAmount:   ours.MakerAmount.String(),
		TakerAmount:   ours.TakerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          model.BUY,
		SignatureType: model.EOA,
	}, model.CTFExchange)
	require.NoError(t, err)

	assert.Equal(t, ours.Signature, "0x"+hex.EncodeToString(theirs.Signature))
}
