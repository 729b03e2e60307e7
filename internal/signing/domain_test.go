package signing

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictkit/predictkit/pkg/types"
)

func TestDomainSeparatorDeterministic(t *testing.T) {
	d := Domain{
		Name:              "Polymarket CTF Exchange",
		Version:           "1",
		ChainID:           big.NewInt(137),
		VerifyingContract: common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
	}

	first := d.Separator()
	second := d.Separator()
	assert.Equal(t, first, second)
	assert.NotEqual(t, [32]byte{}, first)
}

func TestDomainSeparatorVariesWithInputs(t *testing.T) {
	base := Domain{
		Name:              "Polymarket CTF Exchange",
		Version:           "1",
		ChainID:           big.NewInt(137),
		VerifyingContract: common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
	}

	changedChain := base
	changedChain.ChainID = big.NewInt(80002)
	assert.NotEqual(t, base.Separator(), changedChain.Separator())

	changedContract := base
	changedContract.VerifyingContract = common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a")
	assert.NotEqual(t, base.Separator(), changedContract.Separator())

	changedName := base
	changedName.Name = "predict.fun CTF Exchange"
	assert.NotEqual(t, base.Separator(), changedName.Separator())
}

func TestContractSetResolve(t *testing.T) {
	set := ContractSet{
		Standard:            common.HexToAddress("0x0000000000000000000000000000000000000001"),
		NegRisk:             common.HexToAddress("0x0000000000000000000000000000000000000002"),
		YieldBearing:        common.HexToAddress("0x0000000000000000000000000000000000000003"),
		YieldBearingNegRisk: common.HexToAddress("0x0000000000000000000000000000000000000004"),
	}

	tests := []struct {
		negRisk      bool
		yieldBearing bool
		want         string
	}{
		{false, false, "0x0000000000000000000000000000000000000001"},
		{true, false, "0x0000000000000000000000000000000000000002"},
		{false, true, "0x0000000000000000000000000000000000000003"},
		{true, true, "0x0000000000000000000000000000000000000004"},
	}
	for _, tt := range tests {
		addr, err := set.Resolve(tt.negRisk, tt.yieldBearing)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(tt.want), addr)
	}
}

func TestContractSetResolveMissingVariant(t *testing.T) {
	set := ContractSet{
		Standard: common.HexToAddress("0x0000000000000000000000000000000000000001"),
		NegRisk:  common.HexToAddress("0x0000000000000000000000000000000000000002"),
	}

	_, err := set.Resolve(false, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

// Known-vector check: the domain type hash is the canonical EIP-712 constant.
func TestEIP712DomainTypeHash(t *testing.T) {
	assert.Equal(t,
		"8b73c3c69bb8fe3d512ecc4cf759cc79239f7b179b0ffacaa9a75d522b39400f",
		hex.EncodeToString(eip712DomainTypeHash))
}
