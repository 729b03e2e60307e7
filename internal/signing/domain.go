package signing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/predictkit/predictkit/pkg/types"
)

var eip712DomainTypeHash = crypto.Keccak256(
	[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
)

// Domain is the EIP-712 signing domain for a single exchange contract.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// Separator computes the EIP-712 domain separator.
func (d Domain) Separator() [32]byte {
	encoded := make([]byte, 0, 5*32)
	encoded = append(encoded, eip712DomainTypeHash...)
	encoded = append(encoded, crypto.Keccak256([]byte(d.Name))...)
	encoded = append(encoded, crypto.Keccak256([]byte(d.Version))...)
	encoded = append(encoded, common.LeftPadBytes(d.ChainID.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(d.VerifyingContract.Bytes(), 32)...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(encoded))
	return out
}

// ContractSet holds the four exchange contract variants a venue may deploy.
// Most venues use only Standard and NegRisk; yield-bearing variants exist
// where collateral accrues interest while escrowed.
type ContractSet struct {
	Standard            common.Address
	NegRisk             common.Address
	YieldBearing        common.Address
	YieldBearingNegRisk common.Address
}

// Resolve selects the verifying contract for a market's flag pair. The
// lookup is exhaustive over all four combinations.
func (c ContractSet) Resolve(negRisk, yieldBearing bool) (common.Address, error) {
	var addr common.Address
	switch {
	case !negRisk && !yieldBearing:
		addr = c.Standard
	case negRisk && !yieldBearing:
		addr = c.NegRisk
	case !negRisk && yieldBearing:
		addr = c.YieldBearing
	case negRisk && yieldBearing:
		addr = c.YieldBearingNegRisk
	}

	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no exchange contract for negRisk=%t yieldBearing=%t",
			types.ErrInvalidInput, negRisk, yieldBearing)
	}
	return addr, nil
}

// DomainParams selects the signing domain for one order: the venue's protocol
// identity plus the market flags that pick the verifying contract.
type DomainParams struct {
	Name         string
	Version      string
	ChainID      int64
	Contracts    ContractSet
	NegRisk      bool
	YieldBearing bool
}

// Domain resolves the verifying contract and returns the full signing domain.
func (p DomainParams) Domain() (Domain, error) {
	contract, err := p.Contracts.Resolve(p.NegRisk, p.YieldBearing)
	if err != nil {
		return Domain{}, err
	}
	return Domain{
		Name:              p.Name,
		Version:           p.Version,
		ChainID:           big.NewInt(p.ChainID),
		VerifyingContract: contract,
	}, nil
}
