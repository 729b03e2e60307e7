// Package wallet provides the private-key handle used to authorize orders.
// Signing is raw-hash ECDSA over a precomputed digest; personal-message
// prefixing is the caller's concern where a venue handshake needs it.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/predictkit/predictkit/pkg/types"
)

// DefaultDerivationPath is the standard Ethereum account path used when
// deriving a signer from a mnemonic.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Signer is a key handle capable of raw-hash ECDSA signing and of deriving
// its own address.
type Signer interface {
	// Address returns the signer's Ethereum address.
	Address() common.Address

	// SignHash signs a 32-byte digest and returns the 65-byte (r,s,v)
	// signature with v in {27,28}.
	SignHash(digest []byte) ([]byte, error)

	// SignMessage signs a personal message (EIP-191 prefixed), used only by
	// venue credential handshakes.
	SignMessage(message []byte) ([]byte, error)
}

// PrivateKeySigner is a Signer backed by an in-memory secp256k1 key.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSignerFromHex creates a signer from a hex-encoded private key, with or
// without the 0x prefix.
func NewSignerFromHex(privateKeyHex string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", types.ErrSigningFailed, err)
	}

	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewSignerFromMnemonic derives a signer from a BIP-39 mnemonic using the
// given derivation path (DefaultDerivationPath if empty).
func NewSignerFromMnemonic(mnemonic, derivationPath string) (*PrivateKeySigner, error) {
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}

	hd, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%w: parse mnemonic: %v", types.ErrSigningFailed, err)
	}

	path, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("%w: parse derivation path: %v", types.ErrSigningFailed, err)
	}

	account, err := hd.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: derive account: %v", types.ErrSigningFailed, err)
	}

	key, err := hd.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("%w: extract private key: %v", types.ErrSigningFailed, err)
	}

	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the signer's Ethereum address.
func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignHash signs a raw 32-byte digest. The recovery id is normalized to the
// on-chain convention (v += 27).
func (s *PrivateKeySigner) SignHash(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("%w: digest must be 32 bytes, got %d", types.ErrSigningFailed, len(digest))
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSigningFailed, err)
	}

	sig[64] += 27
	return sig, nil
}

// SignMessage signs an EIP-191 personal message.
func (s *PrivateKeySigner) SignMessage(message []byte) ([]byte, error) {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return s.SignHash(crypto.Keccak256([]byte(prefixed)))
}

// PrivateKey exposes the underlying key for libraries that need it directly
// (test cross-checks against reference order builders).
func (s *PrivateKeySigner) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}
