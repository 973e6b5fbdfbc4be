package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyManager handles a wallet private key and the address derived from it.
type KeyManager struct {
	privateKey *ecdsa.PrivateKey // The wallet's private key
	address    common.Address    // The derived address
}

// NewKeyManager creates a new key manager from a private key string.
// It accepts a hex-encoded private key with or without the 0x prefix.
//
// Example:
//
//	km, err := NewKeyManager("0x1234...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	address := km.GetAddress()
func NewKeyManager(privateKeyHex string) (*KeyManager, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &KeyManager{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// GetAddress returns the address associated with this key manager.
func (km *KeyManager) GetAddress() common.Address {
	return km.address
}

// AddressFromKey derives the checksum address for a hex private key
func AddressFromKey(privateKeyHex string) (common.Address, error) {
	km, err := NewKeyManager(privateKeyHex)
	if err != nil {
		return common.Address{}, NewWalletError(ErrCodeInvalidPrivateKey, "failed to derive address", err, "")
	}
	return km.GetAddress(), nil
}
