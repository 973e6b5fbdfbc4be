package wallet

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// addressRegex checks for a "0x" prefix followed by exactly 40 hexadecimal characters.
	addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

	// privateKeyRegex matches a bare 32 byte hex key
	privateKeyRegex = regexp.MustCompile("^[0-9a-fA-F]{64}$")
)

// ValidatePrivateKey checks that key is a 32 byte hex string, with or without 0x
func ValidatePrivateKey(key string) error {
	if !privateKeyRegex.MatchString(strings.TrimPrefix(strings.TrimSpace(key), "0x")) {
		return NewWalletError(ErrCodeInvalidPrivateKey, "private key must be 64 hex characters", nil, "")
	}
	return nil
}

// ValidateAddress validates an EVM address, including its checksum when the
// address is mixed case.
//
// Example:
//
//	err := ValidateAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
//	if err != nil {
//	    log.Fatal(err)
//	}
func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return NewWalletError(ErrCodeInvalidAddress, "invalid address format", nil, "")
	}

	checksumAddr := common.HexToAddress(address).Hex()
	if address != strings.ToLower(address) && address != checksumAddr {
		return NewWalletError(ErrCodeInvalidAddress, "invalid address checksum", nil, "")
	}

	return nil
}
