package wallet

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes carried by WalletError
const (
	ErrCodeInvalidNetwork      = "INVALID_NETWORK"
	ErrCodeInvalidAddress      = "INVALID_ADDRESS"
	ErrCodeInvalidPrivateKey   = "INVALID_PRIVATE_KEY"
	ErrCodeReadOnly            = "READ_ONLY" // signing requested on a client without a key
	ErrCodeTransactionFailed   = "TRANSACTION_FAILED"
	ErrCodeGasEstimationFailed = "GAS_ESTIMATION_FAILED"
	ErrCodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	ErrCodeRPCError            = "RPC_ERROR"
	ErrCodeTimeout             = "TIMEOUT"
	ErrCodeInvalidABI          = "INVALID_ABI"
	ErrCodeContractError       = "CONTRACT_ERROR"
	ErrCodeProxy               = "PROXY_ERROR"
)

// WalletError is a chain client failure tagged with a code and the chain it
// happened on
type WalletError struct {
	Code    string
	Message string
	Err     error
	Network NetworkType
}

func (e *WalletError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Network != "" {
		b.WriteString(" on ")
		b.WriteString(string(e.Network))
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

// NewWalletError tags err with code. err may be nil.
func NewWalletError(code, message string, err error, network NetworkType) *WalletError {
	return &WalletError{Code: code, Message: message, Err: err, Network: network}
}

// IsWalletError reports whether any error in err's chain is a WalletError with code
func IsWalletError(err error, code string) bool {
	var we *WalletError
	return errors.As(err, &we) && we.Code == code
}

// classifyNodeError maps a node rejection to an error code. Nodes only
// report these conditions as text, so the message is the only signal.
func classifyNodeError(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return ErrCodeInsufficientFunds
	case strings.Contains(msg, "execution reverted"):
		return ErrCodeContractError
	default:
		return fallback
	}
}
