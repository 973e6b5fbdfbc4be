package withdraw

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrMissingCredentials is returned when an exchange is used without API keys
var ErrMissingCredentials = errors.New("exchange credentials are not configured")

// Request describes one on-chain withdrawal from an exchange account
type Request struct {
	Coin    string
	Network string
	Address string
	Amount  decimal.Decimal
	// Fee is the network fee some exchanges require to be echoed back
	Fee string
}

// Exchange withdraws funds to an external address and returns the
// exchange's withdrawal id
type Exchange interface {
	Withdraw(ctx context.Context, req Request) (string, error)
}
