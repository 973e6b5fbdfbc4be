package wallet

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToDecimal converts a base unit amount to a decimal with the given decimals
func ToDecimal(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// ToWei converts a decimal amount to base units, truncating any excess precision
func ToWei(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}
