package wallet

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ERC20 ABI used for balance lookups.
const erc20ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "balance", "type": "uint256"}],
		"type": "function"
	}
]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Call performs a read-only contract call and returns the decoded outputs.
//
// Example:
//
//	out, err := client.Call(ctx, contract, parsedABI, "fee")
//	if err != nil {
//	    return err
//	}
//	fee := out[0].(*big.Int)
func (c *Client) Call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	bound := bind.NewBoundContract(contract, parsed, c.eth, c.eth, c.eth)

	var out []interface{}
	err := bound.Call(&bind.CallOpts{Context: ctx, From: c.address}, &out, method, args...)
	if err != nil {
		return nil, NewWalletError(ErrCodeContractError, "contract call "+method+" failed", err, c.config.Type)
	}
	return out, nil
}

// tokenBalance retrieves the ERC20 balance of the client's wallet.
func (c *Client) tokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	out, err := c.Call(ctx, token, parsedERC20, "balanceOf", c.address)
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, NewWalletError(ErrCodeContractError, "no balance returned", nil, c.config.Type)
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, NewWalletError(ErrCodeContractError, "failed to convert balance to *big.Int", nil, c.config.Type)
	}

	return balance, nil
}
