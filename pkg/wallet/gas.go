package wallet

import (
	"context"
	"math/big"
)

// baseFeeBumpPercent is the headroom added to the latest base fee when
// building a dynamic fee cap
const baseFeeBumpPercent = 125

// FeeQuote holds the gas pricing chosen for one transaction. Legacy networks
// set GasPrice; dynamic fee networks set TipCap and FeeCap.
type FeeQuote struct {
	GasPrice *big.Int
	TipCap   *big.Int
	FeeCap   *big.Int
}

// MaxPrice returns the highest per-gas price the quote can pay
func (q FeeQuote) MaxPrice() *big.Int {
	if q.FeeCap != nil {
		return q.FeeCap
	}
	return q.GasPrice
}

// GasPrice returns the node's suggested legacy gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get gas price", err, c.config.Type)
	}
	return price, nil
}

// quoteFees prices a transaction for the client's network. Dynamic fee
// networks pay the suggested tip on top of the latest base fee plus headroom.
func (c *Client) quoteFees(ctx context.Context) (FeeQuote, error) {
	if !c.config.DynamicFee {
		price, err := c.GasPrice(ctx)
		if err != nil {
			return FeeQuote{}, err
		}
		return FeeQuote{GasPrice: price}, nil
	}

	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return FeeQuote{}, NewWalletError(ErrCodeRPCError, "failed to get priority fee", err, c.config.Type)
	}

	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return FeeQuote{}, NewWalletError(ErrCodeRPCError, "failed to get latest header", err, c.config.Type)
	}
	if head.BaseFee == nil {
		price, err := c.GasPrice(ctx)
		if err != nil {
			return FeeQuote{}, err
		}
		return FeeQuote{GasPrice: price}, nil
	}

	feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(baseFeeBumpPercent))
	feeCap.Div(feeCap, big.NewInt(100))
	feeCap.Add(feeCap, tip)

	return FeeQuote{TipCap: tip, FeeCap: feeCap}, nil
}
