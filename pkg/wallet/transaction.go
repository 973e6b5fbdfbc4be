package wallet

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// TxParams describes a contract call to sign and submit
type TxParams struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// TransactionStatus represents the outcome of a mined transaction.
type TransactionStatus struct {
	// Hash is the unique transaction identifier
	Hash common.Hash

	// Status indicates transaction success (1) or failure (0)
	Status uint64

	// BlockNumber is the block height where transaction was mined
	BlockNumber *big.Int

	// GasUsed is the actual amount of gas consumed
	GasUsed uint64

	// EffectiveGasPrice is the actual gas price paid
	EffectiveGasPrice *big.Int
}

// Succeeded reports whether the transaction executed without reverting
func (ts *TransactionStatus) Succeeded() bool {
	return ts != nil && ts.Status == types.ReceiptStatusSuccessful
}

// receiptPollInterval is how often to check for a receipt
const receiptPollInterval = 3 * time.Second

// Submit estimates gas, prices, signs and broadcasts a transaction from the
// client's wallet. It returns as soon as the node accepts the transaction.
//
// Parameters:
//   - ctx: Context for the operation
//   - params: Destination, calldata and value
//
// Returns:
//   - common.Hash: Hash of the broadcast transaction
//   - error: WalletError describing why the transaction was not sent
//
// Example:
//
//	hash, err := client.Submit(ctx, TxParams{To: contract, Data: data, Value: fee})
//	if err != nil {
//	    return err
//	}
//	status, err := client.WaitReceipt(ctx, hash, 5*time.Minute)
func (c *Client) Submit(ctx context.Context, params TxParams) (common.Hash, error) {
	if c.keyManager == nil {
		return common.Hash{}, NewWalletError(ErrCodeReadOnly, "client has no signing key", nil, c.config.Type)
	}

	value := params.Value
	if value == nil {
		value = new(big.Int)
	}

	fees, err := c.quoteFees(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	estimated, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.address,
		To:    &params.To,
		Data:  params.Data,
		Value: value,
	})
	if err != nil {
		return common.Hash{}, NewWalletError(classifyNodeError(err, ErrCodeGasEstimationFailed), "failed to estimate gas", err, c.config.Type)
	}
	gasLimit := uint64(float64(estimated) * c.config.GasLimitMultiplier)

	nonce, err := c.nonceManager.GetNonce(ctx, c)
	if err != nil {
		return common.Hash{}, err
	}
	defer c.nonceManager.ReleaseNonce(c.config.Type, c.address, nonce)

	var txData types.TxData
	if fees.FeeCap != nil {
		txData = &types.DynamicFeeTx{
			ChainID:   c.config.ChainIDBig(),
			Nonce:     nonce,
			GasTipCap: fees.TipCap,
			GasFeeCap: fees.FeeCap,
			Gas:       gasLimit,
			To:        &params.To,
			Value:     value,
			Data:      params.Data,
		}
	} else {
		txData = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.GasPrice,
			Gas:      gasLimit,
			To:       &params.To,
			Value:    value,
			Data:     params.Data,
		}
	}

	signer := types.LatestSignerForChainID(c.config.ChainIDBig())
	signedTx, err := types.SignNewTx(c.keyManager.privateKey, signer, txData)
	if err != nil {
		return common.Hash{}, NewWalletError(ErrCodeTransactionFailed, "failed to sign transaction", err, c.config.Type)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, NewWalletError(classifyNodeError(err, ErrCodeTransactionFailed), "failed to send transaction", err, c.config.Type)
	}

	c.log.WithFields(logrus.Fields{
		"chain":     c.config.Type,
		"address":   c.address.Hex(),
		"tx_hash":   signedTx.Hash().Hex(),
		"gas_limit": gasLimit,
		"nonce":     nonce,
	}).Debug("Transaction broadcast")

	return signedTx.Hash(), nil
}

// WaitReceipt polls for a transaction receipt until it is mined, ctx is
// cancelled or timeout elapses.
//
// Parameters:
//   - ctx: Context for cancellation
//   - hash: Transaction hash to wait for
//   - timeout: Upper bound on the wait
//
// Returns:
//   - *TransactionStatus: Receipt summary once mined
//   - error: ErrCodeTimeout WalletError if no receipt arrived in time
func (c *Client) WaitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*TransactionStatus, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	deadline := time.After(timeout)

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return &TransactionStatus{
				Hash:              hash,
				Status:            receipt.Status,
				BlockNumber:       receipt.BlockNumber,
				GasUsed:           receipt.GasUsed,
				EffectiveGasPrice: receipt.EffectiveGasPrice,
			}, nil
		case !errors.Is(err, ethereum.NotFound):
			c.log.WithError(err).WithField("tx_hash", hash.Hex()).Debug("Receipt lookup failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, NewWalletError(ErrCodeTimeout, "context cancelled while waiting for receipt", ctx.Err(), c.config.Type)
		case <-deadline:
			return nil, NewWalletError(ErrCodeTimeout, "timeout waiting for receipt", nil, c.config.Type)
		case <-ticker.C:
		}
	}
}
