package actions

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

const (
	// DefaultReceiptTimeout bounds the wait for each submitted transaction
	DefaultReceiptTimeout = 5 * time.Minute

	minStepPause = 8
	maxStepPause = 20
)

var (
	errNoFunds  = errors.New("native balance below required value")
	errReverted = errors.New("transaction reverted")
)

// Options configures the Merkly actions
type Options struct {
	Logger         *logrus.Logger
	ReceiptTimeout time.Duration
	// Pause runs between mint and bridge. Defaults to a random 8 to 20 second sleep.
	Pause func(ctx context.Context) error
	// MintAmount draws the hFT amount to mint. Defaults to 1.
	MintAmount func() int64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	if o.ReceiptTimeout <= 0 {
		o.ReceiptTimeout = DefaultReceiptTimeout
	}
	if o.Pause == nil {
		o.Pause = randomPause
	}
	if o.MintAmount == nil {
		o.MintAmount = func() int64 { return 1 }
	}
	return o
}

func randomPause(ctx context.Context) error {
	d := time.Duration(minStepPause+rand.IntN(maxStepPause-minStepPause+1)) * time.Second
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// merkly holds the steps shared by the token and NFT actions
type merkly struct {
	opts Options
}

func (m *merkly) log(client ChainClient, t Type) *logrus.Entry {
	return m.opts.Logger.WithFields(logrus.Fields{
		"address": client.Address().Hex(),
		"chain":   client.Network(),
		"action":  t,
	})
}

func (m *merkly) readUint(ctx context.Context, client ChainClient, contract common.Address, parsed abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	out, err := client.Call(ctx, contract, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want *big.Int", method, out[0])
	}
	return v, nil
}

// send pays value into method on contract and waits for a successful receipt
func (m *merkly) send(ctx context.Context, client ChainClient, contract common.Address, parsed abi.ABI, value *big.Int, method string, args ...interface{}) (common.Hash, error) {
	native, err := client.Balance(ctx, nil)
	if err != nil {
		return common.Hash{}, err
	}
	if native.Cmp(value) < 0 {
		return common.Hash{}, fmt.Errorf("%w: have %s, need %s", errNoFunds, native, value)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	hash, err := client.Submit(ctx, wallet.TxParams{To: contract, Data: data, Value: value})
	if err != nil {
		return common.Hash{}, err
	}

	status, err := client.WaitReceipt(ctx, hash, m.opts.ReceiptTimeout)
	if err != nil {
		return hash, err
	}
	if !status.Succeeded() {
		return hash, fmt.Errorf("%s %s: %w", method, hash.Hex(), errReverted)
	}
	return hash, nil
}

// fail turns a step error into an outcome
func fail(step string, err error, hashes ...common.Hash) Outcome {
	if errors.Is(err, errNoFunds) || wallet.IsWalletError(err, wallet.ErrCodeInsufficientFunds) {
		return NoBalance(step+": insufficient native balance", err)
	}
	return Failed(step, err, hashes...)
}

func destinationDomain(dest wallet.NetworkType) (uint32, error) {
	cfg, ok := wallet.LookupNetwork(dest)
	if !ok {
		return 0, fmt.Errorf("unknown destination %q", dest)
	}
	return uint32(cfg.ChainID), nil
}

func nonZero(hashes []common.Hash) []common.Hash {
	out := hashes[:0]
	for _, h := range hashes {
		if h != (common.Hash{}) {
			out = append(out, h)
		}
	}
	return out
}
