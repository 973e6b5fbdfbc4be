package actions

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Type identifies a composite on-chain action
type Type string

const (
	// MintBridgeHFT mints the Hyperlane fungible token when none is held and bridges it
	MintBridgeHFT Type = "mint_bridge_hft"
	// MintBridgeHNFT mints one Hyperlane NFT and bridges the newest one held
	MintBridgeHNFT Type = "mint_bridge_hnft"
)

// Types lists every action type in a fixed order
var Types = []Type{MintBridgeHFT, MintBridgeHNFT}

// ChainClient is what actions need from a network connection bound to one wallet
type ChainClient interface {
	Network() wallet.NetworkType
	Address() common.Address
	// Balance returns the native balance when token is nil, else the ERC20 balance
	Balance(ctx context.Context, token *common.Address) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Call(ctx context.Context, contract common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	Submit(ctx context.Context, params wallet.TxParams) (common.Hash, error)
	WaitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*wallet.TransactionStatus, error)
	Close()
}

// Action represents a composite action a wallet can perform from a source chain
type Action interface {
	// Type returns the action's identifier
	Type() Type
	// Name is a human readable label for logs
	Name() string
	// Supports reports whether the action has contracts on network
	Supports(network wallet.NetworkType) bool
	// Execute runs the action from the client's network toward dest
	Execute(ctx context.Context, client ChainClient, dest wallet.NetworkType) Outcome
}
