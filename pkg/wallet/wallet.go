// Package wallet provides per-network EVM clients for the farm: balance and
// gas queries, contract reads, signed submission and receipt polling, with
// optional per-wallet proxying of RPC traffic.
package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

// NetworkType represents supported EVM networks
type NetworkType string

const (
	Ethereum  NetworkType = "ethereum"
	Polygon   NetworkType = "polygon"
	Celo      NetworkType = "celo"
	Base      NetworkType = "base"
	Optimism  NetworkType = "optimism"
	Avalanche NetworkType = "avalanche"
	BSC       NetworkType = "bsc"
	Moonbeam  NetworkType = "moonbeam"
	Arbitrum  NetworkType = "arbitrum"
	Scroll    NetworkType = "scroll"
)

// Client is bound to one wallet on one network. A client built without a
// private key is read-only and refuses to submit transactions.
type Client struct {
	eth          *ethclient.Client
	config       NetworkConfig
	keyManager   *KeyManager
	address      common.Address
	nonceManager *NonceManager
	log          *logrus.Logger
}

// ClientOptions describes how to reach a network on behalf of a wallet
type ClientOptions struct {
	Network    NetworkConfig
	RPCURL     string
	PrivateKey string
	Address    common.Address
	Proxy      string
	Nonces     *NonceManager
}

// NewClient connects to the network described by opts.
//
// Parameters:
//   - ctx: Context for the dial
//   - log: Logger instance for client operations
//   - opts: Network, endpoint, signing key and proxy
//
// Returns:
//   - *Client: Connected client
//   - error: WalletError if the key, proxy or endpoint is unusable
//
// Example:
//
//	cfg, _ := LookupNetwork(Polygon)
//	client, err := NewClient(ctx, logger, ClientOptions{Network: cfg, PrivateKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(ctx context.Context, log *logrus.Logger, opts ClientOptions) (*Client, error) {
	client := &Client{
		config:       opts.Network,
		address:      opts.Address,
		nonceManager: opts.Nonces,
		log:          log,
	}
	if client.nonceManager == nil {
		client.nonceManager = NewNonceManager()
	}

	if opts.PrivateKey != "" {
		km, err := NewKeyManager(opts.PrivateKey)
		if err != nil {
			return nil, NewWalletError(ErrCodeInvalidPrivateKey, "failed to initialize key manager", err, opts.Network.Type)
		}
		client.keyManager = km
		client.address = km.GetAddress()
	}

	url := opts.RPCURL
	if url == "" {
		url = opts.Network.RPCURL
	}

	httpClient, err := newHTTPClient(opts.Proxy)
	if err != nil {
		return nil, NewWalletError(ErrCodeProxy, "failed to configure proxy", err, opts.Network.Type)
	}

	eth, err := client.dialWithRetry(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to connect to network", err, opts.Network.Type)
	}
	client.eth = eth

	return client, nil
}

// Network returns the network this client is bound to
func (c *Client) Network() NetworkType {
	return c.config.Type
}

// ChainID returns the configured chain id
func (c *Client) ChainID() int64 {
	return c.config.ChainID
}

// Address returns the wallet address this client acts for
func (c *Client) Address() common.Address {
	return c.address
}

// Balance returns the wallet's native balance when token is nil, otherwise
// its ERC20 balance of token.
//
// Example:
//
//	native, err := client.Balance(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Balance: %s\n", ToDecimal(native, NativeDecimals))
func (c *Client) Balance(ctx context.Context, token *common.Address) (*big.Int, error) {
	if token != nil {
		return c.tokenBalance(ctx, *token)
	}

	balance, err := c.eth.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get balance", err, c.config.Type)
	}

	c.log.WithFields(logrus.Fields{
		"chain":   c.config.Type,
		"address": c.address.Hex(),
		"balance": balance.String(),
	}).Debug("Retrieved balance")

	return balance, nil
}

// dialWithRetry attempts to connect to the network with retry mechanism.
func (c *Client) dialWithRetry(ctx context.Context, url string, opts ...rpc.ClientOption) (*ethclient.Client, error) {
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		var rpcClient *rpc.Client
		rpcClient, err = rpc.DialOptions(ctx, url, opts...)
		if err == nil {
			return ethclient.NewClient(rpcClient), nil
		}

		if i < c.config.MaxRetries {
			c.log.WithFields(logrus.Fields{
				"chain":   c.config.Type,
				"attempt": i + 1,
				"error":   err,
			}).Debug("Retrying network connection")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", c.config.MaxRetries+1, err)
}

// Close closes the network connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
		c.log.WithField("chain", c.config.Type).Trace("Closed network connection")
	}
}
