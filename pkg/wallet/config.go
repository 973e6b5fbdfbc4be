package wallet

import (
	"math/big"
	"sort"
	"time"
)

// Exchange identifies the centralized exchange that serves withdrawals to a network
type Exchange string

const (
	ExchangeNone    Exchange = ""
	ExchangeOKX     Exchange = "okx"
	ExchangeBinance Exchange = "binance"
)

// NetworkConfig holds network-specific configuration parameters for blockchain interactions.
// It defines settings like gas handling, retry logic, and the exchange mapping used
// to top up wallets on the network.
type NetworkConfig struct {
	// Type identifies which blockchain network this config is for
	Type NetworkType

	// RPCURL is the default public HTTP(S) endpoint for the network
	RPCURL string

	// ChainID is the EIP-155 chain identifier, also used as the Hyperlane domain
	ChainID int64

	// Coin is the native coin symbol
	Coin string

	// DynamicFee selects EIP-1559 transactions instead of legacy gas pricing
	DynamicFee bool

	// MaxRetries specifies how many times to retry a failed dial
	MaxRetries int

	// RetryDelay is the duration to wait between retry attempts
	RetryDelay time.Duration

	// GasLimitMultiplier adds a safety buffer to estimated gas.
	// For example, 1.2 adds 20% to the estimated gas limit
	GasLimitMultiplier float64

	// Exchange serving withdrawals to this network and its name for the network
	Exchange        Exchange
	ExchangeNetwork string
	// WithdrawalFee is the exchange fee in native coin, sent with OKX requests
	WithdrawalFee string

	// ExplorerChain is the OKLink chainShortName, empty when unsupported
	ExplorerChain string
}

// Decimals of the native coin, identical on every supported network
const NativeDecimals = 18

var networks = map[NetworkType]NetworkConfig{
	Ethereum: {
		Type: Ethereum, ChainID: 1, Coin: "ETH", DynamicFee: true,
		RPCURL:        "https://ethereum-rpc.publicnode.com",
		ExplorerChain: "ETH",
	},
	Polygon: {
		Type: Polygon, ChainID: 137, Coin: "POL", DynamicFee: true,
		RPCURL:   "https://polygon-rpc.com",
		Exchange: ExchangeOKX, ExchangeNetwork: "POL-Polygon", WithdrawalFee: "0.1",
		ExplorerChain: "POLYGON",
	},
	Celo: {
		Type: Celo, ChainID: 42220, Coin: "CELO", DynamicFee: true,
		RPCURL:   "https://forno.celo.org",
		Exchange: ExchangeOKX, ExchangeNetwork: "CELO-CELO", WithdrawalFee: "0.0008",
	},
	Base: {
		Type: Base, ChainID: 8453, Coin: "ETH", DynamicFee: true,
		RPCURL:   "https://mainnet.base.org",
		Exchange: ExchangeOKX, ExchangeNetwork: "ETH-Base", WithdrawalFee: "0.00004",
		ExplorerChain: "BASE",
	},
	Optimism: {
		Type: Optimism, ChainID: 10, Coin: "ETH", DynamicFee: true,
		RPCURL:   "https://mainnet.optimism.io",
		Exchange: ExchangeOKX, ExchangeNetwork: "ETH-Optimism", WithdrawalFee: "0.00004",
		ExplorerChain: "OP",
	},
	Avalanche: {
		Type: Avalanche, ChainID: 43114, Coin: "AVAX", DynamicFee: true,
		RPCURL:   "https://api.avax.network/ext/bc/C/rpc",
		Exchange: ExchangeBinance, ExchangeNetwork: "AVAXC",
		ExplorerChain: "AVAXC",
	},
	BSC: {
		Type: BSC, ChainID: 56, Coin: "BNB",
		RPCURL:   "https://bsc-dataseed.binance.org",
		Exchange: ExchangeBinance, ExchangeNetwork: "BSC",
		ExplorerChain: "BSC",
	},
	Moonbeam: {
		Type: Moonbeam, ChainID: 1284, Coin: "GLMR",
		RPCURL:   "https://rpc.api.moonbeam.network",
		Exchange: ExchangeOKX, ExchangeNetwork: "GLMR-Moonbeam", WithdrawalFee: "0.01",
	},
	Arbitrum: {
		Type: Arbitrum, ChainID: 42161, Coin: "ETH", DynamicFee: true,
		RPCURL:   "https://arb1.arbitrum.io/rpc",
		Exchange: ExchangeOKX, ExchangeNetwork: "ETH-Arbitrum One", WithdrawalFee: "0.0001",
		ExplorerChain: "ARBITRUM",
	},
	Scroll: {
		Type: Scroll, ChainID: 534352, Coin: "ETH",
		RPCURL:        "https://rpc.scroll.io",
		ExplorerChain: "SCROLL",
	},
}

// LookupNetwork returns the configuration of a known network with retry and
// gas defaults applied
func LookupNetwork(network NetworkType) (NetworkConfig, bool) {
	cfg, ok := networks[network]
	if !ok {
		return NetworkConfig{}, false
	}
	cfg.MaxRetries = 3
	cfg.RetryDelay = time.Second
	cfg.GasLimitMultiplier = 1.2
	return cfg, true
}

// DefaultNetworkConfigs returns every known network ordered by name
func DefaultNetworkConfigs() []NetworkConfig {
	out := make([]NetworkConfig, 0, len(networks))
	for network := range networks {
		cfg, _ := LookupNetwork(network)
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ChainIDBig returns the chain id as a big.Int for signing
func (c NetworkConfig) ChainIDBig() *big.Int {
	return big.NewInt(c.ChainID)
}
