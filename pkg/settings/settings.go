// Package settings loads the farm configuration document and exposes typed
// accessors over it. Settings are built once at startup and passed down
// explicitly; nothing in this package is global.
package settings

import (
	"fmt"
	"math/big"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Default operational parameters
const (
	DefaultConcurrency           = 5
	DefaultPollIntervalSeconds   = 10
	DefaultReceiptTimeoutSeconds = 300
	DefaultGasPriceNetwork       = "ethereum"
)

// IntRange is an inclusive integer range, used for counts and delays in seconds
type IntRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Rand returns a uniformly drawn value in [From, To]
func (r IntRange) Rand() int64 {
	if r.To <= r.From {
		return r.From
	}
	return r.From + rand.Int64N(r.To-r.From+1)
}

func (r IntRange) validate(name string) error {
	if r.From < 0 || r.To < r.From {
		return fmt.Errorf("%s: invalid range [%d, %d]", name, r.From, r.To)
	}
	return nil
}

// FloatRange is an inclusive range of coin amounts
type FloatRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Credentials holds exchange API keys
type Credentials struct {
	APIKey     string `json:"api_key"`
	SecretKey  string `json:"secret_key"`
	Passphrase string `json:"passphrase,omitempty"`
}

// Filled reports whether the key and secret are present
func (c Credentials) Filled() bool {
	return c.APIKey != "" && c.SecretKey != ""
}

// ExchangeSettings configures one centralized exchange
type ExchangeSettings struct {
	RequiredMinimumBalance  float64     `json:"required_minimum_balance"`
	WithdrawAmount          FloatRange  `json:"withdraw_amount"`
	DelayBetweenWithdrawals IntRange    `json:"delay_between_withdrawals"`
	Credentials             Credentials `json:"credentials"`
}

// Settings is the parsed settings.json document
type Settings struct {
	UsePrivateKeyEncryption bool    `json:"use_private_key_encryption"`
	MaximumGasPrice         float64 `json:"maximum_gas_price"`
	GasPriceNetwork         string  `json:"gas_price_network"`
	OKLinkAPIKey            string  `json:"oklink_api_key"`

	OKX     ExchangeSettings `json:"okx"`
	Binance ExchangeSettings `json:"binance"`

	InitialActionsDelay       IntRange `json:"initial_actions_delay"`
	HMekr                     IntRange `json:"h_mekr"`
	HNFT                      IntRange `json:"h_nft"`
	HFTAmountForMintAndBridge IntRange `json:"hFT_amount_for_mint_and_bridge"`

	ChainsMinBalances  map[string]float64    `json:"chains_min_balances"`
	SourceChains       map[string]bool       `json:"source_chains"`
	DestinationChains  map[string]bool       `json:"destination_chains"`
	WithdrawalNetworks map[string]bool       `json:"withdrawal_networks"`
	WithdrawalAmounts  map[string][2]float64 `json:"withdrawal_amounts"`

	RPCs                  map[string]string `json:"rpcs"`
	Concurrency           int               `json:"concurrency"`
	PollIntervalSeconds   int               `json:"poll_interval_seconds"`
	ReceiptTimeoutSeconds int               `json:"receipt_timeout_seconds"`
	MetricsAddr           string            `json:"metrics_addr"`
}

// Validate checks the document for structural problems. Missing exchange or
// explorer credentials are not errors here; they are reported where used.
func (s *Settings) Validate() error {
	if s.MaximumGasPrice <= 0 {
		return fmt.Errorf("maximum_gas_price must be positive")
	}
	if _, ok := wallet.LookupNetwork(wallet.NetworkType(s.GasPriceNetwork)); !ok {
		return fmt.Errorf("gas_price_network: unknown chain %q", s.GasPriceNetwork)
	}
	if s.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if s.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive")
	}
	if s.ReceiptTimeoutSeconds <= 0 {
		return fmt.Errorf("receipt_timeout_seconds must be positive")
	}

	ranges := map[string]IntRange{
		"initial_actions_delay":          s.InitialActionsDelay,
		"h_mekr":                         s.HMekr,
		"h_nft":                          s.HNFT,
		"hFT_amount_for_mint_and_bridge": s.HFTAmountForMintAndBridge,
	}
	for name, r := range ranges {
		if err := r.validate(name); err != nil {
			return err
		}
	}
	if s.InitialActionsDelay.To == 0 {
		return fmt.Errorf("initial_actions_delay: upper bound must be positive")
	}

	chainMaps := map[string]map[string]bool{
		"source_chains":       s.SourceChains,
		"destination_chains":  s.DestinationChains,
		"withdrawal_networks": s.WithdrawalNetworks,
	}
	for name, chains := range chainMaps {
		for chain := range chains {
			if _, ok := wallet.LookupNetwork(wallet.NetworkType(chain)); !ok {
				return fmt.Errorf("%s: unknown chain %q", name, chain)
			}
		}
	}
	for chain, amount := range s.WithdrawalAmounts {
		if amount[0] < 0 || amount[1] < amount[0] {
			return fmt.Errorf("withdrawal_amounts.%s: invalid range [%v, %v]", chain, amount[0], amount[1])
		}
	}
	for chain := range s.RPCs {
		if _, ok := wallet.LookupNetwork(wallet.NetworkType(chain)); !ok {
			return fmt.Errorf("rpcs: unknown chain %q", chain)
		}
	}

	return nil
}

func enabled(flags map[string]bool) []wallet.NetworkType {
	out := make([]wallet.NetworkType, 0, len(flags))
	for chain, on := range flags {
		if on {
			out = append(out, wallet.NetworkType(chain))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EnabledSources returns the chains actions may start from
func (s *Settings) EnabledSources() []wallet.NetworkType {
	return enabled(s.SourceChains)
}

// EnabledDestinations returns the chains assets may be bridged to
func (s *Settings) EnabledDestinations() []wallet.NetworkType {
	return enabled(s.DestinationChains)
}

// WithdrawalTargets returns the chains that are both enabled sources and
// allowed withdrawal networks
func (s *Settings) WithdrawalTargets() []wallet.NetworkType {
	var out []wallet.NetworkType
	for _, chain := range s.EnabledSources() {
		if s.WithdrawalNetworks[string(chain)] {
			out = append(out, chain)
		}
	}
	return out
}

// BalanceChains returns the union of enabled source and destination chains
func (s *Settings) BalanceChains() []wallet.NetworkType {
	seen := make(map[wallet.NetworkType]bool)
	var out []wallet.NetworkType
	for _, chain := range append(s.EnabledSources(), s.EnabledDestinations()...) {
		if !seen[chain] {
			seen[chain] = true
			out = append(out, chain)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MinBalance returns the configured minimum native balance for a chain in wei.
// A chain with no configured minimum has a zero minimum.
func (s *Settings) MinBalance(chain wallet.NetworkType) *big.Int {
	return wallet.ToWei(decimal.NewFromFloat(s.ChainsMinBalances[string(chain)]), 18)
}

// WithdrawalAmount draws an amount for a chain, rounded to six decimals
func (s *Settings) WithdrawalAmount(chain wallet.NetworkType) (decimal.Decimal, bool) {
	bounds, ok := s.WithdrawalAmounts[string(chain)]
	if !ok {
		return decimal.Zero, false
	}
	lo := decimal.NewFromFloat(bounds[0])
	hi := decimal.NewFromFloat(bounds[1])
	amount := lo.Add(hi.Sub(lo).Mul(decimal.NewFromFloat(rand.Float64())))
	return amount.Round(6), true
}

// RPC returns the configured RPC endpoint for a chain, falling back to the
// network's public default
func (s *Settings) RPC(chain wallet.NetworkType) string {
	if url := s.RPCs[string(chain)]; url != "" {
		return url
	}
	cfg, _ := wallet.LookupNetwork(chain)
	return cfg.RPCURL
}

// GasCeiling returns maximum_gas_price converted from gwei to wei
func (s *Settings) GasCeiling() *big.Int {
	return wallet.ToWei(decimal.NewFromFloat(s.MaximumGasPrice), 9)
}

// PollInterval is the pause between scheduler iterations
func (s *Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// ReceiptTimeout bounds how long a submitted transaction is awaited
func (s *Settings) ReceiptTimeout() time.Duration {
	return time.Duration(s.ReceiptTimeoutSeconds) * time.Second
}
