package settings_test

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

var _ = Describe("Load", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "files", "settings.json")
	})

	readTree := func() map[string]interface{} {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		tree := map[string]interface{}{}
		Expect(json.Unmarshal(data, &tree)).To(Succeed())
		return tree
	}

	It("creates the file from defaults", func() {
		s, err := settings.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(settings.Default()))

		tree := readTree()
		Expect(tree).To(HaveKey("maximum_gas_price"))
		Expect(tree).To(HaveKey("okx"))
	})

	It("fills missing keys and keeps user values", func() {
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(`{
			"maximum_gas_price": 30,
			"okx": {"credentials": {"api_key": "k", "secret_key": "s", "passphrase": "p"}},
			"h_mekr": {"from": 4, "to": 5}
		}`), 0o600)).To(Succeed())

		s, err := settings.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.MaximumGasPrice).To(Equal(30.0))
		Expect(s.OKX.Credentials.APIKey).To(Equal("k"))
		Expect(s.OKX.DelayBetweenWithdrawals).To(Equal(settings.Default().OKX.DelayBetweenWithdrawals))
		Expect(s.HMekr).To(Equal(settings.IntRange{From: 4, To: 5}))
		Expect(s.Concurrency).To(Equal(settings.DefaultConcurrency))

		tree := readTree()
		Expect(tree["maximum_gas_price"]).To(Equal(30.0))
		Expect(tree).To(HaveKey("withdrawal_amounts"))
		okx := tree["okx"].(map[string]interface{})
		Expect(okx).To(HaveKey("withdraw_amount"))
	})

	It("rejects inverted ranges", func() {
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(`{"h_nft": {"from": 3, "to": 1}}`), 0o600)).To(Succeed())

		_, err := settings.Load(path)
		Expect(err).To(MatchError(ContainSubstring("h_nft")))
	})

	It("rejects unknown chains", func() {
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(`{"source_chains": {"solana": true}}`), 0o600)).To(Succeed())

		_, err := settings.Load(path)
		Expect(err).To(MatchError(ContainSubstring("solana")))
	})

	It("rejects malformed documents", func() {
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(`{`), 0o600)).To(Succeed())

		_, err := settings.Load(path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Settings", func() {
	var s *settings.Settings

	BeforeEach(func() {
		s = settings.Default()
		s.SourceChains = map[string]bool{"polygon": true, "celo": true, "base": false}
		s.DestinationChains = map[string]bool{"base": true, "polygon": true}
		s.WithdrawalNetworks = map[string]bool{"polygon": true, "base": true}
	})

	It("lists enabled chains in order", func() {
		Expect(s.EnabledSources()).To(Equal([]wallet.NetworkType{wallet.Celo, wallet.Polygon}))
		Expect(s.EnabledDestinations()).To(Equal([]wallet.NetworkType{wallet.Base, wallet.Polygon}))
	})

	It("withdraws only to enabled sources", func() {
		Expect(s.WithdrawalTargets()).To(Equal([]wallet.NetworkType{wallet.Polygon}))
	})

	It("reads balances on the union of sources and destinations", func() {
		Expect(s.BalanceChains()).To(Equal([]wallet.NetworkType{wallet.Base, wallet.Celo, wallet.Polygon}))
	})

	It("converts minimum balances and the gas ceiling to wei", func() {
		Expect(s.MinBalance(wallet.Polygon).Cmp(big.NewInt(250_000_000_000_000_000))).To(BeZero())
		Expect(s.MinBalance(wallet.Arbitrum).Sign()).To(BeZero())
		Expect(s.GasCeiling().Cmp(big.NewInt(75_000_000_000))).To(BeZero())
	})

	It("draws withdrawal amounts inside the configured range", func() {
		for range 200 {
			amount, ok := s.WithdrawalAmount(wallet.Polygon)
			Expect(ok).To(BeTrue())
			Expect(amount.GreaterThanOrEqual(decimal.NewFromFloat(0.5))).To(BeTrue())
			Expect(amount.LessThanOrEqual(decimal.NewFromFloat(2.5))).To(BeTrue())
			Expect(amount.Exponent()).To(BeNumerically(">=", -6))
		}

		_, ok := s.WithdrawalAmount(wallet.Arbitrum)
		Expect(ok).To(BeFalse())
	})

	It("prefers configured RPCs over network defaults", func() {
		s.RPCs = map[string]string{"polygon": "https://rpc.example"}
		Expect(s.RPC(wallet.Polygon)).To(Equal("https://rpc.example"))

		cfg, _ := wallet.LookupNetwork(wallet.Base)
		Expect(s.RPC(wallet.Base)).To(Equal(cfg.RPCURL))
	})

	It("draws integer ranges inclusively", func() {
		r := settings.IntRange{From: 2, To: 3}
		seen := map[int64]bool{}
		for range 200 {
			v := r.Rand()
			Expect(v).To(BeElementOf(int64(2), int64(3)))
			seen[v] = true
		}
		Expect(seen).To(HaveLen(2))
		Expect(settings.IntRange{From: 5, To: 5}.Rand()).To(Equal(int64(5)))
	})
})
