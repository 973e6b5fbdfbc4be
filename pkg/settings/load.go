package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

var farmChains = []string{"polygon", "celo", "base", "optimism", "avalanche", "bsc", "moonbeam"}

func allChains(on bool) map[string]bool {
	out := make(map[string]bool, len(farmChains))
	for _, chain := range farmChains {
		out[chain] = on
	}
	return out
}

// Default returns the settings document written on first start
func Default() *Settings {
	return &Settings{
		UsePrivateKeyEncryption: false,
		MaximumGasPrice:         75,
		GasPriceNetwork:         DefaultGasPriceNetwork,
		OKX: ExchangeSettings{
			RequiredMinimumBalance:  0.0001,
			WithdrawAmount:          FloatRange{From: 0.001, To: 0.009},
			DelayBetweenWithdrawals: IntRange{From: 60, To: 180},
		},
		Binance: ExchangeSettings{
			RequiredMinimumBalance:  0.0001,
			WithdrawAmount:          FloatRange{From: 0.001, To: 0.009},
			DelayBetweenWithdrawals: IntRange{From: 60, To: 180},
		},
		InitialActionsDelay:       IntRange{From: 432000, To: 1728000},
		HMekr:                     IntRange{From: 1, To: 10},
		HNFT:                      IntRange{From: 1, To: 3},
		HFTAmountForMintAndBridge: IntRange{From: 1, To: 20},
		ChainsMinBalances: map[string]float64{
			"polygon":   0.25,
			"celo":      0.2,
			"base":      0.0002,
			"optimism":  0.0002,
			"avalanche": 0.0088,
			"bsc":       0.00055908,
			"moonbeam":  0.5,
		},
		SourceChains:       allChains(true),
		DestinationChains:  allChains(true),
		WithdrawalNetworks: allChains(true),
		WithdrawalAmounts: map[string][2]float64{
			"polygon":   {0.5, 2.5},
			"celo":      {0.18, 1},
			"base":      {0.0021, 0.0032},
			"optimism":  {0.00013, 0.00078},
			"avalanche": {0.007, 0.0375},
			"bsc":       {0.00084, 0.00335},
			"moonbeam":  {0.45, 3},
		},
		RPCs:                  map[string]string{},
		Concurrency:           DefaultConcurrency,
		PollIntervalSeconds:   DefaultPollIntervalSeconds,
		ReceiptTimeoutSeconds: DefaultReceiptTimeoutSeconds,
	}
}

// Load reads the settings file at path. A missing file is created from the
// defaults; keys missing from an existing file are filled in from the
// defaults and written back, leaving user values untouched.
func Load(path string) (*Settings, error) {
	template, err := toTree(Default())
	if err != nil {
		return nil, err
	}

	current := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &current); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	before := deepCopy(current)
	mergeMissing(current, template)

	if !reflect.DeepEqual(before, current) || len(data) == 0 {
		if err := writeTree(path, current); err != nil {
			return nil, err
		}
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	s := &Settings{}
	if err := json.Unmarshal(merged, s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

func toTree(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	tree := map[string]interface{}{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode defaults: %w", err)
	}
	return tree, nil
}

// mergeMissing copies keys from template that dst lacks, recursing into
// nested objects present on both sides
func mergeMissing(dst, template map[string]interface{}) {
	for key, tv := range template {
		dv, ok := dst[key]
		if !ok {
			dst[key] = tv
			continue
		}
		dm, dOK := dv.(map[string]interface{})
		tm, tOK := tv.(map[string]interface{})
		if dOK && tOK {
			mergeMissing(dm, tm)
		}
	}
}

func deepCopy(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = deepCopy(m)
			continue
		}
		out[k] = v
	}
	return out
}

func writeTree(path string, tree map[string]interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
