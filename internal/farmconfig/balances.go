package farmconfig

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/scheduler"
	"github.com/lisanmuaddib/hyperfarm/pkg/secrets"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// WalletBalances is the native balance of one wallet per chain, in coins.
// Chains that could not be read are reported in Errors.
type WalletBalances struct {
	Address  string            `json:"address"`
	Name     string            `json:"name,omitempty"`
	Balances map[string]string `json:"balances"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Balances reads the native balance of every wallet on every enabled chain,
// at most concurrency wallets at a time
func Balances(ctx context.Context, logger *logrus.Logger, d scheduler.Dialer, cipher *secrets.Cipher, s *settings.Settings, wallets []*models.Wallet) ([]WalletBalances, error) {
	keys := make([]string, len(wallets))
	for i, w := range wallets {
		key, err := cipher.Decrypt(w.PrivateKey)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}

	out := make([]WalletBalances, len(wallets))
	chains := s.BalanceChains()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)

	for i, w := range wallets {
		key := keys[i]
		g.Go(func() error {
			result := WalletBalances{
				Address:  w.Address,
				Name:     w.Name,
				Balances: make(map[string]string, len(chains)),
			}
			var mu sync.Mutex

			cg, cctx := errgroup.WithContext(gctx)
			for _, chain := range chains {
				cg.Go(func() error {
					value, err := nativeBalance(cctx, d, chain, key, w.Proxy)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						logger.WithFields(logrus.Fields{"address": w.Address, "chain": chain}).WithError(err).Warn("Failed to read balance")
						if result.Errors == nil {
							result.Errors = make(map[string]string)
						}
						result.Errors[string(chain)] = err.Error()
						return nil
					}
					result.Balances[string(chain)] = value
					return nil
				})
			}
			if err := cg.Wait(); err != nil {
				return err
			}

			out[i] = result
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func nativeBalance(ctx context.Context, d scheduler.Dialer, chain wallet.NetworkType, key, proxy string) (string, error) {
	client, err := d.Dial(ctx, chain, key, proxy)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wei, err := client.Balance(ctx, nil)
	if err != nil {
		return "", err
	}
	return wallet.ToDecimal(wei, 18).String(), nil
}
