package withdraw

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Helper tops up wallets from the exchange that serves the chosen chain
type Helper struct {
	settings  *settings.Settings
	exchanges map[wallet.Exchange]Exchange
	logger    *logrus.Logger
	pick      func(n int) int

	mu     sync.Mutex
	nextAt map[wallet.Exchange]time.Time
}

// NewHelper creates a withdrawal helper. Exchanges missing from the map are
// treated as unconfigured.
func NewHelper(logger *logrus.Logger, s *settings.Settings, exchanges map[wallet.Exchange]Exchange) *Helper {
	return &Helper{
		settings:  s,
		exchanges: exchanges,
		logger:    logger,
		pick:      rand.IntN,
		nextAt:    make(map[wallet.Exchange]time.Time),
	}
}

// NewExchanges builds a client for every exchange whose credentials are
// present. Exchanges without credentials are left out and logged once.
func NewExchanges(logger *logrus.Logger, s *settings.Settings) map[wallet.Exchange]Exchange {
	out := make(map[wallet.Exchange]Exchange)

	okx, err := NewOKXClient(OKXConfig{Credentials: s.OKX.Credentials, Logger: logger})
	if err != nil {
		logger.WithError(err).Warn("OKX withdrawals disabled")
	} else {
		out[wallet.ExchangeOKX] = okx
	}

	bn, err := NewBinanceClient(s.Binance.Credentials, "")
	if err != nil {
		logger.WithError(err).Warn("Binance withdrawals disabled")
	} else {
		out[wallet.ExchangeBinance] = bn
	}

	return out
}

// TopUp requests one withdrawal to the wallet on a random eligible chain. It
// reports whether the exchange accepted the request. Failures are logged and
// never retried here.
func (h *Helper) TopUp(ctx context.Context, w *models.Wallet) bool {
	log := h.logger.WithField("address", w.Address)

	targets := h.settings.WithdrawalTargets()
	if len(targets) == 0 {
		log.Warn("No chain is enabled for withdrawals")
		return false
	}

	chain := targets[h.pick(len(targets))]
	log = log.WithField("chain", chain)

	network, ok := wallet.LookupNetwork(chain)
	if !ok || network.Exchange == wallet.ExchangeNone {
		log.Warn("No exchange serves this chain")
		return false
	}

	exchange := h.exchanges[network.Exchange]
	if exchange == nil {
		log.WithField("exchange", network.Exchange).Error("Exchange credentials are not configured")
		return false
	}

	amount, ok := h.settings.WithdrawalAmount(chain)
	if !ok || !amount.IsPositive() {
		log.Warn("No withdrawal amount configured for chain")
		return false
	}

	if err := h.pace(ctx, network.Exchange); err != nil {
		log.WithError(err).Warn("Withdrawal cancelled")
		return false
	}

	id, err := exchange.Withdraw(ctx, Request{
		Coin:    network.Coin,
		Network: network.ExchangeNetwork,
		Address: w.Address,
		Amount:  amount,
		Fee:     network.WithdrawalFee,
	})
	if err != nil {
		log.WithError(err).WithField("exchange", network.Exchange).Error("Withdrawal failed")
		return false
	}

	log.WithFields(logrus.Fields{
		"exchange":      network.Exchange,
		"withdrawal_id": id,
		"amount":        amount.String(),
		"coin":          network.Coin,
	}).Info("Withdrawal requested")
	return true
}

// pace keeps consecutive withdrawals from one exchange apart by the
// configured delay
func (h *Helper) pace(ctx context.Context, ex wallet.Exchange) error {
	delay := h.settings.OKX.DelayBetweenWithdrawals
	if ex == wallet.ExchangeBinance {
		delay = h.settings.Binance.DelayBetweenWithdrawals
	}

	h.mu.Lock()
	now := time.Now()
	start := h.nextAt[ex]
	if start.Before(now) {
		start = now
	}
	h.nextAt[ex] = start.Add(time.Duration(delay.Rand()) * time.Second)
	h.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}
	h.logger.WithField("exchange", ex).Debugf("Waiting %s before next withdrawal", wait.Round(time.Second))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
