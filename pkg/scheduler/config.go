package scheduler

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/metrics"
	"github.com/lisanmuaddib/hyperfarm/pkg/progress"
	"github.com/lisanmuaddib/hyperfarm/pkg/secrets"
	"github.com/lisanmuaddib/hyperfarm/pkg/selector"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Store is the persistence the scheduler needs
type Store interface {
	ListDue(ctx context.Context, status models.Status, before int64) ([]*models.Wallet, error)
	ListAll(ctx context.Context, status models.Status) ([]*models.Wallet, error)
	Commit(ctx context.Context, wallets ...*models.Wallet) error
}

// Dialer opens a chain client for a wallet on one network
type Dialer interface {
	Dial(ctx context.Context, network wallet.NetworkType, privateKey, proxy string) (actions.ChainClient, error)
}

// Library resolves action types to actions
type Library interface {
	Get(t actions.Type) (actions.Action, bool)
	Supports(network wallet.NetworkType) bool
}

// Selector picks the next action for a wallet
type Selector interface {
	Select(w *models.Wallet, done progress.Counts, destinations []wallet.NetworkType) selector.Selection
}

// Withdrawer tops up a wallet that cannot pay for any action
type Withdrawer interface {
	TopUp(ctx context.Context, w *models.Wallet) bool
}

// GasOracle reports the gas price on the reference network in wei
type GasOracle interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Config wires the scheduler. Gate and Lock are shared with any other
// writer of the store.
type Config struct {
	Store      Store
	Dialer     Dialer
	Library    Library
	Selector   Selector
	Progress   progress.Source
	Withdrawer Withdrawer
	GasOracle  GasOracle
	Settings   *settings.Settings
	Cipher     *secrets.Cipher
	Logger     *logrus.Logger

	// Gate bounds the number of wallet tasks running at once
	Gate *semaphore.Weighted
	// Lock serializes store writes from tasks
	Lock sync.Locker

	Clock   func() time.Time
	Sleep   func(ctx context.Context, d time.Duration) error
	Metrics *metrics.Metrics
}

// Validate checks required dependencies and fills optional ones
func (c *Config) Validate() error {
	switch {
	case c.Store == nil:
		return errors.New("scheduler: store is required")
	case c.Dialer == nil:
		return errors.New("scheduler: dialer is required")
	case c.Library == nil:
		return errors.New("scheduler: action library is required")
	case c.Progress == nil:
		return errors.New("scheduler: progress source is required")
	case c.Withdrawer == nil:
		return errors.New("scheduler: withdrawer is required")
	case c.GasOracle == nil:
		return errors.New("scheduler: gas oracle is required")
	case c.Settings == nil:
		return errors.New("scheduler: settings are required")
	case c.Logger == nil:
		return errors.New("scheduler: logger is required")
	}

	if c.Selector == nil {
		c.Selector = selector.New()
	}
	if c.Cipher == nil {
		c.Cipher = secrets.Plain()
	}
	if c.Gate == nil {
		c.Gate = semaphore.NewWeighted(int64(c.Settings.Concurrency))
	}
	if c.Lock == nil {
		c.Lock = &sync.Mutex{}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = sleepContext
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
