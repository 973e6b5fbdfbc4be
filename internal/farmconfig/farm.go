// Package farmconfig builds the farm's components from settings and wires
// them into the agent that the run command starts.
package farmconfig

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/agent"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/metrics"
	"github.com/lisanmuaddib/hyperfarm/pkg/progress"
	"github.com/lisanmuaddib/hyperfarm/pkg/scheduler"
	"github.com/lisanmuaddib/hyperfarm/pkg/secrets"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
	"github.com/lisanmuaddib/hyperfarm/pkg/store"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
	"github.com/lisanmuaddib/hyperfarm/pkg/withdraw"
)

// ChainDialer adapts wallet.Dialer to the client interface actions use
type ChainDialer struct {
	*wallet.Dialer
}

// NewChainDialer creates a dialer that resolves endpoints from settings
func NewChainDialer(logger *logrus.Logger, s *settings.Settings) ChainDialer {
	return ChainDialer{wallet.NewDialer(logger, s.RPC)}
}

func (d ChainDialer) Dial(ctx context.Context, network wallet.NetworkType, privateKey, proxy string) (actions.ChainClient, error) {
	client, err := d.Dialer.Dial(ctx, network, privateKey, proxy)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GasOracle reads the gas price of the reference network with a read-only client
type GasOracle struct {
	dialer  *wallet.Dialer
	network wallet.NetworkType

	mu     sync.Mutex
	client *wallet.Client
}

// NewGasOracle creates an oracle for network
func NewGasOracle(d ChainDialer, network wallet.NetworkType) *GasOracle {
	return &GasOracle{dialer: d.Dialer, network: network}
}

// GasPrice returns the current gas price in wei, dialing on first use. A
// failed read drops the connection so the next call redials.
func (g *GasOracle) GasPrice(ctx context.Context) (*big.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		client, err := g.dialer.Dial(ctx, g.network, "", "")
		if err != nil {
			return nil, err
		}
		g.client = client
	}

	price, err := g.client.GasPrice(ctx)
	if err != nil {
		g.client.Close()
		g.client = nil
		return nil, err
	}
	return price, nil
}

// Close releases the oracle's connection
func (g *GasOracle) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		g.client.Close()
		g.client = nil
	}
}

// NewProgressSource returns the OKLink source when an API key is configured
// and the local done counters otherwise
func NewProgressSource(logger *logrus.Logger, s *settings.Settings) progress.Source {
	if s.OKLinkAPIKey == "" {
		logger.Info("No OKLink API key configured, counting progress from local records")
		return progress.StoreSource{}
	}
	return progress.NewOKLinkSource(logger, progress.OKLinkConfig{APIKey: s.OKLinkAPIKey})
}

// FarmConfig holds what the farm is built from
type FarmConfig struct {
	Logger   *logrus.Logger
	Settings *settings.Settings
	Store    *store.WalletStore
	Cipher   *secrets.Cipher
}

// Farm is the assembled set of long-running components
type Farm struct {
	Agent     *agent.Agent
	Scheduler *scheduler.Scheduler
	Registry  *prometheus.Registry

	gas *GasOracle
}

// NewFarm builds the scheduler and its collaborators and registers the
// scheduler, metrics and heartbeat tasks on a new agent
func NewFarm(cfg FarmConfig) (*Farm, error) {
	s := cfg.Settings
	log := cfg.Logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	dialer := NewChainDialer(log, s)
	gas := NewGasOracle(dialer, wallet.NetworkType(s.GasPriceNetwork))

	library := actions.NewMerklyLibrary(actions.Options{
		Logger:         log,
		ReceiptTimeout: s.ReceiptTimeout(),
		MintAmount:     s.HFTAmountForMintAndBridge.Rand,
	})

	helper := withdraw.NewHelper(log, s, withdraw.NewExchanges(log, s))

	sched, err := scheduler.New(scheduler.Config{
		Store:      cfg.Store,
		Dialer:     dialer,
		Library:    library,
		Progress:   NewProgressSource(log, s),
		Withdrawer: helper,
		GasOracle:  gas,
		Settings:   s,
		Cipher:     cfg.Cipher,
		Logger:     log,
		Gate:       semaphore.NewWeighted(int64(s.Concurrency)),
		Lock:       &sync.Mutex{},
		Metrics:    m,
	})
	if err != nil {
		gas.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	tasks := map[agent.TaskType]agent.Task{
		agent.TaskScheduler: agent.TaskFunc(sched.Run),
		agent.TaskHeartbeat: agent.NewPeriodicTask(log, string(agent.TaskHeartbeat), agent.DefaultHeartbeatInterval, Heartbeat(log, cfg.Store)),
	}
	if s.MetricsAddr != "" {
		tasks[agent.TaskMetrics] = metrics.NewServer(log, s.MetricsAddr, registry)
	}

	a, err := agent.New(agent.Config{Logger: log, Tasks: tasks})
	if err != nil {
		gas.Close()
		return nil, err
	}

	return &Farm{Agent: a, Scheduler: sched, Registry: registry, gas: gas}, nil
}

// Run runs every farm task until ctx ends
func (f *Farm) Run(ctx context.Context) error {
	defer f.gas.Close()
	return f.Agent.Run(ctx)
}

// Counter reports wallets per status
type Counter interface {
	Count(ctx context.Context) (map[models.Status]int64, error)
}

// Heartbeat logs how many wallets sit in each status
func Heartbeat(logger *logrus.Logger, c Counter) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		counts, err := c.Count(ctx)
		if err != nil {
			return err
		}
		fields := logrus.Fields{}
		for status, n := range counts {
			fields[string(status)] = n
		}
		logger.WithFields(fields).Info("Farm progress")
		return nil
	}
}
