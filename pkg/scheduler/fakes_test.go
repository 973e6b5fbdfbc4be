package scheduler_test

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/progress"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

type memStore struct {
	mu      sync.Mutex
	wallets map[uint]models.Wallet
	commits int
}

func newMemStore(wallets ...models.Wallet) *memStore {
	s := &memStore{wallets: make(map[uint]models.Wallet)}
	for _, w := range wallets {
		s.wallets[w.ID] = w
	}
	return s
}

func (s *memStore) list(match func(w models.Wallet) bool) []*models.Wallet {
	var out []*models.Wallet
	for _, w := range s.wallets {
		if match(w) {
			copied := w
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListDue(_ context.Context, status models.Status, before int64) ([]*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(w models.Wallet) bool {
		return w.Status == status && w.NextActionTime() <= before
	}), nil
}

func (s *memStore) ListAll(_ context.Context, status models.Status) ([]*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(w models.Wallet) bool { return status == "" || w.Status == status }), nil
}

func (s *memStore) Commit(_ context.Context, wallets ...*models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	for _, w := range wallets {
		s.wallets[w.ID] = *w
	}
	return nil
}

func (s *memStore) get(id uint) models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[id]
}

// chainClient reports a fixed balance for native and token reads and
// answers every contract read with fee
type chainClient struct {
	network wallet.NetworkType
	balance *big.Int
	fee     *big.Int
}

func (c *chainClient) Network() wallet.NetworkType { return c.network }
func (c *chainClient) Address() common.Address     { return common.Address{} }
func (c *chainClient) Close()                      {}

func (c *chainClient) Balance(context.Context, *common.Address) (*big.Int, error) {
	return c.balance, nil
}

func (c *chainClient) GasPrice(context.Context) (*big.Int, error) { return big.NewInt(0), nil }

func (c *chainClient) Call(context.Context, common.Address, abi.ABI, string, ...interface{}) ([]interface{}, error) {
	if c.fee == nil {
		return nil, errors.New("not implemented")
	}
	return []interface{}{c.fee}, nil
}

func (c *chainClient) Submit(context.Context, wallet.TxParams) (common.Hash, error) {
	return common.Hash{}, errors.New("not implemented")
}

func (c *chainClient) WaitReceipt(context.Context, common.Hash, time.Duration) (*wallet.TransactionStatus, error) {
	return nil, errors.New("not implemented")
}

type dialer struct {
	mu       sync.Mutex
	balances map[wallet.NetworkType]*big.Int
	feeCall  *big.Int
	dials    int
}

func (d *dialer) Dial(_ context.Context, network wallet.NetworkType, _ string, _ string) (actions.ChainClient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	balance, ok := d.balances[network]
	if !ok {
		balance = big.NewInt(0)
	}
	return &chainClient{network: network, balance: balance, fee: d.feeCall}, nil
}

// scriptedAction returns a preset outcome and records where it ran
type scriptedAction struct {
	mu      sync.Mutex
	kind    actions.Type
	outcome actions.Outcome
	panics  bool
	runs    []wallet.NetworkType
	dests   []wallet.NetworkType
}

func (a *scriptedAction) Type() actions.Type                 { return a.kind }
func (a *scriptedAction) Name() string                       { return string(a.kind) }
func (a *scriptedAction) Supports(n wallet.NetworkType) bool { return n != wallet.Avalanche }

func (a *scriptedAction) Execute(_ context.Context, client actions.ChainClient, dest wallet.NetworkType) actions.Outcome {
	a.mu.Lock()
	a.runs = append(a.runs, client.Network())
	a.dests = append(a.dests, dest)
	a.mu.Unlock()
	if a.panics {
		panic("boom")
	}
	return a.outcome
}

func (a *scriptedAction) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.runs)
}

type withdrawer struct {
	mu    sync.Mutex
	calls []string
}

func (w *withdrawer) TopUp(_ context.Context, wl *models.Wallet) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, wl.Address)
	return true
}

type gasOracle struct {
	price *big.Int
	err   error
}

func (g *gasOracle) GasPrice(context.Context) (*big.Int, error) {
	return g.price, g.err
}

type failingProgress struct{}

func (failingProgress) Counts(context.Context, *models.Wallet) (progress.Counts, error) {
	return nil, errors.New("explorer unavailable")
}
