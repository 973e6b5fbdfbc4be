package scheduler

import (
	"context"
	"math/big"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/selector"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Retry window after a failed action, in seconds
const (
	failedRetryFrom = 5 * 60
	failedRetryTo   = 10 * 60
)

func randBetween(from, to int64) int64 {
	if to <= from {
		return from
	}
	return from + rand.Int64N(to-from+1)
}

func pick[T any](items []T) T {
	return items[rand.IntN(len(items))]
}

// runTask processes one wallet. Panics are recovered and the wallet is
// pushed back by the failure delay so it is not retried in a hot loop.
func (s *Scheduler) runTask(ctx context.Context, tickLog *logrus.Entry, w *models.Wallet) {
	started := time.Now()
	log := tickLog.WithField("address", w.Address)

	defer func() {
		s.cfg.Metrics.TaskDone(started)
		if r := recover(); r != nil {
			s.cfg.Metrics.Panic()
			log.WithField("panic", r).Error("Wallet task panicked")
			w.NextInitialActionTime = s.cfg.Clock().Unix() + randBetween(failedRetryFrom, failedRetryTo)
			if err := s.commit(ctx, w); err != nil {
				log.WithError(err).Error("Failed to reschedule wallet after panic")
			}
		}
	}()

	if err := s.processWallet(ctx, log, w); err != nil {
		log.WithError(err).Error("Failed to save wallet")
	}
}

// chainSnapshot holds the native balances read at the start of a task and
// the clients used to read them
type chainSnapshot struct {
	clients  map[wallet.NetworkType]actions.ChainClient
	balances map[wallet.NetworkType]*big.Int
}

func (c *chainSnapshot) close() {
	for _, client := range c.clients {
		client.Close()
	}
}

func (s *Scheduler) funded(snap *chainSnapshot, chain wallet.NetworkType) bool {
	balance, ok := snap.balances[chain]
	return ok && balance.Cmp(s.cfg.Settings.MinBalance(chain)) > 0
}

func (s *Scheduler) snapshot(ctx context.Context, log *logrus.Entry, w *models.Wallet, key string) *chainSnapshot {
	snap := &chainSnapshot{
		clients:  make(map[wallet.NetworkType]actions.ChainClient),
		balances: make(map[wallet.NetworkType]*big.Int),
	}

	for _, chain := range s.cfg.Settings.BalanceChains() {
		client, err := s.cfg.Dialer.Dial(ctx, chain, key, w.Proxy)
		if err != nil {
			log.WithError(err).WithField("chain", chain).Warn("Failed to connect")
			continue
		}
		balance, err := client.Balance(ctx, nil)
		if err != nil {
			log.WithError(err).WithField("chain", chain).Warn("Failed to read balance")
			client.Close()
			continue
		}
		snap.clients[chain] = client
		snap.balances[chain] = balance
	}

	return snap
}

// processWallet runs one attempt for w and persists its new schedule. The
// returned error concerns persistence only; every other failure is folded
// into the schedule.
func (s *Scheduler) processWallet(ctx context.Context, log *logrus.Entry, w *models.Wallet) error {
	delay := s.cfg.Settings.InitialActionsDelay

	key, err := s.cfg.Cipher.Decrypt(w.PrivateKey)
	if err != nil {
		log.WithError(err).Error("Failed to decrypt private key")
		return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
	}
	if w.Address == "" {
		addr, err := wallet.AddressFromKey(key)
		if err != nil {
			log.WithError(err).Error("Invalid private key")
			return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
		}
		w.Address = addr.Hex()
		log = log.WithField("address", w.Address)
	}

	snap := s.snapshot(ctx, log, w, key)
	defer snap.close()

	var sources []wallet.NetworkType
	for _, chain := range s.cfg.Settings.EnabledSources() {
		if s.funded(snap, chain) && s.cfg.Library.Supports(chain) {
			sources = append(sources, chain)
		}
	}

	if len(sources) == 0 {
		log.Warn("Not enough balance for any action, requesting a withdrawal")
		s.cfg.Metrics.Withdrawal(s.cfg.Withdrawer.TopUp(ctx, w))
		return s.reschedule(ctx, w, randBetween(delay.From/6, delay.To/3))
	}

	source := pick(sources)
	client := snap.clients[source]
	log = log.WithField("chain", source)

	var destinations []wallet.NetworkType
	for _, chain := range s.cfg.Settings.EnabledDestinations() {
		if chain != source && s.funded(snap, chain) && s.cfg.Library.Supports(chain) {
			destinations = append(destinations, chain)
		}
	}

	done, err := s.cfg.Progress.Counts(ctx, w)
	if err != nil {
		log.WithError(err).Error("Failed to read progress")
		return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
	}

	selection := s.cfg.Selector.Select(w, done, destinations)
	switch selection.Kind {
	case selector.Processed:
		log.Info("All targets reached")
		return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
	case selector.NoDestination:
		log.Warn("No destination chain holds enough balance")
		return s.notStarted(ctx, w)
	}

	action, ok := s.cfg.Library.Get(selection.Action)
	if !ok || !action.Supports(source) {
		log.WithField("action", selection.Action).Warn("Action is not available on this chain")
		return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
	}

	dest := pick(destinations)
	log = log.WithFields(logrus.Fields{"action": action.Type(), "destination": dest})
	log.Info(action.Name())

	outcome := action.Execute(ctx, client, dest)
	s.cfg.Metrics.Action(string(action.Type()), outcome.Kind.String())

	switch outcome.Kind {
	case actions.OutcomeSuccess:
		switch action.Type() {
		case actions.MintBridgeHFT:
			w.HMerkDone++
		case actions.MintBridgeHNFT:
			w.HNFTDone++
		}
		log.WithField("tx_hash", hashes(outcome)).Info(outcome.Message)
		return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
	case actions.OutcomeFailed, actions.OutcomeNoBalance:
		// an unpaid fee is an ordinary failure; the wallet stays in the Initial loop
		log.WithError(outcome.Err).WithField("tx_hash", hashes(outcome)).Error(outcome.Message)
		return s.reschedule(ctx, w, randBetween(failedRetryFrom, failedRetryTo))
	default:
		log.Info(outcome.Message)
		return s.reschedule(ctx, w, randBetween(delay.From, delay.To))
	}
}

// reschedule moves the Initial timer offset seconds past the current time,
// at least one second ahead
func (s *Scheduler) reschedule(ctx context.Context, w *models.Wallet, offset int64) error {
	w.NextInitialActionTime = s.cfg.Clock().Unix() + max(offset, 1)
	return s.commit(ctx, w)
}

// notStarted parks the wallet until an activity stage picks it up
func (s *Scheduler) notStarted(ctx context.Context, w *models.Wallet) error {
	delay := s.cfg.Settings.InitialActionsDelay
	w.Status = models.StatusNotStarted
	w.NextActivityActionTime = s.cfg.Clock().Unix() + max(randBetween(delay.From, delay.To), 1)
	return s.commit(ctx, w)
}

func hashes(o actions.Outcome) string {
	if len(o.TxHashes) == 0 {
		return ""
	}
	out := o.TxHashes[0].Hex()
	for _, h := range o.TxHashes[1:] {
		out += "," + h.Hex()
	}
	return out
}
