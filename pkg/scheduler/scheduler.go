package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

const (
	// gasWarnInterval limits how often a blocked tick is logged
	gasWarnInterval = 30 * time.Minute
	minDelay        = time.Second
	timeLayout      = "2006-01-02 15:04:05"
)

// Scheduler drives Initial wallets through their actions
type Scheduler struct {
	cfg Config
	log *logrus.Logger

	mu          sync.Mutex
	nextGasWarn time.Time
}

// TickReport summarizes one iteration
type TickReport struct {
	ID         string
	Expired    int
	Due        int
	Dispatched int
	GasBlocked bool
	// Next is how long to wait before the following iteration
	Next time.Duration
}

// New creates a scheduler
func New(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{cfg: cfg, log: cfg.Logger}, nil
}

// Run loops until ctx is cancelled. Wallet tasks already admitted when the
// context ends are allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	poll := s.cfg.Settings.PollInterval()
	s.log.WithFields(logrus.Fields{
		"concurrency":   s.cfg.Settings.Concurrency,
		"poll_interval": poll.String(),
		"gas_ceiling":   s.cfg.Settings.MaximumGasPrice,
	}).Info("Scheduler started")
	s.logNextAction(ctx, s.log.WithContext(ctx))

	for {
		if ctx.Err() != nil {
			s.log.Info("Scheduler stopped")
			return nil
		}

		report, err := s.safeTick(ctx)
		wait := report.Next
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			s.log.WithError(err).WithField("tick_id", report.ID).Error("Scheduler iteration failed")
			wait = poll
		}
		if wait < minDelay {
			wait = minDelay
		}

		if err := s.cfg.Sleep(ctx, wait); err != nil {
			s.log.Info("Scheduler stopped")
			return nil
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) (report TickReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.Metrics.Panic()
			report.Next = s.cfg.Settings.PollInterval()
			err = fmt.Errorf("panic in scheduler iteration: %v", r)
		}
	}()
	return s.Tick(ctx)
}

// Tick runs one iteration: recompute expired timers, gate on gas, then
// process every due wallet and wait for all of them.
func (s *Scheduler) Tick(ctx context.Context) (TickReport, error) {
	report := TickReport{ID: uuid.NewString(), Next: s.cfg.Settings.PollInterval()}
	log := s.log.WithField("tick_id", report.ID)

	expired, err := s.UpdateExpired(ctx)
	if err != nil {
		return report, err
	}
	report.Expired = expired

	now := s.cfg.Clock()
	due, err := s.cfg.Store.ListDue(ctx, models.StatusInitial, now.Unix())
	if err != nil {
		return report, fmt.Errorf("failed to list due wallets: %w", err)
	}
	report.Due = len(due)
	s.cfg.Metrics.Tick(len(due))

	if len(due) == 0 {
		return report, nil
	}

	price, err := s.cfg.GasOracle.GasPrice(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read gas price: %w", err)
	}
	ceiling := s.cfg.Settings.GasCeiling()
	gwei := wallet.ToDecimal(price, 9)
	if price.Cmp(ceiling) > 0 {
		report.GasBlocked = true
		report.Next = s.cfg.Settings.PollInterval() / 2
		s.cfg.Metrics.GasPrice(gwei.InexactFloat64(), true)
		s.warnGas(log, now, gwei.StringFixed(2))
		return report, nil
	}
	s.cfg.Metrics.GasPrice(gwei.InexactFloat64(), false)

	log.WithFields(logrus.Fields{
		"due":       len(due),
		"gas_price": gwei.StringFixed(2),
	}).Info("Processing due wallets")

	report.Dispatched = s.dispatch(ctx, log, due)
	s.logNextAction(ctx, log)

	return report, nil
}

// UpdateExpired re-randomizes Initial timers that fell more than one full
// delay window behind, which happens after the process was down for a
// while. Timers of zero mean due immediately and are left alone.
func (s *Scheduler) UpdateExpired(ctx context.Context) (int, error) {
	wallets, err := s.cfg.Store.ListAll(ctx, models.StatusInitial)
	if err != nil {
		return 0, fmt.Errorf("failed to list initial wallets: %w", err)
	}

	now := s.cfg.Clock().Unix()
	delay := s.cfg.Settings.InitialActionsDelay
	threshold := now - delay.To

	var expired []*models.Wallet
	for _, w := range wallets {
		if w.NextInitialActionTime == 0 || w.NextInitialActionTime >= threshold {
			continue
		}
		w.NextInitialActionTime = now + randBetween(0, delay.To/2)
		s.log.WithFields(logrus.Fields{
			"address":   w.Address,
			"next_time": time.Unix(w.NextInitialActionTime, 0).Format(timeLayout),
		}).Info("Action time was re-generated")
		expired = append(expired, w)
	}

	if len(expired) == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, expired...); err != nil {
		return 0, err
	}
	return len(expired), nil
}

// dispatch runs one task per wallet through the gate and waits for all of
// them. Once ctx is cancelled no new task is admitted.
func (s *Scheduler) dispatch(ctx context.Context, log *logrus.Entry, due []*models.Wallet) int {
	var wg sync.WaitGroup
	taskCtx := context.WithoutCancel(ctx)

	dispatched := 0
	for _, w := range due {
		if err := s.cfg.Gate.Acquire(ctx, 1); err != nil {
			log.WithError(err).Warn("Stopped admitting wallet tasks")
			break
		}
		dispatched++
		wg.Add(1)
		go func(w *models.Wallet) {
			defer wg.Done()
			defer s.cfg.Gate.Release(1)
			s.runTask(taskCtx, log, w)
		}(w)
	}

	wg.Wait()
	return dispatched
}

func (s *Scheduler) warnGas(log *logrus.Entry, now time.Time, gwei string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Before(s.nextGasWarn) {
		return
	}
	s.nextGasWarn = now.Add(gasWarnInterval)
	log.WithFields(logrus.Fields{
		"gas_price": gwei,
		"ceiling":   s.cfg.Settings.MaximumGasPrice,
	}).Warn("Current gas price is too high")
}

func (s *Scheduler) logNextAction(ctx context.Context, log *logrus.Entry) {
	wallets, err := s.cfg.Store.ListAll(ctx, models.StatusInitial)
	if err != nil {
		log.WithError(err).Warn("Failed to read upcoming actions")
		return
	}
	if len(wallets) == 0 {
		log.Info("No wallets left in the initial stage")
		return
	}

	next := wallets[0].NextInitialActionTime
	for _, w := range wallets[1:] {
		if w.NextInitialActionTime < next {
			next = w.NextInitialActionTime
		}
	}
	log.WithField("next_time", time.Unix(next, 0).Format(timeLayout)).Info("Next closest action scheduled")
}

func (s *Scheduler) commit(ctx context.Context, wallets ...*models.Wallet) error {
	s.cfg.Lock.Lock()
	defer s.cfg.Lock.Unlock()
	return s.cfg.Store.Commit(ctx, wallets...)
}
