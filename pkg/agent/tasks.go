package agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultHeartbeatInterval is how often the heartbeat task reports
const DefaultHeartbeatInterval = 30 * time.Minute

// Task Types
const (
	TaskScheduler TaskType = "scheduler" // Processes due wallets
	TaskMetrics   TaskType = "metrics"   // Serves Prometheus metrics
	TaskHeartbeat TaskType = "heartbeat" // Logs farm progress periodically
)

// PeriodicTask calls fn every interval until its context ends. Errors from
// fn are logged and the task keeps running.
type PeriodicTask struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
	logger   *logrus.Logger
}

// NewPeriodicTask creates a periodic task
func NewPeriodicTask(logger *logrus.Logger, name string, interval time.Duration, fn func(ctx context.Context) error) *PeriodicTask {
	if logger == nil {
		logger = logrus.New()
	}
	return &PeriodicTask{name: name, interval: interval, fn: fn, logger: logger}
}

// Run implements the Task interface
func (p *PeriodicTask) Run(ctx context.Context) error {
	log := p.logger.WithField("task", p.name)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Context cancelled, stopping periodic task")
			return ctx.Err()
		case <-ticker.C:
			if err := p.fn(ctx); err != nil {
				log.WithError(err).Error("Periodic task failed")
				// Continue running despite errors
			}
		}
	}
}
