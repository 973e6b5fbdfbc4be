package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// New creates a new Agent instance
func New(config Config) (*Agent, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	agent := &Agent{
		logger: config.Logger,
		tasks:  make(map[TaskType]Task),
	}

	for taskType, task := range config.Tasks {
		if err := agent.AddTask(taskType, task); err != nil {
			return nil, err
		}
	}

	return agent, nil
}

// Run starts every task and blocks until all of them return. The first task
// to fail cancels the others. Cancellation of ctx is a normal shutdown.
func (a *Agent) Run(ctx context.Context) error {
	a.tasksMu.RLock()
	if len(a.tasks) == 0 {
		a.tasksMu.RUnlock()
		return fmt.Errorf("no tasks configured")
	}

	a.logger.WithField("tasks", len(a.tasks)).Info("Starting agent")
	g, gctx := errgroup.WithContext(ctx)
	for taskType, task := range a.tasks {
		g.Go(func() error {
			log := a.logger.WithField("task", taskType)
			log.Info("Starting task")

			err := task.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("Task failed")
				return fmt.Errorf("task %s failed: %w", taskType, err)
			}

			log.Info("Task stopped")
			return nil
		})
	}
	a.tasksMu.RUnlock()

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("All tasks completed")
	return nil
}

// AddTask adds a new task to the agent
func (a *Agent) AddTask(taskType TaskType, task Task) error {
	a.tasksMu.Lock()
	defer a.tasksMu.Unlock()

	if task == nil {
		return fmt.Errorf("task %s is nil", taskType)
	}
	if _, exists := a.tasks[taskType]; exists {
		return fmt.Errorf("task %s already exists", taskType)
	}

	a.tasks[taskType] = task
	return nil
}

// RemoveTask removes a task that has not started yet
func (a *Agent) RemoveTask(taskType TaskType) {
	a.tasksMu.Lock()
	defer a.tasksMu.Unlock()
	delete(a.tasks, taskType)
}
