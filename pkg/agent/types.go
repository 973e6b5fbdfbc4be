package agent

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// TaskType names a long-running task
type TaskType string

// Task is a unit of work that runs until its context ends
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to the Task interface
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Agent runs the farm's long-lived tasks under one context
type Agent struct {
	logger  *logrus.Logger
	tasks   map[TaskType]Task
	tasksMu sync.RWMutex
}

// Config holds the configuration for the Agent
type Config struct {
	Logger *logrus.Logger
	Tasks  map[TaskType]Task
}
