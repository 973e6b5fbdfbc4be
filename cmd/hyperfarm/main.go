package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/lisanmuaddib/hyperfarm/pkg/logging"
	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
)

func main() {
	env, err := settings.NewEnvConfig()
	log := logging.NewLogger(env.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Error loading .env file")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	code := run(&runtime{ctx: ctx, env: env, log: log}, os.Args)
	cancel()
	os.Exit(code)
}

// run executes the command line against r and returns the process exit code
// once r has been closed
func run(r *runtime, args []string) int {
	defer r.close()

	app := cli.NewApp()
	app.Name = "hyperfarm"
	app.Usage = "schedule Merkly Hyperlane mint and bridge activity across a wallet farm"
	app.Commands = r.commands()

	if err := app.Run(args); err != nil {
		r.log.WithError(err).Error("Command failed")
		return 1
	}
	return 0
}
