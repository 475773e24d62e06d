package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/sender-protect/internal/adapters/cli"
	"github.com/mikey/sender-protect/internal/di"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run analyzes one message and returns the process exit code
func run() int {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	err = container.Invoke(func(logger *zap.Logger, runner *cli.Runner) {
		defer logger.Sync()

		if err := runner.Run(ctx, flags.Input()); err != nil {
			logger.Debug("Analysis did not produce a result", zap.Error(err))
			exitCode = 1
		}
	})
	if err != nil {
		fmt.Printf("Application error: %v\n", err)
		return 1
	}

	return exitCode
}
