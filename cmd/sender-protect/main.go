package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/sender-protect/internal/di"
	"github.com/mikey/sender-protect/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(logger *zap.Logger, frontends []ports.Frontend) error {
	defer logger.Sync()

	started := make([]ports.Frontend, 0, len(frontends))
	for _, frontend := range frontends {
		if err := frontend.Start(); err != nil {
			logger.Error("Failed to start front end", zap.String("frontend", frontend.Name()), zap.Error(err))
			stopAll(logger, started)
			return err
		}
		started = append(started, frontend)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	stopAll(logger, started)

	logger.Info("Shutdown complete")
	return nil
}

func stopAll(logger *zap.Logger, frontends []ports.Frontend) {
	for i := len(frontends) - 1; i >= 0; i-- {
		if err := frontends[i].Stop(); err != nil {
			logger.Error("Failed to stop front end", zap.String("frontend", frontends[i].Name()), zap.Error(err))
		}
	}
}
