package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gumtree-monitor/internal/observability"
)

// GracefulShutdown cancels the returned context on SIGINT/SIGTERM. The monitor
// notices between cycles, during the sleep and between messages.
func GracefulShutdown(logger *observability.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
