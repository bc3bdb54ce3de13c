// Command worker runs the background maintenance the dispatch pipeline
// otherwise only performs as a side effect of activity: a periodic tick
// that drives apiengine's unsubscribed-query eviction sweep even while the
// store is idle, and a periodic explicit persistence flush as a backstop
// to the throttled write the store already schedules on every change.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fluxstate/di"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("FLUXSTATE_CONFIG_PATH")
	container, err := di.NewContainer(configPath)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	container.Logger.Info("starting worker")

	go runTicker(ctx, container, container.Config.APIEngine.KeepUnusedDataFor/4, container.Tick, "eviction tick")
	go runTicker(ctx, container, container.Config.Persistence.ThrottleInterval*10, func() {
		container.Persister.Flush(ctx)
	}, "persistence flush")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := container.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("worker shutdown error", zap.Error(err))
	}
}

func runTicker(ctx context.Context, container *di.Container, interval time.Duration, fn func(), name string) {
	if interval <= 0 {
		interval = time.Minute
	}
	container.Logger.Info("starting background task", zap.String("task", name), zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			container.Logger.Info("background task shutting down", zap.String("task", name))
			return
		case <-ticker.C:
			fn()
		}
	}
}
