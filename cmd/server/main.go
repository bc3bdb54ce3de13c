package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fluxstate/di"
	"fluxstate/httpapi"

	"go.uber.org/zap"
)

// @title fluxstate example backend
// @description REST backend the default HTTP base query talks to, plus a
// devtools endpoint exposing the live store/api-engine state for
// debugging.
func main() {
	configPath := flag.String("config", "", "path to a config file; empty uses built-in defaults")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.NewContainer(*configPath)
	if err != nil {
		panic(err)
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      httpapi.NewRouter(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("starting server", zap.String("address", *addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("server shutdown error", zap.Error(err))
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("container shutdown error", zap.Error(err))
	}
}
