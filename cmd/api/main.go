// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "bank-ledger/internal"
)

// shutdownGrace bounds draining in-flight movements and closing Kafka, redis and the database.
const shutdownGrace = 30 * time.Second

func main() {
	application := app.NewApplication()
	if err := run(application); err != nil {
		application.Logger.Error("Ledger API stopped with error", "error", err)
		os.Exit(1)
	}
	application.Logger.Info("Ledger API stopped.")
}

func run(application *app.Application) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	server := &http.Server{
		Addr:         ":" + application.Config.ServerPort,
		Handler:      application.HTTPHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second, // above the router's request timeout
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		application.Logger.Info("Ledger API listening", "addr", server.Addr, "storage", application.Config.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		_ = application.Shutdown(context.Background())
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		application.Logger.Info("Signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Movements already past PENDING finish before the stores close.
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return application.Shutdown(shutdownCtx)
}
