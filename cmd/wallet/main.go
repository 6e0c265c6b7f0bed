package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zamapay/wallet/internal/config"
	"github.com/zamapay/wallet/internal/db"
	"github.com/zamapay/wallet/internal/gateway"
	"github.com/zamapay/wallet/internal/handlers"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
	"github.com/zamapay/wallet/internal/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting wallet api",
		"port", cfg.Server.Port,
		"provider", cfg.Gateway.Provider,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	gw := gateway.NewClient(cfg.Gateway, logger)
	notifier := notify.NewDispatcher(notify.NewLogNotifier(logger))

	transactionRepo := repository.NewTransactionRepository(database)
	accountRepo := repository.NewAccountRepository(database)

	monitor := settlement.NewMonitor(transactionRepo, accountRepo, gw, notifier, logger, cfg.Settlement.MaxAttempts, nil)
	defer monitor.Close()

	sweeper := settlement.NewSweeper(transactionRepo, monitor, logger)
	if err := sweeper.Start(cfg.Settlement.SweepSpec); err != nil {
		logger.Error("failed to start settlement sweeper", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	router := handlers.NewRouter(database, gw, monitor, notifier, cfg, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
