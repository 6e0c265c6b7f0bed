package handlers

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zamapay/wallet/internal/config"
	"github.com/zamapay/wallet/internal/db"
	"github.com/zamapay/wallet/internal/gateway"
	"github.com/zamapay/wallet/internal/middleware"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
	"github.com/zamapay/wallet/internal/service"
	"github.com/zamapay/wallet/internal/settlement"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(
	database *db.DB,
	gw *gateway.Client,
	monitor *settlement.Monitor,
	notifier notify.Notifier,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	transactionRepo := repository.NewTransactionRepository(database)
	accountRepo := repository.NewAccountRepository(database)

	transferService := service.NewTransferService(database, notifier, logger)
	depositService := service.NewDepositService(transactionRepo, accountRepo, gw, monitor, notifier, logger, cfg.Gateway.Provider)
	withdrawalService := service.NewWithdrawalService(transactionRepo, accountRepo, gw, monitor, notifier, logger, cfg.Gateway.Provider)
	transactionService := service.NewTransactionService(transactionRepo, monitor)

	handler := NewHandler(transferService, depositService, withdrawalService, transactionService, monitor, database, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/transfers", handler.CreateTransfer)
	mux.HandleFunc("POST /api/v1/deposits", handler.CreateDeposit)
	mux.HandleFunc("POST /api/v1/withdrawals", handler.CreateWithdrawal)
	mux.HandleFunc("GET /api/v1/transactions/{reference}", handler.GetTransaction)
	mux.HandleFunc("POST /api/v1/transactions/{reference}/refresh", handler.RefreshTransaction)
	mux.HandleFunc("GET /api/v1/accounts/{accountId}/transactions", handler.ListAccountTransactions)
	mux.HandleFunc("POST /api/v1/webhooks/gateway", handler.GatewayWebhook)
	mux.HandleFunc("GET /health", handler.GetHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var finalHandler http.Handler = mux

	idempotencyRepo := repository.NewIdempotencyRepository(database)
	finalHandler = middleware.Idempotency(idempotencyRepo, logger)(finalHandler)
	finalHandler = middleware.RequestLogging(logger)(finalHandler)

	return finalHandler
}
