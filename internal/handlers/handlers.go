// Package handlers implements HTTP handlers for the wallet API.
package handlers

import (
	"context"
	"log/slog"

	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/service"
)

// ExternalResolver applies a gateway-reported status to the transaction it
// belongs to. Satisfied by the settlement monitor.
type ExternalResolver interface {
	ResolveExternal(ctx context.Context, externalRef, rawStatus string) (*models.Transaction, error)
}

// Handler serves all wallet API endpoints.
type Handler struct {
	transferService    service.Transferrer
	depositService     service.Depositor
	withdrawalService  service.Withdrawer
	transactionService service.TransactionReader
	resolver           ExternalResolver
	healthChecker      service.HealthChecker
	logger             *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	transferService service.Transferrer,
	depositService service.Depositor,
	withdrawalService service.Withdrawer,
	transactionService service.TransactionReader,
	resolver ExternalResolver,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		transferService:    transferService,
		depositService:     depositService,
		withdrawalService:  withdrawalService,
		transactionService: transactionService,
		resolver:           resolver,
		healthChecker:      healthChecker,
		logger:             logger,
	}
}
