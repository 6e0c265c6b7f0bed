package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/repository"
)

// TransactionService serves transaction lookups and on-demand status
// refreshes.
type TransactionService struct {
	transactions repository.TransactionRepository
	monitor      SettlementMonitor
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactions repository.TransactionRepository, monitor SettlementMonitor) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		monitor:      monitor,
	}
}

// GetByReference returns the stored transaction for an internal reference.
func (s *TransactionService) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, err := s.transactions.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &ServiceError{Code: ErrCodeTransactionNotFound, Message: "transaction not found"}
		}
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to load transaction: %v", err),
		}
	}
	return txn, nil
}

// ListByAccount returns an account's transactions, newest first.
func (s *TransactionService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	txns, err := s.transactions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to list transactions: %v", err),
		}
	}
	return txns, nil
}

// RefreshStatus re-queries the gateway for a transaction and settles any
// status change before returning it. Terminal transactions are returned
// as stored.
func (s *TransactionService) RefreshStatus(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, err := s.monitor.Refresh(ctx, reference)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &ServiceError{Code: ErrCodeTransactionNotFound, Message: "transaction not found"}
		}
		return nil, gatewayServiceError(err)
	}
	return txn, nil
}
