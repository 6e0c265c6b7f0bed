package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
)

// DepositService handles deposits: money collected from the account owner's
// mobile money number into the wallet. The balance is credited only when the
// settlement monitor confirms completion, never at submission.
type DepositService struct {
	submitCore
}

// NewDepositService creates a new DepositService
func NewDepositService(
	transactions repository.TransactionRepository,
	accounts repository.AccountRepository,
	gw PaymentGateway,
	monitor SettlementMonitor,
	notifier notify.Notifier,
	logger *slog.Logger,
	provider string,
) *DepositService {
	return &DepositService{
		submitCore: submitCore{
			transactions: transactions,
			accounts:     accounts,
			gateway:      gw,
			monitor:      monitor,
			notifier:     notifier,
			logger:       logger,
			provider:     provider,
		},
	}
}

// Deposit records a PENDING transaction, submits a collection request to the
// gateway, and hands the transaction to the settlement monitor unless the
// gateway already reports a terminal status.
func (s *DepositService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidAmount, Message: err.Error()}
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	txn, err := s.recordPending(ctx, account, models.TransactionTypeDeposit, amount, description)
	if err != nil {
		return nil, err
	}

	ack, err := s.gateway.SubmitCollection(ctx, amount, account.PhoneNumber, description, txn.Reference)
	if err != nil {
		return nil, s.failSubmission(ctx, txn, account, err)
	}

	return s.acceptAck(ctx, txn, ack)
}
