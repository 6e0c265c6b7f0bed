package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
)

// WithdrawalService handles withdrawals: money disbursed from the wallet to
// the account owner's mobile money number. Funds are checked at submission
// to avoid pointless provider traffic, but the balance is debited only when
// the settlement monitor confirms completion.
type WithdrawalService struct {
	submitCore
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(
	transactions repository.TransactionRepository,
	accounts repository.AccountRepository,
	gw PaymentGateway,
	monitor SettlementMonitor,
	notifier notify.Notifier,
	logger *slog.Logger,
	provider string,
) *WithdrawalService {
	return &WithdrawalService{
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

// Withdraw verifies the PIN and available funds, records a PENDING
// transaction, submits a disbursement request to the gateway, and hands the
// transaction to the settlement monitor unless the gateway already reports
// a terminal status.
func (s *WithdrawalService) Withdraw(ctx context.Context, accountID uuid.UUID, pin string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidAmount, Message: err.Error()}
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PinHash), []byte(pin)); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidPin, Message: "PIN does not match"}
	}

	if account.Balance.LessThan(amount) {
		return nil, &ServiceError{
			Code:    ErrCodeInsufficientFunds,
			Message: fmt.Sprintf("insufficient funds: required %s, available %s", amount, account.Balance),
		}
	}

	txn, err := s.recordPending(ctx, account, models.TransactionTypeWithdrawal, amount, description)
	if err != nil {
		return nil, err
	}

	ack, err := s.gateway.SubmitDisbursement(ctx, amount, account.PhoneNumber, description, txn.Reference)
	if err != nil {
		return nil, s.failSubmission(ctx, txn, account, err)
	}

	return s.acceptAck(ctx, txn, ack)
}
