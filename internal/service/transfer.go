package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/zamapay/wallet/internal/db"
	"github.com/zamapay/wallet/internal/metrics"
	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
)

// providerInternal marks ledger entries that never leave the wallet.
const providerInternal = "INTERNAL"

// TransferService handles wallet-to-wallet transfers. A transfer debits the
// sender and credits the recipient inside a single database transaction, so
// it either completes in full or leaves no trace.
type TransferService struct {
	db       *db.DB
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(database *db.DB, notifier notify.Notifier, logger *slog.Logger) *TransferService {
	return &TransferService{
		db:       database,
		notifier: notifier,
		logger:   logger,
	}
}

// Transfer moves funds from the sender's wallet to the account registered
// under recipientPhone.
func (s *TransferService) Transfer(ctx context.Context, senderID uuid.UUID, recipientPhone, pin string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidAmount, Message: err.Error()}
	}
	if err := ValidatePhone(recipientPhone); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidPhone, Message: err.Error()}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to start transaction: %v", err),
		}
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txAccountRepo := repository.NewAccountRepository(tx)
	txTransactionRepo := repository.NewTransactionRepository(tx)

	transferTx, sender, recipient, err := s.performTransfer(ctx, txAccountRepo, txTransactionRepo, senderID, recipientPhone, pin, amount, description)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.TransfersTotal.WithLabelValues("failed").Inc()
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to commit transaction: %v", err),
		}
	}

	metrics.TransfersTotal.WithLabelValues("completed").Inc()
	s.logger.Info("transfer completed",
		"reference", transferTx.Reference,
		"sender_id", senderID,
		"amount", amount,
	)

	s.notifier.Notify(ctx, notify.Notification{
		Event:       notify.EventTransferSent,
		PhoneNumber: sender.PhoneNumber,
		Reference:   transferTx.Reference,
		Amount:      amount,
	})
	s.notifier.Notify(ctx, notify.Notification{
		Event:       notify.EventTransferReceived,
		PhoneNumber: recipient.PhoneNumber,
		Reference:   transferTx.Reference,
		Amount:      amount,
	})
	s.notifier.Notify(ctx, notify.Notification{
		Event:       notify.EventBalanceUpdate,
		PhoneNumber: sender.PhoneNumber,
		Reference:   transferTx.Reference,
		Amount:      sender.Balance.Sub(amount),
	})
	s.notifier.Notify(ctx, notify.Notification{
		Event:       notify.EventBalanceUpdate,
		PhoneNumber: recipient.PhoneNumber,
		Reference:   transferTx.Reference,
		Amount:      recipient.Balance.Add(amount),
	})

	return transferTx, nil
}

// performTransfer contains the core transfer business logic. Row locks are
// always taken in ascending account ID order so two opposing transfers
// cannot deadlock each other.
func (s *TransferService) performTransfer(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	senderID uuid.UUID,
	recipientPhone, pin string,
	amount decimal.Decimal,
	description string,
) (*models.Transaction, *models.Account, *models.Account, error) {
	recipient, err := accountRepo.FindByPhone(ctx, recipientPhone)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, nil, &ServiceError{
				Code:    ErrCodeRecipientNotFound,
				Message: "no account registered for recipient phone number",
			}
		}
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to look up recipient: %v", err),
		}
	}

	if recipient.ID == senderID {
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeSelfTransfer,
			Message: "cannot transfer to your own account",
		}
	}

	sender, recipient, err := s.lockAccounts(ctx, accountRepo, senderID, recipient.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sender.PinHash), []byte(pin)); err != nil {
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeInvalidPin,
			Message: "PIN does not match",
		}
	}

	if sender.Balance.LessThan(amount) {
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeInsufficientFunds,
			Message: fmt.Sprintf("insufficient funds: required %s, available %s", amount, sender.Balance),
		}
	}

	now := time.Now()
	transferTx := &models.Transaction{
		ID:             uuid.New(),
		AccountID:      sender.ID,
		RecipientID:    &recipient.ID,
		RecipientPhone: &recipient.PhoneNumber,
		Reference:      models.NewReference(),
		Provider:       providerInternal,
		Description:    description,
		Type:           models.TransactionTypeTransfer,
		Status:         models.TransactionStatusCompleted,
		Amount:         amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := transactionRepo.Create(ctx, transferTx); err != nil {
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to record transfer: %v", err),
		}
	}

	if err := accountRepo.AdjustBalance(ctx, sender.ID, amount.Neg()); err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			return nil, nil, nil, &ServiceError{
				Code:    ErrCodeInsufficientFunds,
				Message: "insufficient funds",
			}
		}
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to debit sender: %v", err),
		}
	}

	if err := accountRepo.AdjustBalance(ctx, recipient.ID, amount); err != nil {
		return nil, nil, nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to credit recipient: %v", err),
		}
	}

	return transferTx, sender, recipient, nil
}

// lockAccounts acquires FOR UPDATE locks on both accounts in ascending ID
// order and returns them as (sender, recipient).
func (s *TransferService) lockAccounts(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	senderID, recipientID uuid.UUID,
) (*models.Account, *models.Account, error) {
	first, second := senderID, recipientID
	if strings.Compare(first.String(), second.String()) > 0 {
		first, second = second, first
	}

	firstAccount, err := accountRepo.FindByIDForUpdate(ctx, first)
	if err == nil {
		var secondAccount *models.Account
		secondAccount, err = accountRepo.FindByIDForUpdate(ctx, second)
		if err == nil {
			if firstAccount.ID == senderID {
				return firstAccount, secondAccount, nil
			}
			return secondAccount, firstAccount, nil
		}
	}

	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, &ServiceError{
			Code:    ErrCodeAccountNotFound,
			Message: "account not found",
		}
	}
	return nil, nil, &ServiceError{
		Code:    ErrCodeInternalError,
		Message: fmt.Sprintf("failed to lock accounts: %v", err),
	}
}
