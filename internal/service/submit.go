package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamapay/wallet/internal/gateway"
	"github.com/zamapay/wallet/internal/metrics"
	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
)

// submitCore holds the collaborators and submission flow shared by the
// deposit and withdrawal services. Both follow the same shape: record a
// PENDING ledger entry, call the gateway, then either fail the entry or
// hand it to the settlement monitor.
type submitCore struct {
	transactions repository.TransactionRepository
	accounts     repository.AccountRepository
	gateway      PaymentGateway
	monitor      SettlementMonitor
	notifier     notify.Notifier
	logger       *slog.Logger
	provider     string
}

// recordPending writes the ledger entry before any gateway traffic, so a
// crash mid-submission leaves a row the sweep can reconcile.
func (c *submitCore) recordPending(ctx context.Context, account *models.Account, txnType models.TransactionType, amount decimal.Decimal, description string) (*models.Transaction, error) {
	now := time.Now()
	txn := &models.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		Reference:   models.NewReference(),
		Provider:    c.provider,
		Description: description,
		Type:        txnType,
		Status:      models.TransactionStatusPending,
		Amount:      amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.transactions.Create(ctx, txn); err != nil {
		if errors.Is(err, models.ErrDuplicateReference) {
			return nil, &ServiceError{Code: ErrCodeDuplicateReference, Message: "transaction reference already exists"}
		}
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to record transaction: %v", err),
		}
	}

	c.notifier.Notify(ctx, notify.Notification{
		Event:       notify.PendingEvent(txnType),
		PhoneNumber: account.PhoneNumber,
		Reference:   txn.Reference,
		Amount:      amount,
	})

	return txn, nil
}

// failSubmission marks a transaction FAILED after the gateway definitively
// rejected it or retries ran out, and maps the gateway error for the caller.
func (c *submitCore) failSubmission(ctx context.Context, txn *models.Transaction, account *models.Account, gwErr error) error {
	c.logger.Error("gateway submission failed",
		"reference", txn.Reference,
		"type", txn.Type,
		"error", gwErr,
	)

	applied, err := c.transactions.TransitionStatus(ctx, txn.Reference, txn.Status, models.TransactionStatusFailed)
	if err != nil {
		c.logger.Error("failed to mark transaction failed", "reference", txn.Reference, "error", err)
	}
	if applied {
		txn.Status = models.TransactionStatusFailed
		metrics.SettlementsTotal.WithLabelValues(string(txn.Type), string(models.TransactionStatusFailed)).Inc()
		c.notifier.Notify(ctx, notify.Notification{
			Event:       notify.FailureEvent(txn.Type),
			PhoneNumber: account.PhoneNumber,
			Reference:   txn.Reference,
			Amount:      txn.Amount,
		})
	}

	return gatewayServiceError(gwErr)
}

// acceptAck stores the gateway's reference, settles the acknowledged status,
// and starts monitoring when the transaction is still in flight.
func (c *submitCore) acceptAck(ctx context.Context, txn *models.Transaction, ack *gateway.Ack) (*models.Transaction, error) {
	if ack.Reference != "" {
		if err := c.transactions.SetExternalReference(ctx, txn.Reference, ack.Reference); err != nil {
			c.logger.Error("failed to store external reference", "reference", txn.Reference, "error", err)
		} else {
			txn.ExternalReference = &ack.Reference
		}
	}

	mapped := gateway.MapStatus(ack.Status, c.logger)
	status, err := c.monitor.Settle(ctx, txn, mapped)
	if err != nil {
		c.logger.Error("failed to settle acknowledged status", "reference", txn.Reference, "error", err)
	} else {
		txn.Status = status
	}

	if !txn.Status.IsTerminal() {
		c.monitor.Watch(txn)
	}

	return txn, nil
}

// findAccount looks up an account and maps repository errors.
func (c *submitCore) findAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := c.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &ServiceError{Code: ErrCodeAccountNotFound, Message: "account not found"}
		}
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to look up account: %v", err),
		}
	}
	return account, nil
}

// gatewayServiceError maps a gateway client error to a ServiceError.
func gatewayServiceError(err error) *ServiceError {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Kind == gateway.KindRejected {
		return &ServiceError{
			Code:    ErrCodeGatewayRejected,
			Message: "payment rejected by provider",
			Err:     err,
		}
	}
	return &ServiceError{
		Code:    ErrCodeGatewayUnavailable,
		Message: "payment provider unavailable, try again later",
		Err:     err,
	}
}
