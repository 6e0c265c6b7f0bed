// Package notify defines the notification dispatcher contract. Delivery is
// best effort: emission never blocks or fails the operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zamapay/wallet/internal/models"
)

// Event identifies a notification trigger.
type Event string

const (
	EventDepositPending      Event = "DEPOSIT_PENDING"
	EventDepositCompleted    Event = "DEPOSIT_COMPLETED"
	EventDepositFailed       Event = "DEPOSIT_FAILED"
	EventWithdrawalPending   Event = "WITHDRAWAL_PENDING"
	EventWithdrawalCompleted Event = "WITHDRAWAL_COMPLETED"
	EventWithdrawalFailed    Event = "WITHDRAWAL_FAILED"
	EventTransferSent        Event = "TRANSFER_SENT"
	EventTransferReceived    Event = "TRANSFER_RECEIVED"
	EventBalanceUpdate       Event = "BALANCE_UPDATE"
	EventTransactionFailed   Event = "TRANSACTION_FAILED"
)

// Notification carries the payload handed to the dispatcher.
type Notification struct {
	Event       Event
	PhoneNumber string
	Reference   string
	Amount      decimal.Decimal
}

// Notifier delivers notifications. Implementations own the delivery
// mechanics (SMS, push); the core only emits.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// PendingEvent returns the submission event for a transaction type.
func PendingEvent(t models.TransactionType) Event {
	switch t {
	case models.TransactionTypeDeposit:
		return EventDepositPending
	case models.TransactionTypeWithdrawal:
		return EventWithdrawalPending
	case models.TransactionTypeTransfer:
		return EventTransferSent
	}
	panic(fmt.Sprintf("unhandled transaction type %q", t))
}

// CompletionEvent returns the completion event for a transaction type.
func CompletionEvent(t models.TransactionType) Event {
	switch t {
	case models.TransactionTypeDeposit:
		return EventDepositCompleted
	case models.TransactionTypeWithdrawal:
		return EventWithdrawalCompleted
	case models.TransactionTypeTransfer:
		return EventTransferSent
	}
	panic(fmt.Sprintf("unhandled transaction type %q", t))
}

// FailureEvent returns the failure event for a transaction type.
func FailureEvent(t models.TransactionType) Event {
	switch t {
	case models.TransactionTypeDeposit:
		return EventDepositFailed
	case models.TransactionTypeWithdrawal:
		return EventWithdrawalFailed
	case models.TransactionTypeTransfer:
		return EventTransactionFailed
	}
	panic(fmt.Sprintf("unhandled transaction type %q", t))
}

// LogNotifier writes notifications to the structured log. It stands in for a
// real delivery channel and keeps the dispatcher contract exercised.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, notification Notification) {
	n.logger.Info("notification",
		"event", notification.Event,
		"phone", notification.PhoneNumber,
		"reference", notification.Reference,
		"amount", notification.Amount.String(),
	)
}

// Dispatcher fans notifications out to a Notifier on a background goroutine
// so the caller's result never waits on delivery.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
}

// NewDispatcher wraps a Notifier with asynchronous, best-effort dispatch.
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier, timeout: 10 * time.Second}
}

// Notify delivers asynchronously, detached from the caller's context.
func (d *Dispatcher) Notify(_ context.Context, n Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.notifier.Notify(ctx, n)
	}()
}
