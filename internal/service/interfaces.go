package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamapay/wallet/internal/gateway"
	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/settlement"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// PaymentGateway is the slice of the gateway client the services submit
// operations through.
type PaymentGateway interface {
	SubmitCollection(ctx context.Context, amount decimal.Decimal, payerPhone, description, reference string) (*gateway.Ack, error)
	SubmitDisbursement(ctx context.Context, amount decimal.Decimal, payeePhone, description, reference string) (*gateway.Ack, error)
}

// SettlementMonitor settles transactions and tracks the in-flight ones.
type SettlementMonitor interface {
	Watch(txn *models.Transaction)
	Settle(ctx context.Context, txn *models.Transaction, mapped models.TransactionStatus) (models.TransactionStatus, error)
	Refresh(ctx context.Context, reference string) (*models.Transaction, error)
}

// Transferrer handles wallet-to-wallet transfer operations
type Transferrer interface {
	Transfer(ctx context.Context, senderID uuid.UUID, recipientPhone, pin string, amount decimal.Decimal, description string) (*models.Transaction, error)
}

// Depositor handles deposit (collection) operations
type Depositor interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error)
}

// Withdrawer handles withdrawal (disbursement) operations
type Withdrawer interface {
	Withdraw(ctx context.Context, accountID uuid.UUID, pin string, amount decimal.Decimal, description string) (*models.Transaction, error)
}

// TransactionReader retrieves transactions and refreshes their status
type TransactionReader interface {
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
	RefreshStatus(ctx context.Context, reference string) (*models.Transaction, error)
}

// Ensure concrete types implement interfaces
var (
	_ Transferrer       = (*TransferService)(nil)
	_ Depositor         = (*DepositService)(nil)
	_ Withdrawer        = (*WithdrawalService)(nil)
	_ TransactionReader = (*TransactionService)(nil)
	_ PaymentGateway    = (*gateway.Client)(nil)
	_ SettlementMonitor = (*settlement.Monitor)(nil)
)
