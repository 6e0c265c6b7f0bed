package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// TransactionStatus represents the status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// statusSuccessors defines the legal transitions of the settlement state
// machine. COMPLETED and FAILED are terminal.
var statusSuccessors = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusCompleted:  {},
	TransactionStatusFailed:     {},
}

// IsTerminal reports whether no further transition is permitted.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// CanTransitionTo reports whether to is a legal successor of s.
func (s TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	for _, next := range statusSuccessors[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transaction represents a ledger entry for wallet activity. Reference is the
// internal idempotency key: generated once at creation, immutable, and
// presented to the gateway on every retry. ExternalReference is assigned by
// the gateway once it acknowledges the request.
type Transaction struct {
	CreatedAt         time.Time         `db:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at"`
	RecipientID       *uuid.UUID        `db:"recipient_id"`
	RecipientPhone    *string           `db:"recipient_phone"`
	ExternalReference *string           `db:"external_reference"`
	Reference         string            `db:"reference"`
	Provider          string            `db:"provider"`
	Description       string            `db:"description"`
	Type              TransactionType   `db:"type"`
	Status            TransactionStatus `db:"status"`
	Amount            decimal.Decimal   `db:"amount"`
	ID                uuid.UUID         `db:"id"`
	AccountID         uuid.UUID         `db:"account_id"`
}

// NewReference generates a fresh internal transaction reference.
func NewReference() string {
	return "TXN-" + uuid.NewString()
}
