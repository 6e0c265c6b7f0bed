package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/zamapay/wallet/internal/db"
	"github.com/zamapay/wallet/internal/models"
)

// TransactionRepository defines the interface for ledger data access.
// TransitionStatus is the compare-and-swap primitive that gates every
// exactly-once balance mutation.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindByExternalReference(ctx context.Context, externalRef string) (*models.Transaction, error)
	SetExternalReference(ctx context.Context, reference, externalRef string) error
	TransitionStatus(ctx context.Context, reference string, from, to models.TransactionStatus) (bool, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
	ListUnsettled(ctx context.Context, olderThan time.Time) ([]models.Transaction, error)
	ListAbandoned(ctx context.Context, olderThan time.Time) ([]models.Transaction, error)
}

// transactionRepository implements TransactionRepository
type transactionRepository struct {
	q db.Querier
}

// NewTransactionRepository creates a new TransactionRepository bound to a
// connection pool or an open transaction.
func NewTransactionRepository(q db.Querier) TransactionRepository {
	return &transactionRepository{q: q}
}

const transactionColumns = `id, account_id, recipient_id, recipient_phone, type, status,
	       amount, reference, external_reference, provider, description,
	       created_at, updated_at`

// Create persists a new transaction. A duplicate internal reference is
// rejected with models.ErrDuplicateReference rather than overwriting.
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	now := time.Now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now

	query := `
		INSERT INTO transactions (id, account_id, recipient_id, recipient_phone, type, status,
		                          amount, reference, external_reference, provider, description,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.RecipientID,
		txn.RecipientPhone,
		txn.Type,
		txn.Status,
		txn.Amount,
		txn.Reference,
		txn.ExternalReference,
		txn.Provider,
		txn.Description,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var txn models.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.RecipientID,
		&txn.RecipientPhone,
		&txn.Type,
		&txn.Status,
		&txn.Amount,
		&txn.Reference,
		&txn.ExternalReference,
		&txn.Provider,
		&txn.Description,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &txn, nil
}

// FindByReference retrieves a transaction by its internal reference
func (r *transactionRepository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	return r.scanTransaction(r.q.QueryRowContext(ctx, query, reference))
}

// FindByExternalReference retrieves a transaction by the gateway-assigned
// reference. Webhooks only know this identifier.
func (r *transactionRepository) FindByExternalReference(ctx context.Context, externalRef string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_reference = $1`
	return r.scanTransaction(r.q.QueryRowContext(ctx, query, externalRef))
}

// SetExternalReference records the gateway-assigned reference once the
// gateway has acknowledged the request. It is set once and never changed.
func (r *transactionRepository) SetExternalReference(ctx context.Context, reference, externalRef string) error {
	query := `
		UPDATE transactions
		SET external_reference = $2,
		    updated_at = NOW()
		WHERE reference = $1 AND external_reference IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, reference, externalRef)
	if err != nil {
		return fmt.Errorf("failed to set external reference: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := r.FindByReference(ctx, reference); err != nil {
			return err
		}
		// Already set; treat as a no-op rather than overwrite.
		return nil
	}

	return nil
}

// TransitionStatus atomically moves a transaction from one status to another.
// It succeeds only if the stored status still equals from and to is a legal
// successor; the returned bool reports whether the transition was applied.
// Callers must gate balance mutation and notifications on that bool, never on
// the desired status alone.
func (r *transactionRepository) TransitionStatus(ctx context.Context, reference string, from, to models.TransactionStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, nil
	}

	query := `
		UPDATE transactions
		SET status = $3,
		    updated_at = NOW()
		WHERE reference = $1 AND status = $2
	`

	result, err := r.q.ExecContext(ctx, query, reference, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// ListByAccount retrieves an account's transactions, newest first
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC`

	return r.listTransactions(ctx, query, accountID)
}

// ListUnsettled retrieves non-terminal deposit/withdrawal transactions that
// carry an external reference and were created before olderThan. The
// settlement sweep re-attaches monitors to these after a restart.
func (r *transactionRepository) ListUnsettled(ctx context.Context, olderThan time.Time) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status IN ($1, $2)
		  AND external_reference IS NOT NULL
		  AND created_at < $3
		ORDER BY created_at ASC`

	return r.listTransactions(ctx, query,
		models.TransactionStatusPending, models.TransactionStatusProcessing, olderThan)
}

// ListAbandoned retrieves non-terminal transactions that never received an
// external reference and were created before olderThan. These rows can never
// settle: no monitor will poll them and no webhook can match them, so the
// sweep resolves them to FAILED.
func (r *transactionRepository) ListAbandoned(ctx context.Context, olderThan time.Time) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status IN ($1, $2)
		  AND external_reference IS NULL
		  AND created_at < $3
		ORDER BY created_at ASC`

	return r.listTransactions(ctx, query,
		models.TransactionStatusPending, models.TransactionStatusProcessing, olderThan)
}

func (r *transactionRepository) listTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.RecipientID,
			&txn.RecipientPhone,
			&txn.Type,
			&txn.Status,
			&txn.Amount,
			&txn.Reference,
			&txn.ExternalReference,
			&txn.Provider,
			&txn.Description,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}

	return txns, nil
}
