// Package repository provides data access layer implementations for the wallet.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zamapay/wallet/internal/db"
	"github.com/zamapay/wallet/internal/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*models.Account, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error)
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error
}

// accountRepository implements AccountRepository
type accountRepository struct {
	q db.Querier
}

// NewAccountRepository creates a new AccountRepository bound to a connection
// pool or an open transaction.
func NewAccountRepository(q db.Querier) AccountRepository {
	return &accountRepository{q: q}
}

const accountColumns = `id, phone_number, pin_hash, balance, created_at, updated_at`

func (r *accountRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.PhoneNumber,
		&account.PinHash,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &account, nil
}

// FindByID retrieves an account by its UUID
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.q.QueryRowContext(ctx, query, id))
}

// FindByPhone retrieves an account by the owner's phone number
func (r *accountRepository) FindByPhone(ctx context.Context, phoneNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE phone_number = $1`
	return r.scanAccount(r.q.QueryRowContext(ctx, query, phoneNumber))
}

// FindByIDForUpdate retrieves an account by UUID with a row lock, for use
// inside a transaction on the transfer path.
func (r *accountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(r.q.QueryRowContext(ctx, query, id))
}

// AdjustBalance atomically applies a relative delta to the account balance.
// The non-negative invariant for debits is enforced in the statement itself,
// so a concurrent spend can never drive the balance below zero.
func (r *accountRepository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2,
		    updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
	`

	result, err := r.q.ExecContext(ctx, query, accountID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust account balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := r.FindByID(ctx, accountID); err != nil {
			return err
		}
		return models.ErrInsufficientFunds
	}

	return nil
}
