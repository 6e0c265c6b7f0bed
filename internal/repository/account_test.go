package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamapay/wallet/internal/models"
)

func TestAccountRepository_FindByPhone(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	repo := NewAccountRepository(database)
	accountID := seedAccount(t, database, "237670200001", decimal.NewFromInt(75))
	ctx := context.Background()

	account, err := repo.FindByPhone(ctx, "237670200001")
	require.NoError(t, err)
	assert.Equal(t, accountID, account.ID)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(75)))

	_, err = repo.FindByPhone(ctx, "237670299999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountRepository_AdjustBalance(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	repo := NewAccountRepository(database)
	accountID := seedAccount(t, database, "237670200002", decimal.NewFromInt(100))
	ctx := context.Background()

	require.NoError(t, repo.AdjustBalance(ctx, accountID, decimal.NewFromInt(50)))
	require.NoError(t, repo.AdjustBalance(ctx, accountID, decimal.NewFromInt(-120)))

	account, err := repo.FindByID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(30)), "got %s", account.Balance)
}

func TestAccountRepository_AdjustBalanceRejectsOverdraft(t *testing.T) {
	database := setupTestDB(t)
	defer cleanupTestDB(t, database)

	repo := NewAccountRepository(database)
	accountID := seedAccount(t, database, "237670200003", decimal.NewFromInt(20))
	ctx := context.Background()

	err := repo.AdjustBalance(ctx, accountID, decimal.NewFromInt(-50))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	// Balance untouched after the rejected debit.
	account, err := repo.FindByID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(20)))

	// Unknown accounts are reported as missing, not as underfunded.
	err = repo.AdjustBalance(ctx, uuid.New(), decimal.NewFromInt(-50))
	assert.ErrorIs(t, err, models.ErrNotFound)
}
