package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/repository/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hashPin(t *testing.T, pin string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestTransferService_PerformTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("successful transfer", func(t *testing.T) {
		mockAccountRepo := mocks.NewMockAccountRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		svc := NewTransferService(nil, &recordingNotifier{}, testLogger())

		sender := &models.Account{
			ID:          uuid.New(),
			PhoneNumber: "237670000001",
			PinHash:     hashPin(t, "1234"),
			Balance:     decimal.NewFromInt(100),
		}
		recipient := &models.Account{
			ID:          uuid.New(),
			PhoneNumber: "237670000002",
			Balance:     decimal.NewFromInt(10),
		}
		amount := decimal.NewFromInt(30)

		mockAccountRepo.On("FindByPhone", ctx, recipient.PhoneNumber).Return(recipient, nil)
		mockAccountRepo.On("FindByIDForUpdate", ctx, sender.ID).Return(sender, nil)
		mockAccountRepo.On("FindByIDForUpdate", ctx, recipient.ID).Return(recipient, nil)
		mockTxRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
		mockAccountRepo.On("AdjustBalance", ctx, sender.ID, amount.Neg()).Return(nil)
		mockAccountRepo.On("AdjustBalance", ctx, recipient.ID, amount).Return(nil)

		txn, gotSender, gotRecipient, err := svc.performTransfer(ctx, mockAccountRepo, mockTxRepo, sender.ID, recipient.PhoneNumber, "1234", amount, "lunch")

		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeTransfer, txn.Type)
		assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
		assert.Equal(t, sender.ID, txn.AccountID)
		require.NotNil(t, txn.RecipientID)
		assert.Equal(t, recipient.ID, *txn.RecipientID)
		assert.Equal(t, sender.ID, gotSender.ID)
		assert.Equal(t, recipient.ID, gotRecipient.ID)
	})

	t.Run("recipient not found", func(t *testing.T) {
		mockAccountRepo := mocks.NewMockAccountRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		svc := NewTransferService(nil, &recordingNotifier{}, testLogger())

		mockAccountRepo.On("FindByPhone", ctx, "237670000099").Return(nil, models.ErrNotFound)

		_, _, _, err := svc.performTransfer(ctx, mockAccountRepo, mockTxRepo, uuid.New(), "237670000099", "1234", decimal.NewFromInt(30), "")

		requireServiceError(t, err, ErrCodeRecipientNotFound)
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		mockAccountRepo := mocks.NewMockAccountRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		svc := NewTransferService(nil, &recordingNotifier{}, testLogger())

		account := &models.Account{
			ID:          uuid.New(),
			PhoneNumber: "237670000001",
			Balance:     decimal.NewFromInt(100),
		}
		mockAccountRepo.On("FindByPhone", ctx, account.PhoneNumber).Return(account, nil)

		_, _, _, err := svc.performTransfer(ctx, mockAccountRepo, mockTxRepo, account.ID, account.PhoneNumber, "1234", decimal.NewFromInt(30), "")

		requireServiceError(t, err, ErrCodeSelfTransfer)
	})

	t.Run("wrong pin", func(t *testing.T) {
		mockAccountRepo := mocks.NewMockAccountRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		svc := NewTransferService(nil, &recordingNotifier{}, testLogger())

		sender := &models.Account{
			ID:          uuid.New(),
			PhoneNumber: "237670000001",
			PinHash:     hashPin(t, "1234"),
			Balance:     decimal.NewFromInt(100),
		}
		recipient := &models.Account{ID: uuid.New(), PhoneNumber: "237670000002"}

		mockAccountRepo.On("FindByPhone", ctx, recipient.PhoneNumber).Return(recipient, nil)
		mockAccountRepo.On("FindByIDForUpdate", ctx, sender.ID).Return(sender, nil)
		mockAccountRepo.On("FindByIDForUpdate", ctx, recipient.ID).Return(recipient, nil)

		_, _, _, err := svc.performTransfer(ctx, mockAccountRepo, mockTxRepo, sender.ID, recipient.PhoneNumber, "9999", decimal.NewFromInt(30), "")

		requireServiceError(t, err, ErrCodeInvalidPin)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		mockAccountRepo := mocks.NewMockAccountRepository(t)
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		svc := NewTransferService(nil, &recordingNotifier{}, testLogger())

		sender := &models.Account{
			ID:          uuid.New(),
			PhoneNumber: "237670000001",
			PinHash:     hashPin(t, "1234"),
			Balance:     decimal.NewFromInt(10),
		}
		recipient := &models.Account{ID: uuid.New(), PhoneNumber: "237670000002"}

		mockAccountRepo.On("FindByPhone", ctx, recipient.PhoneNumber).Return(recipient, nil)
		mockAccountRepo.On("FindByIDForUpdate", ctx, sender.ID).Return(sender, nil)
		mockAccountRepo.On("FindByIDForUpdate", ctx, recipient.ID).Return(recipient, nil)

		_, _, _, err := svc.performTransfer(ctx, mockAccountRepo, mockTxRepo, sender.ID, recipient.PhoneNumber, "1234", decimal.NewFromInt(30), "")

		requireServiceError(t, err, ErrCodeInsufficientFunds)
	})
}

func TestTransferService_ValidatesInput(t *testing.T) {
	svc := NewTransferService(nil, &recordingNotifier{}, testLogger())
	ctx := context.Background()

	_, err := svc.Transfer(ctx, uuid.New(), "237670000002", "1234", decimal.Zero, "")
	requireServiceError(t, err, ErrCodeInvalidAmount)

	_, err = svc.Transfer(ctx, uuid.New(), "bad-phone", "1234", decimal.NewFromInt(10), "")
	requireServiceError(t, err, ErrCodeInvalidPhone)
}

func requireServiceError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, code, svcErr.Code)
}
