package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamapay/wallet/internal/models"
)

type transferRequest struct {
	AccountID      uuid.UUID       `json:"account_id"`
	RecipientPhone string          `json:"recipient_phone"`
	Pin            string          `json:"pin"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
}

type depositRequest struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type withdrawalRequest struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Pin         string          `json:"pin"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// webhookRequest is the gateway's callback payload. Reference is the
// gateway's own reference for the operation.
type webhookRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type transactionResponse struct {
	Reference         string          `json:"reference"`
	ExternalReference *string         `json:"external_reference,omitempty"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Provider          string          `json:"provider"`
	Description       string          `json:"description,omitempty"`
	RecipientPhone    *string         `json:"recipient_phone,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func newTransactionResponse(txn *models.Transaction) transactionResponse {
	return transactionResponse{
		Reference:         txn.Reference,
		ExternalReference: txn.ExternalReference,
		Type:              string(txn.Type),
		Status:            string(txn.Status),
		Amount:            txn.Amount,
		Provider:          txn.Provider,
		Description:       txn.Description,
		RecipientPhone:    txn.RecipientPhone,
		CreatedAt:         txn.CreatedAt,
		UpdatedAt:         txn.UpdatedAt,
	}
}
