package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidAmount       = "invalid_amount"
	ErrCodeInvalidPhone        = "invalid_phone"
	ErrCodeInvalidPin          = "invalid_pin"
	ErrCodeAccountNotFound     = "account_not_found"
	ErrCodeRecipientNotFound   = "recipient_not_found"
	ErrCodeTransactionNotFound = "transaction_not_found"
	ErrCodeInsufficientFunds   = "insufficient_funds"
	ErrCodeSelfTransfer        = "self_transfer"
	ErrCodeDuplicateReference  = "duplicate_reference"
	ErrCodeGatewayRejected     = "gateway_rejected"
	ErrCodeGatewayUnavailable  = "gateway_unavailable"
	ErrCodeInternalError       = "internal_error"
)
