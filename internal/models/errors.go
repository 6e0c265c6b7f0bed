package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrDuplicateReference indicates a transaction with the same internal
	// reference already exists
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds indicates a debit would drive a balance negative
	ErrInsufficientFunds = errors.New("insufficient funds")
)
