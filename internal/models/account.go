package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a wallet account identified by the owner's phone number.
// Balance is only ever mutated through relative deltas; callers never write
// back a computed absolute value.
type Account struct {
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	PhoneNumber string          `db:"phone_number"`
	PinHash     string          `db:"pin_hash"`
	Balance     decimal.Decimal `db:"balance"`
	ID          uuid.UUID       `db:"id"`
}
