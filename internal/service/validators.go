package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// maxTransactionAmount is the per-transaction ceiling imposed by the mobile
// money providers we route through.
var maxTransactionAmount = decimal.NewFromInt(1_000_000)

// ValidateAmount checks that an amount is positive, within the provider
// ceiling, and carries at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if amount.GreaterThan(maxTransactionAmount) {
		return fmt.Errorf("amount exceeds maximum of %s", maxTransactionAmount)
	}
	if amount.Exponent() < -2 {
		return fmt.Errorf("amount cannot have more than two decimal places")
	}
	return nil
}

// ValidatePhone checks a phone number in the E.164-ish form the providers
// accept: an optional leading + followed by 9 to 15 digits.
func ValidatePhone(phoneNumber string) error {
	digits := phoneNumber
	if len(digits) > 0 && digits[0] == '+' {
		digits = digits[1:]
	}
	if len(digits) < 9 || len(digits) > 15 {
		return fmt.Errorf("invalid phone number length: must be 9-15 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid phone number: must contain only digits")
		}
	}
	return nil
}
