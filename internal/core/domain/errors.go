package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every use case. Callers classify failures with
// errors.Is; wrapped messages carry the identifiers involved.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrGatewayFailure    = errors.New("payment gateway failure")
	ErrInvalidCriterion  = errors.New("invalid targeting criterion")
	ErrInvalidTransition = errors.New("invalid transaction status transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

// ErrBudgetExhausted reports that a campaign cap refused a spend. It wraps
// ErrInsufficientFunds so callers can treat budget and balance the same way.
var ErrBudgetExhausted = fmt.Errorf("campaign budget exhausted: %w", ErrInsufficientFunds)

// NotFoundError builds a not-found error for the named entity.
func NotFoundError(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}
