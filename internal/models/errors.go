package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRequest indicates a malformed request: non-positive amount,
	// missing currency, self-transfer and the like. Caller error, not retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCurrencyMismatch indicates the request currency does not match both
	// accounts. It is a kind of invalid request (no conversion exists), kept
	// distinct so logs can tell the two apart.
	ErrCurrencyMismatch = fmt.Errorf("%w: currency mismatch", ErrInvalidRequest)

	// ErrAccountNotFound indicates a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUserNotFound indicates a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates a registration with an already registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInsufficientFunds indicates the debit would take the source balance
	// below zero. Expected business rejection, not an internal fault.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict indicates concurrent contention exhausted the store's
	// bounded retries. The caller may retry the whole operation.
	ErrConflict = errors.New("account version conflict")

	// ErrStorageUnavailable indicates the underlying sink is unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// RecordingFailedError reports a transfer whose balances were already applied
// but whose log entry could not be written. The movement is not rolled back;
// the carried fields identify it so an operator can reconcile the ledger
// against the transaction history.
type RecordingFailedError struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Currency      string
	Err           error
}

func (e *RecordingFailedError) Error() string {
	return fmt.Sprintf("recording failed for applied transfer %s -> %s (%s %s): %v",
		e.FromAccountID, e.ToAccountID, e.Amount, e.Currency, e.Err)
}

func (e *RecordingFailedError) Unwrap() error {
	return e.Err
}
