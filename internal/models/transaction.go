package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the immutable record of a committed transfer.
// Sequence is assigned by the transaction log and is strictly increasing,
// so it defines creation order independent of clock resolution.
type Transaction struct {
	ID            string          `json:"transaction_id"`
	Sequence      uint64          `json:"sequence"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"timestamp"`
}
