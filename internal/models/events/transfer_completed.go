package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopicTransferCompleted is the topic transfer events are published under.
const TopicTransferCompleted = "transfer_completed"

// TransferCompleted is emitted after a transfer commits: balances updated and
// the transaction recorded.
type TransferCompleted struct {
	TransactionID string          `json:"transaction_id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
