package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/duffiwer/ledger-service/internal/models"
)

// TransactionLog is the append-only store of committed transfers. Append
// assigns identity, sequence and timestamp; existing entries are never
// mutated or removed. QueryByAccount re-reads current state on every call
// and returns entries in creation (sequence) order.
type TransactionLog interface {
	Append(ctx context.Context, fromID, toID string, amount decimal.Decimal, currency string) (models.Transaction, error)
	QueryByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
}
