package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/duffiwer/ledger-service/internal/models"
)

// AccountRegistry owns account records and is the sole mutation point for
// balances. ApplyDelta is the unit of atomicity the ledger engine composes:
// it must verify the resulting balance and apply it as one step, never
// exposing a partially applied balance to any other caller.
type AccountRegistry interface {
	Lookup(ctx context.Context, accountID string) (models.Account, error)
	ListByUser(ctx context.Context, userID string) ([]models.Account, error)
	ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (models.Account, error)
	Create(ctx context.Context, userID, currency string, openingBalance decimal.Decimal) (models.Account, error)
}
