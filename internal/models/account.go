package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the balance of a single user in a single currency.
// Balance is never negative; the registry rejects any delta that would make
// it so. Version counts committed balance mutations and serves as the
// compare-and-swap token for stores that update optimistically.
type Account struct {
	ID        string          `json:"account_id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Version   uint64          `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}
