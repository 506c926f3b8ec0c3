package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/models"
)

// AccountRegistry is an in-memory implementation of interfaces.AccountRegistry.
// A single mutex protects the account map, so ApplyDelta checks the resulting
// balance and commits it as one step; no caller ever observes an intermediate
// balance.
type AccountRegistry struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	order    []string // account ids in creation order
}

// NewAccountRegistry creates an empty in-memory registry.
func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{
		accounts: make(map[string]*models.Account),
	}
}

// Lookup returns a copy of the account so callers cannot modify internal state.
func (r *AccountRegistry) Lookup(ctx context.Context, accountID string) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[accountID]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return *a, nil
}

// ListByUser returns the user's accounts in creation order.
func (r *AccountRegistry) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Account
	for _, id := range r.order {
		if a := r.accounts[id]; a.UserID == userID {
			result = append(result, *a)
		}
	}
	return result, nil
}

// ApplyDelta atomically adds delta to the account balance, rejecting the
// change if the result would be negative. The version is bumped on every
// committed mutation.
func (r *AccountRegistry) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[accountID]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}

	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return models.Account{}, models.ErrInsufficientFunds
	}

	a.Balance = next
	a.Version++
	return *a, nil
}

// Create assigns an id and stores the account. Opening balance validation
// belongs to the engine; the registry only records what it is given.
func (r *AccountRegistry) Create(ctx context.Context, userID, currency string, openingBalance decimal.Decimal) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := &models.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   openingBalance,
		Currency:  currency,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	r.accounts[a.ID] = a
	r.order = append(r.order, a.ID)
	return *a, nil
}

var _ interfaces.AccountRegistry = (*AccountRegistry)(nil)
