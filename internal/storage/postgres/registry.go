package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/models"
)

// applyDeltaRetries bounds the optimistic-update loop in ApplyDelta. When the
// account version changed under us this many times in a row, the caller gets
// ErrConflict and may retry the whole operation.
const applyDeltaRetries = 5

// AccountRegistry is a PostgreSQL implementation of interfaces.AccountRegistry.
// Balance updates use optimistic versioning: the row is re-read and written
// back with a compare-and-swap on (id, version), so the insufficient-funds
// check is always evaluated against the balance that actually commits. This
// also keeps multiple service replicas over the same database safe, which
// in-process locks alone cannot.
type AccountRegistry struct {
	db *sql.DB
}

func NewAccountRegistry(db *sql.DB) *AccountRegistry {
	return &AccountRegistry{db: db}
}

func (r *AccountRegistry) Lookup(ctx context.Context, accountID string) (models.Account, error) {
	const query = `SELECT id, user_id, balance, currency, version, created_at
	FROM accounts WHERE id = $1`

	var a models.Account
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&a.ID, &a.UserID, &a.Balance, &a.Currency, &a.Version, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return a, nil
}

func (r *AccountRegistry) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	const query = `SELECT id, user_id, balance, currency, version, created_at
	FROM accounts WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Balance, &a.Currency, &a.Version, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return accounts, nil
}

func (r *AccountRegistry) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (models.Account, error) {
	const update = `UPDATE accounts SET balance = $1, version = version + 1
	WHERE id = $2 AND version = $3`

	for attempt := 0; attempt < applyDeltaRetries; attempt++ {
		a, err := r.Lookup(ctx, accountID)
		if err != nil {
			return models.Account{}, err
		}

		next := a.Balance.Add(delta)
		if next.IsNegative() {
			return models.Account{}, models.ErrInsufficientFunds
		}

		res, err := r.db.ExecContext(ctx, update, next, a.ID, a.Version)
		if err != nil {
			return models.Account{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return models.Account{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		if affected == 1 {
			a.Balance = next
			a.Version++
			return a, nil
		}
		// Version moved under us; re-read and try again.
	}
	return models.Account{}, models.ErrConflict
}

func (r *AccountRegistry) Create(ctx context.Context, userID, currency string, openingBalance decimal.Decimal) (models.Account, error) {
	const query = `INSERT INTO accounts (id, user_id, balance, currency, version, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	a := models.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   openingBalance,
		Currency:  currency,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.db.ExecContext(ctx, query, a.ID, a.UserID, a.Balance, a.Currency, a.Version, a.CreatedAt); err != nil {
		return models.Account{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return a, nil
}

var _ interfaces.AccountRegistry = (*AccountRegistry)(nil)
