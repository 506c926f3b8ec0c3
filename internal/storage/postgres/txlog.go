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

// TransactionLog is a PostgreSQL implementation of interfaces.TransactionLog.
// The sequence column is a BIGSERIAL, so insertion order is assigned by the
// database and survives restarts.
type TransactionLog struct {
	db *sql.DB
}

func NewTransactionLog(db *sql.DB) *TransactionLog {
	return &TransactionLog{db: db}
}

func (l *TransactionLog) Append(ctx context.Context, fromID, toID string, amount decimal.Decimal, currency string) (models.Transaction, error) {
	const query = `INSERT INTO transactions (id, from_account_id, to_account_id, amount, currency, created_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING sequence`

	tx := models.Transaction{
		ID:            uuid.NewString(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Currency:      currency,
		CreatedAt:     time.Now().UTC(),
	}
	err := l.db.QueryRowContext(ctx, query,
		tx.ID, tx.FromAccountID, tx.ToAccountID, tx.Amount, tx.Currency, tx.CreatedAt,
	).Scan(&tx.Sequence)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return tx, nil
}

func (l *TransactionLog) QueryByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	const query = `SELECT id, sequence, from_account_id, to_account_id, amount, currency, created_at
	FROM transactions
	WHERE from_account_id = $1 OR to_account_id = $1
	ORDER BY sequence`

	rows, err := l.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var entries []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.Sequence, &tx.FromAccountID, &tx.ToAccountID, &tx.Amount, &tx.Currency, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		entries = append(entries, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return entries, nil
}

var _ interfaces.TransactionLog = (*TransactionLog)(nil)
