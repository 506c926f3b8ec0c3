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

// TransactionLog is an in-memory implementation of interfaces.TransactionLog.
// Entries are held in a slice in insertion order; the sequence counter makes
// that order explicit on each record.
type TransactionLog struct {
	mu      sync.Mutex
	entries []models.Transaction
	seq     uint64
}

// NewTransactionLog creates an empty in-memory transaction log.
func NewTransactionLog() *TransactionLog {
	return &TransactionLog{}
}

// Append assigns id, sequence and timestamp, then stores the record.
func (l *TransactionLog) Append(ctx context.Context, fromID, toID string, amount decimal.Decimal, currency string) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	tx := models.Transaction{
		ID:            uuid.NewString(),
		Sequence:      l.seq,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Currency:      currency,
		CreatedAt:     time.Now().UTC(),
	}
	l.entries = append(l.entries, tx)
	return tx, nil
}

// QueryByAccount returns entries where the account is source or destination,
// in insertion order. The result is a fresh copy of current state.
func (l *TransactionLog) QueryByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []models.Transaction
	for _, tx := range l.entries {
		if tx.FromAccountID == accountID || tx.ToAccountID == accountID {
			result = append(result, tx)
		}
	}
	return result, nil
}

var _ interfaces.TransactionLog = (*TransactionLog)(nil)
