// Package ledger implements the transfer engine: it validates a requested
// balance movement, applies the debit/credit pair atomically with respect to
// any concurrent transfer touching either account, and records the result as
// an immutable transaction entry.
package ledger

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/models"
	"github.com/duffiwer/ledger-service/internal/models/events"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Engine orchestrates transfers over an account registry and a transaction
// log. It holds one mutex per account id and acquires the pair for a transfer
// in lexicographic order, so transfers on overlapping accounts serialize and
// transfers on disjoint accounts run in parallel; the fixed order prevents
// deadlock between opposite-direction transfers on the same pair.
type Engine struct {
	registry  interfaces.AccountRegistry
	txlog     interfaces.TransactionLog
	users     interfaces.UserDirectory
	publisher interfaces.EventPublisher
	logger    *zap.Logger

	muMap map[string]*sync.Mutex // per-account locks
	mapMu sync.Mutex             // protects muMap itself
}

// NewEngine wires the engine to its collaborators. publisher may be nil when
// no broker is configured; logger may be nil, in which case logging is a
// no-op.
func NewEngine(registry interfaces.AccountRegistry, txlog interfaces.TransactionLog, users interfaces.UserDirectory, publisher interfaces.EventPublisher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:  registry,
		txlog:     txlog,
		users:     users,
		publisher: publisher,
		logger:    logger,
		muMap:     make(map[string]*sync.Mutex),
	}
}

func (e *Engine) accountLock(accountID string) *sync.Mutex {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	if _, exists := e.muMap[accountID]; !exists {
		e.muMap[accountID] = &sync.Mutex{}
	}
	return e.muMap[accountID]
}

// Transfer moves amount from one account to another and records the movement.
// A transfer either commits fully (both balances updated and the entry
// written) or has no observable effect, with one deliberate exception: if the
// log append fails after the balances were already updated, the movement is
// not rolled back and the failure is returned as *models.RecordingFailedError
// so an operator can reconcile it.
func (e *Engine) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, currency string) (models.Transaction, error) {
	// Validating
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("%w: amount must be positive", models.ErrInvalidRequest)
	}
	if currency == "" {
		return models.Transaction{}, fmt.Errorf("%w: currency is required", models.ErrInvalidRequest)
	}
	if fromID == toID {
		return models.Transaction{}, fmt.Errorf("%w: source and destination accounts must differ", models.ErrInvalidRequest)
	}

	debitMu := e.accountLock(fromID)
	creditMu := e.accountLock(toID)

	// Lock in a fixed global order to avoid deadlocks.
	if fromID < toID {
		debitMu.Lock()
		creditMu.Lock()
	} else {
		creditMu.Lock()
		debitMu.Lock()
	}
	defer debitMu.Unlock()
	defer creditMu.Unlock()

	// Authorizing
	from, err := e.registry.Lookup(ctx, fromID)
	if err != nil {
		return models.Transaction{}, err
	}
	to, err := e.registry.Lookup(ctx, toID)
	if err != nil {
		return models.Transaction{}, err
	}
	if from.Currency != currency || to.Currency != currency {
		return models.Transaction{}, models.ErrCurrencyMismatch
	}
	if from.Balance.LessThan(amount) {
		return models.Transaction{}, models.ErrInsufficientFunds
	}

	// Applying. The balance check above is advisory; ApplyDelta re-verifies
	// the debited balance atomically, so a stale read can never overdraw.
	if _, err := e.registry.ApplyDelta(ctx, fromID, amount.Neg()); err != nil {
		return models.Transaction{}, err
	}
	if _, err := e.registry.ApplyDelta(ctx, toID, amount); err != nil {
		// Refund the debit so the failed transfer leaves no partial effect.
		if _, refundErr := e.registry.ApplyDelta(ctx, fromID, amount); refundErr != nil {
			e.logger.Error("refund after failed credit did not apply",
				zap.String("account_id", fromID),
				zap.String("amount", amount.String()),
				zap.Error(refundErr))
		}
		return models.Transaction{}, err
	}

	// Recording. The movement has happened; a failed append is surfaced for
	// reconciliation, never rolled back.
	tx, err := e.txlog.Append(ctx, fromID, toID, amount, currency)
	if err != nil {
		e.logger.Error("transfer applied but not recorded",
			zap.String("from_account_id", fromID),
			zap.String("to_account_id", toID),
			zap.String("amount", amount.String()),
			zap.String("currency", currency),
			zap.Error(err))
		return models.Transaction{}, &models.RecordingFailedError{
			FromAccountID: fromID,
			ToAccountID:   toID,
			Amount:        amount,
			Currency:      currency,
			Err:           err,
		}
	}

	// Committed
	e.publishTransferCompleted(tx)
	return tx, nil
}

func (e *Engine) publishTransferCompleted(tx models.Transaction) {
	if e.publisher == nil {
		return
	}
	event := events.TransferCompleted{
		TransactionID: tx.ID,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		OccurredAt:    tx.CreatedAt,
	}
	if err := e.publisher.Publish(events.TopicTransferCompleted, event); err != nil {
		e.logger.Warn("transfer event publish failed",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
	}
}

// GetHistory returns the account's transactions in creation order. An unknown
// account yields ErrAccountNotFound; a known account with no activity yields
// an empty result.
func (e *Engine) GetHistory(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if _, err := e.registry.Lookup(ctx, accountID); err != nil {
		return nil, err
	}
	return e.txlog.QueryByAccount(ctx, accountID)
}

// CreateAccount opens an account for an existing user. Currency must be a
// 3-letter uppercase code; the opening balance must not be negative.
func (e *Engine) CreateAccount(ctx context.Context, userID, currency string, openingBalance decimal.Decimal) (models.Account, error) {
	if !currencyPattern.MatchString(currency) {
		return models.Account{}, fmt.Errorf("%w: currency must be a 3-letter code", models.ErrInvalidRequest)
	}
	if openingBalance.IsNegative() {
		return models.Account{}, fmt.Errorf("%w: opening balance cannot be negative", models.ErrInvalidRequest)
	}
	if _, err := e.users.Get(ctx, userID); err != nil {
		return models.Account{}, err
	}
	return e.registry.Create(ctx, userID, currency, openingBalance)
}

// ListAccountsByUser returns the user's accounts in creation order.
func (e *Engine) ListAccountsByUser(ctx context.Context, userID string) ([]models.Account, error) {
	return e.registry.ListByUser(ctx, userID)
}

// RegisterUser hashes the password and stores the user in the directory.
func (e *Engine) RegisterUser(ctx context.Context, username, email, password string) (models.User, error) {
	if username == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username, email and password are required", models.ErrInvalidRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	return e.users.Register(ctx, username, email, string(hash))
}
