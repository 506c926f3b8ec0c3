package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duffiwer/ledger-service/internal/interfaces"
	"github.com/duffiwer/ledger-service/internal/ledger"
	"github.com/duffiwer/ledger-service/internal/models"
	"github.com/duffiwer/ledger-service/internal/storage/memory"
)

type fixture struct {
	engine   *ledger.Engine
	registry *memory.AccountRegistry
	txlog    *memory.TransactionLog
	users    *memory.UserDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registry: memory.NewAccountRegistry(),
		txlog:    memory.NewTransactionLog(),
		users:    memory.NewUserDirectory(),
	}
	f.engine = ledger.NewEngine(f.registry, f.txlog, f.users, nil, nil)
	return f
}

func (f *fixture) newAccount(t *testing.T, currency string, balance int64) models.Account {
	t.Helper()
	a, err := f.registry.Create(context.Background(), "owner", currency, decimal.NewFromInt(balance))
	require.NoError(t, err)
	return a
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	a, err := f.registry.Lookup(context.Background(), accountID)
	require.NoError(t, err)
	return a.Balance
}

func TestTransferCommitsAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.newAccount(t, "USD", 100)
	b := f.newAccount(t, "USD", 0)
	c := f.newAccount(t, "USD", 50)

	t1, err := f.engine.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(30), "USD")
	require.NoError(t, err)
	t2, err := f.engine.Transfer(ctx, c.ID, a.ID, decimal.NewFromInt(10), "USD")
	require.NoError(t, err)

	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(80)), "balance of A after T1 and T2")
	assert.True(t, f.balance(t, b.ID).Equal(decimal.NewFromInt(30)))
	assert.True(t, f.balance(t, c.ID).Equal(decimal.NewFromInt(40)))

	history, err := f.engine.GetHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, t1.ID, history[0].ID)
	assert.Equal(t, t2.ID, history[1].ID)
	assert.Less(t, history[0].Sequence, history[1].Sequence)
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.newAccount(t, "USD", 100)
	b := f.newAccount(t, "USD", 100)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := f.engine.Transfer(ctx, a.ID, b.ID, amount, "USD")
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	}

	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balance(t, b.ID).Equal(decimal.NewFromInt(100)))

	history, err := f.engine.GetHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransferRejectsSelfTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.newAccount(t, "USD", 100)

	_, err := f.engine.Transfer(ctx, a.ID, a.ID, decimal.NewFromInt(10), "USD")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(100)))
}

func TestTransferRejectsMissingCurrency(t *testing.T) {
	f := newFixture(t)

	a := f.newAccount(t, "USD", 100)
	b := f.newAccount(t, "USD", 100)

	_, err := f.engine.Transfer(context.Background(), a.ID, b.ID, decimal.NewFromInt(10), "")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}

func TestTransferRejectsUnknownAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.newAccount(t, "USD", 100)

	_, err := f.engine.Transfer(ctx, a.ID, "missing", decimal.NewFromInt(10), "USD")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	_, err = f.engine.Transfer(ctx, "missing", a.ID, decimal.NewFromInt(10), "USD")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(100)))
}

func TestTransferRejectsCurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	usd := f.newAccount(t, "USD", 100)
	eur := f.newAccount(t, "EUR", 100)

	_, err := f.engine.Transfer(ctx, usd.ID, eur.ID, decimal.NewFromInt(10), "USD")
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	// Request currency that matches neither account is also a mismatch.
	usd2 := f.newAccount(t, "USD", 100)
	_, err = f.engine.Transfer(ctx, usd.ID, usd2.ID, decimal.NewFromInt(10), "GBP")
	assert.ErrorIs(t, err, models.ErrCurrencyMismatch)

	assert.True(t, f.balance(t, usd.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balance(t, eur.ID).Equal(decimal.NewFromInt(100)))
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.newAccount(t, "USD", 50)
	b := f.newAccount(t, "USD", 0)

	_, err := f.engine.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(51), "USD")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	assert.True(t, f.balance(t, a.ID).Equal(decimal.NewFromInt(50)))
	assert.True(t, f.balance(t, b.ID).Equal(decimal.Zero))

	history, err := f.engine.GetHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestConcurrentFanOutNoLostUpdates drains an account with exactly N
// concurrent transfers of the same amount to distinct recipients. Every
// transfer must succeed and compose: the source ends at zero and each
// recipient holds exactly one amount.
func TestConcurrentFanOutNoLostUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 50
	amount := decimal.NewFromInt(10)

	source := f.newAccount(t, "USD", int64(n)*10)
	recipients := make([]models.Account, n)
	for i := range recipients {
		recipients[i] = f.newAccount(t, "USD", 0)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Transfer(ctx, source.ID, recipients[i].ID, amount, "USD")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "transfer %d", i)
	}
	assert.True(t, f.balance(t, source.ID).Equal(decimal.Zero), "source drained exactly")
	for _, rcpt := range recipients {
		assert.True(t, f.balance(t, rcpt.ID).Equal(amount))
	}
}

// TestConcurrentTransfersConserveTotal runs many transfers over a closed set
// of accounts and checks the conservation invariant: the total is unchanged
// and no balance ever ends negative.
func TestConcurrentTransfersConserveTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const accounts = 4
	const transfers = 200

	ids := make([]string, accounts)
	for i := range ids {
		ids[i] = f.newAccount(t, "USD", 100).ID
	}

	var wg sync.WaitGroup
	wg.Add(transfers)
	for i := 0; i < transfers; i++ {
		go func(i int) {
			defer wg.Done()
			from := ids[i%accounts]
			to := ids[(i+1+i%(accounts-1))%accounts]
			if from == to {
				to = ids[(i+1)%accounts]
			}
			amount := decimal.NewFromInt(int64(1 + i%5))
			// Insufficient funds is an acceptable outcome under contention;
			// anything else is not.
			if _, err := f.engine.Transfer(ctx, from, to, amount, "USD"); err != nil {
				assert.ErrorIs(t, err, models.ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	total := decimal.Zero
	for _, id := range ids {
		balance := f.balance(t, id)
		assert.False(t, balance.IsNegative(), "account %s went negative", id)
		total = total.Add(balance)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(accounts*100)), "total changed: %s", total)
}

// failingLog always refuses appends, simulating an unreachable sink.
type failingLog struct{}

func (failingLog) Append(ctx context.Context, fromID, toID string, amount decimal.Decimal, currency string) (models.Transaction, error) {
	return models.Transaction{}, fmt.Errorf("%w: sink unreachable", models.ErrStorageUnavailable)
}

func (failingLog) QueryByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return nil, nil
}

func TestTransferRecordingFailureReportsAppliedMovement(t *testing.T) {
	registry := memory.NewAccountRegistry()
	engine := ledger.NewEngine(registry, failingLog{}, memory.NewUserDirectory(), nil, nil)
	ctx := context.Background()

	a, err := registry.Create(ctx, "owner", "USD", decimal.NewFromInt(100))
	require.NoError(t, err)
	b, err := registry.Create(ctx, "owner", "USD", decimal.NewFromInt(0))
	require.NoError(t, err)

	_, err = engine.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(30), "USD")
	require.Error(t, err)

	var recording *models.RecordingFailedError
	require.True(t, errors.As(err, &recording))
	assert.Equal(t, a.ID, recording.FromAccountID)
	assert.Equal(t, b.ID, recording.ToAccountID)
	assert.True(t, recording.Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "USD", recording.Currency)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)

	// The movement did occur; reconciliation, not rollback.
	fromAcc, err := registry.Lookup(ctx, a.ID)
	require.NoError(t, err)
	toAcc, err := registry.Lookup(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, fromAcc.Balance.Equal(decimal.NewFromInt(70)))
	assert.True(t, toAcc.Balance.Equal(decimal.NewFromInt(30)))
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *capturingPublisher) Publish(topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

var _ interfaces.EventPublisher = (*capturingPublisher)(nil)

func TestTransferPublishesCompletionEvent(t *testing.T) {
	registry := memory.NewAccountRegistry()
	publisher := &capturingPublisher{}
	engine := ledger.NewEngine(registry, memory.NewTransactionLog(), memory.NewUserDirectory(), publisher, nil)
	ctx := context.Background()

	a, err := registry.Create(ctx, "owner", "USD", decimal.NewFromInt(100))
	require.NoError(t, err)
	b, err := registry.Create(ctx, "owner", "USD", decimal.NewFromInt(0))
	require.NoError(t, err)

	_, err = engine.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(25), "USD")
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "transfer_completed", publisher.topics[0])
}

func TestGetHistoryUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetHistory(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestGetHistoryEmptyForIdleAccount(t *testing.T) {
	f := newFixture(t)

	a := f.newAccount(t, "USD", 100)
	history, err := f.engine.GetHistory(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.engine.RegisterUser(ctx, "carol", "carol@example.com", "secret")
	require.NoError(t, err)

	_, err = f.engine.CreateAccount(ctx, user.ID, "usd", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidRequest, "lowercase currency")

	_, err = f.engine.CreateAccount(ctx, user.ID, "USDT", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrInvalidRequest, "4-letter currency")

	_, err = f.engine.CreateAccount(ctx, user.ID, "USD", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, models.ErrInvalidRequest, "negative opening balance")

	_, err = f.engine.CreateAccount(ctx, "missing", "USD", decimal.Zero)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	account, err := f.engine.CreateAccount(ctx, user.ID, "USD", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, user.ID, account.UserID)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
}

func TestListAccountsByUserCreationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.engine.RegisterUser(ctx, "dave", "dave@example.com", "secret")
	require.NoError(t, err)

	first, err := f.engine.CreateAccount(ctx, user.ID, "USD", decimal.Zero)
	require.NoError(t, err)
	second, err := f.engine.CreateAccount(ctx, user.ID, "EUR", decimal.Zero)
	require.NoError(t, err)

	accounts, err := f.engine.ListAccountsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first.ID, accounts[0].ID)
	assert.Equal(t, second.ID, accounts[1].ID)
}

func TestRegisterUserHashesPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.engine.RegisterUser(ctx, "erin", "erin@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2")))

	_, err = f.engine.RegisterUser(ctx, "erin2", "erin@example.com", "other")
	assert.ErrorIs(t, err, models.ErrEmailTaken)

	_, err = f.engine.RegisterUser(ctx, "", "x@example.com", "pw")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}
