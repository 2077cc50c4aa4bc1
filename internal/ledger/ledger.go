package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/expense-ledger-bot/internal/interfaces"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models/events"
)

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrNotFinite     = errors.New("value must be a finite number")
	ErrEmptyCategory = errors.New("category must not be empty")
)

// Ledger is the service in front of the ledger store.
// Every operation loads the full ledger, applies its change and saves it back
// while holding mu, so concurrent interactions never lose each other's writes.
type Ledger struct {
	store     interfaces.LedgerStore
	publisher interfaces.EventPublisher // optional, nil disables events
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
}

type Option func(*Ledger)

// WithPublisher sends a LedgerEvent after every successful mutation
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides time.Now, used by tests
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a new Ledger backed by store
func NewLedger(store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ParseAmount converts a raw command option into a decimal, rejecting NaN and infinities.
func ParseAmount(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, ErrNotFinite
	}
	return decimal.NewFromFloat(v), nil
}

// ValidateExpense checks the arguments of AddExpense without touching the store
func ValidateExpense(amount decimal.Decimal, category string) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// AddExpense subtracts amount from the user's balance and appends an expense.
// It returns the balance after the change and the stored expense.
func (l *Ledger) AddExpense(ctx context.Context, userID string, amount decimal.Decimal, category string) (decimal.Decimal, models.Expense, error) {
	category = strings.TrimSpace(category)
	if err := ValidateExpense(amount, category); err != nil {
		return decimal.Zero, models.Expense{}, err
	}

	expense := models.Expense{
		ID:        uuid.NewString(),
		Amount:    amount,
		Category:  category,
		CreatedAt: l.now().UTC().Truncate(time.Millisecond),
	}

	var balance decimal.Decimal
	err := l.update(ctx, userID, func(_ models.Ledger, acc *models.Account) (bool, error) {
		acc.Balance = acc.Balance.Sub(amount)
		acc.Expenses = append(acc.Expenses, expense)
		balance = acc.Balance
		return true, nil
	})
	if err != nil {
		return decimal.Zero, models.Expense{}, err
	}

	l.publish(ctx, events.LedgerEvent{
		Type:       events.ExpenseAdded,
		UserID:     userID,
		Amount:     amount,
		Category:   category,
		Balance:    balance,
		OccurredAt: expense.CreatedAt,
	})
	return balance, expense, nil
}

// Balance returns the current balance of the user
func (l *Ledger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.update(ctx, userID, func(_ models.Ledger, acc *models.Account) (bool, error) {
		balance = acc.Balance
		return false, nil
	})
	return balance, err
}

// RecentExpenses returns up to n of the latest expenses, oldest first
func (l *Ledger) RecentExpenses(ctx context.Context, userID string, n int) ([]models.Expense, error) {
	var recent []models.Expense
	err := l.update(ctx, userID, func(_ models.Ledger, acc *models.Account) (bool, error) {
		recent = acc.Recent(n)
		return false, nil
	})
	return recent, err
}

// SetBalance overwrites the balance, leaving the expense history untouched
func (l *Ledger) SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error {
	err := l.update(ctx, userID, func(_ models.Ledger, acc *models.Account) (bool, error) {
		acc.Balance = amount
		return true, nil
	})
	if err != nil {
		return err
	}

	l.publish(ctx, events.LedgerEvent{
		Type:       events.BalanceSet,
		UserID:     userID,
		Amount:     amount,
		Balance:    amount,
		OccurredAt: l.now().UTC(),
	})
	return nil
}

// Reset replaces the user's account with a fresh default one
func (l *Ledger) Reset(ctx context.Context, userID string) error {
	err := l.update(ctx, userID, func(ledger models.Ledger, _ *models.Account) (bool, error) {
		ledger[userID] = models.NewAccount()
		return true, nil
	})
	if err != nil {
		return err
	}

	l.publish(ctx, events.LedgerEvent{
		Type:       events.AccountReset,
		UserID:     userID,
		Amount:     decimal.Zero,
		Balance:    decimal.Zero,
		OccurredAt: l.now().UTC(),
	})
	return nil
}

// Snapshot returns a copy of the whole ledger, taken under the writer lock
func (l *Ledger) Snapshot(ctx context.Context) (models.Ledger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ledger, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return ledger.Clone(), nil
}

// update runs fn against the user's account inside one load-modify-save cycle.
// The ledger is saved when fn reports a change or the account had to be created.
func (l *Ledger) update(ctx context.Context, userID string, fn func(models.Ledger, *models.Account) (bool, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ledger, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	acc, created := ledger.Account(userID)
	changed, err := fn(ledger, acc)
	if err != nil {
		return err
	}
	if !changed && !created {
		return nil
	}

	if err := l.store.Save(ctx, ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if created {
		l.logger.Info("account created", zap.String("user_id", userID))
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, event events.LedgerEvent) {
	if l.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	if err := l.publisher.Publish(ctx, event.UserID, event); err != nil {
		l.logger.Warn("failed to publish ledger event",
			zap.String("type", string(event.Type)),
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}
}
