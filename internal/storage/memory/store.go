package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/expense-ledger-bot/internal/interfaces"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It keeps a private deep copy of the ledger so callers never share state with it.
type MemoryLedgerStore struct {
	mu     sync.Mutex
	ledger models.Ledger
	saves  int
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		ledger: make(models.Ledger),
	}
}

// Load returns a copy of the stored ledger
func (m *MemoryLedgerStore) Load(ctx context.Context) (models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ledger.Clone(), nil
}

// Save replaces the stored ledger with a copy of ledger
func (m *MemoryLedgerStore) Save(ctx context.Context, ledger models.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ledger = ledger.Clone()
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded. Useful in tests.
func (m *MemoryLedgerStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
