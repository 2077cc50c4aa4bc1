package interfaces

import (
	"context"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

// LedgerStore loads and fully rewrites the persisted ledger
type LedgerStore interface {
	Load(ctx context.Context) (models.Ledger, error)
	Save(ctx context.Context, ledger models.Ledger) error
}
