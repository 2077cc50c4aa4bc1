package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	ExpenseAdded Type = "expense_added"
	BalanceSet   Type = "balance_set"
	AccountReset Type = "account_reset"
)

// LedgerEvent is published after every mutation of an account
type LedgerEvent struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
	OccurredAt time.Time       `json:"occurred_at"`
}
