package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a single spending record of an account
type Expense struct {
	ID        string          // unique identifier, empty for records written before ids existed
	Amount    decimal.Decimal // always positive, subtracted from the balance
	Category  string          // free-text label
	CreatedAt time.Time       // timestamp (UTC)
}
