package models

import (
	"github.com/shopspring/decimal"
)

// Account holds the balance and expense history of one user
type Account struct {
	Balance  decimal.Decimal
	Expenses []Expense // chronological, append-only until reset
}

// NewAccount returns the default account: zero balance, no expenses
func NewAccount() *Account {
	return &Account{
		Balance:  decimal.Zero,
		Expenses: make([]Expense, 0),
	}
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	expenses := make([]Expense, len(a.Expenses))
	copy(expenses, a.Expenses)
	return &Account{
		Balance:  a.Balance,
		Expenses: expenses,
	}
}

// Recent returns at most n of the latest expenses, oldest first
func (a *Account) Recent(n int) []Expense {
	start := len(a.Expenses) - n
	if start < 0 {
		start = 0
	}
	recent := make([]Expense, len(a.Expenses)-start)
	copy(recent, a.Expenses[start:])
	return recent
}

// Ledger maps a user identity to exactly one Account
type Ledger map[string]*Account

// Account returns the account for userID, inserting a default one if missing.
// The second return value reports whether the account was created.
func (l Ledger) Account(userID string) (*Account, bool) {
	if acc, ok := l[userID]; ok && acc != nil {
		return acc, false
	}
	acc := NewAccount()
	l[userID] = acc
	return acc, true
}

// Clone returns a deep copy of the ledger
func (l Ledger) Clone() Ledger {
	copied := make(Ledger, len(l))
	for id, acc := range l {
		if acc == nil {
			continue
		}
		copied[id] = acc.Clone()
	}
	return copied
}
