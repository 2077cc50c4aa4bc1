package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

// timeLayout matches the millisecond ISO-8601 form used in existing ledger files
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type fileAccount struct {
	Saldo  json.Number   `json:"saldo"`
	Gastos []fileExpense `json:"gastos"`
}

type fileExpense struct {
	ID        string      `json:"id,omitempty"`
	Valor     json.Number `json:"valor"`
	Categoria string      `json:"categoria"`
	Data      string      `json:"data"`
}

// Encode serializes the ledger in the on-disk layout, keys sorted, two-space indent.
func Encode(ledger models.Ledger) ([]byte, error) {
	doc := make(map[string]fileAccount, len(ledger))
	for userID, acc := range ledger {
		if acc == nil {
			continue
		}
		gastos := make([]fileExpense, 0, len(acc.Expenses))
		for _, e := range acc.Expenses {
			gastos = append(gastos, fileExpense{
				ID:        e.ID,
				Valor:     json.Number(e.Amount.String()),
				Categoria: e.Category,
				Data:      e.CreatedAt.UTC().Format(timeLayout),
			})
		}
		doc[userID] = fileAccount{
			Saldo:  json.Number(acc.Balance.String()),
			Gastos: gastos,
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a ledger document. Empty input is an empty ledger.
func Decode(data []byte) (models.Ledger, error) {
	ledger := make(models.Ledger)
	if len(bytes.TrimSpace(data)) == 0 {
		return ledger, nil
	}

	var doc map[string]*fileAccount
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	for userID, fa := range doc {
		if fa == nil {
			continue
		}
		balance, err := parseAmount(fa.Saldo)
		if err != nil {
			return nil, fmt.Errorf("decode ledger: account %s saldo: %w", userID, err)
		}
		acc := &models.Account{
			Balance:  balance,
			Expenses: make([]models.Expense, 0, len(fa.Gastos)),
		}
		for i, g := range fa.Gastos {
			amount, err := parseAmount(g.Valor)
			if err != nil {
				return nil, fmt.Errorf("decode ledger: account %s gasto %d valor: %w", userID, i, err)
			}
			createdAt, err := time.Parse(time.RFC3339Nano, g.Data)
			if err != nil {
				return nil, fmt.Errorf("decode ledger: account %s gasto %d data: %w", userID, i, err)
			}
			acc.Expenses = append(acc.Expenses, models.Expense{
				ID:        g.ID,
				Amount:    amount,
				Category:  g.Categoria,
				CreatedAt: createdAt.UTC(),
			})
		}
		ledger[userID] = acc
	}
	return ledger, nil
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}
