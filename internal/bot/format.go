package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/ledger"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

const (
	StatementSize = 10

	msgNoExpenses = "Nenhum gasto registrado."
	msgReset      = "♻️ Seu saldo e lista de gastos foram zerados!"
	msgFailure    = "❌ Não foi possível concluir a operação. Tente novamente mais tarde."
	msgUnknown    = "❓ Comando desconhecido."
)

func money(d decimal.Decimal) string {
	return "R$" + d.String()
}

func expenseAddedMessage(amount decimal.Decimal, category string, balance decimal.Decimal) string {
	return fmt.Sprintf("💸 Gasto de **%s** adicionado na categoria **%s**!\nSaldo atual: **%s**",
		money(amount), category, money(balance))
}

func balanceMessage(balance decimal.Decimal) string {
	return fmt.Sprintf("💰 Seu saldo atual é: **%s**", money(balance))
}

func balanceSetMessage(amount decimal.Decimal) string {
	return fmt.Sprintf("💰 Seu saldo inicial foi definido como **%s**", money(amount))
}

func statementMessage(expenses []models.Expense) string {
	if len(expenses) == 0 {
		return "📃 **Últimos gastos:**\n" + msgNoExpenses
	}

	lines := make([]string, 0, len(expenses))
	for _, e := range expenses {
		lines = append(lines, fmt.Sprintf("• %s — %s (%s)",
			money(e.Amount), e.Category, e.CreatedAt.UTC().Format("2006-01-02")))
	}
	return "📃 **Últimos gastos:**\n" + strings.Join(lines, "\n")
}

// userMessage maps an error to the text shown to the user and reports whether it was a user mistake.
func userMessage(err error) (string, bool) {
	var missing missingOptionError
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "⚠️ O valor deve ser um número positivo.", true
	case errors.Is(err, ledger.ErrNotFinite):
		return "⚠️ O valor deve ser um número válido.", true
	case errors.Is(err, ledger.ErrEmptyCategory):
		return "⚠️ A categoria não pode ser vazia.", true
	case errors.As(err, &missing):
		return fmt.Sprintf("⚠️ Parâmetro obrigatório ausente: %s", string(missing)), true
	default:
		return msgFailure, false
	}
}

type missingOptionError string

func (e missingOptionError) Error() string {
	return "missing option " + string(e)
}
