package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	interfaces "github.com/sheikh-saqib/expense-ledger-bot/internal/interfaces"
	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

const (
	createAccountsTable = `CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	balance NUMERIC NOT NULL DEFAULT 0
)`
	createExpensesTable = `CREATE TABLE IF NOT EXISTS expenses (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES accounts(user_id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	amount NUMERIC NOT NULL,
	category TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

	selectAccounts = `SELECT user_id, balance FROM accounts`
	selectExpenses = `SELECT id, user_id, amount, category, created_at FROM expenses ORDER BY user_id, position`

	deleteExpenses = `DELETE FROM expenses`
	deleteAccounts = `DELETE FROM accounts`

	insertAccount = `INSERT INTO accounts (user_id, balance) VALUES ($1, $2)`
	insertExpense = `INSERT INTO expenses (id, user_id, position, amount, category, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
)

type PostgresLedgerStore struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// EnsureSchema creates the ledger tables if they do not exist
func (p *PostgresLedgerStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createAccountsTable, createExpensesTable} {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (p *PostgresLedgerStore) Load(ctx context.Context) (models.Ledger, error) {
	ledger := make(models.Ledger)

	rows, err := p.db.QueryContext(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		acc := models.NewAccount()
		if err := rows.Scan(&userID, &acc.Balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		ledger[userID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	expenseRows, err := p.db.QueryContext(ctx, selectExpenses)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	defer expenseRows.Close()

	for expenseRows.Next() {
		var (
			userID  string
			expense models.Expense
		)
		err := expenseRows.Scan(
			&expense.ID,
			&userID,
			&expense.Amount,
			&expense.Category,
			&expense.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expense.CreatedAt = expense.CreatedAt.UTC()

		acc, _ := ledger.Account(userID)
		acc.Expenses = append(acc.Expenses, expense)
	}
	if err := expenseRows.Err(); err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	return ledger, nil
}

// Save rewrites both tables inside a single transaction
func (p *PostgresLedgerStore) Save(ctx context.Context, ledger models.Ledger) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	for _, stmt := range []string{deleteExpenses, deleteAccounts} {
		if _, err = dbTx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
	}

	for _, userID := range slices.Sorted(maps.Keys(ledger)) {
		acc := ledger[userID]
		if acc == nil {
			continue
		}
		if _, err = dbTx.ExecContext(ctx, insertAccount, userID, acc.Balance); err != nil {
			return fmt.Errorf("insert account %s: %w", userID, err)
		}
		for i, e := range acc.Expenses {
			id := e.ID
			if id == "" {
				id = uuid.NewString()
			}
			_, err = dbTx.ExecContext(ctx, insertExpense, id, userID, i, e.Amount, e.Category, e.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert expense %s: %w", id, err)
			}
		}
	}

	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
