package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/expense-ledger-bot/internal/models"
)

func TestFileLedgerStore_LoadInitializesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "gastos.json")
	store := NewFileLedgerStore(path)

	ledger, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ledger)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFileLedgerStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewFileLedgerStore(filepath.Join(t.TempDir(), "gastos.json"))

	created := time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	ledger := models.Ledger{
		"42": {
			Balance: decimal.RequireFromString("-70.5"),
			Expenses: []models.Expense{
				{ID: "e1", Amount: decimal.RequireFromString("50"), Category: "food", CreatedAt: created},
				{ID: "e2", Amount: decimal.RequireFromString("20.5"), Category: "transport", CreatedAt: created.Add(time.Hour)},
			},
		},
		"7": models.NewAccount(),
	}
	require.NoError(t, store.Save(ctx, ledger))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got["42"].Balance.Equal(ledger["42"].Balance))
	require.Len(t, got["42"].Expenses, 2)
	assert.Equal(t, "e1", got["42"].Expenses[0].ID)
	assert.Equal(t, "food", got["42"].Expenses[0].Category)
	assert.True(t, got["42"].Expenses[1].Amount.Equal(decimal.RequireFromString("20.5")))
	assert.Equal(t, created, got["42"].Expenses[0].CreatedAt)
	assert.NotNil(t, got["7"].Expenses)
	assert.Empty(t, got["7"].Expenses)
}

func TestFileLedgerStore_RoundTripIsNoOp(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gastos.json")
	store := NewFileLedgerStore(path)

	ledger := models.Ledger{
		"1": {
			Balance: decimal.RequireFromString("-12.34"),
			Expenses: []models.Expense{
				{Amount: decimal.RequireFromString("12.34"), Category: "café", CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)},
			},
		},
		"2": models.NewAccount(),
	}
	require.NoError(t, store.Save(ctx, ledger))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, loaded))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestFileLedgerStore_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gastos.json")
	doc := `{
  "123": {
    "saldo": 30,
    "gastos": [
      { "valor": 70, "categoria": "mercado", "data": "2024-11-30T18:22:01.123Z" }
    ]
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	ledger, err := NewFileLedgerStore(path).Load(context.Background())
	require.NoError(t, err)

	acc := ledger["123"]
	require.NotNil(t, acc)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(30)))
	require.Len(t, acc.Expenses, 1)
	assert.Equal(t, "", acc.Expenses[0].ID)
	assert.Equal(t, "mercado", acc.Expenses[0].Category)
	assert.Equal(t, time.Date(2024, 11, 30, 18, 22, 1, 123_000_000, time.UTC), acc.Expenses[0].CreatedAt)
}

func TestFileLedgerStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gastos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1": {"saldo": "abc"}}`), 0o644))

	_, err := NewFileLedgerStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileLedgerStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileLedgerStore(filepath.Join(t.TempDir(), "gastos.json"))
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, models.Ledger{}), context.Canceled)
}

func TestEncode_Layout(t *testing.T) {
	ledger := models.Ledger{
		"9": {
			Balance: decimal.RequireFromString("-50"),
			Expenses: []models.Expense{
				{Amount: decimal.RequireFromString("50"), Category: "food", CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
			},
		},
	}

	data, err := Encode(ledger)
	require.NoError(t, err)

	want := `{
  "9": {
    "saldo": -50,
    "gastos": [
      {
        "valor": 50,
        "categoria": "food",
        "data": "2024-01-01T12:00:00.000Z"
      }
    ]
  }
}`
	assert.Equal(t, want, string(data))
}

func TestDecode_Empty(t *testing.T) {
	ledger, err := Decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, ledger)
}
