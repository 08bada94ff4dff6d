package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ivanoskov/financebot/internal/model"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsSeedCurrencies(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// пустой код разрешается в валюту по умолчанию
	currency, err := repo.GetCurrency(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "NGN", currency.Code)
	assert.True(t, currency.IsDefault)

	usd, err := repo.GetCurrency(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, "$", usd.Symbol)
	assert.False(t, usd.IsDefault)

	_, err = repo.GetCurrency(ctx, "XXX")
	require.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestCreateEntry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry, err := repo.CreateEntry(ctx, 7, model.TypeIncome, model.FinancialRecord{
		Amount:       decimal.RequireFromString("125.50"),
		CategoryName: "Salary",
		Description:  "Monthly pay",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.Transaction.ID)
	assert.Equal(t, int64(7), entry.Transaction.UserID)
	assert.Equal(t, model.TypeIncome, entry.Transaction.Kind)
	assert.Equal(t, "Salary", entry.Category.Name)
	assert.True(t, entry.Category.IsActive)
	assert.Equal(t, "NGN", entry.Currency.Code)

	transactions, err := repo.GetTransactions(ctx, 7, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].Amount.Equal(decimal.RequireFromString("125.50")))
	assert.Equal(t, "Monthly pay", transactions[0].Description)
	assert.Equal(t, entry.Category.ID, transactions[0].CategoryID)

	categories, err := repo.GetCategories(ctx, 7)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Salary", categories[0].Name)
}

func TestCreateEntry_ExplicitCurrency(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry, err := repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
		Amount:       decimal.NewFromInt(20),
		CurrencyCode: "EUR",
		CategoryName: "Food",
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", entry.Currency.Code)
}

// Неизвестная валюта откатывает всю запись, включая создание категории.
func TestCreateEntry_UnknownCurrencyRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
		Amount:       decimal.NewFromInt(20),
		CurrencyCode: "ZZZ",
		CategoryName: "Food",
	})
	require.ErrorIs(t, err, ErrCurrencyNotFound)

	transactions, err := repo.GetTransactions(ctx, 7, TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestCategoryReuse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
		Amount: decimal.NewFromInt(10), CategoryName: "Food",
	})
	require.NoError(t, err)

	second, err := repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
		Amount: decimal.NewFromInt(15), CategoryName: "Food",
	})
	require.NoError(t, err)

	assert.Equal(t, first.Category.ID, second.Category.ID)

	categories, err := repo.GetCategories(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

// Категории разделяются по пользователям, одно имя - две строки.
func TestCategoriesPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
		Amount: decimal.NewFromInt(10), CategoryName: "Food",
	})
	require.NoError(t, err)

	second, err := repo.CreateEntry(ctx, 8, model.TypeExpense, model.FinancialRecord{
		Amount: decimal.NewFromInt(10), CategoryName: "Food",
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.Category.ID, second.Category.ID)
}

// Конкурентное первое использование категории создает ровно одну строку.
func TestConcurrentCategoryCreation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			_, err := repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
				Amount: decimal.NewFromInt(5), CategoryName: "Travel",
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	categories, err := repo.GetCategories(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	transactions, err := repo.GetTransactions(ctx, 7, TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 4)
}

func TestGetTransactionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateEntry(ctx, 7, model.TypeIncome, model.FinancialRecord{
		Amount: decimal.NewFromInt(500), CategoryName: "Salary",
	})
	require.NoError(t, err)
	_, err = repo.CreateEntry(ctx, 7, model.TypeExpense, model.FinancialRecord{
		Amount: decimal.NewFromInt(50), CategoryName: "Food",
	})
	require.NoError(t, err)

	incomes, err := repo.GetTransactions(ctx, 7, TransactionFilter{Kind: model.TypeIncome})
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, model.TypeIncome, incomes[0].Kind)

	limited, err := repo.GetTransactions(ctx, 7, TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// окно текущего месяца покрывает свежие записи
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)
	monthly, err := repo.GetTransactions(ctx, 7, TransactionFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, monthly, 2)

	// чужому пользователю записи не видны
	other, err := repo.GetTransactions(ctx, 8, TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}
