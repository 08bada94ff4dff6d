package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/financebot/internal/model"
	"github.com/ivanoskov/financebot/internal/repository"
)

// Ошибки валидации записи перед сохранением
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrEmptyCategory     = errors.New("category name must not be empty")
)

// ExpenseTracker предоставляет методы для работы с финансовыми данными
type ExpenseTracker struct {
	repo            Repository
	defaultCurrency string
}

// Repository определяет интерфейс для работы с хранилищем данных
type Repository interface {
	CreateEntry(ctx context.Context, userID int64, kind string, record model.FinancialRecord) (*model.Entry, error)
	GetCurrency(ctx context.Context, code string) (*model.Currency, error)
	GetCategories(ctx context.Context, userID int64) ([]model.Category, error)
	GetTransactions(ctx context.Context, userID int64, filter repository.TransactionFilter) ([]model.Transaction, error)
}

// NewExpenseTracker создает новый экземпляр ExpenseTracker.
// defaultCurrency - код валюты для записей без явной валюты; пустая строка
// означает валюту по умолчанию из справочника.
func NewExpenseTracker(repo Repository, defaultCurrency string) *ExpenseTracker {
	return &ExpenseTracker{
		repo:            repo,
		defaultCurrency: defaultCurrency,
	}
}

// CreateIncome сохраняет доход и возвращает записанные сумму, валюту и категорию
func (s *ExpenseTracker) CreateIncome(ctx context.Context, userID int64, record model.FinancialRecord) (*model.Entry, error) {
	return s.create(ctx, userID, model.TypeIncome, record)
}

// CreateExpense сохраняет расход и возвращает записанные сумму, валюту и категорию
func (s *ExpenseTracker) CreateExpense(ctx context.Context, userID int64, record model.FinancialRecord) (*model.Entry, error) {
	return s.create(ctx, userID, model.TypeExpense, record)
}

func (s *ExpenseTracker) create(ctx context.Context, userID int64, kind string, record model.FinancialRecord) (*model.Entry, error) {
	if record.Amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if strings.TrimSpace(record.CategoryName) == "" {
		return nil, ErrEmptyCategory
	}
	if record.CurrencyCode == "" {
		record.CurrencyCode = s.defaultCurrency
	}

	entry, err := s.repo.CreateEntry(ctx, userID, kind, record)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return entry, nil
}

// BaseReport содержит сводку за период
type BaseReport struct {
	Period             string
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	IncomeByCategory   map[string]decimal.Decimal
	ExpensesByCategory map[string]decimal.Decimal
}

// Balance возвращает разницу доходов и расходов за период
func (r *BaseReport) Balance() decimal.Decimal {
	return r.TotalIncome.Sub(r.TotalExpenses)
}

// Text форматирует сводку для отправки в чат
func (r *BaseReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Summary for %s\n\n", r.Period)
	fmt.Fprintf(&b, "💰 Income: %s\n", r.TotalIncome.StringFixed(2))
	fmt.Fprintf(&b, "💸 Expenses: %s\n", r.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&b, "💵 Balance: %s\n", r.Balance().StringFixed(2))

	if len(r.IncomeByCategory)+len(r.ExpensesByCategory) > 0 {
		b.WriteString("\nBy category:\n")
		for _, line := range categoryLines("💰", r.IncomeByCategory) {
			b.WriteString(line)
		}
		for _, line := range categoryLines("💸", r.ExpensesByCategory) {
			b.WriteString(line)
		}
	}
	return b.String()
}

func categoryLines(emoji string, byCategory map[string]decimal.Decimal) []string {
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	// сортируем по убыванию суммы, при равенстве по имени
	sort.Slice(names, func(i, j int) bool {
		a, b := byCategory[names[i]], byCategory[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s %s: %s\n", emoji, name, byCategory[name].StringFixed(2)))
	}
	return lines
}

// GetMonthlyReport строит сводку за текущий месяц
func (s *ExpenseTracker) GetMonthlyReport(ctx context.Context, userID int64) (*BaseReport, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	transactions, err := s.repo.GetTransactions(ctx, userID, repository.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	categories, err := s.repo.GetCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	categoryNames := make(map[string]string)
	for _, cat := range categories {
		categoryNames[cat.ID] = cat.Name
	}

	report := &BaseReport{
		Period:             now.Format("January 2006"),
		IncomeByCategory:   make(map[string]decimal.Decimal),
		ExpensesByCategory: make(map[string]decimal.Decimal),
	}

	for _, t := range transactions {
		name := categoryNames[t.CategoryID]
		if name == "" {
			name = "Uncategorized"
		}
		switch t.Kind {
		case model.TypeIncome:
			report.TotalIncome = report.TotalIncome.Add(t.Amount)
			report.IncomeByCategory[name] = report.IncomeByCategory[name].Add(t.Amount)
		case model.TypeExpense:
			report.TotalExpenses = report.TotalExpenses.Add(t.Amount)
			report.ExpensesByCategory[name] = report.ExpensesByCategory[name].Add(t.Amount)
		}
	}

	return report, nil
}
