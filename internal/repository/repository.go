package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ivanoskov/financebot/internal/model"
)

func newCategoryID() string {
	return uuid.New().String()
}

// Ошибки разрешения справочных данных
var (
	ErrCurrencyNotFound   = errors.New("currency not found")
	ErrCategoryResolution = errors.New("category resolution failed")
)

// Repository определяет интерфейс для работы с хранилищем данных
type Repository interface {
	// CreateEntry атомарно разрешает валюту и категорию и сохраняет операцию.
	// Пустой CurrencyCode в записи означает валюту по умолчанию.
	// Категория создается лениво в рамках пары (user_id, name).
	CreateEntry(ctx context.Context, userID int64, kind string, record model.FinancialRecord) (*model.Entry, error)

	// Валюты
	GetCurrency(ctx context.Context, code string) (*model.Currency, error)

	// Категории
	GetCategories(ctx context.Context, userID int64) ([]model.Category, error)

	// Транзакции
	GetTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]model.Transaction, error)

	Close() error
}

// TransactionFilter задает условия выборки транзакций
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Kind      string // income, expense или пусто
	Limit     int
}
