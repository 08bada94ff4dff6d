package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы операций
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction представляет сохранённую финансовую операцию (доход или расход)
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	Kind        string          `json:"kind" db:"kind"` // income или expense
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	CurrencyID  int64           `json:"currency_id" db:"currency_id"`
	CategoryID  string          `json:"category_id" db:"category_id"`
	Description string          `json:"description" db:"description"`
	Date        time.Time       `json:"date" db:"date"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// GenerateID генерирует новый UUID для транзакции, если он еще не установлен
func (t *Transaction) GenerateID() {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
}

// Entry объединяет сохранённую операцию с разрешёнными категорией и валютой
type Entry struct {
	Transaction Transaction
	Category    Category
	Currency    Currency
}
