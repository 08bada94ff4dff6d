package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ivanoskov/financebot/internal/model"
)

// SQLiteRepository хранит данные во встраиваемой базе SQLite
type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// одно соединение: SQLite не переносит конкурентных писателей
	db.SetMaxOpenConns(1)

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateEntry разрешает валюту и категорию и сохраняет операцию в одной
// транзакции: либо фиксируется всё, либо ничего.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, userID int64, kind string, record model.FinancialRecord) (*model.Entry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	currency, err := getCurrencyTx(ctx, tx, record.CurrencyCode)
	if err != nil {
		return nil, err
	}

	category, err := getOrCreateCategoryTx(ctx, tx, userID, record.CategoryName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	// Нормализуем дату до начала дня
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	transaction := model.Transaction{
		UserID:      userID,
		Kind:        kind,
		Amount:      record.Amount,
		CurrencyID:  currency.ID,
		CategoryID:  category.ID,
		Description: record.Description,
		Date:        date,
		CreatedAt:   now,
	}
	transaction.GenerateID()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, kind, amount, currency_id, category_id, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transaction.ID, transaction.UserID, transaction.Kind, transaction.Amount,
		transaction.CurrencyID, transaction.CategoryID, transaction.Description,
		transaction.Date, transaction.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &model.Entry{
		Transaction: transaction,
		Category:    *category,
		Currency:    *currency,
	}, nil
}

func (r *SQLiteRepository) GetCurrency(ctx context.Context, code string) (*model.Currency, error) {
	return getCurrency(ctx, r.db, code)
}

func (r *SQLiteRepository) GetCategories(ctx context.Context, userID int64) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.SelectContext(ctx, &categories,
		`SELECT * FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

func (r *SQLiteRepository) GetTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT * FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.StartDate != nil {
		query += ` AND date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND date <= ?`
		args = append(args, *filter.EndDate)
	}
	query += ` ORDER BY date DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var transactions []model.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return transactions, nil
}

type sqlxQueryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func getCurrency(ctx context.Context, q sqlxQueryer, code string) (*model.Currency, error) {
	var currency model.Currency
	var err error
	if code == "" {
		err = q.GetContext(ctx, &currency,
			`SELECT * FROM currencies WHERE is_default = 1 ORDER BY id LIMIT 1`)
	} else {
		err = q.GetContext(ctx, &currency,
			`SELECT * FROM currencies WHERE code = ?`, code)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrCurrencyNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("select currency: %w", err)
	}
	return &currency, nil
}

func getCurrencyTx(ctx context.Context, tx *sqlx.Tx, code string) (*model.Currency, error) {
	return getCurrency(ctx, tx, code)
}

// getOrCreateCategoryTx лениво создает категорию для пары (user_id, name).
// Гонка двух первых использований разрешается ON CONFLICT DO NOTHING поверх
// уникального индекса: строка всегда ровно одна.
func getOrCreateCategoryTx(ctx context.Context, tx *sqlx.Tx, userID int64, name string) (*model.Category, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, is_active, created_at)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT (user_id, name) DO NOTHING`,
		newCategoryID(), userID, name, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryResolution, err)
	}

	var category model.Category
	err = tx.GetContext(ctx, &category,
		`SELECT * FROM categories WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryResolution, err)
	}
	return &category, nil
}
