package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/ivanoskov/financebot/internal/model"
)

// SupabaseRepository хранит данные в Supabase (PostgREST поверх Postgres).
// REST-интерфейс не дает клиентских транзакций: шаги CreateEntry выполняются
// последовательно, гонку категорий снимает upsert по уникальному индексу.
type SupabaseRepository struct {
	client *supabase.Client
}

func NewSupabaseRepository(url, key string) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}

	return &SupabaseRepository{
		client: client,
	}, nil
}

func (r *SupabaseRepository) Close() error {
	return nil
}

func (r *SupabaseRepository) CreateEntry(ctx context.Context, userID int64, kind string, record model.FinancialRecord) (*model.Entry, error) {
	currency, err := r.GetCurrency(ctx, record.CurrencyCode)
	if err != nil {
		return nil, err
	}

	category, err := r.getOrCreateCategory(ctx, userID, record.CategoryName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	transaction := model.Transaction{
		UserID:      userID,
		Kind:        kind,
		Amount:      record.Amount,
		CurrencyID:  currency.ID,
		CategoryID:  category.ID,
		Description: record.Description,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		CreatedAt:   now,
	}
	transaction.GenerateID()

	_, _, err = r.client.From("transactions").Insert(transaction, false, "", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &model.Entry{
		Transaction: transaction,
		Category:    *category,
		Currency:    *currency,
	}, nil
}

func (r *SupabaseRepository) GetCurrency(ctx context.Context, code string) (*model.Currency, error) {
	query := r.client.From("currencies").Select("*", "", false)
	if code == "" {
		query = query.Eq("is_default", "true")
	} else {
		query = query.Eq("code", code)
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}

	var currencies []model.Currency
	if err := json.Unmarshal(data, &currencies); err != nil {
		return nil, fmt.Errorf("failed to parse currencies: %w", err)
	}
	if len(currencies) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCurrencyNotFound, code)
	}
	return &currencies[0], nil
}

func (r *SupabaseRepository) GetCategories(ctx context.Context, userID int64) ([]model.Category, error) {
	data, _, err := r.client.From("categories").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	var categories []model.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	return categories, nil
}

func (r *SupabaseRepository) GetTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]model.Transaction, error) {
	query := r.client.From("transactions").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10))

	if filter.Kind != "" {
		query = query.Eq("kind", filter.Kind)
	}
	if filter.StartDate != nil {
		query = query.Gte("date", filter.StartDate.Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		query = query.Lte("date", filter.EndDate.Format(time.RFC3339))
	}

	// Сначала новые
	query = query.Order("date.desc", nil)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	var transactions []model.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	return transactions, nil
}

// getOrCreateCategory возвращает категорию пользователя, создавая её при
// первом использовании. Upsert по (user_id, name) гарантирует одну строку
// даже при одновременных первых использованиях.
func (r *SupabaseRepository) getOrCreateCategory(ctx context.Context, userID int64, name string) (*model.Category, error) {
	category := model.Category{
		ID:        newCategoryID(),
		UserID:    userID,
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	data, _, err := r.client.From("categories").
		Insert(category, true, "user_id,name", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryResolution, err)
	}

	var created []model.Category
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryResolution, err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("%w: empty upsert response", ErrCategoryResolution)
	}
	return &created[0], nil
}
