package main

import (
	"context"
	"errors"

	"github.com/ivanoskov/financebot/internal/bot"
	"github.com/ivanoskov/financebot/internal/config"
	"github.com/ivanoskov/financebot/internal/repository"
	"github.com/ivanoskov/financebot/internal/service"
	"github.com/ivanoskov/financebot/internal/state"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	Body string `json:"body"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errorResponse(500, err)
	}

	// Serverless-окружение без диска: работаем через Supabase
	repo, err := repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		return errorResponse(500, err)
	}

	tracker := service.NewExpenseTracker(repo, cfg.DefaultCurrency)

	b, err := bot.NewBot(cfg.TelegramToken, tracker, state.NewMemoryStore(cfg.StateTTL))
	if err != nil {
		return errorResponse(500, err)
	}

	if err := b.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		if errors.Is(err, bot.ErrMalformedPayload) {
			return errorResponse(400, err)
		}
		return errorResponse(500, err)
	}

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(status int, err error) (*Response, error) {
	return &Response{
		StatusCode: status,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Точка входа для локального тестирования
}
