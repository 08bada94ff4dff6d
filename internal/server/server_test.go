package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/financebot/internal/bot"
	"github.com/ivanoskov/financebot/internal/model"
	"github.com/ivanoskov/financebot/internal/repository"
	"github.com/ivanoskov/financebot/internal/service"
	"github.com/ivanoskov/financebot/internal/state"
)

type nopSender struct {
	mu   sync.Mutex
	sent int
}

func (s *nopSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
	return tgbotapi.Message{}, nil
}

func (s *nopSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type nopRepo struct{}

func (nopRepo) CreateEntry(ctx context.Context, userID int64, kind string, record model.FinancialRecord) (*model.Entry, error) {
	return &model.Entry{}, nil
}

func (nopRepo) GetCurrency(ctx context.Context, code string) (*model.Currency, error) {
	return &model.Currency{}, nil
}

func (nopRepo) GetCategories(ctx context.Context, userID int64) ([]model.Category, error) {
	return nil, nil
}

func (nopRepo) GetTransactions(ctx context.Context, userID int64, filter repository.TransactionFilter) ([]model.Transaction, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *nopSender) {
	t.Helper()
	sender := &nopSender{}
	b := bot.NewBotWithAPI(sender,
		service.NewExpenseTracker(nopRepo{}, ""),
		state.NewMemoryStore(time.Minute))

	srv := New(":0", b)
	ts := httptest.NewServer(srv.http.Handler)
	t.Cleanup(ts.Close)
	return ts, sender
}

func TestWebhook_MalformedJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_EmptyUpdate(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_UnsupportedUpdateKindIsAccepted(t *testing.T) {
	ts, sender := newTestServer(t)

	resp, err := http.Post(ts.URL+"/webhook", "application/json",
		strings.NewReader(`{"update_id": 5}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, sender.sent)
}

func TestWebhook_CommandIsDispatched(t *testing.T) {
	ts, sender := newTestServer(t)

	update := `{"update_id": 6, "message": {"message_id": 1,
		"from": {"id": 7}, "chat": {"id": 77}, "text": "/start"}}`
	resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(update))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, 1, sender.sent)
}

func TestWebhook_MethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/webhook")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
