package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/financebot/internal/charts"
	"github.com/ivanoskov/financebot/internal/model"
	"github.com/ivanoskov/financebot/internal/repository"
	"github.com/ivanoskov/financebot/internal/service"
	"github.com/ivanoskov/financebot/internal/state"
)

// ErrMalformedPayload возвращается для структурно неполных обновлений.
// Такие обновления отбрасываются на границе и до state-машины не доходят.
var ErrMalformedPayload = errors.New("malformed payload")

type Bot struct {
	api     Sender
	raw     *tgbotapi.BotAPI // только для long polling и регистрации webhook
	service *service.ExpenseTracker
	states  state.Store
	charts  *charts.ChartGenerator

	// per-user мьютексы: обновления одного пользователя обрабатываются
	// строго по порядку, state-машина чувствительна к порядку шагов
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewBot(token string, service *service.ExpenseTracker, states state.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := NewBotWithAPI(api, service, states)
	b.raw = api
	return b, nil
}

// NewBotWithAPI создает бота поверх готового клиента Telegram
func NewBotWithAPI(api Sender, service *service.ExpenseTracker, states state.Store) *Bot {
	return &Bot{
		api:     api,
		service: service,
		states:  states,
		charts:  charts.NewChartGenerator(),
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Start запускает бота в режиме long polling
func (b *Bot) Start(ctx context.Context) error {
	if b.raw == nil {
		return errors.New("polling requires a live Telegram client")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.raw.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.raw.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil && update.CallbackQuery == nil {
				continue
			}
			if err := validateUpdate(&update); err != nil {
				slog.Warn("dropping malformed update", "error", err)
				continue
			}
			if err := b.handleUpdate(ctx, update); err != nil {
				// Логируем ошибку, но продолжаем работу
				slog.Error("error handling update", "error", err)
			}
		}
	}
}

// RegisterWebhook регистрирует webhook у Telegram по базовому URL
func (b *Bot) RegisterWebhook(baseURL string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + "/webhook")
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	return nil
}

// HandleWebhook - точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := validateUpdate(&update); err != nil {
		return err
	}

	if update.Message == nil && update.CallbackQuery == nil {
		// другие типы обновлений нас не интересуют
		return nil
	}

	return b.handleUpdate(ctx, update)
}

// validateUpdate отсекает структурно неполные обновления до state-машины
func validateUpdate(update *tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		if update.Message.Chat == nil || update.Message.From == nil {
			return fmt.Errorf("%w: message without chat or sender", ErrMalformedPayload)
		}
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil || cb.Data == "" {
			return fmt.Errorf("%w: callback without sender, chat or data", ErrMalformedPayload)
		}
	default:
		if update.UpdateID == 0 {
			return fmt.Errorf("%w: empty update", ErrMalformedPayload)
		}
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	var userID int64
	if update.CallbackQuery != nil {
		userID = update.CallbackQuery.From.ID
	} else {
		userID = update.Message.From.ID
	}

	lock := b.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if update.CallbackQuery != nil {
		return b.handleCallback(ctx, update.CallbackQuery)
	}

	if update.Message.IsCommand() || strings.HasPrefix(update.Message.Text, "/") {
		return b.handleCommand(ctx, update.Message)
	}

	return b.handleMessage(ctx, update.Message)
}

func (b *Bot) userLock(userID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()

	lock, ok := b.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[userID] = lock
	}
	return lock
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	command, args, err := parseCommand(message)
	if err != nil {
		b.deliver(CommandResult{
			Status: StatusInvalid,
			ChatID: chatID,
			Text:   "❌ Invalid command format.",
		})
		return nil
	}

	switch command {
	case "/start":
		b.states.Clear(userID)
		text, keyboard := mainMenu()
		b.deliver(CommandResult{Status: StatusStart, ChatID: chatID, Text: text, Keyboard: &keyboard})
	case "/help":
		text, keyboard := helpMenu()
		b.deliver(CommandResult{Status: StatusHelp, ChatID: chatID, Text: text, Keyboard: &keyboard, Markdown: true})
	case "/add_income":
		return b.handleAddCommand(ctx, chatID, userID, model.TypeIncome, args)
	case "/add_expense":
		return b.handleAddCommand(ctx, chatID, userID, model.TypeExpense, args)
	default:
		b.deliver(CommandResult{
			Status: StatusUnrecognized,
			ChatID: chatID,
			Text:   "❌ Unrecognized command. Send /help to see available commands.",
		})
	}
	return nil
}

func (b *Bot) handleAddCommand(ctx context.Context, chatID, userID int64, kind string, args []string) error {
	var record model.FinancialRecord
	var cmdErr *CommandError
	if kind == model.TypeIncome {
		record, cmdErr = buildIncome(args)
	} else {
		record, cmdErr = buildExpense(args)
	}
	if cmdErr != nil {
		b.deliver(CommandResult{Status: StatusInvalid, ChatID: chatID, Text: cmdErr.Usage})
		return nil
	}

	entry := b.createEntry(ctx, chatID, userID, kind, record)
	if entry == nil {
		return nil
	}

	var text string
	if kind == model.TypeIncome {
		text = fmt.Sprintf("✅ Income of %s%s has been recorded under '%s'.",
			currencyPrefix(&entry.Currency), entry.Transaction.Amount, entry.Category.Name)
	} else {
		text = fmt.Sprintf("💸 Expense of %s%s has been recorded under '%s'.",
			currencyPrefix(&entry.Currency), entry.Transaction.Amount, entry.Category.Name)
	}
	b.deliver(CommandResult{Status: recordedStatus(kind), ChatID: chatID, Text: text})
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	data := callback.Data

	defer b.answerCallback(callback.ID)

	switch {
	case data == tokenBackToMain:
		b.states.Clear(userID)
		text, keyboard := mainMenu()
		b.deliver(CommandResult{Status: StatusMenu, ChatID: chatID, Text: text, Keyboard: &keyboard})

	case data == tokenMenuAddIncome:
		// новый диалог отменяет прежний
		b.states.Clear(userID)
		text, keyboard := incomeMenu()
		b.deliver(CommandResult{Status: StatusMenu, ChatID: chatID, Text: text, Keyboard: &keyboard})

	case data == tokenMenuAddExpense:
		b.states.Clear(userID)
		text, keyboard := expenseMenu()
		b.deliver(CommandResult{Status: StatusMenu, ChatID: chatID, Text: text, Keyboard: &keyboard})

	case data == tokenMenuSummary:
		return b.handleSummary(ctx, chatID, userID)

	case data == tokenMenuSettings:
		text, keyboard := settingsMenu()
		b.deliver(CommandResult{Status: StatusMenu, ChatID: chatID, Text: text, Keyboard: &keyboard})

	case data == tokenMenuHelp:
		text, keyboard := helpMenu()
		b.deliver(CommandResult{Status: StatusHelp, ChatID: chatID, Text: text, Keyboard: &keyboard, Markdown: true})

	case data == tokenSettingsCurrency:
		_, keyboard := settingsMenu()
		b.deliver(CommandResult{
			Status:   StatusMenu,
			ChatID:   chatID,
			Text:     "💰 Currency settings coming soon!\n\nYou can still add income and expenses in your current currency.",
			Keyboard: &keyboard,
		})

	case data == tokenSettingsBudget:
		_, keyboard := settingsMenu()
		b.deliver(CommandResult{
			Status:   StatusMenu,
			ChatID:   chatID,
			Text:     "📊 Budget settings coming soon!\n\nYou can still track your income and expenses.",
			Keyboard: &keyboard,
		})

	case strings.HasPrefix(data, prefixBackToAmount):
		return b.handleBackToAmount(chatID, userID, data)

	case strings.HasPrefix(data, prefixSkipDescription):
		return b.handleSkipDescription(ctx, chatID, userID, data)

	default:
		if kind, category, ok := parseCategoryToken(data); ok {
			return b.handleCategoryChoice(chatID, userID, kind, category)
		}
		text, keyboard := mainMenu()
		_ = text
		b.deliver(CommandResult{
			Status:   StatusUnrecognized,
			ChatID:   chatID,
			Text:     "❌ Unknown command. Here's what you can do:",
			Keyboard: &keyboard,
		})
	}
	return nil
}

// handleCategoryChoice начинает диалог: выбранная категория и тип операции
// запоминаются, дальше ждем сумму
func (b *Bot) handleCategoryChoice(chatID, userID int64, kind, category string) error {
	b.states.Set(userID, state.Conversation{
		Step:     state.StepAmount,
		Type:     kind,
		Category: category,
	})

	text, keyboard := amountPrompt(kind, category)
	b.deliver(CommandResult{Status: StatusPrompt, ChatID: chatID, Text: text, Keyboard: &keyboard})
	return nil
}

func (b *Bot) handleBackToAmount(chatID, userID int64, data string) error {
	kind, category, ok := parseBackToAmountToken(data)
	if !ok {
		b.deliver(CommandResult{Status: StatusInvalid, ChatID: chatID, Text: "❌ Invalid button data. Please try again."})
		return nil
	}

	conv, active := b.states.Get(userID)
	if !active || conv.Type != kind || conv.Category != category {
		return b.replyStale(chatID)
	}

	b.states.Set(userID, state.Conversation{
		Step:     state.StepAmount,
		Type:     kind,
		Category: category,
	})

	text, keyboard := amountPrompt(kind, category)
	b.deliver(CommandResult{Status: StatusPrompt, ChatID: chatID, Text: text, Keyboard: &keyboard})
	return nil
}

// handleSkipDescription завершает диалог без описания. Данные записи берутся
// из токена: он самодостаточен, состояние лишь подтверждает актуальность.
func (b *Bot) handleSkipDescription(ctx context.Context, chatID, userID int64, data string) error {
	kind, amount, category, ok := parseSkipDescriptionToken(data)
	if !ok {
		b.deliver(CommandResult{Status: StatusInvalid, ChatID: chatID, Text: "❌ Invalid button data. Please try again."})
		return nil
	}

	conv, active := b.states.Get(userID)
	if !active || conv.Step != state.StepDescription || conv.Type != kind || conv.Category != category {
		return b.replyStale(chatID)
	}

	b.states.Clear(userID)

	entry := b.createEntry(ctx, chatID, userID, kind, model.FinancialRecord{
		Amount:       amount,
		CategoryName: category,
	})
	if entry == nil {
		return nil
	}

	b.replyRecorded(chatID, kind, entry)
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	conv, active := b.states.Get(userID)
	if !active {
		// текст вне диалога - скорее всего отклик на устаревшее сообщение
		return b.replyStale(chatID)
	}

	switch conv.Step {
	case state.StepAmount:
		amount, err := parseAmount(message.Text)
		if err != nil {
			b.deliver(CommandResult{
				Status: StatusInvalid,
				ChatID: chatID,
				Text:   "Please enter a valid positive number for the amount.",
			})
			return nil
		}

		conv.Amount = amount
		conv.Step = state.StepDescription
		b.states.Set(userID, conv)

		text, keyboard := descriptionPrompt(conv.Type, conv.Category, amount)
		b.deliver(CommandResult{Status: StatusPrompt, ChatID: chatID, Text: text, Keyboard: &keyboard})

	case state.StepDescription:
		// сбрасываем состояние до записи: повторная доставка того же
		// обновления не должна создать вторую запись
		b.states.Clear(userID)

		entry := b.createEntry(ctx, chatID, userID, conv.Type, model.FinancialRecord{
			Amount:       conv.Amount,
			CategoryName: conv.Category,
			Description:  message.Text,
		})
		if entry == nil {
			return nil
		}
		b.replyRecorded(chatID, conv.Type, entry)

	default:
		return b.replyStale(chatID)
	}
	return nil
}

func (b *Bot) handleSummary(ctx context.Context, chatID, userID int64) error {
	report, err := b.service.GetMonthlyReport(ctx, userID)
	if err != nil {
		slog.Error("failed to build summary", "user_id", userID, "error", err)
		_, keyboard := mainMenu()
		b.deliver(CommandResult{
			Status:   StatusError,
			ChatID:   chatID,
			Text:     "❌ Failed to build the summary. Please try again.",
			Keyboard: &keyboard,
		})
		return nil
	}

	_, keyboard := mainMenu()
	b.deliver(CommandResult{Status: StatusSummary, ChatID: chatID, Text: report.Text(), Keyboard: &keyboard})

	if len(report.ExpensesByCategory) > 0 {
		png, err := b.charts.GenerateCategoryChart("Expenses by category", report.ExpensesByCategory)
		if err != nil {
			slog.Warn("failed to render summary chart", "error", err)
			return nil
		}
		b.sendChart(chatID, "summary.png", png)
	}
	return nil
}

// createEntry сохраняет запись через сервис. При ошибке отвечает пользователю
// сводкой без деталей, сбрасывает диалог и возвращает nil; ретраев нет,
// пользователь начинает заново.
func (b *Bot) createEntry(ctx context.Context, chatID, userID int64, kind string, record model.FinancialRecord) *model.Entry {
	var entry *model.Entry
	var err error
	if kind == model.TypeIncome {
		entry, err = b.service.CreateIncome(ctx, userID, record)
	} else {
		entry, err = b.service.CreateExpense(ctx, userID, record)
	}
	if err != nil {
		b.states.Clear(userID)
		slog.Error("failed to record entry", "kind", kind, "user_id", userID, "error", err)

		_, keyboard := mainMenu()
		b.deliver(CommandResult{
			Status:   StatusError,
			ChatID:   chatID,
			Text:     fmt.Sprintf("❌ Failed to record %s: %s", kind, failureSummary(err)),
			Keyboard: &keyboard,
		})
		return nil
	}
	return entry
}

func (b *Bot) replyRecorded(chatID int64, kind string, entry *model.Entry) {
	_, keyboard := mainMenu()
	b.deliver(CommandResult{
		Status: recordedStatus(kind),
		ChatID: chatID,
		Text: fmt.Sprintf("✅ %s of %s for %s has been recorded!",
			capitalize(kind), entry.Transaction.Amount, entry.Category.Name),
		Keyboard: &keyboard,
	})
}

func (b *Bot) replyStale(chatID int64) error {
	_, keyboard := mainMenu()
	b.deliver(CommandResult{
		Status:   StatusStale,
		ChatID:   chatID,
		Text:     "❌ This action is no longer valid. Please use the menu to start a new transaction.",
		Keyboard: &keyboard,
	})
	return nil
}

// failureSummary сводит ошибку хранилища к безопасному для пользователя
// описанию; детали остаются в логах
func failureSummary(err error) string {
	switch {
	case errors.Is(err, repository.ErrCurrencyNotFound):
		return "currency is not configured"
	case errors.Is(err, repository.ErrCategoryResolution):
		return "could not resolve category"
	case errors.Is(err, service.ErrNonPositiveAmount):
		return "amount must be positive"
	case errors.Is(err, service.ErrEmptyCategory):
		return "category must not be empty"
	default:
		return "internal error"
	}
}

// currencyPrefix возвращает символ валюты для сообщений, код - если символа нет
func currencyPrefix(currency *model.Currency) string {
	if currency == nil {
		return ""
	}
	if currency.Symbol != "" {
		return currency.Symbol
	}
	return currency.Code + " "
}

func recordedStatus(kind string) Status {
	if kind == model.TypeIncome {
		return StatusIncome
	}
	return StatusExpense
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
