package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Status классифицирует результат обработки обновления
type Status string

const (
	StatusStart        Status = "start"
	StatusHelp         Status = "help"
	StatusMenu         Status = "menu"
	StatusPrompt       Status = "prompt"
	StatusIncome       Status = "add_income"
	StatusExpense      Status = "add_expense"
	StatusSummary      Status = "summary"
	StatusInvalid      Status = "invalid"
	StatusStale        Status = "stale"
	StatusUnrecognized Status = "unrecognized"
	StatusError        Status = "error"
)

// CommandResult - ответ, который диспетчер подготовил для чата.
// Живет только до отправки, никогда не сохраняется.
type CommandResult struct {
	Status   Status
	ChatID   int64
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
	Markdown bool
}
