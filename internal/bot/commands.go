package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/ivanoskov/financebot/internal/model"
)

// Виды ошибок разбора команд
const (
	KindInvalidFormat = "invalid_format"
	KindInvalidAmount = "invalid_amount"
)

// CommandError - ошибка разбора команды или её аргументов.
// Usage содержит подсказку, которая отправляется пользователю.
type CommandError struct {
	Kind  string
	Usage string
}

func (e *CommandError) Error() string {
	return e.Kind
}

const incomeUsage = "❌ Invalid format for /add_income command.\n" +
	"Usage: /add_income [amount] [category] [description (optional)]\n" +
	"Example: /add_income 200 Salary Monthly paycheck"

const expenseUsage = "❌ Invalid format for /add_expense command.\n" +
	"Usage: /add_expense [amount] [category] [description (optional)]\n" +
	"Example: /add_expense 150 Groceries Weekly food shopping"

// parseCommand выделяет команду и аргументы из текста сообщения.
// Если транспорт передал entity bot_command, режем текст по её границам,
// иначе делим по пробелам. Команда приводится к нижнему регистру,
// упоминание бота (@botname) отбрасывается.
func parseCommand(message *tgbotapi.Message) (string, []string, error) {
	text := message.Text

	if entity := commandEntity(message); entity != nil {
		end := entity.Offset + entity.Length
		if entity.Offset < 0 || end > len(text) {
			return "", nil, &CommandError{Kind: KindInvalidFormat}
		}
		command := normalizeCommand(text[entity.Offset:end])
		args := strings.Fields(text[end:])
		return command, args, nil
	}

	if !strings.HasPrefix(text, "/") {
		return "", nil, &CommandError{Kind: KindInvalidFormat}
	}
	fields := strings.Fields(text)
	return normalizeCommand(fields[0]), fields[1:], nil
}

func commandEntity(message *tgbotapi.Message) *tgbotapi.MessageEntity {
	for i, entity := range message.Entities {
		if entity.Type == "bot_command" && entity.Offset == 0 {
			return &message.Entities[i]
		}
	}
	return nil
}

func normalizeCommand(command string) string {
	command = strings.ToLower(command)
	if i := strings.Index(command, "@"); i != -1 {
		command = command[:i]
	}
	return command
}

// buildIncome собирает запись дохода из аргументов команды
func buildIncome(args []string) (model.FinancialRecord, *CommandError) {
	return buildRecord(args, incomeUsage)
}

// buildExpense собирает запись расхода из аргументов команды
func buildExpense(args []string) (model.FinancialRecord, *CommandError) {
	return buildRecord(args, expenseUsage)
}

// buildRecord разбирает аргументы в формате [amount] [category] [description].
// Второй аргумент - имя категории, а не код валюты: явной валюты в командах
// нет, применяется валюта по умолчанию.
func buildRecord(args []string, usage string) (model.FinancialRecord, *CommandError) {
	if len(args) < 2 {
		return model.FinancialRecord{}, &CommandError{Kind: KindInvalidFormat, Usage: usage}
	}

	amount, err := parseAmount(args[0])
	if err != nil {
		return model.FinancialRecord{}, &CommandError{Kind: KindInvalidAmount, Usage: usage}
	}

	return model.FinancialRecord{
		Amount:       amount,
		CategoryName: args[1],
		Description:  strings.Join(args[2:], " "),
	}, nil
}

// parseAmount разбирает строго положительную десятичную сумму
func parseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if amount.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive, got %s", amount)
	}
	return amount, nil
}
