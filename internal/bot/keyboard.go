package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/ivanoskov/financebot/internal/model"
)

// Меню - чистые функции: состояние диалога в раскладку не попадает,
// все переходы закодированы в токенах кнопок.

func mainMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Income", tokenMenuAddIncome),
			tgbotapi.NewInlineKeyboardButtonData("➖ Add Expense", tokenMenuAddExpense),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 View Summary", tokenMenuSummary),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", tokenMenuSettings),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", tokenMenuHelp),
		),
	)
	return "Welcome to FinanceBot! What would you like to do?", keyboard
}

func incomeMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💼 Salary", categoryToken(model.TypeIncome, "Salary")),
			tgbotapi.NewInlineKeyboardButtonData("💰 Freelance", categoryToken(model.TypeIncome, "Freelance")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Investment", categoryToken(model.TypeIncome, "Investment")),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Gift", categoryToken(model.TypeIncome, "Gift")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Other", categoryToken(model.TypeIncome, "Other")),
		),
		backToMainRow(),
	)
	return "Select income category:", keyboard
}

func expenseMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍔 Food", categoryToken(model.TypeExpense, "Food")),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Rent", categoryToken(model.TypeExpense, "Rent")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚌 Transport", categoryToken(model.TypeExpense, "Transport")),
			tgbotapi.NewInlineKeyboardButtonData("🛍 Shopping", categoryToken(model.TypeExpense, "Shopping")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Other", categoryToken(model.TypeExpense, "Other")),
		),
		backToMainRow(),
	)
	return "Select expense category:", keyboard
}

func settingsMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Set Currency", tokenSettingsCurrency),
			tgbotapi.NewInlineKeyboardButtonData("📊 Set Budget", tokenSettingsBudget),
		),
		backToMainRow(),
	)
	return "Settings:", keyboard
}

func helpMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	helpText := "📚 *FinanceBot Help*\n\n" +
		"Here's how to use the bot:\n\n" +
		"1. *Add Income/Expense*\n" +
		"   - Click ➕ Add Income or ➖ Add Expense\n" +
		"   - Select a category\n" +
		"   - Enter the amount\n" +
		"   - Add a description (optional)\n\n" +
		"2. *View Summary*\n" +
		"   - Click 📊 View Summary to see your financial overview\n\n" +
		"3. *Settings*\n" +
		"   - Click ⚙️ Settings to configure your preferences\n\n" +
		"You can also record directly:\n" +
		"`/add_income 200 Salary Monthly paycheck`\n" +
		"`/add_expense 150 Groceries Weekly food shopping`"

	keyboard := tgbotapi.NewInlineKeyboardMarkup(backToMainRow())
	return helpText, keyboard
}

// amountPrompt запрашивает сумму. Кнопка назад возвращает к выбору
// категории и сбрасывает диалог.
func amountPrompt(kind, category string) (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back to Categories", menuAddToken(kind)),
		),
	)
	return fmt.Sprintf("Enter the amount for %s %s:", category, kind), keyboard
}

// descriptionPrompt запрашивает описание. Токен пропуска несет тип, сумму и
// категорию, чтобы запись можно было создать без серверного состояния.
func descriptionPrompt(kind, category string, amount decimal.Decimal) (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Skip Description", skipDescriptionToken(kind, amount, category)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back to Amount", backToAmountToken(kind, category)),
		),
	)
	return fmt.Sprintf("Enter a description for %s %s %s (or skip):", amount, category, kind), keyboard
}

func backToMainRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back to Main Menu", tokenBackToMain),
	)
}
