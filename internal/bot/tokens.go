package bot

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ivanoskov/financebot/internal/model"
)

// Callback-токены кнопок. Токен самодостаточен: диспетчер восстанавливает
// переход из самого токена, не полагаясь на серверное состояние.
const (
	tokenMenuAddIncome    = "menu_add_income"
	tokenMenuAddExpense   = "menu_add_expense"
	tokenMenuSummary      = "menu_summary"
	tokenMenuSettings     = "menu_settings"
	tokenMenuHelp         = "menu_help"
	tokenBackToMain       = "back_to_main"
	tokenSettingsCurrency = "settings_currency"
	tokenSettingsBudget   = "settings_budget"

	prefixBackToAmount    = "back_to_amount_"
	prefixSkipDescription = "skip_description_"
)

// menuAddToken возвращает токен меню категорий для типа операции
func menuAddToken(kind string) string {
	if kind == model.TypeIncome {
		return tokenMenuAddIncome
	}
	return tokenMenuAddExpense
}

func categoryToken(kind, category string) string {
	return kind + "_" + category
}

// parseCategoryToken разбирает токен выбора категории вида
// income_Salary или expense_Food
func parseCategoryToken(data string) (kind, category string, ok bool) {
	parts := strings.SplitN(data, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", false
	}
	if parts[0] != model.TypeIncome && parts[0] != model.TypeExpense {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func backToAmountToken(kind, category string) string {
	return prefixBackToAmount + kind + "_" + category
}

func parseBackToAmountToken(data string) (kind, category string, ok bool) {
	rest := strings.TrimPrefix(data, prefixBackToAmount)
	if rest == data {
		return "", "", false
	}
	return parseCategoryToken(rest)
}

// skipDescriptionToken кодирует пропуск описания. Точка в сумме заменяется
// на подчеркивание, чтобы пережить разделитель токена.
func skipDescriptionToken(kind string, amount decimal.Decimal, category string) string {
	encoded := strings.ReplaceAll(amount.String(), ".", "_")
	return prefixSkipDescription + kind + "_" + encoded + "_" + category
}

// parseSkipDescriptionToken - точная инверсия skipDescriptionToken.
// Категория - последний сегмент, сумма - один или два сегмента между типом
// и категорией (целая и дробная части).
func parseSkipDescriptionToken(data string) (kind string, amount decimal.Decimal, category string, ok bool) {
	rest := strings.TrimPrefix(data, prefixSkipDescription)
	if rest == data {
		return "", decimal.Decimal{}, "", false
	}

	parts := strings.Split(rest, "_")
	if len(parts) < 3 || len(parts) > 4 {
		return "", decimal.Decimal{}, "", false
	}

	kind = parts[0]
	if kind != model.TypeIncome && kind != model.TypeExpense {
		return "", decimal.Decimal{}, "", false
	}

	category = parts[len(parts)-1]
	if category == "" {
		return "", decimal.Decimal{}, "", false
	}

	amount, err := decimal.NewFromString(strings.Join(parts[1:len(parts)-1], "."))
	if err != nil || amount.Sign() <= 0 {
		return "", decimal.Decimal{}, "", false
	}

	return kind, amount, category, true
}
