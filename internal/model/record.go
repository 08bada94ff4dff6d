package model

import "github.com/shopspring/decimal"

// FinancialRecord - проверенные данные операции до записи в хранилище.
// Запись временная: создаётся, передаётся в сервис и отбрасывается.
type FinancialRecord struct {
	Amount       decimal.Decimal
	CurrencyCode string // пустой код означает валюту по умолчанию
	CategoryName string
	Description  string
}
