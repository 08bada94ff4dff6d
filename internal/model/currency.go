package model

// Currency представляет валюту, в которой фиксируются операции
type Currency struct {
	ID        int64  `json:"id,omitempty" db:"id"`
	Code      string `json:"code" db:"code"`
	Name      string `json:"name" db:"name"`
	Symbol    string `json:"symbol" db:"symbol"`
	IsDefault bool   `json:"is_default" db:"is_default"`
}
