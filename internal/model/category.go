package model

import "time"

// Category представляет категорию операций пользователя.
// Имя уникально в рамках одного пользователя (с учётом регистра).
type Category struct {
	ID        string    `json:"id,omitempty" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
}
