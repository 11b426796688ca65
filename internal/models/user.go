package models

import (
	"time"

	"github.com/google/uuid"
)

// User - учетная запись пользователя (email или телефон в качестве логина)
type User struct {
	ID           uuid.UUID `json:"id"`
	EmailOrPhone string    `json:"email_or_phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
