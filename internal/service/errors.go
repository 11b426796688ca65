package service

import "errors"

// Сентинельные ошибки сервисного слоя, по ним хэндлеры выбирают HTTP-статус
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrInvalidSeverity    = errors.New("invalid severity")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
