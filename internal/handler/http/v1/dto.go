package v1

import (
	"time"

	"github.com/google/uuid"
)

// LocationDTO GeoJSON-точка, координаты [долгота, широта]
// @Description GeoJSON-точка, координаты [долгота, широта]
type LocationDTO struct {
	Type        string     `json:"type" validate:"required,eq=Point"`
	Coordinates [2]float64 `json:"coordinates"`
}

// CreateEventRequest DTO для создания near-miss события
// @Description DTO для создания near-miss события
type CreateEventRequest struct {
	Location       LocationDTO    `json:"location" validate:"required"`
	Description    string         `json:"description" validate:"required"`
	IncidentType   string         `json:"incident_type" validate:"required"`
	Severity       string         `json:"severity" validate:"required,oneof=low medium high critical"`
	Timestamp      time.Time      `json:"timestamp"`
	ReportedBy     string         `json:"reported_by"`
	AdditionalInfo map[string]any `json:"additional_info"`
}

// UpdateEventRequest DTO для обновления события
// @Description DTO для обновления события
type UpdateEventRequest struct {
	Location       LocationDTO    `json:"location" validate:"required"`
	Description    string         `json:"description" validate:"required"`
	IncidentType   string         `json:"incident_type" validate:"required"`
	Severity       string         `json:"severity" validate:"required,oneof=low medium high critical"`
	Timestamp      time.Time      `json:"timestamp"`
	ReportedBy     string         `json:"reported_by"`
	Status         string         `json:"status"`
	AdditionalInfo map[string]any `json:"additional_info"`
}

// EventResponse DTO для ответа с информацией о событии
// @Description DTO для ответа с информацией о событии
type EventResponse struct {
	ID             uuid.UUID      `json:"id"`
	Location       LocationDTO    `json:"location"`
	Description    string         `json:"description"`
	IncidentType   string         `json:"incident_type"`
	Severity       string         `json:"severity"`
	Timestamp      time.Time      `json:"timestamp"`
	ReportedBy     string         `json:"reported_by"`
	Status         string         `json:"status"`
	AdditionalInfo map[string]any `json:"additional_info,omitempty"`
}

// SignupRequest DTO для регистрации
// @Description DTO для регистрации
type SignupRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UserResponse DTO для ответа с данными учетной записи
// @Description DTO для ответа с данными учетной записи
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	EmailOrPhone string    `json:"email_or_phone"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest DTO для входа
// @Description DTO для входа
type LoginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// TokenResponse DTO для ответа с токеном доступа
// @Description DTO для ответа с токеном доступа
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// StatsResponse DTO для ответа со статистикой отчетов
// @Description DTO для ответа со статистикой отчетов
type StatsResponse struct {
	ReportCount int `json:"report_count"`
}
