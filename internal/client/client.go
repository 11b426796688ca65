package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL - адрес бэкенда по умолчанию, переопределяется через API_URL
	DefaultBaseURL = "http://localhost:8000"
	// requestTimeout - фиксированный таймаут на каждый запрос
	requestTimeout = 30 * time.Second
)

// TokenSource отдает текущий токен доступа, пустая строка - токена нет.
// session.Store реализует этот интерфейс.
type TokenSource interface {
	Token() string
}

// APIError - ошибка удаленного вызова с HTTP-статусом и сообщением сервера
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// Token - ответ /auth/login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// User - ответ /auth/signup
type User struct {
	ID           string    `json:"id"`
	EmailOrPhone string    `json:"email_or_phone"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Client - тонкий типизированный фасад над REST API бэкенда.
// К каждому запросу добавляется Authorization: Bearer <token>,
// если токен сейчас есть в источнике; повторов и подавления ошибок нет.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logrus.Logger
}

// New создает клиент с фиксированным таймаутом запросов
func New(baseURL string, tokens TokenSource, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

// do выполняет запрос и декодирует ответ в out (если out != nil).
// Любой не-2xx статус возвращается как *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Токен подставляется, только когда он есть: до логина заголовка нет
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", reqURL).Error("Request failed")
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: extractDetail(data)}
		c.logger.WithField("url", reqURL).WithField("status", resp.StatusCode).Error("Request returned error status")
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// extractDetail достает сообщение сервера из тела ошибки.
// Бэкенд отвечает {"detail": ...} на auth-маршрутах и {"error": ...} на остальных.
func extractDetail(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Error
}

// decodeEvents терпимо декодирует список событий:
// тело, не являющееся JSON-массивом, читается как пустой список
func decodeEvents(data []byte) []models.Event {
	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return []models.Event{}
	}
	if events == nil {
		return []models.Event{}
	}
	return events
}

// listEvents общий путь для запросов, возвращающих список событий
func (c *Client) listEvents(ctx context.Context, path string, query url.Values) ([]models.Event, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeEvents(raw), nil
}

// ListEvents возвращает все события
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	return c.listEvents(ctx, "/api/events/", nil)
}

// NearbyEvents возвращает события в радиусе radiusKm километров от точки
func (c *Client) NearbyEvents(ctx context.Context, lng, lat, radiusKm float64) ([]models.Event, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("radius_km", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	return c.listEvents(ctx, "/api/events/nearby", query)
}

// CreateEvent создает событие и возвращает авторитетную запись сервера
func (c *Client) CreateEvent(ctx context.Context, event models.Event) (*models.Event, error) {
	created := &models.Event{}
	if err := c.do(ctx, http.MethodPost, "/api/events/", nil, event, created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateEvent обновляет событие по id
func (c *Client) UpdateEvent(ctx context.Context, id uuid.UUID, event models.Event) (*models.Event, error) {
	updated := &models.Event{}
	if err := c.do(ctx, http.MethodPut, "/api/events/"+id.String(), nil, event, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent удаляет событие по id
func (c *Client) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+id.String(), nil, nil, nil)
}

// Signup регистрирует учетную запись
func (c *Client) Signup(ctx context.Context, emailOrPhone, password, role string) (*User, error) {
	if role == "" {
		role = "user"
	}
	body := map[string]string{
		"email_or_phone": emailOrPhone,
		"password":       password,
		"role":           role,
	}
	user := &User{}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, body, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login обменивает учетные данные на токен доступа
func (c *Client) Login(ctx context.Context, emailOrPhone, password string) (*Token, error) {
	body := map[string]string{
		"email_or_phone": emailOrPhone,
		"password":       password,
	}
	token := &Token{}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, token); err != nil {
		return nil, err
	}
	return token, nil
}
