package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticToken - источник токена с фиксированным значением
type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	return New(server.URL, staticToken(token), logger), server
}

func TestClient_NoAuthorizationHeaderWithoutToken(t *testing.T) {
	// Подготовка
	var gotHeader string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}, "")

	// Действие
	_, err := client.ListEvents(context.Background())

	// Проверки: до логина заголовка Authorization нет вовсе
	require.NoError(t, err)
	assert.Empty(t, gotHeader)
}

func TestClient_BearerHeaderWithToken(t *testing.T) {
	// Подготовка
	var gotHeader string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}, "token-1")

	// Действие
	_, err := client.ListEvents(context.Background())

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-1", gotHeader)
}

func TestClient_ListEvents_NonArrayBodyReadsAsEmptyList(t *testing.T) {
	// Подготовка: сервер отвечает объектом вместо массива
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"detail": "unexpected shape"}`))
	}, "")

	// Действие
	events, err := client.ListEvents(context.Background())

	// Проверки: не ошибка, а пустой список
	require.NoError(t, err)
	require.NotNil(t, events)
	assert.Empty(t, events)
}

func TestClient_NearbyEvents_QueryParameters(t *testing.T) {
	// Подготовка
	var gotPath string
	var gotQuery map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"lat":       r.URL.Query().Get("lat"),
			"lng":       r.URL.Query().Get("lng"),
			"radius_km": r.URL.Query().Get("radius_km"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}, "")

	// Действие: аргументы (lng, lat), на проводе lat/lng/radius_km
	_, err := client.NearbyEvents(context.Background(), -75, 40, 10)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "/api/events/nearby", gotPath)
	assert.Equal(t, "40", gotQuery["lat"])
	assert.Equal(t, "-75", gotQuery["lng"])
	assert.Equal(t, "10", gotQuery["radius_km"])
}

func TestClient_CreateEvent_ReturnsServerRecord(t *testing.T) {
	// Подготовка
	eventID := uuid.New()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var ev models.Event
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		// Координаты идут [долгота, широта]
		assert.Equal(t, [2]float64{77.59, 12.97}, ev.Location.Coordinates)

		ev.ID = eventID
		ev.Status = "reported"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ev)
	}, "token-1")

	event := models.Event{
		Location:     models.NewGeoPoint(77.59, 12.97),
		Description:  "Bike swerved into traffic",
		IncidentType: "vehicle-bicycle",
		Severity:     models.SeverityMedium,
	}

	// Действие
	created, err := client.CreateEvent(context.Background(), event)

	// Проверки: возвращается авторитетная запись сервера
	require.NoError(t, err)
	assert.Equal(t, eventID, created.ID)
	assert.Equal(t, "reported", created.Status)
}

func TestClient_ErrorStatusBecomesAPIError(t *testing.T) {
	// Подготовка: auth-маршруты отвечают телом {"detail": ...}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "User already exists"}`))
	}, "")

	// Действие
	user, err := client.Signup(context.Background(), "user@example.com", "secret123", "user")

	// Проверки
	require.Error(t, err)
	assert.Nil(t, user)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "User already exists", apiErr.Detail)
}

func TestClient_ErrorKeyAlsoExtracted(t *testing.T) {
	// Подготовка: маршруты событий отвечают телом {"error": ...}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "event not found"}`))
	}, "token-1")

	// Действие
	err := client.DeleteEvent(context.Background(), uuid.New())

	// Проверки
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "event not found", apiErr.Detail)
}

func TestClient_Login_Success(t *testing.T) {
	// Подготовка
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email_or_phone"])
		assert.Equal(t, "secret123", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "signed-token", "token_type": "bearer", "role": "user"}`))
	}, "")

	// Действие
	token, err := client.Login(context.Background(), "user@example.com", "secret123")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, "user", token.Role)
}

func TestClient_Signup_EmptyRoleDefaultsToUser(t *testing.T) {
	// Подготовка
	var gotRole string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRole = body["role"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "` + uuid.NewString() + `", "email_or_phone": "user@example.com", "role": "user"}`))
	}, "")

	// Действие
	_, err := client.Signup(context.Background(), "user@example.com", "secret123", "")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "user", gotRole)
}
