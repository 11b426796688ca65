package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/config"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/shenikar/near_miss_mapper/internal/service"
	"github.com/shenikar/near_miss_mapper/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testJWTSecret = "test_secret"

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (*Handler, *mocks.MockEventService, *mocks.MockAuthService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockEvents := mocks.NewMockEventService(ctrl)
	mockAuth := mocks.NewMockAuthService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		JWTSecret:              testJWTSecret,
		StatsTimeWindowMinutes: 60,
	}

	handler := NewHandler(mockEvents, mockAuth, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)

	return handler, mockEvents, mockAuth, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// bearerHeader выпускает валидный тестовый токен и возвращает заголовок авторизации
func bearerHeader(t *testing.T) map[string]string {
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "user",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + signed}
}

func validCreateRequest() CreateEventRequest {
	return CreateEventRequest{
		Location: LocationDTO{
			Type:        "Point",
			Coordinates: [2]float64{-0.09, 51.505},
		},
		Description:  "Car ran a red light",
		IncidentType: "vehicle-pedestrian",
		Severity:     "high",
		ReportedBy:   "witness",
	}
}

func TestCreateEvent_Success(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)
	eventID := uuid.New()
	reqBody := validCreateRequest()

	mockEvents.EXPECT().
		CreateEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev *models.Event) error {
			ev.ID = eventID // ID присваивает сервис
			ev.Status = "reported"
			return nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/events/", bytes.NewBuffer(bodyBytes), bearerHeader(t))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, eventID, resp.ID)
	assert.Equal(t, "reported", resp.Status)
	assert.Equal(t, [2]float64{-0.09, 51.505}, resp.Location.Coordinates)
}

func TestCreateEvent_Unauthorized_NoToken(t *testing.T) {
	_, _, _, router := newTestHandler(t)
	bodyBytes, _ := json.Marshal(validCreateRequest())

	w := makeRequest(router, "POST", "/api/events/", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Not authenticated", resp["detail"])
}

func TestCreateEvent_Unauthorized_BadToken(t *testing.T) {
	_, _, _, router := newTestHandler(t)
	bodyBytes, _ := json.Marshal(validCreateRequest())

	w := makeRequest(router, "POST", "/api/events/", bytes.NewBuffer(bodyBytes),
		map[string]string{"Authorization": "Bearer not-a-token"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateEvent_ValidationError(t *testing.T) {
	_, _, _, router := newTestHandler(t)
	reqBody := validCreateRequest()
	reqBody.Description = "" // обязательное поле

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/events/", bytes.NewBuffer(bodyBytes), bearerHeader(t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEvents_Success(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)
	expected := []*models.Event{
		{
			ID:           uuid.New(),
			Location:     models.NewGeoPoint(-0.09, 51.505),
			Description:  "Bus almost hit a cyclist",
			IncidentType: "vehicle-bicycle",
			Severity:     models.SeverityMedium,
			Status:       "reported",
		},
	}

	mockEvents.EXPECT().
		ListEvents(gomock.Any()).
		Return(expected, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/events/", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, expected[0].ID, resp[0].ID)
}

func TestNearbyEvents_Success(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)

	// lat/lng из запроса передаются в сервис как (lng, lat)
	mockEvents.EXPECT().
		NearbyEvents(gomock.Any(), -75.0, 40.0, 10.0).
		Return([]*models.Event{}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/events/nearby?lat=40&lng=-75&radius_km=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNearbyEvents_MissingCoordinates(t *testing.T) {
	_, _, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/events/nearby?radius_km=10", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEvent_NotFound(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)
	eventID := uuid.New()

	mockEvents.EXPECT().
		GetEvent(gomock.Any(), eventID).
		Return(nil, service.ErrEventNotFound).
		Times(1)

	w := makeRequest(router, "GET", "/api/events/"+eventID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateEvent_NotFound(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)
	eventID := uuid.New()
	reqBody := UpdateEventRequest{
		Location: LocationDTO{
			Type:        "Point",
			Coordinates: [2]float64{-0.09, 51.505},
		},
		Description:  "Updated description",
		IncidentType: "other",
		Severity:     "low",
	}

	mockEvents.EXPECT().
		UpdateEvent(gomock.Any(), gomock.Any()).
		Return(service.ErrEventNotFound).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", "/api/events/"+eventID.String(), bytes.NewBuffer(bodyBytes), bearerHeader(t))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEvent_Success(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)
	eventID := uuid.New()

	mockEvents.EXPECT().
		DeleteEvent(gomock.Any(), eventID).
		Return(nil).
		Times(1)

	w := makeRequest(router, "DELETE", "/api/events/"+eventID.String(), nil, bearerHeader(t))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "deleted", resp["status"])
	assert.Equal(t, eventID.String(), resp["id"])
}

func TestGetStats_Success(t *testing.T) {
	_, mockEvents, _, router := newTestHandler(t)

	mockEvents.EXPECT().
		GetStats(gomock.Any()).
		Return(42, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/events/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.ReportCount)
}

func TestSignup_Success(t *testing.T) {
	_, _, mockAuth, router := newTestHandler(t)
	userID := uuid.New()
	reqBody := SignupRequest{
		EmailOrPhone: "user@example.com",
		Password:     "secret123",
		Role:         "user",
	}

	mockAuth.EXPECT().
		Signup(gomock.Any(), "user@example.com", "secret123", "user").
		Return(&models.User{
			ID:           userID,
			EmailOrPhone: "user@example.com",
			Role:         "user",
			CreatedAt:    time.Now(),
		}, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/auth/signup", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp.ID)
	assert.Equal(t, "user@example.com", resp.EmailOrPhone)
}

func TestSignup_UserAlreadyExists(t *testing.T) {
	_, _, mockAuth, router := newTestHandler(t)
	reqBody := SignupRequest{
		EmailOrPhone: "user@example.com",
		Password:     "secret123",
	}

	mockAuth.EXPECT().
		Signup(gomock.Any(), "user@example.com", "secret123", "").
		Return(nil, service.ErrUserExists).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/auth/signup", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Сообщение отдается в ключе detail, фронтенд показывает его как есть
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "User already exists", resp["detail"])
}

func TestSignup_ShortPassword(t *testing.T) {
	_, _, _, router := newTestHandler(t)
	reqBody := SignupRequest{
		EmailOrPhone: "user@example.com",
		Password:     "123",
	}

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/auth/signup", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Success(t *testing.T) {
	_, _, mockAuth, router := newTestHandler(t)
	reqBody := LoginRequest{
		EmailOrPhone: "user@example.com",
		Password:     "secret123",
	}

	mockAuth.EXPECT().
		Login(gomock.Any(), "user@example.com", "secret123").
		Return(&service.Token{
			AccessToken: "signed-token",
			TokenType:   "bearer",
			Role:        "admin",
		}, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "admin", resp.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	_, _, mockAuth, router := newTestHandler(t)
	reqBody := LoginRequest{
		EmailOrPhone: "user@example.com",
		Password:     "wrong",
	}

	mockAuth.EXPECT().
		Login(gomock.Any(), "user@example.com", "wrong").
		Return(nil, service.ErrInvalidCredentials).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/auth/login", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid credentials", resp["detail"])
}

func TestHealthCheck(t *testing.T) {
	_, _, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
