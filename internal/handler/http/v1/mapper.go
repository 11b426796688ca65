package v1

import (
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/shenikar/near_miss_mapper/internal/service"
)

// DTOToEventModel преобразует DTO создания/обновления в доменную модель.
// Используем одну функцию, так как поля совпадают.
func DTOToEventModel(dto any) *models.Event {
	switch v := dto.(type) {
	case CreateEventRequest:
		return &models.Event{
			Location:       models.NewGeoPoint(v.Location.Coordinates[0], v.Location.Coordinates[1]),
			Description:    v.Description,
			IncidentType:   v.IncidentType,
			Severity:       models.Severity(v.Severity),
			Timestamp:      v.Timestamp,
			ReportedBy:     v.ReportedBy,
			AdditionalInfo: v.AdditionalInfo,
		}
	case UpdateEventRequest:
		return &models.Event{
			Location:       models.NewGeoPoint(v.Location.Coordinates[0], v.Location.Coordinates[1]),
			Description:    v.Description,
			IncidentType:   v.IncidentType,
			Severity:       models.Severity(v.Severity),
			Timestamp:      v.Timestamp,
			ReportedBy:     v.ReportedBy,
			Status:         v.Status,
			AdditionalInfo: v.AdditionalInfo,
		}
	}
	return nil
}

// ModelToEventResponse преобразует доменную модель в DTO для ответа
func ModelToEventResponse(model *models.Event) *EventResponse {
	return &EventResponse{
		ID: model.ID,
		Location: LocationDTO{
			Type:        model.Location.Type,
			Coordinates: model.Location.Coordinates,
		},
		Description:    model.Description,
		IncidentType:   model.IncidentType,
		Severity:       string(model.Severity),
		Timestamp:      model.Timestamp,
		ReportedBy:     model.ReportedBy,
		Status:         model.Status,
		AdditionalInfo: model.AdditionalInfo,
	}
}

// ModelsToEventResponses преобразует слайс моделей в слайс DTO
func ModelsToEventResponses(models []*models.Event) []*EventResponse {
	responses := make([]*EventResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToEventResponse(model)
	}
	return responses
}

// ModelToUserResponse преобразует учетную запись в DTO для ответа
func ModelToUserResponse(model *models.User) *UserResponse {
	return &UserResponse{
		ID:           model.ID,
		EmailOrPhone: model.EmailOrPhone,
		Role:         model.Role,
		CreatedAt:    model.CreatedAt,
	}
}

// TokenToResponse преобразует выданный токен в DTO для ответа
func TokenToResponse(token *service.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Role:        token.Role,
	}
}
