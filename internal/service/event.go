package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/config"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/shenikar/near_miss_mapper/internal/webhook"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultNearbyRadiusKm - радиус поиска по умолчанию, если клиент его не передал
	DefaultNearbyRadiusKm = 5.0
	// MaxNearbyRadiusKm - верхняя граница радиуса поиска
	MaxNearbyRadiusKm = 100.0
)

// EventRepository определяет контракт для работы с бд событий
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListEvents(ctx context.Context) ([]*models.Event, error)
	FindNearby(ctx context.Context, lng, lat, radiusKm float64) ([]*models.Event, error)
	CountRecentReports(ctx context.Context, minutes int) (int, error)
	GetEventsFromCache(ctx context.Context) ([]*models.Event, error)
	SetEventsCache(ctx context.Context, events []*models.Event) error
	InvalidateEventsCache(ctx context.Context) error
}

// EventService определяет контракт для бизнес-логики near-miss событий
type EventService interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	ListEvents(ctx context.Context) ([]*models.Event, error)
	NearbyEvents(ctx context.Context, lng, lat, radiusKm float64) ([]*models.Event, error)
	GetStats(ctx context.Context) (int, error)
}

type eventService struct {
	repo   EventRepository
	logger *logrus.Logger
	cfg    *config.Config
	alerts webhook.AlertPublisher
}

func NewEventService(repo EventRepository, logger *logrus.Logger, cfg *config.Config, alerts webhook.AlertPublisher) EventService {
	return &eventService{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		alerts: alerts,
	}
}

// CreateEvent создает событие, проставляя значения по умолчанию как в форме отчета
func (s *eventService) CreateEvent(ctx context.Context, event *models.Event) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "event",
		"method":        "CreateEvent",
		"incident_type": event.IncidentType,
	})
	log.Info("Attempting to create a new near-miss event")

	if !event.Severity.IsValid() {
		log.WithField("severity", event.Severity).Warn("Rejected event with unknown severity")
		return fmt.Errorf("service: %w: %q", ErrInvalidSeverity, event.Severity)
	}
	if event.ReportedBy == "" {
		event.ReportedBy = "anonymous"
	}
	if event.Status == "" {
		event.Status = "reported"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.AdditionalInfo == nil {
		event.AdditionalInfo = map[string]any{}
	}

	if err := s.repo.Create(ctx, event); err != nil {
		log.WithError(err).Error("Failed to create event in repository")
		return fmt.Errorf("service: could not create event: %w", err)
	}

	if err := s.repo.InvalidateEventsCache(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate events cache")
	}

	// События high/critical уходят в очередь алертов
	if event.Severity == models.SeverityHigh || event.Severity == models.SeverityCritical {
		alert := webhook.AlertEvent{
			EventID:      event.ID,
			IncidentType: event.IncidentType,
			Severity:     string(event.Severity),
			Latitude:     event.Location.Latitude(),
			Longitude:    event.Location.Longitude(),
			ReportedBy:   event.ReportedBy,
			Timestamp:    event.Timestamp,
		}
		if err := s.alerts.Publish(ctx, alert); err != nil {
			log.WithError(err).Error("Failed to publish severity alert")
		}
	}

	log.WithField("event_id", event.ID).Info("Event created successfully")
	return nil
}

// GetEvent получает событие по ID
func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "event",
		"method":   "GetEvent",
		"event_id": id,
	})
	log.Info("Fetching event by ID")

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get event from repository")
		return nil, fmt.Errorf("service: could not get event: %w", err)
	}
	return event, nil
}

// UpdateEvent обновляет существующее событие
func (s *eventService) UpdateEvent(ctx context.Context, event *models.Event) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "event",
		"method":   "UpdateEvent",
		"event_id": event.ID,
	})
	log.Info("Attempting to update event")

	if !event.Severity.IsValid() {
		return fmt.Errorf("service: %w: %q", ErrInvalidSeverity, event.Severity)
	}

	existing, err := s.repo.GetByID(ctx, event.ID)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent event")
		return fmt.Errorf("service: event with id %s not found for update: %w", event.ID, err)
	}

	existing.Location = event.Location
	existing.Description = event.Description
	existing.IncidentType = event.IncidentType
	existing.Severity = event.Severity
	existing.Timestamp = event.Timestamp
	existing.ReportedBy = event.ReportedBy
	if event.Status != "" {
		existing.Status = event.Status
	}
	if event.AdditionalInfo != nil {
		existing.AdditionalInfo = event.AdditionalInfo
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update event in repository")
		return fmt.Errorf("service: could not update event: %w", err)
	}

	if err := s.repo.InvalidateEventsCache(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate events cache")
	}

	*event = *existing
	log.Info("Event updated successfully")
	return nil
}

// DeleteEvent удаляет событие по ID
func (s *eventService) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "event",
		"method":   "DeleteEvent",
		"event_id": id,
	})
	log.Info("Attempting to delete event")

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete event in repository")
		return fmt.Errorf("service: could not delete event: %w", err)
	}

	if err := s.repo.InvalidateEventsCache(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate events cache")
	}

	log.Info("Event deleted successfully")
	return nil
}

// ListEvents возвращает все события, сперва пробуя кэш
func (s *eventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "event",
		"method":  "ListEvents",
	})

	cached, err := s.repo.GetEventsFromCache(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read events cache")
	}
	if cached != nil {
		log.WithField("count", len(cached)).Info("Events served from cache")
		return cached, nil
	}

	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list events from repository")
		return nil, fmt.Errorf("service: could not list events: %w", err)
	}

	if err := s.repo.SetEventsCache(ctx, events); err != nil {
		log.WithError(err).Warn("Failed to write events cache")
	}

	log.WithField("count", len(events)).Info("Events listed successfully")
	return events, nil
}

// NearbyEvents возвращает события в радиусе radiusKm от точки
func (s *eventService) NearbyEvents(ctx context.Context, lng, lat, radiusKm float64) ([]*models.Event, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	if radiusKm > MaxNearbyRadiusKm {
		radiusKm = MaxNearbyRadiusKm
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "event",
		"method":    "NearbyEvents",
		"lng":       lng,
		"lat":       lat,
		"radius_km": radiusKm,
	})
	log.Info("Searching events near point")

	events, err := s.repo.FindNearby(ctx, lng, lat, radiusKm)
	if err != nil {
		log.WithError(err).Error("Failed to find nearby events")
		return nil, fmt.Errorf("service: could not find nearby events: %w", err)
	}

	log.WithField("count", len(events)).Info("Nearby search completed")
	return events, nil
}

// GetStats возвращает количество отчетов за настроенное окно времени
func (s *eventService) GetStats(ctx context.Context) (int, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "event",
		"method":  "GetStats",
	})

	count, err := s.repo.CountRecentReports(ctx, s.cfg.StatsTimeWindowMinutes)
	if err != nil {
		log.WithError(err).Error("Failed to count recent reports")
		return 0, fmt.Errorf("service: could not get stats: %w", err)
	}
	return count, nil
}
