package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/shenikar/near_miss_mapper/internal/service"
)

const (
	eventsCacheKey = "events:all"
	eventsCacheTTL = 5 * time.Minute
)

type EventRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewEventRepository(db *pgxpool.Pool, redisClient *redis.Client) service.EventRepository {
	return &EventRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись о near-miss событии в бд
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	additionalInfo, err := json.Marshal(event.AdditionalInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal additional_info: %w", err)
	}

	query := `
		INSERT INTO events (location, description, incident_type, severity, reported_by, status, additional_info, occurred_at)
		VALUES (ST_SetSRID(ST_MakePoint($1, $2), 4326), $3, $4, $5, $6, $7, $8, $9) RETURNING id;
	`
	err = r.db.QueryRow(ctx, query,
		event.Location.Longitude(),
		event.Location.Latitude(),
		event.Description,
		event.IncidentType,
		event.Severity,
		event.ReportedBy,
		event.Status,
		additionalInfo,
		event.Timestamp,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

const eventColumns = `
	id,
	ST_X(location::geometry) as longitude,
	ST_Y(location::geometry) as latitude,
	description,
	incident_type,
	severity,
	reported_by,
	status,
	additional_info,
	occurred_at
`

// scanEvent собирает модель события из строки выборки
func scanEvent(row pgx.Row) (*models.Event, error) {
	event := &models.Event{}
	var lng, lat float64
	var additionalInfo []byte
	err := row.Scan(
		&event.ID,
		&lng,
		&lat,
		&event.Description,
		&event.IncidentType,
		&event.Severity,
		&event.ReportedBy,
		&event.Status,
		&additionalInfo,
		&event.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	event.Location = models.NewGeoPoint(lng, lat)
	if len(additionalInfo) > 0 {
		if err := json.Unmarshal(additionalInfo, &event.AdditionalInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal additional_info: %w", err)
		}
	}
	return event, nil
}

// GetByID возвращает событие по его UUID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1;`

	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}
	return event, nil
}

// Update обновляет существующее событие
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	additionalInfo, err := json.Marshal(event.AdditionalInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal additional_info: %w", err)
	}

	query := `
		UPDATE events SET
			location = ST_SetSRID(ST_MakePoint($1, $2), 4326),
			description = $3,
			incident_type = $4,
			severity = $5,
			reported_by = $6,
			status = $7,
			additional_info = $8,
			occurred_at = $9
		WHERE id = $10;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		event.Location.Longitude(),
		event.Location.Latitude(),
		event.Description,
		event.IncidentType,
		event.Severity,
		event.ReportedBy,
		event.Status,
		additionalInfo,
		event.Timestamp,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return service.ErrEventNotFound
	}
	return nil
}

// Delete удаляет событие из бд
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return service.ErrEventNotFound
	}
	return nil
}

// ListEvents возвращает все события, от новых к старым
func (r *EventRepository) ListEvents(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY occurred_at DESC;`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return events, nil
}

// FindNearby находит события в радиусе radius_km от точки, от ближних к дальним
func (r *EventRepository) FindNearby(ctx context.Context, lng, lat, radiusKm float64) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ST_DWithin(
			location,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		)
		ORDER BY location <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography;
	`
	rows, err := r.db.Query(ctx, query, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row in FindNearby: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in FindNearby: %w", err)
	}
	return events, nil
}

// CountRecentReports возвращает количество событий за последние N минут
func (r *EventRepository) CountRecentReports(ctx context.Context, minutes int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM events
		WHERE occurred_at >= NOW() - ($1 * INTERVAL '1 minute');
	`
	var count int
	err := r.db.QueryRow(ctx, query, minutes).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count recent reports: %w", err)
	}
	return count, nil
}

// GetEventsFromCache пытается получить полный список событий из Redis
func (r *EventRepository) GetEventsFromCache(ctx context.Context) ([]*models.Event, error) {
	val, err := r.redisClient.Get(ctx, eventsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get events from cache: %w", err)
	}

	events := make([]*models.Event, 0)
	if err := json.Unmarshal(val, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events from cache: %w", err)
	}
	return events, nil
}

// SetEventsCache сохраняет полный список событий в Redis
func (r *EventRepository) SetEventsCache(ctx context.Context, events []*models.Event) error {
	val, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal events for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, eventsCacheKey, val, eventsCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set events in cache: %w", err)
	}
	return nil
}

// InvalidateEventsCache удаляет список событий из Redis кэша
func (r *EventRepository) InvalidateEventsCache(ctx context.Context) error {
	if err := r.redisClient.Del(ctx, eventsCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate events cache: %w", err)
	}
	return nil
}
