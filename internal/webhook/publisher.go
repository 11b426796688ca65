package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	alertQueueKey = "alert_events"
)

// AlertEvent - структура для данных алерта по high/critical событию
type AlertEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	IncidentType string    `json:"incident_type"`
	Severity     string    `json:"severity"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	ReportedBy   string    `json:"reported_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// AlertPublisher - интерфейс для публикации алертов
type AlertPublisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

// RedisAlertPublisher - реализация AlertPublisher, использующая Redis
type RedisAlertPublisher struct {
	redisClient *redis.Client
}

// NewRedisAlertPublisher создает новый RedisAlertPublisher
func NewRedisAlertPublisher(client *redis.Client) *RedisAlertPublisher {
	return &RedisAlertPublisher{
		redisClient: client,
	}
}

// Publish публикует алерт в очередь Redis
func (p *RedisAlertPublisher) Publish(ctx context.Context, event AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	// LPUSH в левую часть списка, воркер читает BRPOP с правой
	if err := p.redisClient.LPush(ctx, alertQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event to Redis: %w", err)
	}
	return nil
}
