package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultRadiusKm - радиус стартовой выборки ближайших событий
	DefaultRadiusKm = 10.0

	// Координата по умолчанию, если геолокация недоступна
	fallbackLatitude  = 51.505
	fallbackLongitude = -0.09
)

// Тексты ошибок, показываемые пользователю; один слот на экран,
// новая ошибка перезаписывает предыдущую
const (
	errLocation = "Unable to get your location. Please enable location services."
	errFetch    = "Failed to load near-miss events. Please try again later."
	errCreate   = "Failed to create event. Please try again."
	errDelete   = "Failed to remove event."
)

// Position - точка (широта, долгота): текущая позиция пользователя
// или выбранная кликом по карте. Не сохраняется между сессиями.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Geolocator отдает текущее местоположение пользователя
type Geolocator interface {
	Current(ctx context.Context) (Position, error)
}

// GeolocatorFunc адаптирует функцию к интерфейсу Geolocator
type GeolocatorFunc func(ctx context.Context) (Position, error)

func (f GeolocatorFunc) Current(ctx context.Context) (Position, error) { return f(ctx) }

// API - срез клиента бэкенда, нужный контроллеру
type API interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	NearbyEvents(ctx context.Context, lng, lat, radiusKm float64) ([]models.Event, error)
	CreateEvent(ctx context.Context, event models.Event) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// State - согласованное представление (position, events, loading, err)
// для отрисовки. Events - кэш, источник истины остается за сервером.
type State struct {
	Position   *Position
	Events     []models.Event
	Loading    bool
	Submitting bool
	Err        string
}

// Controller владеет позицией и списком событий; представление
// никогда не меняет их напрямую, а передает намерения (клик, отправка,
// запрос удаления) через методы контроллера.
type Controller struct {
	mu     sync.Mutex
	api    API
	geo    Geolocator
	logger *logrus.Logger
	state  State
	closed bool
}

func NewController(api API, geo Geolocator, logger *logrus.Logger) *Controller {
	return &Controller{
		api:    api,
		geo:    geo,
		logger: logger,
		state: State{
			Events:  []models.Event{},
			Loading: true,
		},
	}
}

// Start выполняет стартовый протокол: геолокация, затем выборка ближайших
// событий с откатом на полный список. Loading снимается безусловно.
// Строго последовательно: никакие две выборки не идут одновременно.
func (c *Controller) Start(ctx context.Context) {
	pos, err := c.geo.Current(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Geolocation failed, using fallback position")
		pos = Position{Latitude: fallbackLatitude, Longitude: fallbackLongitude}
		c.apply(func(st *State) {
			st.Position = &pos
			st.Err = errLocation
		})
	} else {
		c.apply(func(st *State) {
			st.Position = &pos
		})
	}

	events, fetchErr := c.fetchEvents(ctx, pos)
	c.apply(func(st *State) {
		if fetchErr != nil {
			st.Err = errFetch
		} else {
			st.Events = events
		}
		st.Loading = false
	})
}

// fetchEvents запрашивает ближайшие события и, если их нет, один раз
// пробует полный список; результат отката берется, только если это список
func (c *Controller) fetchEvents(ctx context.Context, pos Position) ([]models.Event, error) {
	events, err := c.api.NearbyEvents(ctx, pos.Longitude, pos.Latitude, DefaultRadiusKm)
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch nearby events")
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}

	if len(events) == 0 {
		all, err := c.api.ListEvents(ctx)
		if err != nil {
			// Откат не удался: остаемся с пустым списком
			c.logger.WithError(err).Warn("Fallback fetch of all events failed")
		} else if all != nil {
			events = all
		}
	}
	return events, nil
}

// ClickAt заменяет позицию на точку клика. Повторной выборки нет:
// точка становится кандидатом для нового отчета, а не центром поиска.
func (c *Controller) ClickAt(lat, lng float64) {
	pos := Position{Latitude: lat, Longitude: lng}
	c.apply(func(st *State) {
		st.Position = &pos
	})
}

// SubmitReport собирает событие из формы и текущей позиции и отправляет его.
// Без установленной позиции отправка молча игнорируется.
// Успешно созданная запись сервера подмешивается в локальный список (upsert по id).
func (c *Controller) SubmitReport(ctx context.Context, form ReportForm) (*models.Event, error) {
	c.mu.Lock()
	if c.state.Position == nil || c.closed {
		c.mu.Unlock()
		return nil, nil
	}
	pos := *c.state.Position
	c.state.Submitting = true
	c.mu.Unlock()

	defer c.apply(func(st *State) { st.Submitting = false })

	if err := form.Validate(); err != nil {
		return nil, err
	}

	created, err := c.api.CreateEvent(ctx, form.payload(pos))
	if err != nil {
		c.logger.WithError(err).Error("Failed to create event")
		c.apply(func(st *State) { st.Err = errCreate })
		return nil, err
	}

	c.apply(func(st *State) {
		st.Events = upsert(st.Events, *created)
	})
	return created, nil
}

// DeleteEvent удаляет событие по id и убирает ровно его из локального списка
func (c *Controller) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := c.api.DeleteEvent(ctx, id); err != nil {
		c.logger.WithError(err).Error("Failed to delete event")
		c.apply(func(st *State) { st.Err = errDelete })
		return err
	}

	c.apply(func(st *State) {
		filtered := st.Events[:0:0]
		for _, ev := range st.Events {
			if ev.ID != id {
				filtered = append(filtered, ev)
			}
		}
		st.Events = filtered
	})
	return nil
}

// State возвращает снимок состояния для отрисовки
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	st.Events = make([]models.Event, len(c.state.Events))
	copy(st.Events, c.state.Events)
	return st
}

// Close помечает контроллер разобранным: опоздавшие результаты
// запросов, завершившихся после Close, отбрасываются
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// apply изменяет состояние под мьютексом; после Close изменения отбрасываются
func (c *Controller) apply(mutate func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	mutate(&c.state)
}

// upsert заменяет запись с совпадающим id или добавляет новую в конец:
// детерминированный last-write-wins при гонке create/delete
func upsert(events []models.Event, event models.Event) []models.Event {
	if events == nil {
		return []models.Event{event}
	}
	for i, ev := range events {
		if ev.ID != uuid.Nil && ev.ID == event.ID {
			events[i] = event
			return events
		}
	}
	return append(events, event)
}
