package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/near_miss_mapper/internal/config"
	"github.com/shenikar/near_miss_mapper/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	eventService service.EventService
	authService  service.AuthService
	logger       *logrus.Logger
	validate     *validator.Validate
	cfg          *config.Config
}

func NewHandler(eventService service.EventService, authService service.AuthService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		eventService: eventService,
		authService:  authService,
		logger:       logger,
		validate:     validator.New(),
		cfg:          cfg,
	}
}

// @Summary API root
// @Description Welcome message
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Urban Near Miss Mapper API"})
}

// @Summary Create a new near-miss event
// @Description Report a new near-miss event. Requires bearer token.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event creation request"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/events [post]
func (h *Handler) createEvent(c *gin.Context) {
	var input CreateEventRequest
	log := h.logger.WithField("method", "createEvent")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToEventModel(input)
	if err := h.eventService.CreateEvent(c.Request.Context(), model); err != nil {
		if errors.Is(err, service.ErrInvalidSeverity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid severity"})
			return
		}
		log.WithError(err).Error("Failed to create event in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToEventResponse(model))
}

// @Summary List all near-miss events
// @Description Get the full list of reported events, newest first.
// @Tags Events
// @Produce json
// @Success 200 {array} EventResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/events [get]
func (h *Handler) listEvents(c *gin.Context) {
	log := h.logger.WithField("method", "listEvents")

	events, err := h.eventService.ListEvents(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list events from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToEventResponses(events))
}

// @Summary List events near a point
// @Description Get events within radius_km of the given point.
// @Tags Events
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius_km query number false "Search radius in km" default(5)
// @Success 200 {array} EventResponse
// @Failure 400 {object} map[string]string "Invalid coordinates"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/events/nearby [get]
func (h *Handler) nearbyEvents(c *gin.Context) {
	log := h.logger.WithField("method", "nearbyEvents")

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}
	radiusKm, err := strconv.ParseFloat(c.DefaultQuery("radius_km", "5"), 64)
	if err != nil {
		radiusKm = service.DefaultNearbyRadiusKm
	}

	events, err := h.eventService.NearbyEvents(c.Request.Context(), lng, lat, radiusKm)
	if err != nil {
		log.WithError(err).Error("Failed to find nearby events in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToEventResponses(events))
}

// @Summary Get event by ID
// @Description Get a single near-miss event by its ID.
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string "Invalid event ID"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /api/events/{id} [get]
func (h *Handler) getEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}
	log := h.logger.WithField("method", "getEvent").WithField("id", id)

	event, err := h.eventService.GetEvent(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get event from service")
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, ModelToEventResponse(event))
}

// @Summary Update an existing event
// @Description Update an existing event by ID. Requires bearer token.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param event body UpdateEventRequest true "Event update request"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string "Invalid event ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/events/{id} [put]
func (h *Handler) updateEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}
	log := h.logger.WithField("method", "updateEvent").WithField("id", id)

	var input UpdateEventRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToEventModel(input)
	model.ID = id

	if err := h.eventService.UpdateEvent(c.Request.Context(), model); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		log.WithError(err).Error("Failed to update event in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelToEventResponse(model))
}

// @Summary Delete an event
// @Description Delete a near-miss event by its ID. Requires bearer token.
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid event ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/events/{id} [delete]
func (h *Handler) deleteEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return
	}
	log := h.logger.WithField("method", "deleteEvent").WithField("id", id)

	if err := h.eventService.DeleteEvent(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		log.WithError(err).Error("Failed to delete event in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id.String()})
}

// @Summary Get report statistics
// @Description Get the number of reports within the configured time window.
// @Tags Admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/events/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	count, err := h.eventService.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get stats from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{ReportCount: count})
}

// @Summary Register a new user
// @Description Register a user by email or phone number.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body SignupRequest true "Signup request"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string "Validation error or user already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/signup [post]
func (h *Handler) signup(c *gin.Context) {
	var input SignupRequest
	log := h.logger.WithField("method", "signup")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), input.EmailOrPhone, input.Password, input.Role)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "User already exists"})
			return
		}
		log.WithError(err).Error("Failed to sign up user in service")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, ModelToUserResponse(user))
}

// @Summary Log in
// @Description Exchange credentials for a bearer access token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login request"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), input.EmailOrPhone, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
			return
		}
		log.WithError(err).Error("Failed to log in user in service")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, TokenToResponse(token))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /api/system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
