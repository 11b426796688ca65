package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)

	// Маршруты аутентификации
	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.login)
	}

	api := router.Group("/api")

	// Чтение событий открыто, мутации требуют bearer-токен
	events := api.Group("/events")
	{
		events.GET("/", h.listEvents)
		events.GET("/nearby", h.nearbyEvents)
		events.GET("/stats", h.getStats)
		events.GET("/:id", h.getEvent)

		protected := events.Group("", JWTAuthMiddleware(h.cfg, h.logger))
		{
			protected.POST("/", h.createEvent)
			protected.PUT("/:id", h.updateEvent)
			protected.DELETE("/:id", h.deleteEvent)
		}
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
