package events

import (
	"seatline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller *Controller, requireJWT gin.HandlerFunc) {
	// Public routes - anyone can browse events
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.ListEvents)
		publicEvents.GET("/:id", controller.GetEvent)
	}

	adminEvents := router.Group("/admin/events")
	adminEvents.Use(requireJWT, middleware.RequireAdmin())
	{
		adminEvents.POST("", controller.CreateEvent)
		adminEvents.PUT("/:id", controller.UpdateEvent)
		adminEvents.POST("/:id/clone", controller.CloneEvent)
		adminEvents.DELETE("/:id", controller.DeleteEvent)
	}
}
