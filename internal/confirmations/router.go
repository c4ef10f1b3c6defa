package confirmations

import (
	"seatline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupConfirmationRoutes(router *gin.RouterGroup, controller *Controller, requireJWT gin.HandlerFunc) {
	admin := router.Group("/reservations/:id")
	admin.Use(requireJWT, middleware.RequireAdmin())
	{
		admin.GET("/view-confirmation", controller.ViewConfirmation)
		admin.POST("/send-confirmation", controller.SendConfirmation)
	}
}
