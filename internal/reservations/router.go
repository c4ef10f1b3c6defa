package reservations

import (
	"seatline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReservationRoutes registers the session endpoints. Finishing, paying
// and cancelling are left to administrators.
func SetupReservationRoutes(router *gin.RouterGroup, controller *Controller, requireJWT gin.HandlerFunc) {
	reservations := router.Group("/reservations")
	reservations.Use(requireJWT)
	{
		reservations.POST("/add-seat", controller.AddSeat)
		reservations.GET("/:id", controller.GetReservation)
	}

	admin := reservations.Group("/:id")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/cancel", controller.Cancel)
		admin.POST("/finish", controller.Finish)
		admin.POST("/paid", controller.Paid)
	}
}
