package tokens

import (
	"seatline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTokenRoutes(router *gin.RouterGroup, controller *Controller, requireJWT gin.HandlerFunc) {
	tokens := router.Group("/tokens")
	tokens.Use(requireJWT)
	{
		tokens.POST("/validate", controller.ValidateToken)
		tokens.GET("", middleware.RequireAdmin(), controller.ListTokens)
	}
}
