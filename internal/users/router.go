package users

import (
	"github.com/gin-gonic/gin"
)

// SetupUserRoutes mounts the admin user endpoints. Guards come from the caller
// because the auth middleware itself depends on this package for roles.
func SetupUserRoutes(rg *gin.RouterGroup, controller *Controller, guards ...gin.HandlerFunc) {
	admin := rg.Group("/users")
	admin.Use(guards...)
	{
		admin.GET("/:id", controller.GetUser)
		admin.DELETE("/:id", controller.DeleteUser)
	}
}
