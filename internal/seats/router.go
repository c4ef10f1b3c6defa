package seats

import "github.com/gin-gonic/gin"

func SetupSeatRoutes(router *gin.RouterGroup, controller *Controller) {
	router.GET("/events/:id/seats", controller.GetSeatMap)
}
