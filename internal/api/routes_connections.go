package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/handlers"
)

func registerConnectionRoutes(api *gin.RouterGroup, handler *handlers.ConnectionHandler) {
	group := api.Group("/connections")
	{
		group.GET("", handler.List)
		group.POST("", handler.Request)
		group.GET("/status/:profile_id", handler.Status)
		group.POST("/:id/respond", handler.Respond)
		group.DELETE("/:id", handler.Remove)
	}
}
