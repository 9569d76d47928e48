package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/handlers"
	"github.com/ud28188-create/codonyx.org/internal/models"
)

func registerProfileRoutes(api *gin.RouterGroup, profiles *handlers.ProfileHandler, publications *handlers.PublicationHandler) {
	profile := api.Group("/profile")
	{
		profile.PUT("", profiles.Update)
		profile.POST("/avatar", profiles.UploadAvatar)
	}

	api.GET("/profiles/:id", profiles.Get)
	api.GET("/profiles/:id/publications", publications.ListForProfile)

	pubs := api.Group("/publications")
	{
		pubs.GET("", publications.ListOwn)
		pubs.POST("", publications.Create)
		pubs.PUT("/:id", publications.Update)
		pubs.DELETE("/:id", publications.Delete)
	}
}

func registerDirectoryRoutes(api *gin.RouterGroup, handler *handlers.DirectoryHandler) {
	api.GET("/advisors", handler.List(models.UserTypeAdvisor))
	api.GET("/laboratories", handler.List(models.UserTypeLaboratory))
	api.GET("/directory/:user_type/locations", handler.Locations)
}
