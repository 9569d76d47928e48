package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/handlers"
	"github.com/ud28188-create/codonyx.org/internal/middleware"
	"github.com/ud28188-create/codonyx.org/internal/models"
)

func registerPublicAuthRoutes(public *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := public.Group("/auth")
	{
		auth.POST("/login", handler.Login)
		auth.POST("/refresh", handler.Refresh)
	}
}

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := api.Group("/auth")
	{
		auth.GET("/me", handler.Me)
		auth.POST("/logout", handler.Logout)
		auth.POST("/password", handler.ChangePassword)
	}

	mfa := auth.Group("/mfa", middleware.RequireRole(models.RoleAdmin))
	{
		mfa.POST("/setup", handler.SetupMFA)
		mfa.POST("/enable", handler.EnableMFA)
	}
}
