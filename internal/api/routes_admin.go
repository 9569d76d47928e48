package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/handlers"
)

func registerAdminRoutes(admin *gin.RouterGroup, moderation *handlers.AdminHandler, invites *handlers.InviteHandler, roles *handlers.RoleHandler) {
	profiles := admin.Group("/profiles")
	{
		profiles.GET("", moderation.ListProfiles)
		profiles.GET("/pending", moderation.PendingProfiles)
		profiles.GET("/:id", moderation.GetProfile)
		profiles.POST("/:id/decision", moderation.Decide)
	}

	inv := admin.Group("/invites")
	{
		inv.GET("", invites.List)
		inv.POST("", invites.Create)
		inv.GET("/:id", invites.Get)
		inv.PATCH("/:id", invites.Update)
		inv.POST("/:id/rotate", invites.Rotate)
		inv.DELETE("/:id", invites.Delete)
	}

	admin.GET("/roles", roles.ListRoles)
	users := admin.Group("/users/:id/roles")
	{
		users.GET("", roles.ListForUser)
		users.POST("", roles.Assign)
		users.DELETE("/:role", roles.Revoke)
	}

	admin.GET("/audit", moderation.ListAudit)
}
