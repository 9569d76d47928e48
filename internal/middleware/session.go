package middleware

import (
	"context"
	stdErrors "errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/internal/viewer"
	"github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/logger"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

const CtxViewerKey = "viewer"

// UserLoader loads a user with roles and profile preloaded.
type UserLoader interface {
	Load(ctx context.Context, userID string) (*models.User, error)
}

// Session resolves the authenticated user into a viewer.Viewer once per request. It must run after Auth.
func Session(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := users.Load(c.Request.Context(), userID)
		if err != nil {
			if stdErrors.Is(err, services.ErrUserNotFound) {
				response.Error(c, errors.ErrUnauthorized)
			} else {
				logger.WithModule("http").Error("failed to resolve session", zap.String("user_id", userID), zap.Error(err))
				response.Error(c, errors.ErrInternalServer.WithInternal(err))
			}
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		v := viewer.FromUser(user, c.GetString(CtxSessionIDKey))
		v.IPAddress = c.ClientIP()
		v.UserAgent = c.Request.UserAgent()

		c.Set(CtxViewerKey, v)
		c.Request = c.Request.WithContext(viewer.WithViewer(c.Request.Context(), v))
		c.Next()
	}
}

// ViewerFrom returns the viewer stored by Session.
func ViewerFrom(c *gin.Context) (viewer.Viewer, bool) {
	value, ok := c.Get(CtxViewerKey)
	if !ok {
		return viewer.Viewer{}, false
	}
	v, ok := value.(viewer.Viewer)
	return v, ok
}

// RequireApproved admits admins and members whose profile passed moderation.
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := ViewerFrom(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if v.CanBrowse() {
			c.Next()
			return
		}
		if v.ApprovalStatus() == models.ApprovalRejected {
			response.Error(c, errors.ErrApprovalRejected)
		} else {
			response.Error(c, errors.ErrApprovalPending)
		}
		c.Abort()
	}
}

// RequireRole admits viewers holding role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := ViewerFrom(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !v.HasRole(role) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
