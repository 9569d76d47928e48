package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/middleware"
	"github.com/ud28188-create/codonyx.org/internal/viewer"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// requireViewer returns the session viewer or writes 401.
func requireViewer(c *gin.Context) (viewer.Viewer, bool) {
	v, ok := middleware.ViewerFrom(c)
	if !ok || v.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return viewer.Viewer{}, false
	}
	return v, true
}

// requireProfile is requireViewer for member surfaces that act on the caller's own profile.
func requireProfile(c *gin.Context) (viewer.Viewer, bool) {
	v, ok := requireViewer(c)
	if !ok {
		return v, false
	}
	if v.Profile == nil {
		response.Error(c, appErrors.NewNotFound("profile"))
		return v, false
	}
	return v, true
}
