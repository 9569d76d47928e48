package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns notifications for the current user with the unread count in meta.
func (h *NotificationHandler) List(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	ctx := requestContext(c)

	items, err := h.service.ListForUser(ctx, services.ListNotificationsInput{
		UserID:     v.UserID,
		UnreadOnly: strings.EqualFold(c.Query("unread"), "true"),
		Limit:      parseIntQuery(c, "limit", 25),
		Offset:     parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}
	unread, err := h.service.UnreadCount(ctx, v.UserID)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"items": items, "unread": unread})
}

// MarkRead toggles a notification to read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	dto, err := h.service.MarkRead(requestContext(c), v.UserID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead marks all notifications read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllRead(requestContext(c), v.UserID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}
