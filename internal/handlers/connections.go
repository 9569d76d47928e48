package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// ConnectionHandler exposes the connection request workflow between profiles.
type ConnectionHandler struct {
	connections *services.ConnectionService
}

func NewConnectionHandler(connections *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

type requestConnectionRequest struct {
	ProfileID string `json:"profile_id" validate:"required"`
}

type respondConnectionRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// GET /api/connections
func (h *ConnectionHandler) List(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	lists, err := h.connections.List(requestContext(c), v.ProfileID())
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lists)
}

// POST /api/connections
func (h *ConnectionHandler) Request(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	var req requestConnectionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	connection, err := h.connections.Request(requestContext(c), v.ProfileID(), req.ProfileID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"connection": connection,
		"status":     services.StatusPendingSent,
	})
}

// GET /api/connections/status/:profile_id
func (h *ConnectionHandler) Status(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	status, err := h.connections.Status(requestContext(c), v.ProfileID(), c.Param("profile_id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// POST /api/connections/:id/respond
func (h *ConnectionHandler) Respond(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	var req respondConnectionRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if !validate(c, &req) {
		return
	}

	status := models.ConnectionStatus(req.Status)
	connection, err := h.connections.Respond(requestContext(c), v.ProfileID(), c.Param("id"), status)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, connection)
}

// DELETE /api/connections/:id
func (h *ConnectionHandler) Remove(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	if err := h.connections.Remove(requestContext(c), v.ProfileID(), c.Param("id")); err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
