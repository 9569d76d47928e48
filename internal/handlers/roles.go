package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

type RoleHandler struct {
	roles *services.RoleService
}

func NewRoleHandler(roles *services.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// GET /api/admin/roles
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roles.ListRoles(requestContext(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/admin/users/:id/roles
func (h *RoleHandler) ListForUser(c *gin.Context) {
	roles, err := h.roles.ListForUser(requestContext(c), c.Param("id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// POST /api/admin/users/:id/roles
func (h *RoleHandler) Assign(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	var req assignRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	roles, err := h.roles.Assign(requestContext(c), c.Param("id"), req.Role, v.UserID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// DELETE /api/admin/users/:id/roles/:role
func (h *RoleHandler) Revoke(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	roles, err := h.roles.Revoke(requestContext(c), c.Param("id"), c.Param("role"), v.UserID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}
