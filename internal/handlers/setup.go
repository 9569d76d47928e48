package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

type SetupHandler struct {
	setup *services.SetupService
}

func NewSetupHandler(setup *services.SetupService) *SetupHandler {
	return &SetupHandler{setup: setup}
}

type initializeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// GET /api/setup/status
func (h *SetupHandler) Status(c *gin.Context) {
	initialized, err := h.setup.Initialized(requestContext(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"initialized": initialized})
}

// POST /api/setup/initialize
func (h *SetupHandler) Initialize(c *gin.Context) {
	var req initializeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.setup.Initialize(requestContext(c), services.CreateAdminInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":    user.ID,
		"email": user.Email,
	})
}
