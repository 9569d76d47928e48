package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// DirectoryHandler serves the advisor and laboratory directories.
type DirectoryHandler struct {
	directory *services.DirectoryService
}

func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// List returns a handler for GET /api/advisors and GET /api/laboratories.
// Query: search (free text), location (exact, "all" disables).
func (h *DirectoryHandler) List(userType models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := h.directory.List(requestContext(c), userType, services.DirectoryQuery{
			Search:   c.Query("search"),
			Location: c.Query("location"),
		})
		if err != nil {
			renderServiceError(c, err)
			return
		}
		response.SuccessWithMeta(c, http.StatusOK, profiles, &response.Meta{Total: len(profiles)})
	}
}

// GET /api/directory/:user_type/locations
func (h *DirectoryHandler) Locations(c *gin.Context) {
	userType, ok := models.ParseUserType(c.Param("user_type"))
	if !ok {
		response.Error(c, appErrors.NewBadRequest("user_type must be advisor or laboratory"))
		return
	}
	locations, err := h.directory.Locations(requestContext(c), userType)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, locations)
}
