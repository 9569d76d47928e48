package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/services"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// ProfileHandler exposes the caller's own profile and public profile pages.
type ProfileHandler struct {
	profiles       *services.ProfileService
	maxUploadBytes int64
}

func NewProfileHandler(profiles *services.ProfileService, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, maxUploadBytes: maxUploadBytes}
}

type updateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	profileFieldsRequest
}

// GET /api/profile
func (h *ProfileHandler) Me(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	profile, err := h.profiles.GetForUser(requestContext(c), v.UserID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Update(requestContext(c), v.ProfileID(), services.UpdateProfileInput{
		FullName:      req.FullName,
		ProfileFields: req.fields(),
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}

	upload, done, err := formUpload(c, "avatar", h.maxUploadBytes)
	defer done()
	if err != nil {
		if err == errNoUpload {
			err = appErrors.NewBadRequest("avatar file is required")
		}
		renderServiceError(c, err)
		return
	}

	profile, err := h.profiles.UpdateAvatar(requestContext(c), v.ProfileID(), *upload)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// GET /api/profiles/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	profile, err := h.profiles.GetVisible(requestContext(c), v, c.Param("id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}
