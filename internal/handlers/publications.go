package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// PublicationHandler manages a member's publications and lists those of visible profiles.
type PublicationHandler struct {
	publications   *services.PublicationService
	profiles       *services.ProfileService
	maxUploadBytes int64
}

func NewPublicationHandler(publications *services.PublicationService, profiles *services.ProfileService, maxUploadBytes int64) *PublicationHandler {
	return &PublicationHandler{publications: publications, profiles: profiles, maxUploadBytes: maxUploadBytes}
}

type publicationRequest struct {
	Title           string `json:"title" form:"title" validate:"required,max=300"`
	Description     string `json:"description" form:"description" validate:"max=5000"`
	PublicationType string `json:"publication_type" form:"publication_type" validate:"omitempty,pubtype"`
	ExternalURL     string `json:"external_url" form:"external_url" validate:"omitempty,url"`
}

// GET /api/publications
func (h *PublicationHandler) ListOwn(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	publications, err := h.publications.ListForProfile(requestContext(c), v.ProfileID())
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, publications)
}

// GET /api/profiles/:id/publications
func (h *PublicationHandler) ListForProfile(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	ctx := requestContext(c)
	profile, err := h.profiles.GetVisible(ctx, v, c.Param("id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	publications, err := h.publications.ListForProfile(ctx, profile.ID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, publications)
}

// POST /api/publications (JSON, or multipart with an optional "file")
func (h *PublicationHandler) Create(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	input, done, ok := h.bind(c)
	defer done()
	if !ok {
		return
	}

	publication, err := h.publications.Create(requestContext(c), v.Profile, input)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, publication)
}

// PUT /api/publications/:id
func (h *PublicationHandler) Update(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	input, done, ok := h.bind(c)
	defer done()
	if !ok {
		return
	}

	publication, err := h.publications.Update(requestContext(c), v.Profile, c.Param("id"), input)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, publication)
}

// DELETE /api/publications/:id
func (h *PublicationHandler) Delete(c *gin.Context) {
	v, ok := requireProfile(c)
	if !ok {
		return
	}
	if err := h.publications.Delete(requestContext(c), v.Profile, c.Param("id")); err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *PublicationHandler) bind(c *gin.Context) (services.PublicationInput, func(), bool) {
	var req publicationRequest
	if isMultipart(c) {
		if !bindFormAndValidate(c, &req) {
			return services.PublicationInput{}, func() {}, false
		}
	} else if !bindAndValidate(c, &req) {
		return services.PublicationInput{}, func() {}, false
	}

	file, done, err := optionalUpload(c, "file", h.maxUploadBytes)
	if err != nil {
		renderServiceError(c, err)
		return services.PublicationInput{}, done, false
	}
	return services.PublicationInput{
		Title:           req.Title,
		Description:     req.Description,
		PublicationType: req.PublicationType,
		ExternalURL:     req.ExternalURL,
		File:            file,
	}, done, true
}
