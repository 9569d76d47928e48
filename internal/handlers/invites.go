package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// InviteHandler serves the public token check and the admin invite console.
type InviteHandler struct {
	invites *services.InviteService
}

func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type inviteValidation struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// inviteTokenParam reads the invite link token, preferring ?invite= over ?inviteToken=.
func inviteTokenParam(c *gin.Context) string {
	if token := strings.TrimSpace(c.Query("invite")); token != "" {
		return token
	}
	return strings.TrimSpace(c.Query("inviteToken"))
}

// GET /api/invites/validate?invite=<token>
func (h *InviteHandler) Validate(c *gin.Context) {
	invite, err := h.invites.Validate(requestContext(c), inviteTokenParam(c))
	if err != nil {
		if !services.IsInviteError(err) {
			renderServiceError(c, err)
			return
		}
		response.Success(c, http.StatusOK, inviteValidation{Reason: inviteReason(err)})
		return
	}

	expires := invite.ExpiresAt
	response.Success(c, http.StatusOK, inviteValidation{Valid: true, ExpiresAt: &expires})
}

func inviteReason(err error) string {
	switch {
	case errors.Is(err, services.ErrInviteExpired):
		return string(models.InviteStateExpired)
	case errors.Is(err, services.ErrInviteUsed):
		return string(models.InviteStateUsed)
	case errors.Is(err, services.ErrInviteInactive):
		return string(models.InviteStateInactive)
	default:
		return "not_found"
	}
}

type createInviteRequest struct {
	Label     string     `json:"label" validate:"max=120"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type updateInviteRequest struct {
	IsActive  *bool      `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// GET /api/admin/invites?status=
func (h *InviteHandler) List(c *gin.Context) {
	status := strings.ToLower(strings.TrimSpace(c.DefaultQuery("status", "all")))
	switch status {
	case "all", string(models.InviteStateActive), string(models.InviteStateUsed),
		string(models.InviteStateExpired), string(models.InviteStateInactive):
	default:
		response.Error(c, appErrors.NewBadRequest("status must be one of: active, used, expired, inactive, all"))
		return
	}

	invites, err := h.invites.List(requestContext(c), status)
	if err != nil {
		renderInviteError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, invites, response.NewMeta(1, len(invites), len(invites)))
}

// GET /api/admin/invites/:id
func (h *InviteHandler) Get(c *gin.Context) {
	invite, err := h.invites.Get(requestContext(c), c.Param("id"))
	if err != nil {
		renderInviteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, invite)
}

// POST /api/admin/invites
func (h *InviteHandler) Create(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	var req createInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	issued, err := h.invites.Create(requestContext(c), services.CreateInviteInput{
		Label:     strings.TrimSpace(req.Label),
		ExpiresAt: req.ExpiresAt,
	}, v.UserID)
	if err != nil {
		renderInviteError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, issued)
}

// PATCH /api/admin/invites/:id
func (h *InviteHandler) Update(c *gin.Context) {
	var req updateInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.IsActive == nil && req.ExpiresAt == nil {
		response.Error(c, appErrors.NewBadRequest("nothing to update"))
		return
	}

	ctx := requestContext(c)
	id := c.Param("id")

	var (
		view *services.InviteView
		err  error
	)
	if req.IsActive != nil {
		if view, err = h.invites.SetActive(ctx, id, *req.IsActive); err != nil {
			renderInviteError(c, err)
			return
		}
	}
	if req.ExpiresAt != nil {
		if view, err = h.invites.UpdateExpiry(ctx, id, *req.ExpiresAt); err != nil {
			renderInviteError(c, err)
			return
		}
	}
	response.Success(c, http.StatusOK, view)
}

// POST /api/admin/invites/:id/rotate
func (h *InviteHandler) Rotate(c *gin.Context) {
	issued, err := h.invites.Rotate(requestContext(c), c.Param("id"))
	if err != nil {
		renderInviteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, issued)
}

// DELETE /api/admin/invites/:id
func (h *InviteHandler) Delete(c *gin.Context) {
	if err := h.invites.Delete(requestContext(c), c.Param("id")); err != nil {
		renderInviteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Admin routes address invites by ID, so a missing row is a 404 rather than an invalid invitation.
func renderInviteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInviteNotFound):
		response.Error(c, appErrors.NewNotFound("invite"))
	case errors.Is(err, services.ErrInviteUsed):
		response.Error(c, appErrors.NewConflict("INVITE_USED", "Invite has already been used"))
	default:
		renderServiceError(c, err)
	}
}
