package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// RegistrationHandler accepts invite-gated sign-ups.
type RegistrationHandler struct {
	registrations  *services.RegistrationService
	maxUploadBytes int64
}

func NewRegistrationHandler(registrations *services.RegistrationService, maxUploadBytes int64) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, maxUploadBytes: maxUploadBytes}
}

type registerRequest struct {
	Email           string `json:"email" form:"email" validate:"required,email,max=320"`
	Password        string `json:"password" form:"password" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name" form:"full_name" validate:"required,max=200"`
	UserType        string `json:"user_type" form:"user_type" validate:"required,usertype"`
	InviteToken     string `json:"invite_token" form:"invite_token" validate:"required"`

	profileFieldsRequest
}

// POST /api/register
//
// Accepts JSON, or a multipart form with an optional "avatar" file. The invite token may
// also arrive as the invite or inviteToken query parameter. No session is issued:
// the member can sign in once an admin approves the profile.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req registerRequest
	bind := bindJSON
	if isMultipart(c) {
		bind = bindForm
	}
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.InviteToken) == "" {
		req.InviteToken = inviteTokenParam(c)
	}
	if !validate(c, &req) {
		return
	}

	avatar, done, err := optionalUpload(c, "avatar", h.maxUploadBytes)
	defer done()
	if err != nil {
		renderServiceError(c, err)
		return
	}

	userType, _ := models.ParseUserType(req.UserType)
	profile, err := h.registrations.Register(requestContext(c), services.RegistrationInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		UserType:    userType,
		InviteToken: req.InviteToken,
		Fields:      req.fields(),
		Avatar:      avatar,
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"profile":           profile,
		"requires_approval": true,
	})
}
