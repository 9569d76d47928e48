package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/ud28188-create/codonyx.org/internal/auth"
	"github.com/ud28188-create/codonyx.org/internal/auth/mfa"
	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/internal/viewer"
	"github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/metrics"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// AuthHandler manages authentication flows (login/refresh/logout/me) and admin MFA.
type AuthHandler struct {
	local    *providers.LocalProvider
	sessions *iauth.SessionService
	totp     *mfa.TOTPService
	audit    *services.AuditService
}

// NewAuthHandler wires the handler. totp may be nil, which disables MFA endpoints and checks.
func NewAuthHandler(local *providers.LocalProvider, sessions *iauth.SessionService, totp *mfa.TOTPService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{local: local, sessions: sessions, totp: totp, audit: audit}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfa_code"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func newTokenResponse(pair iauth.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, ExpiresAt: pair.ExpiresAt}
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := requestContext(c)

	user, err := h.local.Authenticate(ctx, providers.AuthenticateInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.fail(c, req.Email, "", err)
		return
	}

	// Members are signed out until an admin approves their profile.
	v := viewer.FromUser(user, "")
	if !v.IsAdmin() {
		switch v.ApprovalStatus() {
		case models.ApprovalApproved:
		case models.ApprovalRejected:
			h.fail(c, user.Email, user.ID, errors.ErrApprovalRejected)
			return
		default:
			h.fail(c, user.Email, user.ID, errors.ErrApprovalPending)
			return
		}
	}

	if user.MFAEnabled && h.totp != nil {
		code := strings.TrimSpace(req.MFACode)
		if code == "" {
			metrics.AuthAttempts.WithLabelValues("mfa_required").Inc()
			response.Error(c, errors.ErrMFARequired)
			return
		}
		if err := h.totp.Verify(ctx, user.ID, code); err != nil {
			h.fail(c, user.Email, user.ID, mapMFAError(err))
			return
		}
	}

	pair, _, err := h.sessions.CreateSession(ctx, user.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.record(c, user.Email, user.ID, "auth.login", services.AuditResultSuccess, nil)

	response.Success(c, http.StatusOK, gin.H{
		"tokens": newTokenResponse(pair),
		"user":   userPayload(user),
	})
}

func (h *AuthHandler) fail(c *gin.Context, email, userID string, err error) {
	metrics.AuthAttempts.WithLabelValues("failure").Inc()
	h.record(c, email, userID, "auth.login", services.AuditResultFailure, map[string]any{"reason": err.Error()})
	renderServiceError(c, err)
}

func (h *AuthHandler) record(c *gin.Context, email, userID, action, result string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	entry := services.AuditEntry{
		Email:     providers.NormalizeEmail(email),
		Action:    action,
		Resource:  "session",
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  metadata,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	_ = h.audit.Log(requestContext(c), entry)
}

func mapMFAError(err error) error {
	if err == mfa.ErrNotEnrolled || err == mfa.ErrInvalidCode || err == mfa.ErrCodeReplayed {
		return errors.ErrMFAInvalid
	}
	return err
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, _, err := h.sessions.RefreshSession(requestContext(c), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		renderServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, newTokenResponse(pair))
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	if v.SessionID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(requestContext(c), v.SessionID); err != nil {
		renderServiceError(c, err)
		return
	}
	h.record(c, v.Email, v.UserID, "auth.logout", services.AuditResultSuccess, nil)

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":              v.UserID,
		"email":           v.Email,
		"roles":           v.Roles,
		"is_admin":        v.IsAdmin(),
		"approval_status": v.ApprovalStatus(),
		"profile":         v.Profile,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// POST /api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.local.ChangePassword(requestContext(c), v.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.record(c, v.Email, v.UserID, "auth.password_change", services.AuditResultFailure, nil)
		renderServiceError(c, err)
		return
	}
	h.record(c, v.Email, v.UserID, "auth.password_change", services.AuditResultSuccess, nil)

	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// POST /api/auth/mfa/setup
func (h *AuthHandler) SetupMFA(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	if h.totp == nil {
		response.Error(c, errors.NewNotFound("mfa"))
		return
	}

	enrollment, err := h.totp.Enroll(requestContext(c), v.UserID, v.Email)
	if err != nil {
		renderServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"secret":      enrollment.Secret,
		"otpauth_url": enrollment.OTPAuthURL,
		"qr_code":     "data:image/png;base64," + base64.StdEncoding.EncodeToString(enrollment.QRCode),
	})
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// POST /api/auth/mfa/enable
func (h *AuthHandler) EnableMFA(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	if h.totp == nil {
		response.Error(c, errors.NewNotFound("mfa"))
		return
	}
	var req mfaCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.totp.Confirm(requestContext(c), v.UserID, req.Code); err != nil {
		renderServiceError(c, err)
		return
	}
	h.record(c, v.Email, v.UserID, "auth.mfa_enable", services.AuditResultSuccess, nil)

	response.Success(c, http.StatusOK, gin.H{"mfa_enabled": true})
}

func userPayload(user *models.User) gin.H {
	v := viewer.FromUser(user, "")
	return gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"roles":           v.Roles,
		"is_admin":        v.IsAdmin(),
		"mfa_enabled":     user.MFAEnabled,
		"approval_status": v.ApprovalStatus(),
		"profile":         user.Profile,
	}
}
