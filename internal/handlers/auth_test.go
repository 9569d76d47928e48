package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/handlers/testutil"
	"github.com/ud28188-create/codonyx.org/internal/models"
)

func TestAuthHandler_LoginRefreshLogout(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin()

	login := env.Login(admin.Email, testutil.DefaultPassword)
	require.True(t, login.User.IsAdmin)
	token := login.Tokens.AccessToken

	me := env.Request(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	var meData map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, me).Data, &meData)
	require.Equal(t, admin.ID, meData["id"])
	require.Equal(t, true, meData["is_admin"])

	refresh := env.Request(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": login.Tokens.RefreshToken}, "")
	require.Equal(t, http.StatusOK, refresh.Code, refresh.Body.String())
	var refreshed testutil.TokenPair
	testutil.DecodeInto(t, testutil.DecodeResponse(t, refresh).Data, &refreshed)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.Tokens.RefreshToken, refreshed.RefreshToken)
	require.True(t, refreshed.ExpiresAt.After(time.Now()))

	// The old refresh token was rotated away.
	replay := env.Request(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": login.Tokens.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, replay.Code)

	logout := env.Request(http.MethodPost, "/api/auth/logout", nil, refreshed.AccessToken)
	require.Equal(t, http.StatusOK, logout.Code, logout.Body.String())

	unauth := env.Request(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, unauth.Code)
}

func TestAuthHandler_LoginValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodPost, "/api/auth/login", map[string]any{"email": "not-an-email", "password": ""}, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, resp))
}

func TestAuthHandler_InvalidCredentials(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin()

	resp := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    admin.Email,
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, "INVALID_CREDENTIALS", testutil.ErrorCode(t, resp))

	var audits int64
	require.NoError(t, env.DB.Model(&models.AuditLog{}).Where("action = ? AND result = ?", "auth.login", "failure").Count(&audits).Error)
	require.EqualValues(t, 1, audits)
}

func TestAuthHandler_LoginRequiresApproval(t *testing.T) {
	env := testutil.NewEnv(t)

	pending := env.CreateMember(models.UserTypeAdvisor, models.ApprovalPending)
	resp := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    pending.Email,
		"password": testutil.DefaultPassword,
	}, "")
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Equal(t, "APPROVAL_PENDING", testutil.ErrorCode(t, resp))

	rejected := env.CreateMember(models.UserTypeLaboratory, models.ApprovalRejected)
	resp = env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    rejected.Email,
		"password": testutil.DefaultPassword,
	}, "")
	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Equal(t, "APPROVAL_REJECTED", testutil.ErrorCode(t, resp))

	var sessions int64
	require.NoError(t, env.DB.Model(&models.Session{}).Count(&sessions).Error)
	require.Zero(t, sessions)

	approved := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	login := env.Login(approved.Email, testutil.DefaultPassword)
	require.False(t, login.User.IsAdmin)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := testutil.NewEnv(t)
	member := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	token := env.LoginAs(member)

	wrong := env.Request(http.MethodPost, "/api/auth/password", map[string]string{
		"current_password": "nope-nope",
		"new_password":     "brand-new-secret",
		"confirm_password": "brand-new-secret",
	}, token)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)

	mismatch := env.Request(http.MethodPost, "/api/auth/password", map[string]string{
		"current_password": testutil.DefaultPassword,
		"new_password":     "brand-new-secret",
		"confirm_password": "something-else",
	}, token)
	require.Equal(t, http.StatusBadRequest, mismatch.Code)
	require.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, mismatch))

	ok := env.Request(http.MethodPost, "/api/auth/password", map[string]string{
		"current_password": testutil.DefaultPassword,
		"new_password":     "brand-new-secret",
		"confirm_password": "brand-new-secret",
	}, token)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())

	env.Login(member.Email, "brand-new-secret")
}

func TestAuthHandler_AdminMFA(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin()
	token := env.Login(admin.Email, testutil.DefaultPassword).Tokens.AccessToken

	setup := env.Request(http.MethodPost, "/api/auth/mfa/setup", nil, token)
	require.Equal(t, http.StatusOK, setup.Code, setup.Body.String())
	var enrollment struct {
		Secret     string `json:"secret"`
		OTPAuthURL string `json:"otpauth_url"`
		QRCode     string `json:"qr_code"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, setup).Data, &enrollment)
	require.NotEmpty(t, enrollment.Secret)
	require.True(t, strings.HasPrefix(enrollment.OTPAuthURL, "otpauth://totp/"))
	require.True(t, strings.HasPrefix(enrollment.QRCode, "data:image/png;base64,"))

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	enable := env.Request(http.MethodPost, "/api/auth/mfa/enable", map[string]string{"code": code}, token)
	require.Equal(t, http.StatusOK, enable.Code, enable.Body.String())

	missing := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    admin.Email,
		"password": testutil.DefaultPassword,
	}, "")
	require.Equal(t, http.StatusUnauthorized, missing.Code)
	require.Equal(t, "MFA_REQUIRED", testutil.ErrorCode(t, missing))

	// The enabling code has been spent.
	replayed := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    admin.Email,
		"password": testutil.DefaultPassword,
		"mfa_code": code,
	}, "")
	require.Equal(t, http.StatusUnauthorized, replayed.Code)
	require.Equal(t, "MFA_INVALID", testutil.ErrorCode(t, replayed))
}

func TestAuthHandler_MFAIsAdminOnly(t *testing.T) {
	env := testutil.NewEnv(t)
	member := env.CreateMember(models.UserTypeLaboratory, models.ApprovalApproved)

	resp := env.Request(http.MethodPost, "/api/auth/mfa/setup", nil, env.LoginAs(member))
	require.Equal(t, http.StatusForbidden, resp.Code)
}
