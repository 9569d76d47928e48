package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/handlers/testutil"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
)

func registrationPayload(email, token string) map[string]any {
	return map[string]any{
		"email":            email,
		"password":         "secret-pass",
		"confirm_password": "secret-pass",
		"full_name":        "Ada Lovelace",
		"user_type":        "advisor",
		"invite_token":     token,
		"location":         "London",
		"expertise":        []string{"Analytics", "Engines", "analytics"},
	}
}

func TestRegistrationHandler_JSON(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateAdmin()
	token := env.IssueInvite()

	valid := env.Request(http.MethodGet, "/api/invites/validate?invite="+token, nil, "")
	require.Equal(t, http.StatusOK, valid.Code)
	var check struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, valid).Data, &check)
	require.True(t, check.Valid)

	resp := env.Request(http.MethodPost, "/api/register", registrationPayload("Ada@Example.com", token), "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var payload struct {
		Profile          models.Profile `json:"profile"`
		RequiresApproval bool           `json:"requires_approval"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &payload)
	require.True(t, payload.RequiresApproval)
	require.Equal(t, models.ApprovalPending, payload.Profile.ApprovalStatus)
	require.Equal(t, models.UserTypeAdvisor, payload.Profile.UserType)
	require.Equal(t, "ada@example.com", payload.Profile.Email)
	require.Equal(t, models.TagList{"Analytics", "Engines"}, payload.Profile.Expertise)

	// The invite is single use.
	used := env.Request(http.MethodGet, "/api/invites/validate?invite="+token, nil, "")
	testutil.DecodeInto(t, testutil.DecodeResponse(t, used).Data, &check)
	require.False(t, check.Valid)
	require.Equal(t, "used", check.Reason)

	again := env.Request(http.MethodPost, "/api/register", registrationPayload("other@example.com", token), "")
	require.Equal(t, http.StatusBadRequest, again.Code)
	require.Equal(t, "INVITE_INVALID", testutil.ErrorCode(t, again))

	var notes int64
	require.NoError(t, env.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", admin.ID, models.NotificationRegistrationPending).
		Count(&notes).Error)
	require.EqualValues(t, 1, notes)
}

func TestRegistrationHandler_ExpiredInviteLeavesNoRows(t *testing.T) {
	env := testutil.NewEnv(t)

	issued, err := env.Services.Invites.Create(context.Background(), services.CreateInviteInput{Label: "short"}, "")
	require.NoError(t, err)
	require.NoError(t, env.DB.Model(&models.InviteToken{}).
		Where("id = ?", issued.Invite.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	resp := env.Request(http.MethodPost, "/api/register", registrationPayload("late@example.com", issued.Token), "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "INVITE_INVALID", testutil.ErrorCode(t, resp))

	var users, profiles int64
	require.NoError(t, env.DB.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, env.DB.Model(&models.Profile{}).Count(&profiles).Error)
	require.Zero(t, users)
	require.Zero(t, profiles)
}

func TestRegistrationHandler_DuplicateEmail(t *testing.T) {
	env := testutil.NewEnv(t)
	existing := env.CreateMember(models.UserTypeLaboratory, models.ApprovalPending)
	token := env.IssueInvite()

	resp := env.Request(http.MethodPost, "/api/register", registrationPayload(existing.Email, token), "")
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Equal(t, "EMAIL_TAKEN", testutil.ErrorCode(t, resp))

	// The failed attempt must not burn the invite.
	valid := env.Request(http.MethodGet, "/api/invites/validate?invite="+token, nil, "")
	var check struct {
		Valid bool `json:"valid"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, valid).Data, &check)
	require.True(t, check.Valid)
}

func TestRegistrationHandler_Validation(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.IssueInvite()

	payload := registrationPayload("user@example.com", token)
	payload["user_type"] = "investor"
	payload["confirm_password"] = "different"

	resp := env.Request(http.MethodPost, "/api/register", payload, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	decoded := testutil.DecodeResponse(t, resp)
	require.Equal(t, "VALIDATION_ERROR", decoded.Error.Code)
	require.Contains(t, decoded.Error.Message, "user type must be advisor or laboratory")
	require.Contains(t, decoded.Error.Message, "confirm password must match password")
}

func TestRegistrationHandler_MultipartWithAvatar(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.IssueInvite()

	resp := env.Multipart(http.MethodPost, "/api/register", map[string][]string{
		"email":            {"lab@example.com"},
		"password":         {"secret-pass"},
		"confirm_password": {"secret-pass"},
		"full_name":        {"Cell Lab"},
		"user_type":        {"Laboratory"},
		"invite_token":     {token},
		"research_areas":   {"genomics, proteomics", "imaging"},
	}, []testutil.FormFile{{
		Field:    "avatar",
		Filename: "logo.png",
		Content:  []byte("\x89PNG\r\n\x1a\nfake"),
	}}, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var payload struct {
		Profile models.Profile `json:"profile"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &payload)
	require.Equal(t, models.UserTypeLaboratory, payload.Profile.UserType)
	require.Equal(t, models.TagList{"genomics", "proteomics", "imaging"}, payload.Profile.ResearchAreas)
	require.NotNil(t, payload.Profile.AvatarURL)
	require.Contains(t, *payload.Profile.AvatarURL, "/files/")
}

func TestRegistrationHandler_InviteTokenFromQuery(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.IssueInvite()

	type validation struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason"`
	}
	validate := func(query string) validation {
		var v validation
		w := env.Request(http.MethodGet, "/api/invites/validate"+query, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &v)
		return v
	}
	require.True(t, validate("?inviteToken="+token).Valid)
	require.Equal(t, validation{Reason: "not_found"}, validate(""))

	payload := registrationPayload("query@example.com", "")
	delete(payload, "invite_token")
	noToken := env.Request(http.MethodPost, "/api/register", payload, "")
	require.Equal(t, http.StatusBadRequest, noToken.Code)
	require.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, noToken))

	resp := env.Request(http.MethodPost, "/api/register?inviteToken="+token, payload, "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	require.Equal(t, validation{Reason: "used"}, validate("?inviteToken="+token))

	second := env.IssueInvite()
	other := registrationPayload("second@example.com", "")
	delete(other, "invite_token")
	viaInvite := env.Request(http.MethodPost, "/api/register?invite="+second, other, "")
	require.Equal(t, http.StatusCreated, viaInvite.Code, viaInvite.Body.String())
}
