package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/handlers/testutil"
	"github.com/ud28188-create/codonyx.org/internal/models"
)

type connectionLists struct {
	Accepted []struct {
		ID      string                `json:"id"`
		Profile models.ProfileSummary `json:"profile"`
	} `json:"accepted"`
	PendingSent     []map[string]any `json:"pending_sent"`
	PendingReceived []struct {
		ID string `json:"id"`
	} `json:"pending_received"`
}

func connectionStatus(t *testing.T, env *testutil.Env, token, profileID string) string {
	t.Helper()
	w := env.Request(http.MethodGet, "/api/connections/status/"+profileID, nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status struct {
		Status string `json:"status"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &status)
	return status.Status
}

func TestConnectionFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	advisor := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	lab := env.CreateMember(models.UserTypeLaboratory, models.ApprovalApproved)
	advisorToken := env.LoginAs(advisor)
	labToken := env.LoginAs(lab)

	require.Equal(t, "none", connectionStatus(t, env, advisorToken, lab.ID))

	self := env.Request(http.MethodPost, "/api/connections", map[string]string{"profile_id": advisor.ID}, advisorToken)
	require.Equal(t, http.StatusBadRequest, self.Code)

	created := env.Request(http.MethodPost, "/api/connections", map[string]string{"profile_id": lab.ID}, advisorToken)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	require.Equal(t, "pending_sent", connectionStatus(t, env, advisorToken, lab.ID))
	require.Equal(t, "pending_received", connectionStatus(t, env, labToken, advisor.ID))

	// Either direction collides with the existing pair.
	dup := env.Request(http.MethodPost, "/api/connections", map[string]string{"profile_id": advisor.ID}, labToken)
	require.Equal(t, http.StatusConflict, dup.Code)
	require.Equal(t, "CONNECTION_EXISTS", testutil.ErrorCode(t, dup))

	var labLists connectionLists
	list := env.Request(http.MethodGet, "/api/connections", nil, labToken)
	require.Equal(t, http.StatusOK, list.Code, list.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &labLists)
	require.Len(t, labLists.PendingReceived, 1)
	connectionID := labLists.PendingReceived[0].ID

	// Only the receiver may respond.
	forbidden := env.Request(http.MethodPost, "/api/connections/"+connectionID+"/respond", map[string]string{"status": "accepted"}, advisorToken)
	require.Equal(t, http.StatusForbidden, forbidden.Code)

	invalid := env.Request(http.MethodPost, "/api/connections/"+connectionID+"/respond", map[string]string{"status": "pending"}, labToken)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	accepted := env.Request(http.MethodPost, "/api/connections/"+connectionID+"/respond", map[string]string{"status": " Accepted "}, labToken)
	require.Equal(t, http.StatusOK, accepted.Code, accepted.Body.String())

	require.Equal(t, "accepted", connectionStatus(t, env, advisorToken, lab.ID))
	require.Equal(t, "accepted", connectionStatus(t, env, labToken, advisor.ID))

	var advisorLists connectionLists
	list = env.Request(http.MethodGet, "/api/connections", nil, advisorToken)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &advisorLists)
	require.Len(t, advisorLists.Accepted, 1)
	require.Equal(t, lab.ID, advisorLists.Accepted[0].Profile.ID)
	require.Empty(t, advisorLists.PendingSent)

	// Both sides get notified along the way.
	var notes int64
	require.NoError(t, env.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", lab.UserID, models.NotificationConnectionRequested).
		Count(&notes).Error)
	require.EqualValues(t, 1, notes)
	require.NoError(t, env.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", advisor.UserID, models.NotificationConnectionAccepted).
		Count(&notes).Error)
	require.EqualValues(t, 1, notes)

	removed := env.Request(http.MethodDelete, "/api/connections/"+connectionID, nil, advisorToken)
	require.Equal(t, http.StatusOK, removed.Code, removed.Body.String())
	require.Equal(t, "none", connectionStatus(t, env, labToken, advisor.ID))
}

func TestConnectionRequiresApprovedTarget(t *testing.T) {
	env := testutil.NewEnv(t)
	advisor := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	pending := env.CreateMember(models.UserTypeLaboratory, models.ApprovalPending)

	resp := env.Request(http.MethodPost, "/api/connections", map[string]string{"profile_id": pending.ID}, env.LoginAs(advisor))
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDirectoryFilters(t *testing.T) {
	env := testutil.NewEnv(t)
	viewer := env.CreateMember(models.UserTypeLaboratory, models.ApprovalApproved)
	token := env.LoginAs(viewer)

	first := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	second := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	env.CreateMember(models.UserTypeAdvisor, models.ApprovalPending)

	require.NoError(t, env.DB.Model(&models.Profile{}).Where("id = ?", first.ID).Updates(map[string]any{
		"headline": "Oncology researcher",
		"location": "Paris",
	}).Error)

	all := env.Request(http.MethodGet, "/api/advisors", nil, token)
	require.Equal(t, http.StatusOK, all.Code, all.Body.String())
	resp := testutil.DecodeResponse(t, all)
	var profiles []models.Profile
	testutil.DecodeInto(t, resp.Data, &profiles)
	require.Len(t, profiles, 2)
	require.Equal(t, 2, resp.Meta.Total)

	search := env.Request(http.MethodGet, "/api/advisors?search=ONCOLOGY", nil, token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, search).Data, &profiles)
	require.Len(t, profiles, 1)
	require.Equal(t, first.ID, profiles[0].ID)

	berlin := env.Request(http.MethodGet, "/api/advisors?location=Berlin", nil, token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, berlin).Data, &profiles)
	require.Len(t, profiles, 1)
	require.Equal(t, second.ID, profiles[0].ID)

	combined := env.Request(http.MethodGet, "/api/advisors?search=oncology&location=Berlin", nil, token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, combined).Data, &profiles)
	require.Empty(t, profiles)

	anywhere := env.Request(http.MethodGet, "/api/advisors?location=all", nil, token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, anywhere).Data, &profiles)
	require.Len(t, profiles, 2)

	labs := env.Request(http.MethodGet, "/api/laboratories", nil, token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, labs).Data, &profiles)
	require.Len(t, profiles, 1)
	require.Equal(t, viewer.ID, profiles[0].ID)

	locations := env.Request(http.MethodGet, "/api/directory/advisor/locations", nil, token)
	require.Equal(t, http.StatusOK, locations.Code)
	var values []string
	testutil.DecodeInto(t, testutil.DecodeResponse(t, locations).Data, &values)
	require.ElementsMatch(t, []string{"Berlin", "Paris"}, values)

	bad := env.Request(http.MethodGet, "/api/directory/investor/locations", nil, token)
	require.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestProfileVisibility(t *testing.T) {
	env := testutil.NewEnv(t)
	member := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	pending := env.CreateMember(models.UserTypeAdvisor, models.ApprovalPending)
	token := env.LoginAs(member)

	hidden := env.Request(http.MethodGet, "/api/profiles/"+pending.ID, nil, token)
	require.Equal(t, http.StatusNotFound, hidden.Code)

	admin := env.CreateAdmin()
	adminToken := env.Login(admin.Email, testutil.DefaultPassword).Tokens.AccessToken
	visible := env.Request(http.MethodGet, "/api/profiles/"+pending.ID, nil, adminToken)
	require.Equal(t, http.StatusOK, visible.Code, visible.Body.String())

	own := env.Request(http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, own.Code)
	var profile models.Profile
	testutil.DecodeInto(t, testutil.DecodeResponse(t, own).Data, &profile)
	require.Equal(t, member.ID, profile.ID)
}

func TestProfileUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	member := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	token := env.LoginAs(member)

	resp := env.Request(http.MethodPut, "/api/profile", map[string]any{
		"full_name":       "Dr. Grace Hopper",
		"headline":        "Compilers",
		"location":        "Arlington",
		"mentoring_areas": "Leadership, Navy, leadership",
		"founded_year":    1906,
	}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var profile models.Profile
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &profile)
	require.Equal(t, "Dr. Grace Hopper", profile.FullName)
	require.Equal(t, "Arlington", models.Deref(profile.Location))
	require.Equal(t, models.TagList{"Leadership", "Navy"}, profile.MentoringAreas)

	invalid := env.Request(http.MethodPut, "/api/profile", map[string]any{
		"full_name":   "Grace",
		"website_url": "not a url",
	}, token)
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	require.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, invalid))

	avatar := env.Multipart(http.MethodPost, "/api/profile/avatar", nil, []testutil.FormFile{{
		Field:    "avatar",
		Filename: "me.jpg",
		Content:  []byte("jpeg-bytes"),
	}}, token)
	require.Equal(t, http.StatusOK, avatar.Code, avatar.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, avatar).Data, &profile)
	require.NotNil(t, profile.AvatarURL)

	missing := env.Multipart(http.MethodPost, "/api/profile/avatar", map[string][]string{"note": {"x"}}, nil, token)
	require.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestPublicationsCRUD(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateMember(models.UserTypeLaboratory, models.ApprovalApproved)
	other := env.CreateMember(models.UserTypeAdvisor, models.ApprovalApproved)
	ownerToken := env.LoginAs(owner)
	otherToken := env.LoginAs(other)

	created := env.Request(http.MethodPost, "/api/publications", map[string]any{
		"title":            "CRISPR screening at scale",
		"publication_type": "Paper",
		"external_url":     "https://doi.org/10.1000/182",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var publication models.Publication
	testutil.DecodeInto(t, testutil.DecodeResponse(t, created).Data, &publication)
	require.Equal(t, owner.ID, publication.ProfileID)
	require.Equal(t, models.PublicationType("paper"), publication.PublicationType)

	badType := env.Request(http.MethodPost, "/api/publications", map[string]any{
		"title":            "Untyped",
		"publication_type": "tweet",
	}, ownerToken)
	require.Equal(t, http.StatusBadRequest, badType.Code)

	withFile := env.Multipart(http.MethodPost, "/api/publications", map[string][]string{
		"title": {"Poster"},
	}, []testutil.FormFile{{Field: "file", Filename: "poster.pdf", Content: []byte("%PDF-1.4")}}, ownerToken)
	require.Equal(t, http.StatusCreated, withFile.Code, withFile.Body.String())
	var uploaded models.Publication
	testutil.DecodeInto(t, testutil.DecodeResponse(t, withFile).Data, &uploaded)
	require.NotNil(t, uploaded.FileURL)

	listed := env.Request(http.MethodGet, "/api/profiles/"+owner.ID+"/publications", nil, otherToken)
	require.Equal(t, http.StatusOK, listed.Code, listed.Body.String())
	var publications []models.Publication
	testutil.DecodeInto(t, testutil.DecodeResponse(t, listed).Data, &publications)
	require.Len(t, publications, 2)

	// Another member cannot touch the owner's publication.
	foreign := env.Request(http.MethodPut, "/api/publications/"+publication.ID, map[string]any{"title": "Hijacked"}, otherToken)
	require.Equal(t, http.StatusNotFound, foreign.Code)

	updated := env.Request(http.MethodPut, "/api/publications/"+publication.ID, map[string]any{
		"title":            "CRISPR screening at scale (v2)",
		"publication_type": "report",
	}, ownerToken)
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, updated).Data, &publication)
	require.Equal(t, "CRISPR screening at scale (v2)", publication.Title)

	deleted := env.Request(http.MethodDelete, "/api/publications/"+publication.ID, nil, ownerToken)
	require.Equal(t, http.StatusOK, deleted.Code)

	own := env.Request(http.MethodGet, "/api/publications", nil, ownerToken)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, own).Data, &publications)
	require.Len(t, publications, 1)
	require.Equal(t, uploaded.ID, publications[0].ID)
}

func TestConnectionRequestRequiresApprovedSender(t *testing.T) {
	env := testutil.NewEnv(t)
	target := env.CreateMember(models.UserTypeLaboratory, models.ApprovalApproved)
	sender := env.CreateMember(models.UserTypeAdvisor, models.ApprovalPending)

	// Admins pass the approval gate even while their own profile is pending.
	_, err := env.Services.Roles.Assign(context.Background(), sender.UserID, models.RoleAdmin, "")
	require.NoError(t, err)
	token := env.LoginAs(sender)

	resp := env.Request(http.MethodPost, "/api/connections", map[string]string{"profile_id": target.ID}, token)
	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())
	require.Equal(t, "FORBIDDEN", testutil.ErrorCode(t, resp))

	var connections int64
	require.NoError(t, env.DB.Model(&models.Connection{}).Count(&connections).Error)
	require.Zero(t, connections)
}
