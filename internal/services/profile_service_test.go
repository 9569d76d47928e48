package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/viewer"
)

func TestProfileUpdateNormalisesFields(t *testing.T) {
	f := newFixture(t)
	svc := f.profileService(t)
	ctx := context.Background()

	profile := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalApproved)
	require.NoError(t, f.db.Model(profile).Update("headline", "Old headline").Error)

	year := 1843
	updated, err := svc.Update(ctx, profile.ID, UpdateProfileInput{
		FullName: "  Ada King ",
		ProfileFields: ProfileFields{
			Bio:         "  Analyst ",
			Location:    "London",
			FoundedYear: &year,
			Expertise:   models.ParseTags("Oncology, Immunology"),
			Languages:   models.TagList{"English", " english ", ""},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Ada King", updated.FullName)

	stored, err := svc.Get(ctx, profile.ID)
	require.NoError(t, err)
	require.Nil(t, stored.Headline)
	require.Equal(t, "Analyst", models.Deref(stored.Bio))
	require.Equal(t, 1843, *stored.FoundedYear)
	require.Equal(t, models.TagList{"Oncology", "Immunology"}, stored.Expertise)
	require.Equal(t, models.TagList{"English"}, stored.Languages)
	require.Equal(t, models.ApprovalApproved, stored.ApprovalStatus)

	_, err = svc.Update(ctx, profile.ID, UpdateProfileInput{FullName: " "})
	require.Error(t, err)
}

func TestGetVisible(t *testing.T) {
	f := newFixture(t)
	svc := f.profileService(t)
	ctx := context.Background()

	pending := createMember(t, f.db, "Pending Person", models.UserTypeAdvisor, models.ApprovalPending)
	approved := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalApproved)
	member := viewer.Viewer{UserID: approved.UserID, Roles: []string{models.RoleUser}, Profile: approved}

	got, err := svc.GetVisible(ctx, member, approved.ID)
	require.NoError(t, err)
	require.Equal(t, approved.ID, got.ID)

	_, err = svc.GetVisible(ctx, member, pending.ID)
	require.ErrorIs(t, err, ErrProfileNotFound)

	self := viewer.Viewer{UserID: pending.UserID, Profile: pending}
	_, err = svc.GetVisible(ctx, self, pending.ID)
	require.NoError(t, err)

	admin := viewer.Viewer{UserID: "admin", Roles: []string{models.RoleAdmin}}
	_, err = svc.GetVisible(ctx, admin, pending.ID)
	require.NoError(t, err)
}

func TestUpdateAvatarReplacesPreviousObject(t *testing.T) {
	f := newFixture(t)
	svc := f.profileService(t)
	ctx := context.Background()

	profile := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalApproved)

	first, err := svc.UpdateAvatar(ctx, profile.ID, *textUpload("a.png", "one"))
	require.NoError(t, err)
	firstKey := *first.AvatarKey

	second, err := svc.UpdateAvatar(ctx, profile.ID, *textUpload("b.png", "two"))
	require.NoError(t, err)
	require.NotEqual(t, firstKey, *second.AvatarKey)
	require.Equal(t, []string{"avatars/" + firstKey}, f.store.deleted)
	require.Contains(t, f.store.objects, "avatars/"+*second.AvatarKey)
	require.NotContains(t, f.store.objects, "avatars/"+firstKey)

	stored, err := svc.Get(ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, *second.AvatarURL, models.Deref(stored.AvatarURL))
	require.Equal(t, *second.AvatarKey, models.Deref(stored.AvatarKey))
}
