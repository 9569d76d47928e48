package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/pkg/crypto"
)

func TestInviteServiceCreateAndValidate(t *testing.T) {
	f := newFixture(t)
	svc := f.inviteService(t)
	ctx := context.Background()

	issued, err := svc.Create(ctx, CreateInviteInput{Label: "  Spring cohort "}, "admin-1")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.Equal(t, "https://codonyx.test/register?invite="+issued.Token, issued.Link)
	require.Equal(t, "Spring cohort", issued.Invite.Label)
	require.Equal(t, crypto.HashToken(issued.Token), issued.Invite.TokenHash)
	require.Equal(t, issued.Token[len(issued.Token)-4:], issued.Invite.TokenHint)
	require.True(t, issued.Invite.ExpiresAt.Equal(testNow.Add(7*24*time.Hour)))

	invite, err := svc.Validate(ctx, issued.Token)
	require.NoError(t, err)
	require.Equal(t, issued.Invite.ID, invite.ID)

	_, err = svc.Validate(ctx, "unknown-token")
	require.ErrorIs(t, err, ErrInviteNotFound)
	_, err = svc.Validate(ctx, "  ")
	require.ErrorIs(t, err, ErrInviteNotFound)

	past := testNow.Add(-time.Hour)
	_, err = svc.Create(ctx, CreateInviteInput{ExpiresAt: &past}, "")
	require.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestInviteValidityRequiresAllChecks(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)
	tomorrow := testNow.Add(24 * time.Hour)

	cases := []struct {
		name      string
		active    bool
		used      bool
		expiresAt time.Time
		want      error
	}{
		{name: "usable", active: true, expiresAt: tomorrow},
		{name: "inactive", active: false, expiresAt: tomorrow, want: ErrInviteInactive},
		{name: "used", active: true, used: true, expiresAt: tomorrow, want: ErrInviteUsed},
		{name: "expired", active: true, expiresAt: yesterday, want: ErrInviteExpired},
		{name: "expires now", active: true, expiresAt: testNow, want: ErrInviteExpired},
		{name: "used and expired", active: false, used: true, expiresAt: yesterday, want: ErrInviteUsed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.inviteService(t)

			issued, err := svc.Create(context.Background(), CreateInviteInput{Label: tc.name}, "")
			require.NoError(t, err)

			updates := map[string]any{"is_active": tc.active, "expires_at": tc.expiresAt}
			if tc.used {
				updates["used_at"] = yesterday
			}
			require.NoError(t, f.db.Model(issued.Invite).Updates(updates).Error)

			_, err = svc.Validate(context.Background(), issued.Token)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsInviteError(err))
		})
	}
}

func TestInviteServiceListByState(t *testing.T) {
	f := newFixture(t)
	svc := f.inviteService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, CreateInviteInput{Label: "active"}, "")
	require.NoError(t, err)
	inactive, err := svc.Create(ctx, CreateInviteInput{Label: "inactive"}, "")
	require.NoError(t, err)
	expired, err := svc.Create(ctx, CreateInviteInput{Label: "expired"}, "")
	require.NoError(t, err)
	used, err := svc.Create(ctx, CreateInviteInput{Label: "used"}, "")
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, inactive.Invite.ID, false)
	require.NoError(t, err)
	view, err := svc.UpdateExpiry(ctx, expired.Invite.ID, testNow.Add(-time.Minute))
	require.NoError(t, err)
	require.Equal(t, models.InviteStateExpired, view.State)
	require.NoError(t, svc.consume(f.db, used.Invite.ID, "someone", testNow))

	for state, want := range map[string]string{
		"active":   active.Invite.ID,
		"inactive": inactive.Invite.ID,
		"expired":  expired.Invite.ID,
		"used":     used.Invite.ID,
	} {
		views, err := svc.List(ctx, state)
		require.NoError(t, err, state)
		require.Len(t, views, 1, state)
		require.Equal(t, want, views[0].ID, state)
		require.Equal(t, models.InviteState(state), views[0].State)
	}

	all, err := svc.List(ctx, "all")
	require.NoError(t, err)
	require.Len(t, all, 4)

	_, err = svc.List(ctx, "bogus")
	require.Error(t, err)
}

func TestInviteServiceRotate(t *testing.T) {
	f := newFixture(t)
	svc := f.inviteService(t)
	ctx := context.Background()

	issued, err := svc.Create(ctx, CreateInviteInput{}, "")
	require.NoError(t, err)

	rotated, err := svc.Rotate(ctx, issued.Invite.ID)
	require.NoError(t, err)
	require.NotEqual(t, issued.Token, rotated.Token)

	_, err = svc.Validate(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInviteNotFound)
	_, err = svc.Validate(ctx, rotated.Token)
	require.NoError(t, err)

	require.NoError(t, svc.consume(f.db, issued.Invite.ID, "someone", testNow))
	_, err = svc.Rotate(ctx, issued.Invite.ID)
	require.ErrorIs(t, err, ErrInviteUsed)

	_, err = svc.Rotate(ctx, "missing")
	require.ErrorIs(t, err, ErrInviteNotFound)
}

func TestInviteServiceDeleteClearsProfileReference(t *testing.T) {
	f := newFixture(t)
	svc := f.inviteService(t)
	ctx := context.Background()

	issued, err := svc.Create(ctx, CreateInviteInput{}, "")
	require.NoError(t, err)

	profile := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalApproved)
	require.NoError(t, f.db.Model(profile).Update("invite_token_id", issued.Invite.ID).Error)

	require.NoError(t, svc.Delete(ctx, issued.Invite.ID))
	require.ErrorIs(t, svc.Delete(ctx, issued.Invite.ID), ErrInviteNotFound)

	var reloaded models.Profile
	require.NoError(t, f.db.First(&reloaded, "id = ?", profile.ID).Error)
	require.Nil(t, reloaded.InviteTokenID)
}

func TestInviteServiceSweepAndConsume(t *testing.T) {
	f := newFixture(t)
	svc := f.inviteService(t)
	ctx := context.Background()

	fresh, err := svc.Create(ctx, CreateInviteInput{}, "")
	require.NoError(t, err)
	stale, err := svc.Create(ctx, CreateInviteInput{}, "")
	require.NoError(t, err)
	_, err = svc.UpdateExpiry(ctx, stale.Invite.ID, testNow.Add(-time.Hour))
	require.NoError(t, err)

	swept, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, swept)

	_, err = svc.Validate(ctx, stale.Token)
	require.ErrorIs(t, err, ErrInviteInactive)

	require.NoError(t, svc.consume(f.db, fresh.Invite.ID, "user-1", testNow))
	require.ErrorIs(t, svc.consume(f.db, fresh.Invite.ID, "user-2", testNow), ErrInviteUsed)

	view, err := svc.Get(ctx, fresh.Invite.ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteStateUsed, view.State)
	require.Equal(t, "user-1", *view.UsedBy)
	require.False(t, view.IsActive)
}
