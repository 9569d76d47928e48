package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

func TestSetupInitializeOnce(t *testing.T) {
	f := newFixture(t)
	svc, err := NewSetupService(f.db, f.audit)
	require.NoError(t, err)
	ctx := context.Background()

	initialized, err := svc.Initialized(ctx)
	require.NoError(t, err)
	require.False(t, initialized)

	admin, err := svc.Initialize(ctx, CreateAdminInput{Email: " Root@Example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "root@example.com", admin.Email)
	require.True(t, admin.HasRole(models.RoleAdmin))
	require.True(t, admin.HasRole(models.RoleUser))

	initialized, err = svc.Initialized(ctx)
	require.NoError(t, err)
	require.True(t, initialized)

	_, err = svc.Initialize(ctx, CreateAdminInput{Email: "second@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestCreateAdminPromotesExistingUser(t *testing.T) {
	f := newFixture(t)
	svc, err := NewSetupService(f.db, f.audit)
	require.NoError(t, err)

	member := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalApproved)

	promoted, err := svc.CreateAdmin(context.Background(), CreateAdminInput{Email: member.Email, Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, member.UserID, promoted.ID)
	require.ElementsMatch(t, []string{models.RoleAdmin, models.RoleUser}, promoted.RoleIDs())
	require.EqualValues(t, 1, countRows(t, f.db, &models.User{}))

	_, err = svc.CreateAdmin(context.Background(), CreateAdminInput{Email: "x@example.com", Password: "123"})
	require.Error(t, err)
}
