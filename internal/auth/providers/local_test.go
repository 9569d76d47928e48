package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/database/testutil"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/pkg/crypto"
)

func newProvider(t *testing.T, db *gorm.DB, now *time.Time) *LocalProvider {
	t.Helper()
	provider, err := NewLocalProvider(db, LocalConfig{
		LockoutThreshold: 3,
		LockoutDuration:  10 * time.Minute,
		Clock:            func() time.Time { return *now },
	})
	require.NoError(t, err)
	return provider
}

func seedUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()
	user, err := NewUser(email, password)
	require.NoError(t, err)
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestNewUserNormalisesAndHashes(t *testing.T) {
	user, err := NewUser("  Alice@Example.COM ", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.True(t, crypto.VerifyPassword(user.Password, "secret1"))
	require.True(t, user.IsActive)

	_, err = NewUser("a@example.com", "12345")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestAuthenticateSuccessResetsCounters(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	provider := newProvider(t, db, &now)

	user := seedUser(t, db, "alice@example.com", "password123")
	require.NoError(t, db.Model(user).Update("failed_attempts", 2).Error)

	got, err := provider.Authenticate(context.Background(), AuthenticateInput{Email: "ALICE@example.com", Password: "password123", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Zero(t, got.FailedAttempts)

	var stored models.User
	require.NoError(t, db.Take(&stored, "id = ?", user.ID).Error)
	require.Zero(t, stored.FailedAttempts)
	require.NotNil(t, stored.LastLoginAt)
	require.Equal(t, "127.0.0.1", stored.LastLoginIP)
}

func TestAuthenticateLocksAfterThreshold(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	provider := newProvider(t, db, &now)
	seedUser(t, db, "bob@example.com", "password123")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := provider.Authenticate(ctx, AuthenticateInput{Email: "bob@example.com", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := provider.Authenticate(ctx, AuthenticateInput{Email: "bob@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrAccountLocked)

	_, err = provider.Authenticate(ctx, AuthenticateInput{Email: "bob@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrAccountLocked)

	now = now.Add(11 * time.Minute)
	_, err = provider.Authenticate(ctx, AuthenticateInput{Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)
}

func TestAuthenticateRejectsUnknownAndDisabled(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	now := time.Now()
	provider := newProvider(t, db, &now)
	ctx := context.Background()

	_, err := provider.Authenticate(ctx, AuthenticateInput{Email: "nobody@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user := seedUser(t, db, "carol@example.com", "password123")
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	_, err = provider.Authenticate(ctx, AuthenticateInput{Email: "carol@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestChangePassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	now := time.Now()
	provider := newProvider(t, db, &now)
	user := seedUser(t, db, "dave@example.com", "password123")
	ctx := context.Background()

	require.ErrorIs(t, provider.ChangePassword(ctx, user.ID, "wrong", "newpass1"), ErrInvalidCredentials)
	require.ErrorIs(t, provider.ChangePassword(ctx, user.ID, "password123", "123"), ErrPasswordTooShort)
	require.NoError(t, provider.ChangePassword(ctx, user.ID, "password123", "newpass1"))

	_, err := provider.Authenticate(ctx, AuthenticateInput{Email: "dave@example.com", Password: "newpass1"})
	require.NoError(t, err)
}
