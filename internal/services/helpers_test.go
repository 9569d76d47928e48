package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/database/testutil"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/notifications"
	"github.com/ud28188-create/codonyx.org/internal/storage"
	"github.com/ud28188-create/codonyx.org/pkg/mail"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Put(_ context.Context, obj storage.Object) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	m.objects[obj.Bucket+"/"+obj.Key] = data
	return "https://files.test/" + obj.Bucket + "/" + obj.Key, nil
}

func (m *memoryStore) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := bucket + "/" + key
	if _, ok := m.objects[path]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, path)
	m.deleted = append(m.deleted, path)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	db            *gorm.DB
	audit         *AuditService
	notifications *NotificationService
	store         *memoryStore
	mailer        *recordingMailer
	emailer       *notifications.Emailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	audit, err := NewAuditService(db)
	require.NoError(t, err)
	audit.now = func() time.Time { return testNow }

	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	return &fixture{
		db:            db,
		audit:         audit,
		notifications: notifier,
		store:         newMemoryStore(),
		mailer:        mailer,
		emailer:       notifications.NewEmailer(mailer, "Codonyx", "https://codonyx.test"),
	}
}

func (f *fixture) inviteService(t *testing.T) *InviteService {
	t.Helper()
	svc, err := NewInviteService(f.db, f.audit,
		WithInviteBaseURL("https://codonyx.test/"),
		WithInviteClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return svc
}

func (f *fixture) profileService(t *testing.T) *ProfileService {
	t.Helper()
	svc, err := NewProfileService(f.db, f.store, f.audit)
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func (f *fixture) connectionService(t *testing.T) *ConnectionService {
	t.Helper()
	svc, err := NewConnectionService(f.db, f.notifications, f.emailer, f.audit)
	require.NoError(t, err)
	return svc
}

// createMember inserts a user with the user role and a profile in the given state.
func createMember(t *testing.T, db *gorm.DB, name string, userType models.UserType, status models.ApprovalStatus) *models.Profile {
	t.Helper()

	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
	user := &models.User{Email: email, Password: "not-a-real-hash", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, assignRole(db, user, models.RoleUser))

	profile := &models.Profile{
		UserID:         user.ID,
		UserType:       userType,
		ApprovalStatus: status,
		FullName:       name,
		Email:          email,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func createAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "not-a-real-hash", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, assignRole(db, user, models.RoleAdmin))
	return user
}

func textUpload(name, body string) *Upload {
	return &Upload{Filename: name, ContentType: "text/plain", Size: int64(len(body)), Body: bytes.NewBufferString(body)}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
