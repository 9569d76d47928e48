package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

func TestNotificationReadFlow(t *testing.T) {
	f := newFixture(t)
	svc := f.notifications
	ctx := context.Background()

	member := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalApproved)

	first, err := svc.Create(ctx, CreateNotificationInput{
		UserID:   member.UserID,
		Type:     models.NotificationConnectionRequested,
		Title:    "New connection request",
		Metadata: map[string]any{"connection_id": "c1"},
	})
	require.NoError(t, err)
	require.Equal(t, "c1", first.Metadata["connection_id"])

	_, err = svc.Create(ctx, CreateNotificationInput{UserID: member.UserID, Type: models.NotificationConnectionAccepted, Title: "Accepted"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateNotificationInput{UserID: member.UserID})
	require.Error(t, err)

	unread, err := svc.UnreadCount(ctx, member.UserID)
	require.NoError(t, err)
	require.EqualValues(t, 2, unread)

	read, err := svc.MarkRead(ctx, member.UserID, first.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	_, err = svc.MarkRead(ctx, "someone-else", first.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	onlyUnread, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: member.UserID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyUnread, 1)

	changed, err := svc.MarkAllRead(ctx, member.UserID)
	require.NoError(t, err)
	require.EqualValues(t, 1, changed)

	unread, err = svc.UnreadCount(ctx, member.UserID)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestNotifyAdminsReachesEveryAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := createAdmin(t, f.db, "one@example.com")
	second := createAdmin(t, f.db, "two@example.com")
	member := createMember(t, f.db, "Ada Lovelace", models.UserTypeAdvisor, models.ApprovalPending)

	require.NoError(t, f.notifications.NotifyAdmins(ctx, CreateNotificationInput{
		Type:  models.NotificationRegistrationPending,
		Title: "New registration awaiting review",
	}))

	for _, id := range []string{first.ID, second.ID} {
		count, err := f.notifications.UnreadCount(ctx, id)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	}
	count, err := f.notifications.UnreadCount(ctx, member.UserID)
	require.NoError(t, err)
	require.Zero(t, count)
}
