package care

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestNotifications_Lifecycle(t *testing.T) {
	cs := newClockedStore(t)
	s, tick := cs.store, cs.tick
	ctx := context.Background()

	first, err := s.CreateNotification(ctx, model.Notification{UserID: "u1", Title: "Session reminder"})
	require.NoError(t, err)
	tick(time.Minute)
	second, err := s.CreateNotification(ctx, model.Notification{UserID: "u1", Title: "New message"})
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, model.Notification{UserID: "u2", Title: "Other user"})
	require.NoError(t, err)

	items, err := s.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID, "newest first")

	read, err := s.MarkNotificationRead(ctx, "u1", first.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	flipped, err := s.MarkAllNotificationsRead(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, flipped, "already-read notifications do not count")

	require.NoError(t, s.DeleteNotification(ctx, "u1", first.ID))
	var notFound *NotFoundError
	require.ErrorAs(t, s.DeleteNotification(ctx, "u1", first.ID), &notFound)

	removed, err := s.ClearNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	items, err = s.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCreateNotification_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	var validation *ValidationError
	_, err := s.CreateNotification(context.Background(), model.Notification{Title: "no user"})
	require.ErrorAs(t, err, &validation)
	_, err = s.CreateNotification(context.Background(), model.Notification{UserID: "u1"})
	require.ErrorAs(t, err, &validation)
}
