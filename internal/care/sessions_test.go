package care

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestCreateSession_Defaults(t *testing.T) {
	s, _ := newTestStore(t)
	sess, err := s.CreateSession(context.Background(), model.Session{
		TherapistID: "t1", ClientID: "c1", Date: "2025-03-12", Time: "10:00",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, model.SessionStatusPending, sess.Status)
	require.Equal(t, testTime, sess.CreatedAt)
}

func TestCreateSession_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	var validation *ValidationError

	_, err := s.CreateSession(context.Background(), model.Session{ClientID: "c1", Date: "2025-03-12"})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "therapistId", validation.Field)

	_, err = s.CreateSession(context.Background(), model.Session{TherapistID: "t1", ClientID: "c1"})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "date", validation.Field)
}

func TestUpdateSession_DateChangeMovesIndexKeys(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, model.Session{
		ID: "s1", TherapistID: "t1", ClientID: "c1", Date: "2025-03-12",
	})
	require.NoError(t, err)

	newDate := "2025-03-19"
	updated, err := s.UpdateSession(ctx, sess.ID, SessionUpdate{Date: &newDate})
	require.NoError(t, err)
	require.Equal(t, newDate, updated.Date)

	// Old-date index keys are gone, new-date keys hold the record.
	old, err := kv.Get(ctx, therapistSessionKey("t1", "2025-03-12", "s1"))
	require.NoError(t, err)
	require.Nil(t, old)
	old, err = kv.Get(ctx, clientSessionKey("c1", "2025-03-12", "s1"))
	require.NoError(t, err)
	require.Nil(t, old)

	current, err := kv.Get(ctx, therapistSessionKey("t1", newDate, "s1"))
	require.NoError(t, err)
	require.NotNil(t, current)

	listed, err := s.ListTherapistSessions(ctx, "t1", "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, newDate, listed[0].Date)
}

func TestUpdateSession_StatusOnlyKeepsKeys(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, model.Session{
		ID: "s1", TherapistID: "t1", ClientID: "c1", Date: "2025-03-12",
	})
	require.NoError(t, err)

	done := model.SessionStatusCompleted
	updated, err := s.UpdateSession(ctx, sess.ID, SessionUpdate{Status: &done})
	require.NoError(t, err)
	require.Equal(t, done, updated.Status)

	listed, err := s.ListTherapistSessions(ctx, "t1", "2025-03-12")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, done, listed[0].Status)
}

func TestListSessions_DateNarrowsScan(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, date := range []string{"2025-03-10", "2025-03-12", "2025-03-14"} {
		_, err := s.CreateSession(ctx, model.Session{TherapistID: "t1", ClientID: "c1", Date: date})
		require.NoError(t, err)
	}

	all, err := s.ListTherapistSessions(ctx, "t1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Date-first index keys give date order for free.
	require.Equal(t, "2025-03-10", all[0].Date)
	require.Equal(t, "2025-03-14", all[2].Date)

	day, err := s.ListClientSessions(ctx, "c1", "2025-03-12")
	require.NoError(t, err)
	require.Len(t, day, 1)
	require.Equal(t, "2025-03-12", day[0].Date)
}

func TestDeleteSession_RemovesAllKeys(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, model.Session{
		ID: "s1", TherapistID: "t1", ClientID: "c1", Date: "2025-03-12",
	})
	require.NoError(t, err)
	require.NoError(t, s.DeleteSession(ctx, sess.ID))

	for _, key := range sessionKeys(sess) {
		data, err := kv.Get(ctx, key)
		require.NoError(t, err)
		require.Nil(t, data)
	}

	var notFound *NotFoundError
	_, err = s.GetSession(ctx, sess.ID)
	require.ErrorAs(t, err, &notFound)
}
