package care

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestStartAndEndCall(t *testing.T) {
	cs := newClockedStore(t)
	s, tick := cs.store, cs.tick
	ctx := context.Background()

	call, err := s.StartCall(ctx, "c1", "t1", "video")
	require.NoError(t, err)
	require.Equal(t, model.CallStatusActive, call.Status)

	tick(95 * time.Second)
	ended, err := s.EndCall(ctx, call.ID, model.CallStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, model.CallStatusCompleted, ended.Status)
	require.Equal(t, 95, ended.Duration)
	require.NotNil(t, ended.EndedAt)

	// Both parties see the call in their history.
	for _, user := range []string{"c1", "t1"} {
		history, err := s.ListCallHistory(ctx, user)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, call.ID, history[0].ID)
		require.Equal(t, model.CallStatusCompleted, history[0].Status)
	}
}

func TestStartCall_InvalidParticipants(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var invalid *InvalidParticipantsError
	_, err := s.StartCall(ctx, "c1", "c1", "video")
	require.ErrorAs(t, err, &invalid)
	_, err = s.StartCall(ctx, "", "t1", "video")
	require.ErrorAs(t, err, &invalid)
}

func TestEndCall_RejectsBadStatus(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	call, err := s.StartCall(ctx, "c1", "t1", "audio")
	require.NoError(t, err)

	var validation *ValidationError
	_, err = s.EndCall(ctx, call.ID, model.CallStatusActive)
	require.ErrorAs(t, err, &validation)
}

func TestListCallHistory_MostRecentFirst(t *testing.T) {
	cs := newClockedStore(t)
	s, tick := cs.store, cs.tick
	ctx := context.Background()

	first, err := s.StartCall(ctx, "c1", "t1", "video")
	require.NoError(t, err)
	tick(time.Hour)
	second, err := s.StartCall(ctx, "c1", "t2", "video")
	require.NoError(t, err)

	history, err := s.ListCallHistory(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.ID, history[0].ID)
	require.Equal(t, first.ID, history[1].ID)
}
