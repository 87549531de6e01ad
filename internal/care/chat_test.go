package care

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestSendMessage_CreatesConversationOnFirstContact(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	msg, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "hello")
	require.NoError(t, err)
	require.Equal(t, "c1_t1", msg.ConversationID)
	require.False(t, msg.IsRead)

	conv, err := s.GetConversation(ctx, "c1", "t1")
	require.NoError(t, err)
	require.Equal(t, "c1", conv.UserID)
	require.Equal(t, "t1", conv.TherapistID)
	require.Equal(t, "hello", conv.LastMessage)
	require.Equal(t, model.SenderUser, conv.LastSender)
}

func TestSendMessage_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var validation *ValidationError
	_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "")
	require.ErrorAs(t, err, &validation)

	var invalid *InvalidParticipantsError
	_, err = s.SendMessage(ctx, "c1", "c1", model.SenderUser, "hi")
	require.ErrorAs(t, err, &invalid)
}

func TestListMessages_TimeOrderAndLimit(t *testing.T) {
	kv := newClockedStore(t)
	s, tick := kv.store, kv.tick
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, text)
		require.NoError(t, err)
		tick(time.Minute)
	}

	msgs, err := s.ListMessages(ctx, "t1", "c1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "one", msgs[0].Text)
	require.Equal(t, "three", msgs[2].Text)

	last, err := s.ListMessages(ctx, "c1", "t1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	require.Equal(t, "two", last[0].Text)
	require.Equal(t, "three", last[1].Text)
}

func TestMarkConversationRead_FlipsOnlyCounterpartyMessages(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "from client")
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, "c1", "t1", model.SenderUser, "also from client")
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, "c1", "t1", model.SenderTherapist, "from therapist")
	require.NoError(t, err)

	// Therapist reads: only the client's messages flip.
	flipped, err := s.MarkConversationRead(ctx, "c1", "t1", model.SenderTherapist)
	require.NoError(t, err)
	require.Equal(t, 2, flipped)

	msgs, err := s.ListMessages(ctx, "c1", "t1", 0)
	require.NoError(t, err)
	for _, m := range msgs {
		if m.Sender == model.SenderUser {
			require.True(t, m.IsRead)
		} else {
			require.False(t, m.IsRead)
		}
	}

	// Idempotent on re-read.
	flipped, err = s.MarkConversationRead(ctx, "c1", "t1", model.SenderTherapist)
	require.NoError(t, err)
	require.Zero(t, flipped)
}

func TestListConversations_MostRecentActivityFirst(t *testing.T) {
	kv := newClockedStore(t)
	s, tick := kv.store, kv.tick
	ctx := context.Background()

	_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "older")
	require.NoError(t, err)
	tick(time.Hour)
	_, err = s.SendMessage(ctx, "c2", "t1", model.SenderUser, "newer")
	require.NoError(t, err)

	convs, err := s.ListConversations(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	require.Equal(t, "c2", convs[0].UserID)
	require.Equal(t, "c1", convs[1].UserID)

	// Each client only sees their own thread.
	mine, err := s.ListConversations(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestArchiveConversation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "hello")
	require.NoError(t, err)

	conv, err := s.ArchiveConversation(ctx, "c1", "t1", true)
	require.NoError(t, err)
	require.True(t, conv.Archived)

	// Messages survive archiving.
	msgs, err := s.ListMessages(ctx, "c1", "t1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

// clockedStore pairs a Store with an advanceable clock for ordering tests.
type clockedStore struct {
	store *Store
	tick  func(d time.Duration)
}

func newClockedStore(t *testing.T) clockedStore {
	t.Helper()
	now := testTime
	s, _ := newTestStore(t, WithClock(func() time.Time { return now }))
	return clockedStore{
		store: s,
		tick:  func(d time.Duration) { now = now.Add(d) },
	}
}
