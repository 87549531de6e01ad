package care

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestClassifyPreview(t *testing.T) {
	cases := []struct {
		text     string
		unread   bool
		priority string
	}{
		{"I am really STRUGGLING today", false, PriorityHigh},
		{"this is urgent", true, PriorityHigh},
		{"quick question about homework", false, PriorityMedium},
		{"can we reschedule?", false, PriorityMedium},
		{"see you tomorrow", true, PriorityMedium},
		{"see you tomorrow", false, PriorityLow},
	}
	for _, tc := range cases {
		require.Equal(t, tc.priority, classifyPreview(tc.text, tc.unread), "text=%q unread=%v", tc.text, tc.unread)
	}
}

func TestInbox(t *testing.T) {
	cs := newClockedStore(t)
	s, tick := cs.store, cs.tick
	ctx := context.Background()

	// c-quiet wrote earlier and was read; c-loud has unread messages.
	_, err := s.SendMessage(ctx, "c-quiet", "t1", model.SenderUser, "see you tomorrow")
	require.NoError(t, err)
	_, err = s.MarkConversationRead(ctx, "c-quiet", "t1", model.SenderTherapist)
	require.NoError(t, err)
	tick(time.Hour)
	_, err = s.SendMessage(ctx, "c-loud", "t1", model.SenderUser, "this feels urgent")
	require.NoError(t, err)
	tick(time.Minute)
	_, err = s.SendMessage(ctx, "c-loud", "t1", model.SenderUser, "I need help now")
	require.NoError(t, err)

	// A conversation the therapist started but the client never answered
	// stays out of the inbox.
	_, err = s.SendMessage(ctx, "c-silent", "t1", model.SenderTherapist, "checking in")
	require.NoError(t, err)

	// Another therapist's conversation never shows.
	_, err = s.SendMessage(ctx, "c-other", "t2", model.SenderUser, "hello")
	require.NoError(t, err)

	items, err := s.Inbox(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Unread first.
	require.Equal(t, "c-loud", items[0].ClientID)
	require.Equal(t, 2, items[0].Unread)
	require.Equal(t, PriorityHigh, items[0].Priority)
	require.Equal(t, "I need help now", items[0].Preview)

	require.Equal(t, "c-quiet", items[1].ClientID)
	require.Zero(t, items[1].Unread)
	require.Equal(t, PriorityLow, items[1].Priority)
}

func TestInbox_ArchivedConversationExcluded(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "hello")
	require.NoError(t, err)
	_, err = s.ArchiveConversation(ctx, "c1", "t1", true)
	require.NoError(t, err)

	items, err := s.Inbox(ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestInbox_ProfileJoin(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.SendMessage(ctx, "c1", "t1", model.SenderUser, "hello")
	require.NoError(t, err)
	_, err = s.PutUserProfile(ctx, model.UserProfile{ID: "c1", Name: "Jordan Lee"})
	require.NoError(t, err)

	items, err := s.Inbox(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Jordan Lee", items[0].Name)
}
