package care

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wellmind/care-service/internal/model"
)

// Keyword sets that bump an inbox preview's priority. Matching is
// case-insensitive on the preview text.
var (
	highPriorityKeywords   = []string{"urgent", "emergency", "crisis", "help", "difficult", "struggling"}
	mediumPriorityKeywords = []string{"question", "reschedule", "update"}
)

// InboxItem is one conversation row in the therapist's inbox view.
type InboxItem struct {
	ConversationID string    `json:"conversationId"`
	ClientID       string    `json:"clientId"`
	Name           string    `json:"name"`
	Avatar         string    `json:"avatar,omitempty"`
	Preview        string    `json:"preview"`
	Timestamp      time.Time `json:"timestamp"`
	Time           string    `json:"time"`
	Unread         int       `json:"unread"`
	Priority       string    `json:"priority"`
}

// Inbox builds the therapist's message inbox. Every non-archived
// conversation owned by the therapist contributes one row previewing the
// client's most recent message; conversations where the client has not
// written yet are omitted.
func (s *Store) Inbox(ctx context.Context, therapistID string) ([]InboxItem, error) {
	conversations, err := scanValues[model.Conversation](ctx, s.kv, prefixConversation)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var items []InboxItem
	var clientIDs []string
	for _, conv := range conversations {
		if conv.TherapistID != therapistID || conv.Archived {
			continue
		}
		msgs, err := scanValues[model.Message](ctx, s.kv, prefixMessage+conv.ID+":")
		if err != nil {
			return nil, err
		}

		var preview *model.Message
		unread := 0
		for i := range msgs {
			m := msgs[i]
			if m.Sender != model.SenderUser {
				continue
			}
			if !m.IsRead {
				unread++
			}
			if preview == nil || m.Timestamp.After(preview.Timestamp) {
				preview = &msgs[i]
			}
		}
		if preview == nil {
			continue
		}

		items = append(items, InboxItem{
			ConversationID: conv.ID,
			ClientID:       conv.UserID,
			Name:           placeholderName(conv.UserID),
			Preview:        preview.Text,
			Timestamp:      preview.Timestamp,
			Time:           relativeTime(preview.Timestamp, now),
			Unread:         unread,
			Priority:       classifyPreview(preview.Text, unread > 0),
		})
		clientIDs = append(clientIDs, conv.UserID)
	}

	profiles, err := s.userProfiles(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if p, ok := profiles[items[i].ClientID]; ok {
			if p.Name != "" {
				items[i].Name = p.Name
			}
			items[i].Avatar = p.Avatar
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		iu, ju := items[i].Unread > 0, items[j].Unread > 0
		if iu != ju {
			return iu
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

// classifyPreview tags a preview by keyword urgency; an unread preview
// with no keyword hit is still at least medium.
func classifyPreview(text string, unread bool) string {
	lower := strings.ToLower(text)
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			return PriorityHigh
		}
	}
	for _, kw := range mediumPriorityKeywords {
		if strings.Contains(lower, kw) {
			return PriorityMedium
		}
	}
	if unread {
		return PriorityMedium
	}
	return PriorityLow
}
