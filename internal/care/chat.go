package care

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wellmind/care-service/internal/model"
)

// SendMessage appends a message to the client/therapist conversation,
// creating the conversation on first contact. The conversation metadata
// (last message, time, sender) is updated in the same call; a metadata
// write failure fails the send so list views never trail the messages
// silently.
func (s *Store) SendMessage(ctx context.Context, userID, therapistID string, sender model.Sender, text string) (model.Message, error) {
	if text == "" {
		return model.Message{}, &ValidationError{Field: "text", Message: "required"}
	}
	if sender != model.SenderUser && sender != model.SenderTherapist {
		return model.Message{}, &ValidationError{Field: "sender", Message: "must be user or therapist"}
	}
	cid, err := ConversationID(userID, therapistID)
	if err != nil {
		return model.Message{}, err
	}

	conv, ok, err := getValue[model.Conversation](ctx, s.kv, conversationKey(cid))
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		conv = model.Conversation{
			ID:          cid,
			UserID:      userID,
			TherapistID: therapistID,
			CreatedAt:   s.now(),
		}
	}

	msg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: cid,
		UserID:         userID,
		TherapistID:    therapistID,
		Text:           text,
		Sender:         sender,
		Timestamp:      s.now(),
	}
	if err := s.put(ctx, []string{messageKey(cid, msg.ID)}, nil, msg); err != nil {
		return model.Message{}, err
	}

	conv.LastMessage = text
	conv.LastMessageTime = msg.Timestamp
	conv.LastSender = sender
	if err := s.put(ctx, []string{conversationKey(cid)}, nil, conv); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// GetConversation returns the conversation between a client and therapist.
func (s *Store) GetConversation(ctx context.Context, userID, therapistID string) (model.Conversation, error) {
	cid, err := ConversationID(userID, therapistID)
	if err != nil {
		return model.Conversation{}, err
	}
	conv, ok, err := getValue[model.Conversation](ctx, s.kv, conversationKey(cid))
	if err != nil {
		return model.Conversation{}, err
	}
	if !ok {
		return model.Conversation{}, &NotFoundError{Resource: "conversation", ID: cid}
	}
	return conv, nil
}

// ListMessages returns a conversation's messages in ascending time order.
// A positive limit keeps only the most recent messages.
func (s *Store) ListMessages(ctx context.Context, userID, therapistID string, limit int) ([]model.Message, error) {
	cid, err := ConversationID(userID, therapistID)
	if err != nil {
		return nil, err
	}
	msgs, err := scanValues[model.Message](ctx, s.kv, prefixMessage+cid+":")
	if err != nil {
		return nil, err
	}
	// Message keys embed random ids, so key order is not time order.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ListConversations returns every conversation the participant is part
// of, most recent activity first. Conversations with no messages yet sort
// by creation time.
func (s *Store) ListConversations(ctx context.Context, participantID string) ([]model.Conversation, error) {
	all, err := scanValues[model.Conversation](ctx, s.kv, prefixConversation)
	if err != nil {
		return nil, err
	}
	var mine []model.Conversation
	for _, c := range all {
		if c.UserID == participantID || c.TherapistID == participantID {
			mine = append(mine, c)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return lastActivity(mine[i]).After(lastActivity(mine[j]))
	})
	return mine, nil
}

// MarkConversationRead marks every unread message sent by the other party
// as read, and returns how many were flipped. Re-reading an already-read
// conversation is a no-op.
func (s *Store) MarkConversationRead(ctx context.Context, userID, therapistID string, reader model.Sender) (int, error) {
	cid, err := ConversationID(userID, therapistID)
	if err != nil {
		return 0, err
	}
	msgs, err := scanValues[model.Message](ctx, s.kv, prefixMessage+cid+":")
	if err != nil {
		return 0, err
	}
	flipped := 0
	for _, m := range msgs {
		if m.IsRead || m.Sender == reader {
			continue
		}
		m.IsRead = true
		if err := s.put(ctx, []string{messageKey(cid, m.ID)}, nil, m); err != nil {
			return flipped, err
		}
		flipped++
	}
	return flipped, nil
}

// ArchiveConversation sets the archived flag. Archived conversations drop
// out of the inbox but keep their messages.
func (s *Store) ArchiveConversation(ctx context.Context, userID, therapistID string, archived bool) (model.Conversation, error) {
	conv, err := s.GetConversation(ctx, userID, therapistID)
	if err != nil {
		return model.Conversation{}, err
	}
	conv.Archived = archived
	if err := s.put(ctx, []string{conversationKey(conv.ID)}, nil, conv); err != nil {
		return model.Conversation{}, err
	}
	return conv, nil
}

func lastActivity(c model.Conversation) time.Time {
	if !c.LastMessageTime.IsZero() {
		return c.LastMessageTime
	}
	return c.CreatedAt
}
