package care

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/wellmind/care-service/internal/model"
)

// CreateNotification stores a notification for the user. Notifications
// are only ever read per user, so they live under a single key.
func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	if n.UserID == "" {
		return model.Notification{}, &ValidationError{Field: "userId", Message: "required"}
	}
	if n.Title == "" {
		return model.Notification{}, &ValidationError{Field: "title", Message: "required"}
	}
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = s.now()
	if err := s.put(ctx, []string{notificationKey(n.UserID, n.ID)}, nil, n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	items, err := scanValues[model.Notification](ctx, s.kv, prefixNotification+userID+":")
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// MarkNotificationRead marks one notification read.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) (model.Notification, error) {
	n, ok, err := getValue[model.Notification](ctx, s.kv, notificationKey(userID, id))
	if err != nil {
		return model.Notification{}, err
	}
	if !ok {
		return model.Notification{}, &NotFoundError{Resource: "notification", ID: id}
	}
	n.Read = true
	if err := s.put(ctx, []string{notificationKey(userID, id)}, nil, n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// MarkAllNotificationsRead marks every unread notification read and
// returns how many were flipped.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	items, err := scanValues[model.Notification](ctx, s.kv, prefixNotification+userID+":")
	if err != nil {
		return 0, err
	}
	flipped := 0
	for _, n := range items {
		if n.Read {
			continue
		}
		n.Read = true
		if err := s.put(ctx, []string{notificationKey(userID, n.ID)}, nil, n); err != nil {
			return flipped, err
		}
		flipped++
	}
	return flipped, nil
}

// DeleteNotification removes one notification.
func (s *Store) DeleteNotification(ctx context.Context, userID, id string) error {
	data, err := s.kv.Get(ctx, notificationKey(userID, id))
	if err != nil {
		return err
	}
	if data == nil {
		return &NotFoundError{Resource: "notification", ID: id}
	}
	return s.kv.Delete(ctx, notificationKey(userID, id))
}

// ClearNotifications removes every notification for the user.
func (s *Store) ClearNotifications(ctx context.Context, userID string) (int, error) {
	pairs, err := s.kv.ScanPrefix(ctx, prefixNotification+userID+":")
	if err != nil {
		return 0, err
	}
	for i, p := range pairs {
		if err := s.kv.Delete(ctx, p.Key); err != nil {
			return i, err
		}
	}
	return len(pairs), nil
}
