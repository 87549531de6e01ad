package care

import (
	"context"

	"github.com/google/uuid"

	"github.com/wellmind/care-service/internal/model"
)

// CreateSession schedules a session. The record fans out to its primary
// key plus the therapist and client date-indexed keys.
func (s *Store) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.TherapistID == "" {
		return model.Session{}, &ValidationError{Field: "therapistId", Message: "required"}
	}
	if sess.ClientID == "" {
		return model.Session{}, &ValidationError{Field: "clientId", Message: "required"}
	}
	if sess.Date == "" {
		return model.Session{}, &ValidationError{Field: "date", Message: "required"}
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Status == "" {
		sess.Status = model.SessionStatusPending
	}
	now := s.now()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if err := s.put(ctx, sessionKeys(sess), nil, sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (model.Session, error) {
	sess, ok, err := getValue[model.Session](ctx, s.kv, sessionKey(id))
	if err != nil {
		return model.Session{}, err
	}
	if !ok {
		return model.Session{}, &NotFoundError{Resource: "session", ID: id}
	}
	return sess, nil
}

// SessionUpdate holds the mutable session fields. Nil fields are left
// unchanged.
type SessionUpdate struct {
	Date     *string
	Time     *string
	Duration *int
	Type     *string
	Status   *model.SessionStatus
	Notes    *string
}

// UpdateSession applies an update. A date change moves the record's
// index keys: the new keys are written first, then the old-date keys are
// deleted, so the session is never lost from both dimensions at once.
func (s *Store) UpdateSession(ctx context.Context, id string, upd SessionUpdate) (model.Session, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	oldKeys := sessionKeys(sess)

	if upd.Date != nil {
		if *upd.Date == "" {
			return model.Session{}, &ValidationError{Field: "date", Message: "required"}
		}
		sess.Date = *upd.Date
	}
	if upd.Time != nil {
		sess.Time = *upd.Time
	}
	if upd.Duration != nil {
		sess.Duration = *upd.Duration
	}
	if upd.Type != nil {
		sess.Type = *upd.Type
	}
	if upd.Status != nil {
		sess.Status = *upd.Status
	}
	if upd.Notes != nil {
		sess.Notes = *upd.Notes
	}
	sess.UpdatedAt = s.now()

	keys := sessionKeys(sess)
	if err := s.put(ctx, keys, staleKeys(oldKeys, keys), sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// DeleteSession removes a session from all of its keys.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, sessionKeys(sess))
}

// ListTherapistSessions returns a therapist's sessions in date order.
// A non-empty date narrows the scan to that day.
func (s *Store) ListTherapistSessions(ctx context.Context, therapistID, date string) ([]model.Session, error) {
	prefix := prefixTherapistSession + therapistID + ":"
	if date != "" {
		prefix += date + ":"
	}
	return scanValues[model.Session](ctx, s.kv, prefix)
}

// ListClientSessions returns a client's sessions in date order.
func (s *Store) ListClientSessions(ctx context.Context, clientID, date string) ([]model.Session, error) {
	prefix := prefixClientSession + clientID + ":"
	if date != "" {
		prefix += date + ":"
	}
	return scanValues[model.Session](ctx, s.kv, prefix)
}
