package care

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/wellmind/care-service/internal/model"
)

// CreateClientNote stores a therapist's private note about a client.
func (s *Store) CreateClientNote(ctx context.Context, n model.ClientNote) (model.ClientNote, error) {
	if n.TherapistID == "" {
		return model.ClientNote{}, &ValidationError{Field: "therapistId", Message: "required"}
	}
	if n.ClientID == "" {
		return model.ClientNote{}, &ValidationError{Field: "clientId", Message: "required"}
	}
	if n.Text == "" {
		return model.ClientNote{}, &ValidationError{Field: "text", Message: "required"}
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()
	if err := s.put(ctx, []string{clientNoteKey(n.TherapistID, n.ID)}, nil, n); err != nil {
		return model.ClientNote{}, err
	}
	return n, nil
}

// ListClientNotes returns a therapist's notes, newest first. A non-empty
// clientID narrows the result to one client.
func (s *Store) ListClientNotes(ctx context.Context, therapistID, clientID string) ([]model.ClientNote, error) {
	notes, err := scanValues[model.ClientNote](ctx, s.kv, prefixClientNote+therapistID+":")
	if err != nil {
		return nil, err
	}
	if clientID != "" {
		filtered := notes[:0]
		for _, n := range notes {
			if n.ClientID == clientID {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}
