package care

import (
	"context"

	"github.com/wellmind/care-service/internal/model"
)

// GetUserProfile returns the client profile for a user id.
func (s *Store) GetUserProfile(ctx context.Context, id string) (model.UserProfile, error) {
	p, ok, err := getValue[model.UserProfile](ctx, s.kv, userProfileKey(id))
	if err != nil {
		return model.UserProfile{}, err
	}
	if !ok {
		return model.UserProfile{}, &NotFoundError{Resource: "user profile", ID: id}
	}
	return p, nil
}

// PutUserProfile saves a client profile.
func (s *Store) PutUserProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	if p.ID == "" {
		return model.UserProfile{}, &ValidationError{Field: "id", Message: "required"}
	}
	p.UpdatedAt = s.now()
	if err := s.put(ctx, []string{userProfileKey(p.ID)}, nil, p); err != nil {
		return model.UserProfile{}, err
	}
	return p, nil
}

// GetTherapistProfile returns the therapist profile for a user id.
func (s *Store) GetTherapistProfile(ctx context.Context, id string) (model.TherapistProfile, error) {
	p, ok, err := getValue[model.TherapistProfile](ctx, s.kv, therapistProfileKey(id))
	if err != nil {
		return model.TherapistProfile{}, err
	}
	if !ok {
		return model.TherapistProfile{}, &NotFoundError{Resource: "therapist profile", ID: id}
	}
	return p, nil
}

// PutTherapistProfile saves a therapist profile.
func (s *Store) PutTherapistProfile(ctx context.Context, p model.TherapistProfile) (model.TherapistProfile, error) {
	if p.ID == "" {
		return model.TherapistProfile{}, &ValidationError{Field: "id", Message: "required"}
	}
	p.UpdatedAt = s.now()
	if err := s.put(ctx, []string{therapistProfileKey(p.ID)}, nil, p); err != nil {
		return model.TherapistProfile{}, err
	}
	return p, nil
}

// ListTherapists returns every therapist profile, in id order.
func (s *Store) ListTherapists(ctx context.Context) ([]model.TherapistProfile, error) {
	return scanValues[model.TherapistProfile](ctx, s.kv, prefixTherapistProfile)
}

// userProfiles batch-loads client profiles. Missing profiles are simply
// absent from the result; the views that join on profiles degrade to
// placeholder names rather than failing.
func (s *Store) userProfiles(ctx context.Context, ids []string) (map[string]model.UserProfile, error) {
	out := make(map[string]model.UserProfile, len(ids))
	for _, id := range ids {
		if _, done := out[id]; done {
			continue
		}
		p, ok, err := getValue[model.UserProfile](ctx, s.kv, userProfileKey(id))
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = p
		}
	}
	return out, nil
}
