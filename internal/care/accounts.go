package care

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wellmind/care-service/internal/model"
)

type authToken struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignUp creates a user account. The user record fans out to its id key
// and the email lookup key.
func (s *Store) SignUp(ctx context.Context, email, name, password string, userType model.UserType) (model.User, error) {
	if email == "" {
		return model.User{}, &ValidationError{Field: "email", Message: "required"}
	}
	if password == "" {
		return model.User{}, &ValidationError{Field: "password", Message: "required"}
	}
	if userType != model.UserTypeClient && userType != model.UserTypeTherapist {
		return model.User{}, &ValidationError{Field: "userType", Message: "must be client or therapist"}
	}

	existing, err := s.kv.Get(ctx, userEmailKey(email))
	if err != nil {
		return model.User{}, err
	}
	if existing != nil {
		return model.User{}, &ConflictError{Message: "email already registered"}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}
	now := s.now()
	u := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		UserType:     userType,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.put(ctx, userKeys(u), nil, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// SignIn verifies credentials and issues a bearer token.
func (s *Store) SignIn(ctx context.Context, email, password string) (model.User, string, error) {
	u, ok, err := getValue[model.User](ctx, s.kv, userEmailKey(email))
	if err != nil {
		return model.User{}, "", err
	}
	if !ok || s.hasher.Compare(u.PasswordHash, password) != nil {
		return model.User{}, "", &ValidationError{Field: "credentials", Message: "invalid email or password"}
	}
	token := uuid.NewString()
	if err := s.put(ctx, []string{authTokenKey(token)}, nil, authToken{UserID: u.ID, CreatedAt: s.now()}); err != nil {
		return model.User{}, "", err
	}
	return u, token, nil
}

// SignOut revokes a bearer token. Unknown tokens are a no-op.
func (s *Store) SignOut(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, authTokenKey(token))
}

// ResolveToken maps a bearer token to a user id. Unknown tokens resolve
// to an empty id with no error.
func (s *Store) ResolveToken(ctx context.Context, token string) (string, error) {
	t, ok, err := getValue[authToken](ctx, s.kv, authTokenKey(token))
	if err != nil || !ok {
		return "", err
	}
	return t.UserID, nil
}

// GetUser returns the user record by id.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	u, ok, err := getValue[model.User](ctx, s.kv, userKey(id))
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, &NotFoundError{Resource: "user", ID: id}
	}
	return u, nil
}

// UpdateUser applies name and email changes. An email change changes the
// user's key set: the record is rewritten under the new email key and the
// old email key is deleted in the same fan-out.
func (s *Store) UpdateUser(ctx context.Context, id string, name, email *string) (model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	oldKeys := userKeys(u)

	if name != nil {
		u.Name = *name
	}
	if email != nil && *email != u.Email {
		if *email == "" {
			return model.User{}, &ValidationError{Field: "email", Message: "required"}
		}
		taken, err := s.kv.Get(ctx, userEmailKey(*email))
		if err != nil {
			return model.User{}, err
		}
		if taken != nil {
			return model.User{}, &ConflictError{Message: "email already registered"}
		}
		u.Email = *email
		u.Verified = false
	}
	u.UpdatedAt = s.now()

	keys := userKeys(u)
	if err := s.put(ctx, keys, staleKeys(oldKeys, keys), u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// DeleteUser removes the account and everything keyed to it: outstanding
// codes, notifications, profiles, and settings first, then the user's own
// key set through remove, primary last, so a failed fan-out stays
// repairable from the primary key.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	for _, prefix := range []string{prefixVerifyCode, prefixResetCode} {
		pairs, err := s.kv.ScanPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			var code struct {
				UserID string `json:"userId"`
			}
			if json.Unmarshal(p.Value, &code) == nil && code.UserID == id {
				if err := s.kv.Delete(ctx, p.Key); err != nil {
					return err
				}
			}
		}
	}

	if _, err := s.ClearNotifications(ctx, id); err != nil {
		return err
	}
	for _, key := range []string{userProfileKey(id), therapistProfileKey(id), userSettingsKey(id)} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	return s.remove(ctx, userKeys(u))
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Store) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if s.hasher.Compare(u.PasswordHash, current) != nil {
		return &ValidationError{Field: "currentPassword", Message: "incorrect"}
	}
	if next == "" {
		return &ValidationError{Field: "newPassword", Message: "required"}
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	return s.put(ctx, userKeys(u), nil, u)
}

// CreateVerificationCode issues an email verification code for the user.
func (s *Store) CreateVerificationCode(ctx context.Context, userID string, ttl time.Duration) (model.VerificationCode, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return model.VerificationCode{}, err
	}
	code := model.VerificationCode{
		Code:      uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: s.now().Add(ttl),
		CreatedAt: s.now(),
	}
	if err := s.put(ctx, []string{verifyCodeKey(code.Code)}, nil, code); err != nil {
		return model.VerificationCode{}, err
	}
	return code, nil
}

// VerifyEmail consumes a verification code and marks the user verified.
// Expired codes are deleted and reported as not found.
func (s *Store) VerifyEmail(ctx context.Context, code string) (model.User, error) {
	vc, ok, err := getValue[model.VerificationCode](ctx, s.kv, verifyCodeKey(code))
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, &NotFoundError{Resource: "verification code", ID: code}
	}
	if s.now().After(vc.ExpiresAt) {
		_ = s.kv.Delete(ctx, verifyCodeKey(code))
		return model.User{}, &NotFoundError{Resource: "verification code", ID: code}
	}
	u, err := s.GetUser(ctx, vc.UserID)
	if err != nil {
		return model.User{}, err
	}
	u.Verified = true
	u.UpdatedAt = s.now()
	if err := s.put(ctx, userKeys(u), nil, u); err != nil {
		return model.User{}, err
	}
	return u, s.kv.Delete(ctx, verifyCodeKey(code))
}

// CreateResetCode issues a password reset code for the account with the
// given email.
func (s *Store) CreateResetCode(ctx context.Context, email string, ttl time.Duration) (model.VerificationCode, error) {
	u, ok, err := getValue[model.User](ctx, s.kv, userEmailKey(email))
	if err != nil {
		return model.VerificationCode{}, err
	}
	if !ok {
		return model.VerificationCode{}, &NotFoundError{Resource: "user", ID: email}
	}
	code := model.VerificationCode{
		Code:      uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: s.now().Add(ttl),
		CreatedAt: s.now(),
	}
	if err := s.put(ctx, []string{resetCodeKey(code.Code)}, nil, code); err != nil {
		return model.VerificationCode{}, err
	}
	return code, nil
}

// ResetPassword consumes a reset code and stores a new password hash.
func (s *Store) ResetPassword(ctx context.Context, code, next string) error {
	rc, ok, err := getValue[model.VerificationCode](ctx, s.kv, resetCodeKey(code))
	if err != nil {
		return err
	}
	if !ok || s.now().After(rc.ExpiresAt) {
		if ok {
			_ = s.kv.Delete(ctx, resetCodeKey(code))
		}
		return &NotFoundError{Resource: "reset code", ID: code}
	}
	if next == "" {
		return &ValidationError{Field: "newPassword", Message: "required"}
	}
	u, err := s.GetUser(ctx, rc.UserID)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	if err := s.put(ctx, userKeys(u), nil, u); err != nil {
		return err
	}
	return s.kv.Delete(ctx, resetCodeKey(code))
}

// GetSettings returns the user's settings, or defaults when none were saved.
func (s *Store) GetSettings(ctx context.Context, userID string) (model.UserSettings, error) {
	settings, ok, err := getValue[model.UserSettings](ctx, s.kv, userSettingsKey(userID))
	if err != nil {
		return model.UserSettings{}, err
	}
	if !ok {
		return model.UserSettings{
			UserID:             userID,
			EmailNotifications: true,
			PushNotifications:  true,
			ReminderHours:      24,
		}, nil
	}
	return settings, nil
}

// PutSettings saves the user's settings.
func (s *Store) PutSettings(ctx context.Context, settings model.UserSettings) error {
	if settings.UserID == "" {
		return &ValidationError{Field: "userId", Message: "required"}
	}
	settings.UpdatedAt = s.now()
	return s.put(ctx, []string{userSettingsKey(settings.UserID)}, nil, settings)
}
